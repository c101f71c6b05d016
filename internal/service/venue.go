package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/culinary-compass/internal/apperror"
	"github.com/sakif/culinary-compass/internal/attribute"
	"github.com/sakif/culinary-compass/internal/metrics"
	"github.com/sakif/culinary-compass/internal/model"
	"github.com/sakif/culinary-compass/internal/placesearch"
	"github.com/sakif/culinary-compass/internal/recommend"
	"github.com/sakif/culinary-compass/internal/repository"
	"github.com/sakif/culinary-compass/internal/validation"
)

// PlaceMatcher finds one venue by name near a point.
type PlaceMatcher interface {
	Match(ctx context.Context, req placesearch.MatchRequest) (*placesearch.Place, error)
}

// VenueService reads stored venues and adds single venues on demand, which
// is how a user records a visit to a place no search has returned yet.
type VenueService struct {
	venues repository.VenueRepository
	places PlaceMatcher
	ignore []string
	logger *slog.Logger
}

// NewVenueService returns a VenueService. ignore lists the feature sections
// dropped on ingestion, as for search results.
func NewVenueService(venues repository.VenueRepository, places PlaceMatcher, ignore []string, logger *slog.Logger) *VenueService {
	return &VenueService{venues: venues, places: places, ignore: ignore, logger: logger}
}

// VenueDetail is a venue with its attributes. Attributes is nil for venues
// the provider reported no vocabulary features for.
type VenueDetail struct {
	model.Venue
	Attributes attribute.Profile `json:"attributes"`
}

// MatchInput names a venue and where it is.
type MatchInput struct {
	Name        string `json:"name"        validate:"required,max=200"`
	Coordinates string `json:"coordinates" validate:"required"`
}

// Get returns the venue with its feature profile.
func (s *VenueService) Get(ctx context.Context, id string) (*VenueDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "venue ID is required")
	}

	v, err := s.venues.GetVenue(ctx, id)
	if err != nil {
		return nil, err
	}
	profiles, err := s.venues.Profiles(ctx, []string{id})
	if err != nil {
		return nil, fmt.Errorf("service/venue: loading profile of %s: %w", id, err)
	}

	d := &VenueDetail{Venue: *v}
	if p, ok := profiles[id]; ok {
		d.Attributes = p.Attributes
	}
	return d, nil
}

// Match asks the provider for the venue and stores it if it is new. A venue
// already stored is returned as stored. No provider match is
// apperror.ErrNotFound.
func (s *VenueService) Match(ctx context.Context, in MatchInput) (*VenueDetail, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	coords, err := model.ParseCoordinates(in.Coordinates)
	if err != nil {
		return nil, apperror.ValidationFailed("coordinates", err.Error())
	}

	place, err := s.places.Match(ctx, placesearch.MatchRequest{Name: in.Name, Coordinates: coords})
	if err != nil {
		if errors.Is(err, placesearch.ErrNoMatch) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: fmt.Sprintf("no venue named %q near %s", in.Name, coords),
			}
		}
		return nil, recommend.UpstreamError(err)
	}

	known, err := s.venues.ExistingVenueIDs(ctx, []string{place.ID})
	if err != nil {
		return nil, fmt.Errorf("service/venue: checking %s: %w", place.ID, err)
	}
	if !known[place.ID] {
		n, err := s.venues.SaveVenues(ctx, []model.VenueRecord{recommend.BuildRecord(*place, s.ignore)})
		if err != nil {
			return nil, fmt.Errorf("service/venue: ingesting %s: %w", place.ID, err)
		}
		metrics.VenuesIngested.Add(float64(n))
		s.logger.Info("venue ingested by match",
			slog.String("venue_id", place.ID),
			slog.String("name", place.Name),
		)
	}

	return s.Get(ctx, place.ID)
}
