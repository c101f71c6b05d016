package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/culinary-compass/internal/apperror"
	"github.com/sakif/culinary-compass/internal/model"
	"github.com/sakif/culinary-compass/internal/repository"
	"github.com/sakif/culinary-compass/internal/validation"
)

const (
	DefaultHistoryLimit = 5
	MaxHistoryLimit     = 100
)

// DateLayout is the wire format of visit dates.
const DateLayout = time.DateOnly

// VisitService records venue visits and lists a user's history.
type VisitService struct {
	visits    repository.VisitRepository
	venues    repository.VenueRepository
	minRating int
	logger    *slog.Logger
	now       func() time.Time
}

// NewVisitService returns a VisitService. minRating is the rating a visit
// needs to count toward recommendations.
func NewVisitService(
	visits repository.VisitRepository,
	venues repository.VenueRepository,
	minRating int,
	logger *slog.Logger,
) *VisitService {
	return &VisitService{
		visits:    visits,
		venues:    venues,
		minRating: minRating,
		logger:    logger,
		now:       time.Now,
	}
}

// VisitInput is a visit as submitted. VisitedOn is a YYYY-MM-DD date and
// defaults to today.
type VisitInput struct {
	VenueID   string `json:"venueId"   validate:"required"`
	VisitedOn string `json:"visitedOn" validate:"omitempty,datetime=2006-01-02"`
	Rating    int    `json:"rating"    validate:"required,min=1,max=5"`
}

// Record appends a visit by userID. The venue must already be stored.
func (s *VisitService) Record(ctx context.Context, userID string, in VisitInput) (*model.VenueVisit, error) {
	in.VenueID = strings.TrimSpace(in.VenueID)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	visitedOn := today
	if in.VisitedOn != "" {
		d, err := time.Parse(DateLayout, in.VisitedOn)
		if err != nil {
			return nil, apperror.ValidationFailed("visitedOn", "visitedOn must be a YYYY-MM-DD date")
		}
		if d.After(today) {
			return nil, apperror.ValidationFailed("visitedOn", "visitedOn must not be in the future")
		}
		visitedOn = d
	}

	if _, err := s.venues.GetVenue(ctx, in.VenueID); err != nil {
		return nil, fmt.Errorf("service/visit: %w", err)
	}

	visit := &model.VenueVisit{
		UserID:    userID,
		VenueID:   in.VenueID,
		VisitedOn: visitedOn,
		Rating:    in.Rating,
	}
	if err := s.visits.CreateVisit(ctx, visit); err != nil {
		return nil, fmt.Errorf("service/visit: recording visit: %w", err)
	}

	s.logger.Info("visit recorded",
		slog.String("user_id", userID),
		slog.String("venue_id", visit.VenueID),
		slog.Int("rating", visit.Rating),
	)
	return visit, nil
}

// History returns userID's visits, newest first. The limit is clamped to
// [1, MaxHistoryLimit] with DefaultHistoryLimit for zero or negative values.
func (s *VisitService) History(ctx context.Context, userID string, opts repository.ListOptions) ([]model.VisitWithVenue, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultHistoryLimit
	}
	if opts.Limit > MaxHistoryLimit {
		opts.Limit = MaxHistoryLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	opts.Query = strings.TrimSpace(opts.Query)

	rows, err := s.visits.ListHistory(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("service/visit: listing history: %w", err)
	}
	return rows, nil
}

// HasQualifyingHistory reports whether userID has a visit rated at least
// the configured minimum.
func (s *VisitService) HasQualifyingHistory(ctx context.Context, userID string) (bool, error) {
	ok, err := s.visits.HasRated(ctx, userID, s.minRating)
	if err != nil {
		return false, fmt.Errorf("service/visit: %w", err)
	}
	return ok, nil
}
