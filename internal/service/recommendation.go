package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/culinary-compass/internal/apperror"
	"github.com/sakif/culinary-compass/internal/model"
	"github.com/sakif/culinary-compass/internal/recommend"
	"github.com/sakif/culinary-compass/internal/repository"
)

// Recommender runs the recommendation pipeline.
type Recommender interface {
	GenerateScored(ctx context.Context, userID, coordinates string, radiusKm float64) ([]recommend.Scored, error)
}

// RecommendationService checks a caller is ready for recommendations, runs
// the engine and resolves the ranked ids to venues.
type RecommendationService struct {
	engine        Recommender
	visits        *VisitService
	venues        repository.VenueRepository
	defaultRadius float64
	logger        *slog.Logger
}

func NewRecommendationService(
	engine Recommender,
	visits *VisitService,
	venues repository.VenueRepository,
	defaultRadiusKm float64,
	logger *slog.Logger,
) *RecommendationService {
	return &RecommendationService{
		engine:        engine,
		visits:        visits,
		venues:        venues,
		defaultRadius: defaultRadiusKm,
		logger:        logger,
	}
}

// RecommendInput is a request for recommendations. A zero RadiusKm means
// the configured default.
type RecommendInput struct {
	Coordinates string  `json:"coordinates"`
	RadiusKm    float64 `json:"radiusKm"`
}

// Recommendation is one ranked venue.
type Recommendation struct {
	Venue      model.Venue `json:"venue"`
	Similarity float64     `json:"similarity"`
}

// Recommend returns venues near the caller's coordinates, best match first.
// A caller with no location or no qualifying visit gets apperror.ErrNotReady
// and the provider is not contacted.
func (s *RecommendationService) Recommend(ctx context.Context, userID string, in RecommendInput) ([]Recommendation, error) {
	if strings.TrimSpace(in.Coordinates) == "" {
		return nil, apperror.NotReady("coordinates", "a location is required to generate recommendations")
	}
	ready, err := s.visits.HasQualifyingHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ready {
		return nil, apperror.NotReady("visits",
			fmt.Sprintf("rate at least one visit %d or higher to get recommendations", s.visits.minRating))
	}

	radius := in.RadiusKm
	if radius == 0 {
		radius = s.defaultRadius
	}

	scored, err := s.engine.GenerateScored(ctx, userID, in.Coordinates, radius)
	if err != nil {
		return nil, err
	}
	if len(scored) == 0 {
		return []Recommendation{}, nil
	}

	ids := make([]string, len(scored))
	for i, sc := range scored {
		ids[i] = sc.VenueID
	}
	venues, err := s.venues.VenuesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("service/recommendation: resolving venues: %w", err)
	}

	out := make([]Recommendation, 0, len(scored))
	for _, sc := range scored {
		v, ok := venues[sc.VenueID]
		if !ok {
			// Ingestion runs before ranking, so every candidate is stored.
			s.logger.Warn("ranked venue missing from storage", slog.String("venue_id", sc.VenueID))
			continue
		}
		out = append(out, Recommendation{Venue: v, Similarity: sc.Similarity})
	}
	return out, nil
}
