// Package recommend turns a user's rated visits into an ordered list of
// nearby venues.
//
// The pipeline has three stages, all run within one call:
//
//	Extractor  visits + survey        -> top categories, preference vector
//	Retriever  coordinates + category -> candidate venue ids (ingesting new ones)
//	Ranker     candidates + vector    -> candidates by cosine similarity
//
// Engine sequences them and checks the preconditions before the provider is
// called.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/culinary-compass/internal/apperror"
	"github.com/sakif/culinary-compass/internal/metrics"
	"github.com/sakif/culinary-compass/internal/model"
	"github.com/sakif/culinary-compass/internal/repository"
)

// Config tunes the pipeline.
type Config struct {
	// MinRating is the lowest rating that counts as an endorsement.
	MinRating int
	// TopCategories is how many categories feed the provider filter.
	TopCategories int
	// SearchLimit caps the provider's result count.
	SearchLimit     int
	IgnoredSections []string
	MinRadiusKm     float64
	MaxRadiusKm     float64
}

func DefaultConfig() Config {
	return Config{
		MinRating:       3,
		TopCategories:   5,
		SearchLimit:     10,
		IgnoredSections: DefaultIgnoredSections,
		MinRadiusKm:     1,
		MaxRadiusKm:     30,
	}
}

// Engine generates recommendations.
type Engine struct {
	users     repository.UserRepository
	extractor *Extractor
	retriever *Retriever
	ranker    *Ranker
	cfg       Config
	logger    *slog.Logger
}

func NewEngine(
	users repository.UserRepository,
	visits repository.VisitRepository,
	venues repository.VenueRepository,
	places PlaceSearcher,
	cfg Config,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		users:     users,
		extractor: NewExtractor(visits, venues, cfg, logger),
		retriever: NewRetriever(places, venues, cfg, logger),
		ranker:    NewRanker(venues),
		cfg:       cfg,
		logger:    logger,
	}
}

// Generate returns candidate venue ids near coordinates ("lat,lng"), best
// match first.
func (e *Engine) Generate(ctx context.Context, userID, coordinates string, radiusKm float64) ([]string, error) {
	scored, err := e.GenerateScored(ctx, userID, coordinates, radiusKm)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(scored))
	for i, s := range scored {
		ids[i] = s.VenueID
	}
	return ids, nil
}

// GenerateScored is Generate with the similarity of each candidate.
//
// Missing coordinates and a user without qualifying visits are reported as
// apperror.ErrNotReady before the provider is contacted. A provider failure
// is reported as apperror.ErrUpstream.
func (e *Engine) GenerateScored(ctx context.Context, userID, coordinates string, radiusKm float64) ([]Scored, error) {
	scored, err := e.generate(ctx, userID, coordinates, radiusKm)
	metrics.RecordRecommendation(outcome(err), len(scored))
	return scored, err
}

func (e *Engine) generate(ctx context.Context, userID, coordinates string, radiusKm float64) ([]Scored, error) {
	if strings.TrimSpace(coordinates) == "" {
		return nil, apperror.NotReady("coordinates", "a location is required to generate recommendations")
	}
	coords, err := model.ParseCoordinates(coordinates)
	if err != nil {
		return nil, apperror.ValidationFailed("coordinates", err.Error())
	}
	if radiusKm < e.cfg.MinRadiusKm || radiusKm > e.cfg.MaxRadiusKm {
		return nil, apperror.ValidationFailed("radiusKm",
			fmt.Sprintf("radius must be between %g and %g km", e.cfg.MinRadiusKm, e.cfg.MaxRadiusKm))
	}

	user, err := e.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	prefs, err := e.extractor.Extract(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("extracting preferences: %w", err)
	}
	if prefs.QualifyingVisits == 0 {
		return nil, apperror.NotReady("visits",
			fmt.Sprintf("rate at least one visit %d or higher to get recommendations", e.cfg.MinRating))
	}

	candidates, err := e.retriever.Retrieve(ctx, coords, prefs.TopCategories, radiusKm)
	if err != nil {
		return nil, err
	}

	scored, err := e.ranker.Rank(ctx, candidates, prefs.Vector)
	if err != nil {
		return nil, fmt.Errorf("ranking candidates: %w", err)
	}

	e.logger.Info("recommendation generated",
		slog.String("user_id", userID),
		slog.Int("qualifying_visits", prefs.QualifyingVisits),
		slog.Int("categories", len(prefs.TopCategories)),
		slog.Int("candidates", len(scored)),
	)
	return scored, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperror.ErrNotReady):
		return "not_ready"
	case errors.Is(err, apperror.ErrUpstream):
		return "upstream_error"
	default:
		return "error"
	}
}
