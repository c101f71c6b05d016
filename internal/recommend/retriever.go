package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/sakif/culinary-compass/internal/apperror"
	"github.com/sakif/culinary-compass/internal/metrics"
	"github.com/sakif/culinary-compass/internal/model"
	"github.com/sakif/culinary-compass/internal/placesearch"
	"github.com/sakif/culinary-compass/internal/repository"
)

// PlaceSearcher is the part of the provider client the retriever needs.
type PlaceSearcher interface {
	Search(ctx context.Context, req placesearch.SearchRequest) ([]placesearch.Place, error)
}

// Retriever finds candidate venues near a point and ingests the ones not
// yet stored.
type Retriever struct {
	places PlaceSearcher
	venues repository.VenueRepository
	limit  int
	ignore []string
	logger *slog.Logger
}

func NewRetriever(places PlaceSearcher, venues repository.VenueRepository, cfg Config, logger *slog.Logger) *Retriever {
	return &Retriever{
		places: places,
		venues: venues,
		limit:  cfg.SearchLimit,
		ignore: cfg.IgnoredSections,
		logger: logger,
	}
}

// Retrieve runs one provider search and returns every returned venue id in
// provider order, known or not. Unknown venues are written to storage in one
// batch before returning.
//
// Candidates form a set: an id the provider lists twice keeps its first
// position only. Appending it again would score the same venue twice and
// return it twice to the caller.
//
// A provider failure is returned as an apperror.ErrUpstream error, never as
// an empty list.
func (r *Retriever) Retrieve(ctx context.Context, coords model.Coordinates, categories []model.Category, radiusKm float64) ([]string, error) {
	req := placesearch.SearchRequest{
		Coordinates:  coords,
		RadiusMeters: int(math.Round(radiusKm * 1000)),
		CategoryIDs:  categoryIDs(categories),
		Limit:        r.limit,
	}

	places, err := r.places.Search(ctx, req)
	if err != nil {
		return nil, UpstreamError(err)
	}

	ids := make([]string, 0, len(places))
	byID := make(map[string]placesearch.Place, len(places))
	for _, p := range places {
		if _, dup := byID[p.ID]; dup {
			continue
		}
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	known, err := r.venues.ExistingVenueIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("checking known venues: %w", err)
	}

	var batch []model.VenueRecord
	for _, id := range ids {
		if known[id] {
			continue
		}
		batch = append(batch, BuildRecord(byID[id], r.ignore))
	}

	if len(batch) > 0 {
		n, err := r.venues.SaveVenues(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("ingesting venues: %w", err)
		}
		metrics.VenuesIngested.Add(float64(n))
		r.logger.Info("venues ingested",
			slog.Int("new", n),
			slog.Int("candidates", len(ids)),
		)
	}

	return ids, nil
}

// categoryIDs returns the distinct category ids in order.
func categoryIDs(categories []model.Category) []string {
	seen := make(map[string]bool, len(categories))
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		if c.ID == "" || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c.ID)
	}
	return out
}

// UpstreamError labels a place search failure as apperror.ErrUpstream.
// Cancellation by the caller is passed through unchanged.
func UpstreamError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, placesearch.ErrMalformedResponse) {
		return apperror.Upstream("place search returned malformed data", err, false)
	}
	return apperror.Upstream("place search failed", err, placesearch.IsTemporary(err))
}
