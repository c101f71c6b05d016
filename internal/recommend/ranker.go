package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/sakif/culinary-compass/internal/attribute"
	"github.com/sakif/culinary-compass/internal/repository"
)

// Scored is one ranked candidate.
type Scored struct {
	VenueID    string  `json:"venueId"`
	Similarity float64 `json:"similarity"`
}

// Ranker orders candidates by similarity to a preference vector.
type Ranker struct {
	venues repository.VenueRepository
}

func NewRanker(venues repository.VenueRepository) *Ranker {
	return &Ranker{venues: venues}
}

// Rank scores every candidate and returns them by descending similarity.
// Equal scores keep input order. The output has exactly the input's ids;
// a candidate without a profile scores against the zero vector.
func (r *Ranker) Rank(ctx context.Context, candidates []string, prefs attribute.Vector) ([]Scored, error) {
	profiles, err := r.venues.Profiles(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("loading candidate profiles: %w", err)
	}

	keys := prefs.Keys()
	out := make([]Scored, len(candidates))
	for i, id := range candidates {
		vec := profiles[id].Attributes.Vector(keys)
		out[i] = Scored{VenueID: id, Similarity: CosineSimilarity(prefs, vec, keys)}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	return out, nil
}

// CosineSimilarity is dot(u,v) / (|u| |v|) over keys. It is 0 when either
// vector has zero norm.
func CosineSimilarity(u, v attribute.Vector, keys []attribute.Attribute) float64 {
	var dot, nu, nv float64
	for _, k := range keys {
		a, b := u[k], v[k]
		dot += a * b
		nu += a * a
		nv += b * b
	}
	if nu == 0 || nv == 0 {
		return 0
	}
	return dot / (math.Sqrt(nu) * math.Sqrt(nv))
}
