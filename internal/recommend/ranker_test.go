package recommend

import (
	"context"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/culinary-compass/internal/attribute"
	"github.com/sakif/culinary-compass/internal/model"
)

func TestCosineSimilarity(t *testing.T) {
	keys := []attribute.Attribute{attribute.Wine, attribute.Dinner, attribute.Noisy}

	tests := []struct {
		name string
		u, v attribute.Vector
		want float64
	}{
		{
			name: "identical",
			u:    attribute.Vector{attribute.Wine: 1, attribute.Dinner: 0.5},
			v:    attribute.Vector{attribute.Wine: 1, attribute.Dinner: 0.5},
			want: 1,
		},
		{
			name: "orthogonal",
			u:    attribute.Vector{attribute.Wine: 1},
			v:    attribute.Vector{attribute.Dinner: 1},
			want: 0,
		},
		{
			name: "zero candidate",
			u:    attribute.Vector{attribute.Wine: 1},
			v:    attribute.Vector{},
			want: 0,
		},
		{
			name: "zero preference",
			u:    attribute.Vector{},
			v:    attribute.Vector{attribute.Wine: 1},
			want: 0,
		},
		{
			name: "partial overlap",
			u:    attribute.Vector{attribute.Wine: 1, attribute.Dinner: 1},
			v:    attribute.Vector{attribute.Wine: 1},
			want: 1 / math.Sqrt2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.u, tt.v, keys), 1e-12)
		})
	}
}

func TestCosineSimilarity_ScaleInvariant(t *testing.T) {
	keys := attribute.All()
	prefs := attribute.Vector{attribute.Wine: 0.5, attribute.Dinner: 1, attribute.Noisy: 0.3}
	a := attribute.Vector{attribute.Wine: 0.8, attribute.Dinner: 0.3}
	b := attribute.Vector{attribute.Noisy: 0.5, attribute.Dinner: 0.5}

	scaled := attribute.Vector{}
	for k, x := range a {
		scaled[k] = x * 0.25
	}

	sa := CosineSimilarity(prefs, a, keys)
	sb := CosineSimilarity(prefs, b, keys)
	ss := CosineSimilarity(prefs, scaled, keys)

	assert.InDelta(t, sa, ss, 1e-12)
	assert.Equal(t, sa > sb, ss > sb)
}

func TestRank(t *testing.T) {
	store := newMemStore()
	store.addVenue(model.Venue{ID: "plain"}, nil)
	store.addVenue(model.Venue{ID: "wine-bar"}, attribute.Profile{
		attribute.Wine:  attribute.Bool(true),
		attribute.Noisy: attribute.Qualitative(attribute.Great),
	})
	store.addVenue(model.Venue{ID: "vegan"}, attribute.Profile{
		attribute.VeganDiet: attribute.Qualitative(attribute.Great),
		attribute.Dinner:    attribute.Bool(true),
	})
	store.addVenue(model.Venue{ID: "vegan-2"}, attribute.Profile{
		attribute.VeganDiet: attribute.Qualitative(attribute.Great),
		attribute.Dinner:    attribute.Bool(true),
	})

	prefs := attribute.NewVector()
	prefs[attribute.VeganDiet] = 1
	prefs[attribute.Dinner] = 0.5

	candidates := []string{"plain", "wine-bar", "vegan", "vegan-2", "unknown"}
	scored, err := NewRanker(store).Rank(context.Background(), candidates, prefs)
	require.NoError(t, err)

	got := make([]string, len(scored))
	for i, s := range scored {
		got[i] = s.VenueID
	}
	assert.Equal(t, []string{"vegan", "vegan-2", "plain", "wine-bar", "unknown"}, got,
		"best first, ties in input order")
	assert.Greater(t, scored[0].Similarity, 0.9)
	assert.Equal(t, 0.0, scored[4].Similarity)
}

func TestRank_IsPermutation(t *testing.T) {
	store := newMemStore()
	store.addVenue(model.Venue{ID: "a"}, attribute.Profile{attribute.Lunch: attribute.Bool(true)})
	store.addVenue(model.Venue{ID: "b"}, attribute.Profile{attribute.Dinner: attribute.Bool(true)})

	prefs := attribute.NewVector()
	prefs[attribute.Dinner] = 1

	candidates := []string{"a", "b", "a", "c", "b"}
	scored, err := NewRanker(store).Rank(context.Background(), candidates, prefs)
	require.NoError(t, err)
	require.Len(t, scored, len(candidates))

	got := make([]string, len(scored))
	for i, s := range scored {
		got[i] = s.VenueID
	}
	want := append([]string(nil), candidates...)
	sort.Strings(got)
	sort.Strings(want)
	assert.Equal(t, want, got)
}

func TestRank_Empty(t *testing.T) {
	scored, err := NewRanker(newMemStore()).Rank(context.Background(), nil, attribute.NewVector())
	require.NoError(t, err)
	assert.Empty(t, scored)
}
