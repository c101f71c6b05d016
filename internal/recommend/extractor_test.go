package recommend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/culinary-compass/internal/attribute"
	"github.com/sakif/culinary-compass/internal/model"
)

func newTestExtractor(store *memStore) *Extractor {
	return NewExtractor(store, store, DefaultConfig(), testLogger())
}

func TestExtract_NoQualifyingVisits(t *testing.T) {
	store := newMemStore()
	user := store.addUser(model.User{ID: "u1", Vegetarianism: model.Vegan, NoAlcohol: true})
	store.addVenue(model.Venue{ID: "v1", Category: "Pizza:13064"}, attribute.Profile{
		attribute.Wine: attribute.Bool(true),
	})
	store.addVisit("u1", "v1", 2)

	prefs, err := newTestExtractor(store).Extract(context.Background(), user)
	require.NoError(t, err)

	assert.Empty(t, prefs.TopCategories)
	assert.Equal(t, 0, prefs.QualifyingVisits)
	assert.Len(t, prefs.Vector, attribute.Len())
	assert.True(t, prefs.Vector.IsZero(), "vector must be all zero, got %v", prefs.Vector)
}

func TestExtract_EndToEndExample(t *testing.T) {
	store := newMemStore()
	user := store.addUser(model.User{ID: "u1", Vegetarianism: model.Neither, NoAlcohol: true})
	store.addVenue(model.Venue{ID: "pizza", Category: "Pizza:13064"}, attribute.Profile{
		attribute.VeganDiet: attribute.Qualitative(attribute.Great),
		attribute.Wine:      attribute.Bool(true),
	})
	store.addVenue(model.Venue{ID: "cafe", Category: "Cafe:13032"}, nil)
	store.addVenue(model.Venue{ID: "bad", Category: "Steak:13383"}, attribute.Profile{
		attribute.Dinner: attribute.Bool(true),
	})
	store.addVisit("u1", "pizza", 5)
	store.addVisit("u1", "cafe", 3)
	store.addVisit("u1", "bad", 1)

	prefs, err := newTestExtractor(store).Extract(context.Background(), user)
	require.NoError(t, err)

	assert.Equal(t, 2, prefs.QualifyingVisits)
	assert.Equal(t, []model.Category{{Name: "Pizza", ID: "13064"}, {Name: "Cafe", ID: "13032"}}, prefs.TopCategories)
	assert.Equal(t, 0.5, prefs.Vector[attribute.VeganDiet], "hit frequency, not averaged value")
	assert.Equal(t, 0.0, prefs.Vector[attribute.Dinner], "rating below 3 must not count")
	for _, a := range attribute.Alcohol {
		assert.Equal(t, 0.0, prefs.Vector[a], "alcohol attribute %s", a)
	}
}

func TestExtract_HitsCountEqually(t *testing.T) {
	store := newMemStore()
	user := store.addUser(model.User{ID: "u1", Vegetarianism: model.Neither})
	store.addVenue(model.Venue{ID: "a", Category: "Bar:1"}, attribute.Profile{
		attribute.Noisy:          attribute.Qualitative(attribute.Poor),
		attribute.ServiceQuality: attribute.Qualitative(attribute.Great),
		attribute.Clean:          attribute.Bool(false),
	})
	store.addVenue(model.Venue{ID: "b", Category: "Bar:1"}, attribute.Profile{
		attribute.Noisy: attribute.Qualitative(attribute.Great),
	})
	store.addVisit("u1", "a", 4)
	store.addVisit("u1", "b", 4)

	prefs, err := newTestExtractor(store).Extract(context.Background(), user)
	require.NoError(t, err)

	assert.Equal(t, 1.0, prefs.Vector[attribute.Noisy])
	assert.Equal(t, 0.5, prefs.Vector[attribute.ServiceQuality])
	assert.Equal(t, 0.0, prefs.Vector[attribute.Clean], "false is not a hit")
	assert.Equal(t, []model.Category{{Name: "Bar", ID: "1"}}, prefs.TopCategories)
}

func TestExtract_RepeatVisitsCountTwice(t *testing.T) {
	store := newMemStore()
	user := store.addUser(model.User{ID: "u1", Vegetarianism: model.Neither})
	store.addVenue(model.Venue{ID: "a", Category: "Cafe:13032"}, attribute.Profile{
		attribute.Breakfast: attribute.Bool(true),
	})
	store.addVenue(model.Venue{ID: "b", Category: "Pizza:13064"}, nil)
	store.addVisit("u1", "b", 3)
	store.addVisit("u1", "a", 3)
	store.addVisit("u1", "a", 5)

	prefs, err := newTestExtractor(store).Extract(context.Background(), user)
	require.NoError(t, err)

	assert.InDelta(t, 2.0/3.0, prefs.Vector[attribute.Breakfast], 1e-12)
	assert.Equal(t, []model.Category{{Name: "Cafe", ID: "13032"}, {Name: "Pizza", ID: "13064"}}, prefs.TopCategories)
}

func TestExtract_Categories(t *testing.T) {
	tests := []struct {
		name   string
		venues []string // category strings, one visit each
		want   []model.Category
	}{
		{
			name:   "ties keep first seen order",
			venues: []string{"Sushi:1", "Ramen:2", "Sushi:1", "Ramen:2"},
			want:   []model.Category{{Name: "Sushi", ID: "1"}, {Name: "Ramen", ID: "2"}},
		},
		{
			name:   "every pair counts, not only the primary",
			venues: []string{"Bar:1,Pub:2", "Pub:2"},
			want:   []model.Category{{Name: "Pub", ID: "2"}, {Name: "Bar", ID: "1"}},
		},
		{
			name:   "malformed and empty entries skipped",
			venues: []string{"Pizza", "", "Cafe:13032"},
			want:   []model.Category{{Name: "Cafe", ID: "13032"}},
		},
		{
			name:   "capped at five",
			venues: []string{"A:1,B:2,C:3,D:4,E:5,F:6", "F:6"},
			want: []model.Category{
				{Name: "F", ID: "6"}, {Name: "A", ID: "1"}, {Name: "B", ID: "2"},
				{Name: "C", ID: "3"}, {Name: "D", ID: "4"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			user := store.addUser(model.User{ID: "u1", Vegetarianism: model.Neither})
			for i, c := range tt.venues {
				id := string(rune('a' + i))
				store.addVenue(model.Venue{ID: id, Category: c}, nil)
				store.addVisit("u1", id, 3)
			}

			prefs, err := newTestExtractor(store).Extract(context.Background(), user)
			require.NoError(t, err)
			assert.Equal(t, tt.want, prefs.TopCategories)
			assert.Equal(t, len(tt.venues), prefs.QualifyingVisits)
		})
	}
}

func TestApplySurvey(t *testing.T) {
	t.Run("no alcohol zeroes the alcohol set", func(t *testing.T) {
		vec := attribute.NewVector()
		vec[attribute.Wine] = 0.8
		vec[attribute.Cocktails] = 0.3
		vec[attribute.Dinner] = 0.6

		ApplySurvey(vec, model.Survey{Vegetarianism: model.Neither, NoAlcohol: true})

		assert.Equal(t, 0.0, vec[attribute.Wine])
		assert.Equal(t, 0.0, vec[attribute.Cocktails])
		assert.Equal(t, 0.6, vec[attribute.Dinner])
	})

	t.Run("diet answers set 1.0", func(t *testing.T) {
		vec := attribute.NewVector()
		ApplySurvey(vec, model.Survey{Vegetarianism: model.Vegetarian, GlutenFree: true, Healthy: true})

		assert.Equal(t, 1.0, vec[attribute.VegetarianDiet])
		assert.Equal(t, 0.0, vec[attribute.VeganDiet])
		assert.Equal(t, 1.0, vec[attribute.GlutenFreeDiet])
		assert.Equal(t, 1.0, vec[attribute.HealthyDiet])
	})

	t.Run("vegan", func(t *testing.T) {
		vec := attribute.NewVector()
		ApplySurvey(vec, model.Survey{Vegetarianism: model.Vegan})
		assert.Equal(t, 1.0, vec[attribute.VeganDiet])
		assert.Equal(t, 0.0, vec[attribute.VegetarianDiet])
	})

	t.Run("neither leaves the vector alone", func(t *testing.T) {
		vec := attribute.NewVector()
		vec[attribute.Wine] = 0.8
		ApplySurvey(vec, model.Survey{Vegetarianism: model.Neither})
		assert.Equal(t, 0.8, vec[attribute.Wine])
	})
}
