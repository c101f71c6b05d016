package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/sakif/culinary-compass/internal/attribute"
	"github.com/sakif/culinary-compass/internal/model"
	"github.com/sakif/culinary-compass/internal/repository"
)

// Preferences is what the extractor learns about a user.
type Preferences struct {
	// TopCategories holds the most visited categories, most frequent first.
	TopCategories []model.Category
	// Vector holds a value for every vocabulary attribute.
	Vector attribute.Vector
	// QualifyingVisits is the number of visits the vector was built from.
	QualifyingVisits int
}

// Extractor derives Preferences from a user's rated visits and survey.
// It only reads from storage.
type Extractor struct {
	visits        repository.VisitRepository
	venues        repository.VenueRepository
	minRating     int
	topCategories int
	logger        *slog.Logger
}

func NewExtractor(visits repository.VisitRepository, venues repository.VenueRepository, cfg Config, logger *slog.Logger) *Extractor {
	return &Extractor{
		visits:        visits,
		venues:        venues,
		minRating:     cfg.MinRating,
		topCategories: cfg.TopCategories,
		logger:        logger,
	}
}

// Extract builds the user's preferences.
//
// Each attribute's value is the share of qualifying visits whose venue has
// that attribute set to anything that normalizes above zero. A Poor rating
// and a Great rating count the same. Survey answers are then applied on top
// (see ApplySurvey). A user with no qualifying visits gets an all-zero vector
// and no categories.
func (e *Extractor) Extract(ctx context.Context, user *model.User) (Preferences, error) {
	visits, err := e.visits.ListRated(ctx, user.ID, e.minRating)
	if err != nil {
		return Preferences{}, fmt.Errorf("loading rated visits: %w", err)
	}
	if len(visits) == 0 {
		return Preferences{Vector: attribute.NewVector()}, nil
	}

	ids := make([]string, 0, len(visits))
	seen := make(map[string]bool, len(visits))
	for _, v := range visits {
		if !seen[v.VenueID] {
			seen[v.VenueID] = true
			ids = append(ids, v.VenueID)
		}
	}

	venues, err := e.venues.VenuesByIDs(ctx, ids)
	if err != nil {
		return Preferences{}, fmt.Errorf("loading visited venues: %w", err)
	}
	profiles, err := e.venues.Profiles(ctx, ids)
	if err != nil {
		return Preferences{}, fmt.Errorf("loading visited venue profiles: %w", err)
	}

	var (
		tally = newCategoryTally()
		hits  = make(map[attribute.Attribute]int)
	)
	for _, visit := range visits {
		venue, ok := venues[visit.VenueID]
		if !ok {
			e.logger.Warn("visit references unknown venue",
				slog.String("user_id", user.ID),
				slog.String("venue_id", visit.VenueID),
			)
		}
		for _, c := range venue.Categories() {
			tally.add(c)
		}

		// A missing profile is the zero profile.
		profile := profiles[visit.VenueID].Attributes
		for _, a := range attribute.All() {
			if attribute.Normalize(profile.Get(a)) > 0 {
				hits[a]++
			}
		}
	}

	vec := attribute.NewVector()
	total := float64(len(visits))
	for a, n := range hits {
		vec[a] = float64(n) / total
	}
	ApplySurvey(vec, user.Survey())

	return Preferences{
		TopCategories:    tally.top(e.topCategories),
		Vector:           vec,
		QualifyingVisits: len(visits),
	}, nil
}

// ApplySurvey overrides vec with the user's stated diet. The rules run in a
// fixed order: vegetarian, vegan, gluten free, healthy, and last no alcohol,
// which forces every alcohol attribute to exactly 0.
func ApplySurvey(vec attribute.Vector, s model.Survey) {
	switch s.Vegetarianism {
	case model.Vegetarian:
		vec[attribute.VegetarianDiet] = 1.0
	case model.Vegan:
		vec[attribute.VeganDiet] = 1.0
	}
	if s.GlutenFree {
		vec[attribute.GlutenFreeDiet] = 1.0
	}
	if s.Healthy {
		vec[attribute.HealthyDiet] = 1.0
	}
	if s.NoAlcohol {
		for _, a := range attribute.Alcohol {
			vec[a] = 0.0
		}
	}
}

// categoryTally counts categories and remembers first-seen order.
type categoryTally struct {
	counts map[model.Category]int
	order  []model.Category
}

func newCategoryTally() *categoryTally {
	return &categoryTally{counts: make(map[model.Category]int)}
}

func (t *categoryTally) add(c model.Category) {
	if _, ok := t.counts[c]; !ok {
		t.order = append(t.order, c)
	}
	t.counts[c]++
}

// top returns up to n categories by descending count; ties keep first-seen
// order.
func (t *categoryTally) top(n int) []model.Category {
	out := make([]model.Category, len(t.order))
	copy(out, t.order)
	sort.SliceStable(out, func(i, j int) bool {
		return t.counts[out[i]] > t.counts[out[j]]
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
