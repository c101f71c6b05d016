package recommend

import (
	"sort"
	"strings"

	"github.com/sakif/culinary-compass/internal/attribute"
	"github.com/sakif/culinary-compass/internal/model"
	"github.com/sakif/culinary-compass/internal/placesearch"
)

// DefaultIgnoredSections are provider feature sections whose leaf names
// would otherwise collide with unrelated vocabulary attributes.
var DefaultIgnoredSections = []string{"payment", "services", "amenities"}

// maxFlattenDepth bounds recursion into the provider's feature object.
// Objects nested deeper are dropped.
const maxFlattenDepth = 8

// separators would corrupt the stored "name:id,name:id" list.
var separators = strings.NewReplacer(",", " ", ":", " ")

// Flatten merges a nested feature object into one level, keyed by leaf name.
// Sections named in ignore are skipped at any depth. Keys are visited in
// sorted order, so when two sections share a leaf name the value from the
// later section wins.
func Flatten(features map[string]any, ignore []string) map[string]any {
	skip := make(map[string]bool, len(ignore))
	for _, s := range ignore {
		skip[s] = true
	}
	out := make(map[string]any)
	flattenInto(out, features, skip, 1)
	return out
}

func flattenInto(out, obj map[string]any, skip map[string]bool, depth int) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if skip[k] {
			continue
		}
		if nested, ok := obj[k].(map[string]any); ok {
			if depth < maxFlattenDepth {
				flattenInto(out, nested, skip, depth+1)
			}
			continue
		}
		out[k] = obj[k]
	}
}

// ExtractProfile keeps the flattened entries that name a vocabulary
// attribute and carry a boolean or rating value.
func ExtractProfile(flat map[string]any) attribute.Profile {
	p := make(attribute.Profile)
	for k, raw := range flat {
		a, ok := attribute.Lookup(k)
		if !ok {
			continue
		}
		p.Set(a, attribute.FromRaw(raw))
	}
	return p
}

// BuildRecord converts a provider place into the venue and feature profile
// written at ingestion. Profile is nil when no vocabulary attribute matched.
func BuildRecord(p placesearch.Place, ignore []string) model.VenueRecord {
	cats := make([]model.Category, 0, len(p.Categories))
	for _, c := range p.Categories {
		name := c.ShortName
		if name == "" {
			name = c.Name
		}
		name = strings.TrimSpace(separators.Replace(name))
		if name == "" || c.ID == "" {
			continue
		}
		cats = append(cats, model.Category{Name: name, ID: c.ID})
	}

	venue := model.Venue{
		ID:          p.ID,
		Name:        p.Name,
		Address:     p.Location.FormattedAddress,
		Category:    model.JoinCategories(cats),
		Website:     optional(p.Website),
		Menu:        optional(p.Menu),
		Description: optional(p.Description),
	}
	if p.Price >= 1 && p.Price <= 4 {
		price := p.Price
		venue.Price = &price
	}
	if len(p.Tastes) > 0 {
		venue.Tastes = optional(strings.Join(p.Tastes, ","))
	}

	rec := model.VenueRecord{Venue: venue}
	if p.Features != nil {
		if profile := ExtractProfile(Flatten(p.Features, ignore)); len(profile) > 0 {
			rec.Profile = &model.VenueFeatureProfile{VenueID: p.ID, Attributes: profile}
		}
	}
	return rec
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
