// Package attribute defines the closed vocabulary of venue attributes that both
// venues and user preferences are expressed over, the tagged value type an
// attribute can hold, and the normalization of those values into [0,1].
package attribute

import "fmt"

// VocabularyVersion identifies the attribute list below. Bump it whenever an
// attribute is added, removed or renamed.
const VocabularyVersion = 1

// Attribute is one named venue attribute. The set is closed: values outside
// the declared constants are invalid.
type Attribute int

// Food and drink.
const (
	BarService Attribute = iota
	Beer
	BYO
	Cocktails
	FullBar
	Wine

	// Meals.
	BarSnacks
	Breakfast
	Brunch
	Lunch
	HappyHour
	Dessert
	Dinner
	TastingMenu

	// Qualitative attributes.
	BusinessMeeting
	Clean
	Crowded
	DatesPopular
	Dressy
	FamiliesPopular
	GlutenFreeDiet
	GoodForDogs
	GroupsPopular
	HealthyDiet
	LateNight
	Noisy
	QuickBite
	Romantic
	ServiceQuality
	SinglesPopular
	SpecialOccasion
	Trendy
	ValueForMoney
	VeganDiet
	VegetarianDiet

	numAttributes
)

var names = [numAttributes]string{
	BarService:      "bar_service",
	Beer:            "beer",
	BYO:             "byo",
	Cocktails:       "cocktails",
	FullBar:         "full_bar",
	Wine:            "wine",
	BarSnacks:       "bar_snacks",
	Breakfast:       "breakfast",
	Brunch:          "brunch",
	Lunch:           "lunch",
	HappyHour:       "happy_hour",
	Dessert:         "dessert",
	Dinner:          "dinner",
	TastingMenu:     "tasting_menu",
	BusinessMeeting: "business_meeting",
	Clean:           "clean",
	Crowded:         "crowded",
	DatesPopular:    "dates_popular",
	Dressy:          "dressy",
	FamiliesPopular: "families_popular",
	GlutenFreeDiet:  "gluten_free_diet",
	GoodForDogs:     "good_for_dogs",
	GroupsPopular:   "groups_popular",
	HealthyDiet:     "healthy_diet",
	LateNight:       "late_night",
	Noisy:           "noisy",
	QuickBite:       "quick_bite",
	Romantic:        "romantic",
	ServiceQuality:  "service_quality",
	SinglesPopular:  "singles_popular",
	SpecialOccasion: "special_occasion",
	Trendy:          "trendy",
	ValueForMoney:   "value_for_money",
	VeganDiet:       "vegan_diet",
	VegetarianDiet:  "vegetarian_diet",
}

var byName = func() map[string]Attribute {
	m := make(map[string]Attribute, numAttributes)
	for i, n := range names {
		m[n] = Attribute(i)
	}
	return m
}()

// Alcohol lists the attributes cleared when a user opts out of alcohol.
var Alcohol = []Attribute{BarService, Beer, BYO, Cocktails, FullBar, Wine}

// All returns every attribute in vocabulary order.
func All() []Attribute {
	out := make([]Attribute, numAttributes)
	for i := range out {
		out[i] = Attribute(i)
	}
	return out
}

// Len is the size of the vocabulary.
func Len() int { return int(numAttributes) }

// Lookup resolves a provider or storage key to an attribute.
func Lookup(name string) (Attribute, bool) {
	a, ok := byName[name]
	return a, ok
}

// Valid reports whether a belongs to the vocabulary.
func (a Attribute) Valid() bool {
	return a >= 0 && a < numAttributes
}

func (a Attribute) String() string {
	if !a.Valid() {
		return fmt.Sprintf("attribute(%d)", int(a))
	}
	return names[a]
}

// MarshalText encodes the attribute by name, so maps keyed by Attribute
// serialize with readable keys.
func (a Attribute) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("attribute: invalid attribute %d", int(a))
	}
	return []byte(names[a]), nil
}

// UnmarshalText rejects names outside the vocabulary.
func (a *Attribute) UnmarshalText(b []byte) error {
	v, ok := byName[string(b)]
	if !ok {
		return fmt.Errorf("attribute: unknown attribute %q", string(b))
	}
	*a = v
	return nil
}
