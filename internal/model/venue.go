package model

import (
	"strings"
	"time"

	"github.com/sakif/culinary-compass/internal/attribute"
)

// Venue is a place known to the place-search provider. ID is the provider's
// stable identifier and the primary key.
type Venue struct {
	ID          string    `json:"id"                    db:"id"`
	Name        string    `json:"name"                  db:"name"`
	Address     string    `json:"address"               db:"address"`
	Category    string    `json:"category"              db:"category"` // "name:id" pairs, comma-joined, primary first
	Website     *string   `json:"website,omitempty"     db:"website"`
	Menu        *string   `json:"menu,omitempty"        db:"menu"`
	Description *string   `json:"description,omitempty" db:"description"`
	Price       *int      `json:"price,omitempty"       db:"price"` // 1 (cheap) to 4 (very expensive)
	Tastes      *string   `json:"tastes,omitempty"      db:"tastes"`
	CreatedAt   time.Time `json:"createdAt"             db:"created_at"`
}

// Categories parses the venue's category list.
func (v *Venue) Categories() []Category {
	return ParseCategories(v.Category)
}

// VenueFeatureProfile is the optional attribute record of one venue.
type VenueFeatureProfile struct {
	VenueID    string            `json:"venueId"    db:"venue_id"`
	Attributes attribute.Profile `json:"attributes" db:"attributes"`
}

// VenueRecord is a venue with its feature profile, written together.
type VenueRecord struct {
	Venue   Venue
	Profile *VenueFeatureProfile // nil when the provider reported no vocabulary attributes
}

// Category is one (name, id) pair of a venue's category list.
type Category struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

func (c Category) String() string {
	return c.Name + ":" + c.ID
}

// ParseCategories splits a comma-joined "name:id" list. Entries without a
// ':' separator, or with an empty name or id, are skipped.
func ParseCategories(s string) []Category {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []Category
	for _, entry := range strings.Split(s, ",") {
		name, id, ok := strings.Cut(entry, ":")
		if !ok {
			continue
		}
		name, id = strings.TrimSpace(name), strings.TrimSpace(id)
		if name == "" || id == "" {
			continue
		}
		out = append(out, Category{Name: name, ID: id})
	}
	return out
}

// JoinCategories is the inverse of ParseCategories.
func JoinCategories(cs []Category) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}
