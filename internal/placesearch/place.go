package placesearch

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// Place is one venue payload returned by the provider.
type Place struct {
	ID          string
	Name        string
	Location    Location
	Categories  []PlaceCategory
	Website     string
	Menu        string
	Description string
	Price       int // 0 when unknown, otherwise 1 to 4
	Tastes      []string
	// Features is the provider's nested attribute object, decoded as-is.
	// Nil when the provider sent none.
	Features map[string]any
}

// Location is the part of the address block the application keeps.
type Location struct {
	FormattedAddress string `json:"formatted_address"`
	Locality         string `json:"locality,omitempty"`
	Country          string `json:"country,omitempty"`
}

// PlaceCategory is one entry of a place's category list. The first entry is
// the primary category.
type PlaceCategory struct {
	ID        string
	Name      string
	ShortName string
}

// placeWire accepts both the v3 and the current field names for ids.
type placeWire struct {
	FsqID       string          `json:"fsq_id"`
	FsqPlaceID  string          `json:"fsq_place_id"`
	Name        string          `json:"name"`
	Location    Location        `json:"location"`
	Categories  []categoryWire  `json:"categories"`
	Website     string          `json:"website"`
	Menu        json.RawMessage `json:"menu"`
	Description string          `json:"description"`
	Price       int             `json:"price"`
	Tastes      []string        `json:"tastes"`
	Features    map[string]any  `json:"features"`
}

type categoryWire struct {
	ID            flexibleID `json:"id"`
	FsqCategoryID flexibleID `json:"fsq_category_id"`
	Name          string     `json:"name"`
	ShortName     string     `json:"short_name"`
}

// flexibleID decodes ids sent either as JSON numbers or strings.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("placesearch: id %s is neither a string nor an integer", b)
	}
	*f = flexibleID(strconv.FormatInt(n, 10))
	return nil
}

func (p *Place) UnmarshalJSON(b []byte) error {
	var w placeWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	*p = Place{
		ID:          w.FsqID,
		Name:        w.Name,
		Location:    w.Location,
		Website:     w.Website,
		Menu:        menuURL(w.Menu),
		Description: w.Description,
		Price:       w.Price,
		Tastes:      w.Tastes,
		Features:    w.Features,
	}
	if p.ID == "" {
		p.ID = w.FsqPlaceID
	}
	for _, c := range w.Categories {
		id := string(c.ID)
		if id == "" {
			id = string(c.FsqCategoryID)
		}
		p.Categories = append(p.Categories, PlaceCategory{ID: id, Name: c.Name, ShortName: c.ShortName})
	}
	return nil
}

// menuURL accepts the menu either as a plain URL string or as an object with
// a url field.
func menuURL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.URL
	}
	return ""
}

type searchResponse struct {
	Results *[]Place `json:"results"`
}

type matchResponse struct {
	Place *Place `json:"place"`
}
