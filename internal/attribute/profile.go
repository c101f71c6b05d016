package attribute

import (
	"database/sql/driver"
	"fmt"

	"github.com/goccy/go-json"
)

// Profile is the sparse set of known attribute values for one venue. Absent
// attributes are not stored.
type Profile map[Attribute]Value

// Get returns the value for a, absent if unknown.
func (p Profile) Get(a Attribute) Value {
	if p == nil {
		return Value{}
	}
	return p[a]
}

// Set stores v under a. Setting an absent value removes the key.
func (p Profile) Set(a Attribute, v Value) {
	if v.IsAbsent() {
		delete(p, a)
		return
	}
	p[a] = v
}

// Vector projects the profile onto the given attributes, normalizing each
// value. Missing attributes are 0.
func (p Profile) Vector(keys []Attribute) Vector {
	out := make(Vector, len(keys))
	for _, a := range keys {
		out[a] = Normalize(p.Get(a))
	}
	return out
}

func (p Profile) MarshalJSON() ([]byte, error) {
	raw := make(map[string]any, len(p))
	for a, v := range p {
		if v.IsAbsent() || !a.Valid() {
			continue
		}
		raw[a.String()] = v.Raw()
	}
	return json.Marshal(raw)
}

// UnmarshalJSON rejects keys outside the vocabulary and drops values that are
// neither booleans nor ratings.
func (p *Profile) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("attribute: decoding profile: %w", err)
	}
	out := make(Profile, len(raw))
	for k, r := range raw {
		a, ok := Lookup(k)
		if !ok {
			return fmt.Errorf("attribute: unknown attribute %q in profile", k)
		}
		out.Set(a, FromRaw(r))
	}
	*p = out
	return nil
}

// Value stores the profile as a JSON text column.
func (p Profile) Value() (driver.Value, error) {
	b, err := p.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads a profile written by Value.
func (p *Profile) Scan(src any) error {
	switch t := src.(type) {
	case nil:
		*p = Profile{}
		return nil
	case string:
		return p.UnmarshalJSON([]byte(t))
	case []byte:
		return p.UnmarshalJSON(t)
	default:
		return fmt.Errorf("attribute: cannot scan %T into Profile", src)
	}
}
