package attribute

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Kind tags which variant a Value holds.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindBool
	KindQualitative
)

// Quality is the three-level rating the place provider uses for qualitative
// attributes such as noisy or service_quality.
type Quality uint8

const (
	Poor Quality = iota + 1
	Average
	Great
)

func (q Quality) String() string {
	switch q {
	case Poor:
		return "Poor"
	case Average:
		return "Average"
	case Great:
		return "Great"
	default:
		return "Unknown"
	}
}

// ParseQuality accepts the provider spellings "Poor", "Average" and "Great".
func ParseQuality(s string) (Quality, bool) {
	switch s {
	case "Poor":
		return Poor, true
	case "Average":
		return Average, true
	case "Great":
		return Great, true
	default:
		return 0, false
	}
}

// Value is the value of one attribute on one venue. The zero Value is absent.
type Value struct {
	kind Kind
	b    bool
	q    Quality
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Qualitative returns a qualitative value. An out-of-range quality yields an
// absent value.
func Qualitative(q Quality) Value {
	if q < Poor || q > Great {
		return Value{}
	}
	return Value{kind: KindQualitative, q: q}
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// AsBool returns the boolean and whether v is a boolean value.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsQuality returns the rating and whether v is a qualitative value.
func (v Value) AsQuality() (Quality, bool) {
	return v.q, v.kind == KindQualitative
}

// Raw returns the provider-shaped representation: nil, a bool, or the rating
// string.
func (v Value) Raw() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindQualitative:
		return v.q.String()
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindQualitative:
		return v.q.String()
	default:
		return "absent"
	}
}

// FromRaw converts an untyped provider value. Anything other than a bool or a
// recognized rating string is absent.
func FromRaw(raw any) Value {
	switch t := raw.(type) {
	case bool:
		return Bool(t)
	case *bool:
		if t == nil {
			return Value{}
		}
		return Bool(*t)
	case string:
		if q, ok := ParseQuality(t); ok {
			return Qualitative(q)
		}
	case Value:
		return t
	}
	return Value{}
}

// Normalize maps a value into [0,1]. The breakpoints are fixed: absent and
// false are 0, true is 1, Poor 0.3, Average 0.5, Great 0.8.
func Normalize(v Value) float64 {
	switch v.kind {
	case KindBool:
		if v.b {
			return 1.0
		}
		return 0.0
	case KindQualitative:
		switch v.q {
		case Poor:
			return 0.3
		case Average:
			return 0.5
		case Great:
			return 0.8
		}
	}
	return 0.0
}

// NormalizeRaw normalizes an untyped value. It never fails: unrecognized
// representations normalize to 0.
func NormalizeRaw(raw any) float64 {
	return Normalize(FromRaw(raw))
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Raw())
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("attribute: decoding value: %w", err)
	}
	*v = FromRaw(raw)
	return nil
}
