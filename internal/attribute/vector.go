package attribute

// Vector maps attributes to real values in [0,1]. A user's preference vector
// holds every vocabulary attribute; candidate vectors hold the preference
// vector's key set.
type Vector map[Attribute]float64

// NewVector returns a vector over the full vocabulary, all zero.
func NewVector() Vector {
	v := make(Vector, numAttributes)
	for i := Attribute(0); i < numAttributes; i++ {
		v[i] = 0
	}
	return v
}

// Keys returns the vector's attributes in vocabulary order.
func (v Vector) Keys() []Attribute {
	keys := make([]Attribute, 0, len(v))
	for i := Attribute(0); i < numAttributes; i++ {
		if _, ok := v[i]; ok {
			keys = append(keys, i)
		}
	}
	return keys
}

// IsZero reports whether every component is 0.
func (v Vector) IsZero() bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
