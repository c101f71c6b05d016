package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidCoordinates is returned by ParseCoordinates for malformed input.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64
	Lng float64
}

// ParseCoordinates reads the provider-native "lat,lng" form.
func ParseCoordinates(s string) (Coordinates, error) {
	latStr, lngStr, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return Coordinates{}, fmt.Errorf("%w: %q is not \"lat,lng\"", ErrInvalidCoordinates, s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: latitude %q", ErrInvalidCoordinates, latStr)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: longitude %q", ErrInvalidCoordinates, lngStr)
	}
	if !finite(lat) || !finite(lng) {
		return Coordinates{}, fmt.Errorf("%w: %q is not a finite point", ErrInvalidCoordinates, s)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Coordinates{}, fmt.Errorf("%w: %q out of range", ErrInvalidCoordinates, s)
	}
	return Coordinates{Lat: lat, Lng: lng}, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// String formats the point as "lat,lng".
func (c Coordinates) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}
