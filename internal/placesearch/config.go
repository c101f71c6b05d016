package placesearch

import "time"

// Config holds the settings of the place search client.
type Config struct {
	// BaseURL is the provider's API root, e.g. https://places-api.foursquare.com.
	BaseURL string
	// APIKey is sent as a bearer token on every request.
	APIKey string
	// APIVersion, when set, is sent in the X-Places-Api-Version header.
	APIVersion string
	// Timeout bounds one remote call, including reading the body.
	Timeout time.Duration
	// Limit caps the number of results of one search.
	Limit int
	// RequestsPerSecond and Burst throttle outbound calls. Zero disables throttling.
	RequestsPerSecond float64
	Burst             int
	Breaker           BreakerConfig
}

// BreakerConfig tunes the circuit breaker in front of the provider.
type BreakerConfig struct {
	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32
	// Interval resets the failure counts while closed.
	Interval time.Duration
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	// MinRequests is the sample size needed before the failure ratio is considered.
	MinRequests uint32
	// FailureRatio opens the breaker once reached.
	FailureRatio float64
}

// DefaultConfig returns settings suitable for the Foursquare Places API.
// APIKey is left empty and must come from configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:           "https://places-api.foursquare.com",
		APIVersion:        "2025-06-17",
		Timeout:           10 * time.Second,
		Limit:             10,
		RequestsPerSecond: 5,
		Burst:             5,
		Breaker: BreakerConfig{
			MaxRequests:  1,
			Interval:     time.Minute,
			OpenTimeout:  30 * time.Second,
			MinRequests:  5,
			FailureRatio: 0.6,
		},
	}
}
