// Package config loads the server configuration.
//
// Values are layered, later layers winning:
//
//  1. built-in defaults
//  2. an optional YAML file ($CONFIG_PATH, or ./config.yaml)
//  3. environment variables (see envMappings)
//
// A .env file in the working directory is read into the environment first.
package config

import (
	"fmt"
	"time"

	"github.com/sakif/culinary-compass/internal/apperror"
	"github.com/sakif/culinary-compass/internal/logging"
	"github.com/sakif/culinary-compass/internal/mail"
	"github.com/sakif/culinary-compass/internal/placesearch"
	"github.com/sakif/culinary-compass/internal/recommend"
	"github.com/sakif/culinary-compass/internal/validation"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Auth      AuthConfig      `koanf:"auth"`
	Places    PlacesConfig    `koanf:"places"`
	Mail      MailConfig      `koanf:"mail"`
	Recommend RecommendConfig `koanf:"recommend"`
	Logging   logging.Config  `koanf:"logging"`
	Security  SecurityConfig  `koanf:"security"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"             validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

type AuthConfig struct {
	// JWTSecret signs session tokens. Generate with: openssl rand -hex 32
	JWTSecret    string        `koanf:"jwt_secret"    validate:"required,min=32"`
	TokenTTL     time.Duration `koanf:"token_ttl"     validate:"gt=0"`
	BcryptCost   int           `koanf:"bcrypt_cost"   validate:"min=4,max=31"`
	CookieSecure bool          `koanf:"cookie_secure"`
	// ResetTTL is the lifetime of password reset links.
	ResetTTL time.Duration `koanf:"reset_ttl" validate:"gt=0"`
}

// MailConfig configures reset mail delivery. With no SMTP host the reset
// link is written to the log.
type MailConfig struct {
	SMTPHost     string        `koanf:"smtp_host"`
	SMTPPort     int           `koanf:"smtp_port"     validate:"min=1,max=65535"`
	SMTPUsername string        `koanf:"smtp_username"`
	SMTPPassword string        `koanf:"smtp_password"`
	StartTLS     bool          `koanf:"starttls"`
	From         string        `koanf:"from"          validate:"required,email"`
	FromName     string        `koanf:"from_name"`
	Timeout      time.Duration `koanf:"timeout"       validate:"gt=0"`
	ResetURL     string        `koanf:"reset_url"     validate:"required,url"`
}

type PlacesConfig struct {
	BaseURL             string        `koanf:"base_url"              validate:"required,url"`
	APIKey              string        `koanf:"api_key"               validate:"required"`
	APIVersion          string        `koanf:"api_version"`
	Timeout             time.Duration `koanf:"timeout"               validate:"gt=0"`
	Limit               int           `koanf:"limit"                 validate:"min=1,max=50"`
	RequestsPerSecond   float64       `koanf:"requests_per_second"   validate:"gte=0"`
	Burst               int           `koanf:"burst"                 validate:"gte=0"`
	BreakerMaxRequests  uint32        `koanf:"breaker_max_requests"  validate:"min=1"`
	BreakerInterval     time.Duration `koanf:"breaker_interval"`
	BreakerOpenTimeout  time.Duration `koanf:"breaker_open_timeout"  validate:"gt=0"`
	BreakerMinRequests  uint32        `koanf:"breaker_min_requests"`
	BreakerFailureRatio float64       `koanf:"breaker_failure_ratio" validate:"gt=0,lte=1"`
}

type RecommendConfig struct {
	MinRating       int      `koanf:"min_rating"        validate:"min=1,max=5"`
	TopCategories   int      `koanf:"top_categories"    validate:"min=1"`
	DefaultRadiusKm float64  `koanf:"default_radius_km" validate:"gt=0"`
	MinRadiusKm     float64  `koanf:"min_radius_km"     validate:"gt=0"`
	MaxRadiusKm     float64  `koanf:"max_radius_km"     validate:"gtefield=MinRadiusKm"`
	IgnoredSections []string `koanf:"ignored_sections"`
}

type SecurityConfig struct {
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"   validate:"gt=0"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// Default returns the built-in configuration. JWTSecret and Places.APIKey
// are left empty and must be supplied.
func Default() *Config {
	places := placesearch.DefaultConfig()
	rec := recommend.DefaultConfig()
	mailDefaults := mail.DefaultConfig()

	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "data/compass.db",
		},
		Auth: AuthConfig{
			TokenTTL:   24 * time.Hour,
			BcryptCost: 12,
			ResetTTL:   30 * time.Minute,
		},
		Places: PlacesConfig{
			BaseURL:             places.BaseURL,
			APIVersion:          places.APIVersion,
			Timeout:             places.Timeout,
			Limit:               places.Limit,
			RequestsPerSecond:   places.RequestsPerSecond,
			Burst:               places.Burst,
			BreakerMaxRequests:  places.Breaker.MaxRequests,
			BreakerInterval:     places.Breaker.Interval,
			BreakerOpenTimeout:  places.Breaker.OpenTimeout,
			BreakerMinRequests:  places.Breaker.MinRequests,
			BreakerFailureRatio: places.Breaker.FailureRatio,
		},
		Mail: MailConfig{
			SMTPPort: mailDefaults.Port,
			StartTLS: mailDefaults.StartTLS,
			From:     mailDefaults.From,
			FromName: mailDefaults.FromName,
			Timeout:  mailDefaults.Timeout,
			ResetURL: mailDefaults.ResetURL,
		},
		Recommend: RecommendConfig{
			MinRating:       rec.MinRating,
			TopCategories:   rec.TopCategories,
			DefaultRadiusKm: 5,
			MinRadiusKm:     rec.MinRadiusKm,
			MaxRadiusKm:     rec.MaxRadiusKm,
			IgnoredSections: rec.IgnoredSections,
		},
		Logging: logging.DefaultConfig(),
		Security: SecurityConfig{
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
			CORSOrigins:       []string{"http://localhost:3000"},
		},
	}
}

// Validate checks every section's rules and the cross-field constraints.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	r := c.Recommend
	if r.DefaultRadiusKm < r.MinRadiusKm || r.DefaultRadiusKm > r.MaxRadiusKm {
		return apperror.ValidationFailed("recommend.default_radius_km",
			fmt.Sprintf("recommend.default_radius_km must be within [%g, %g]", r.MinRadiusKm, r.MaxRadiusKm))
	}
	return nil
}

// Client returns the place search client settings.
func (p PlacesConfig) Client() placesearch.Config {
	return placesearch.Config{
		BaseURL:           p.BaseURL,
		APIKey:            p.APIKey,
		APIVersion:        p.APIVersion,
		Timeout:           p.Timeout,
		Limit:             p.Limit,
		RequestsPerSecond: p.RequestsPerSecond,
		Burst:             p.Burst,
		Breaker: placesearch.BreakerConfig{
			MaxRequests:  p.BreakerMaxRequests,
			Interval:     p.BreakerInterval,
			OpenTimeout:  p.BreakerOpenTimeout,
			MinRequests:  p.BreakerMinRequests,
			FailureRatio: p.BreakerFailureRatio,
		},
	}
}

// Sender returns the mail delivery settings.
func (m MailConfig) Sender() mail.Config {
	return mail.Config{
		Host:     m.SMTPHost,
		Port:     m.SMTPPort,
		Username: m.SMTPUsername,
		Password: m.SMTPPassword,
		From:     m.From,
		FromName: m.FromName,
		StartTLS: m.StartTLS,
		Timeout:  m.Timeout,
		ResetURL: m.ResetURL,
	}
}

// Engine returns the recommendation pipeline settings. The provider's
// result limit doubles as the candidate cap.
func (c *Config) Engine() recommend.Config {
	return recommend.Config{
		MinRating:       c.Recommend.MinRating,
		TopCategories:   c.Recommend.TopCategories,
		SearchLimit:     c.Places.Limit,
		IgnoredSections: c.Recommend.IgnoredSections,
		MinRadiusKm:     c.Recommend.MinRadiusKm,
		MaxRadiusKm:     c.Recommend.MaxRadiusKm,
	}
}
