package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names the variable that points at the YAML file.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are tried in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

// envMappings maps environment variable names to config paths. Variables
// not listed here are ignored.
var envMappings = map[string]string{
	"port":                     "server.port",
	"http_read_timeout":        "server.read_timeout",
	"http_write_timeout":       "server.write_timeout",
	"http_idle_timeout":        "server.idle_timeout",
	"http_shutdown_timeout":    "server.shutdown_timeout",
	"db_path":                  "database.path",
	"jwt_secret":               "auth.jwt_secret",
	"token_ttl":                "auth.token_ttl",
	"bcrypt_cost":              "auth.bcrypt_cost",
	"cookie_secure":            "auth.cookie_secure",
	"reset_token_ttl":          "auth.reset_ttl",
	"smtp_host":                "mail.smtp_host",
	"smtp_port":                "mail.smtp_port",
	"smtp_username":            "mail.smtp_username",
	"smtp_password":            "mail.smtp_password",
	"smtp_starttls":            "mail.starttls",
	"mail_from":                "mail.from",
	"reset_url":                "mail.reset_url",
	"places_base_url":          "places.base_url",
	"places_api_key":           "places.api_key",
	"places_api_version":       "places.api_version",
	"places_timeout":           "places.timeout",
	"places_limit":             "places.limit",
	"places_rps":               "places.requests_per_second",
	"places_burst":             "places.burst",
	"places_breaker_timeout":   "places.breaker_open_timeout",
	"recommend_min_rating":     "recommend.min_rating",
	"recommend_top_categories": "recommend.top_categories",
	"recommend_radius_km":      "recommend.default_radius_km",
	"log_level":                "logging.level",
	"log_format":               "logging.format",
	"rate_limit_requests":      "security.rate_limit_requests",
	"rate_limit_window":        "security.rate_limit_window",
	"cors_origins":             "security.cors_origins",
}

// sliceConfigPaths are read as comma-separated lists when they come from
// the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"recommend.ignored_sections",
}

// Load reads .env, then builds and validates the configuration.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: loading defaults: %w", err)
	}

	path, err := findConfigFile()
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: loading environment: %w", err)
	}

	if err := splitSlices(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// envKey returns the config path for an environment variable, or "" to
// skip it.
func envKey(name string) string {
	return envMappings[strings.ToLower(name)]
}

// findConfigFile returns the YAML file to load, or "" for none. A file
// named by CONFIG_PATH must exist.
func findConfigFile() (string, error) {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("config: %s=%s: %w", ConfigPathEnvVar, p, err)
		}
		return p, nil
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

func splitSlices(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		var parts []string
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("config: setting %s: %w", path, err)
		}
	}
	return nil
}
