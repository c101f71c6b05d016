// Package logging builds the application's *slog.Logger on top of zerolog.
//
// Every package logs through the slog API it is handed; output formatting and
// level filtering are zerolog's.
//
//	logger := logging.New(logging.Config{Level: "info", Format: "json"}, os.Stdout)
//	logger.Info("server starting", slog.Int("port", 8080))
package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config selects the level and output format.
type Config struct {
	Level  string `koanf:"level"  validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

func DefaultConfig() Config {
	return Config{Level: "info", Format: "json"}
}

// New returns a logger writing to w.
func New(cfg Config, w io.Writer) *slog.Logger {
	return slog.New(NewHandler(NewZerolog(cfg, w)))
}

// NewZerolog builds the underlying zerolog logger.
func NewZerolog(cfg Config, w io.Writer) zerolog.Logger {
	if strings.EqualFold(cfg.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}
	return zerolog.New(w).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel maps a level name to zerolog. Unknown names mean info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
