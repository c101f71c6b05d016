// Command server runs the culinary recommendation API.
//
// main only reads configuration, opens the external resources and hands
// them to internal/server. Everything else lives in internal packages so it
// can be tested without starting a process.
//
// Configuration comes from defaults, an optional config.yaml, then the
// environment (a .env file is read first). At minimum set:
//
//	JWT_SECRET=$(openssl rand -hex 32)
//	PLACES_API_KEY=<provider key>
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sakif/culinary-compass/internal/config"
	"github.com/sakif/culinary-compass/internal/logging"
	"github.com/sakif/culinary-compass/internal/mail"
	"github.com/sakif/culinary-compass/internal/placesearch"
	sqliteRepo "github.com/sakif/culinary-compass/internal/repository/sqlite"
	"github.com/sakif/culinary-compass/internal/server"
)

func main() {
	// === 1. CONFIGURATION ===
	// Nothing is logged through the configured logger until it exists, so a
	// bad config is reported with the default one.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. LOGGING ===
	// Set as the default too: the HTTP response helpers log through slog.Default.
	logger := logging.New(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// === 3. DATABASE ===
	// MkdirAll is `mkdir -p`; the sqlite driver will not create directories.
	dbDir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return err
	}
	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		return err
	}

	// === 4. PLACE SEARCH PROVIDER ===
	places, err := placesearch.New(cfg.Places.Client(), logger.With(slog.String("component", "placesearch")))
	if err != nil {
		db.Close()
		return err
	}

	// === 5. MAIL ===
	// Without an SMTP host the reset links go to the log.
	mailer, err := mail.New(cfg.Mail.Sender(), logger.With(slog.String("component", "mail")))
	if err != nil {
		db.Close()
		return err
	}

	// === 6. SERVE ===
	// SIGINT (Ctrl+C) and SIGTERM (docker stop, systemd) cancel ctx, which
	// starts the graceful shutdown in Start.
	srv, err := server.New(cfg, db, places, mailer, logger)
	if err != nil {
		db.Close()
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Start(ctx)
}
