// Package server wires handlers, middleware and routes, and runs the HTTP
// server.
//
// This is the composition root: every service and handler is built here
// from the storage and provider clients main.go opens.
//
//	main.go:    config → logger → sqlite.DB, placesearch.Client, mail.Sender → server.New
//	server.New: repositories → services → handlers → routes
//
// Keeping it out of main.go lets tests build the full router against a
// temporary database and a fake provider.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/culinary-compass/internal/auth"
	"github.com/sakif/culinary-compass/internal/config"
	"github.com/sakif/culinary-compass/internal/handler"
	"github.com/sakif/culinary-compass/internal/middleware"
	"github.com/sakif/culinary-compass/internal/recommend"
	sqliteRepo "github.com/sakif/culinary-compass/internal/repository/sqlite"
	"github.com/sakif/culinary-compass/internal/service"
)

// PlaceClient is the place search provider: nearby search for
// recommendations and single-venue match for the visit log.
type PlaceClient interface {
	recommend.PlaceSearcher
	service.PlaceMatcher
}

// Server owns the router and the database. The database is closed when
// Start returns.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	db     *sqliteRepo.DB
	logger *slog.Logger
}

// New builds the dependency graph and the routes.
func New(cfg *config.Config, db *sqliteRepo.DB, places PlaceClient, mailer service.Mailer, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(cfg.Auth.BcryptCost)

	// *sqlite.DB implements every repository interface.
	engine := recommend.NewEngine(db, db, db, places, cfg.Engine(), logger.With(slog.String("component", "recommend")))

	authSvc := service.NewAuthService(db, tokens, passwords, logger)
	accountSvc := service.NewAccountService(db, logger)
	resetSvc := service.NewPasswordResetService(db, tokens, passwords, mailer, cfg.Auth.ResetTTL, logger)
	visitSvc := service.NewVisitService(db, db, cfg.Recommend.MinRating, logger)
	venueSvc := service.NewVenueService(db, places, cfg.Recommend.IgnoredSections, logger)
	recSvc := service.NewRecommendationService(engine, visitSvc, db, cfg.Recommend.DefaultRadiusKm, logger)

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		db:     db,
		logger: logger,
	}
	s.setupRoutes(
		tokens,
		handler.NewAuthHandler(authSvc, accountSvc, resetSvc, cfg.Auth.TokenTTL, cfg.Auth.CookieSecure, logger),
		handler.NewVenueHandler(venueSvc, visitSvc, logger),
		handler.NewRecommendationHandler(recSvc, logger),
	)
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
//
//	GET  /healthz                                liveness + database ping
//	GET  /metrics                                Prometheus
//	POST /api/auth/register                      create account
//	POST /api/auth/login                         start session
//	POST /api/auth/logout                        clear session cookie
//	POST /api/auth/password-reset                mail a reset link
//	POST /api/auth/password-reset/confirm        set a new password
//	GET  /api/me                                 current user               (auth)
//	PUT  /api/me                                 change username and email  (auth)
//	PUT  /api/me/survey                          replace dietary survey     (auth)
//	GET  /api/venues/{id}                        venue with attributes      (auth)
//	POST /api/venues/match                       find and store one venue   (auth)
//	POST /api/visits                             record a visit             (auth)
//	GET  /api/visits                             visit history              (auth)
//	POST /api/recommendations                    ranked nearby venues       (auth)
//
// MIDDLEWARE ORDER MATTERS: RequestID runs first so every later log line can
// carry it; Recoverer sits inside the logger so a panic is logged as a 500.
func (s *Server) setupRoutes(
	tokens *auth.TokenService,
	authH *handler.AuthHandler,
	venueH *handler.VenueHandler,
	recH *handler.RecommendationHandler,
) {
	r := s.router

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Metrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Retry-After", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(httprate.LimitByIP(s.cfg.Security.RateLimitRequests, s.cfg.Security.RateLimitWindow))

		api.Post("/auth/register", authH.HandleRegister)
		api.Post("/auth/login", authH.HandleLogin)
		api.Post("/auth/logout", authH.HandleLogout)

		api.Group(func(p chi.Router) {
			p.Use(auth.RequireAuth(tokens))

			p.Get("/me", authH.HandleMe)
			p.Put("/me", authH.HandleUpdateAccount)
			p.Put("/me/survey", authH.HandleUpdateSurvey)

			p.Post("/venues/match", venueH.HandleMatch)
			p.Get("/venues/{id}", venueH.HandleGet)

			p.Post("/visits", venueH.HandleRecordVisit)
			p.Get("/visits", venueH.HandleListVisits)

			p.Post("/recommendations", recH.HandleRecommend)
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.db.Ping(); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new connections
//  2. Wait up to server.shutdown_timeout for in-flight requests
//  3. Close the database (flushes the WAL, releases the file lock)
func (s *Server) Start(ctx context.Context) error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.router,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		IdleTimeout:       s.cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Server.Port),
			slog.String("database", s.cfg.Database.Path),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}
