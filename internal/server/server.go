package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"

	"github.com/fieldsuite/fieldops/internal/api/ws"
	"github.com/fieldsuite/fieldops/internal/auth"
	"github.com/fieldsuite/fieldops/internal/config"
	"github.com/fieldsuite/fieldops/internal/notify"
	"github.com/fieldsuite/fieldops/internal/server/middleware"
	"github.com/fieldsuite/fieldops/internal/store/postgres"
	redisstore "github.com/fieldsuite/fieldops/internal/store/redis"
)

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	store      *postgres.Store
	auth       *auth.Service
	pubsub     *redisstore.PubSub
	wsHub      *ws.Hub
	notifier   *notify.Notifier
	cfg        *config.Config
}

// New creates a Server with all routes wired. ctx bounds the lifetime of
// background goroutines (rate limiter cleanup).
func New(ctx context.Context, cfg *config.Config, store *postgres.Store, pubsub *redisstore.PubSub, authSvc *auth.Service) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	hub := ws.NewHub(pubsub)
	notifier := buildNotifier(cfg, store)

	s := &Server{
		router:   router,
		store:    store,
		auth:     authSvc,
		pubsub:   pubsub,
		wsHub:    hub,
		notifier: notifier,
		cfg:      cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	// Mount API routes on /api/v1 with three sub-groups:
	// 1. Unauthenticated group for auth and tenant signup.
	// 2. Authenticated group for the main API surface.
	// 3. Authenticated + admin-gated group for the audit log.
	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(ctx, cfg.RateLimit.IPPerSecond, cfg.RateLimit.IPBurst))

			authConfig := huma.DefaultConfig("FieldOps Auth API", "1.0.0")
			authConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			authAPI := humachi.New(r, authConfig)
			registerPublicRoutes(authAPI, store, authSvc)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT.Secret, authSvc))
			r.Use(middleware.RequireTenant())
			r.Use(middleware.RateLimitByTenant(ctx, cfg.RateLimit.TenantPerSecond, cfg.RateLimit.TenantBurst))

			apiConfig := huma.DefaultConfig("FieldOps API", "1.0.0")
			apiConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			api := humachi.New(r, apiConfig)
			registerAPIRoutes(api, store, authSvc, hub, notifier)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT.Secret, authSvc))
			r.Use(middleware.RequireTenant())
			r.Use(middleware.RequireAdministrative())

			auditConfig := huma.DefaultConfig("FieldOps Audit API", "1.0.0")
			auditConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			auditAPI := humachi.New(r, auditConfig)
			registerAuditRoutes(auditAPI, store)
		})
	})

	// WebSocket routes.
	router.Route("/ws", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT.Secret, authSvc))
		r.Use(middleware.RequireTenant())
		registerWSRoutes(r, hub)
	})

	// Health check (unauthenticated).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return s
}

// buildNotifier creates the assignment notifier. Without a Slack bot token the
// messenger registry stays empty and notifications degrade to log lines.
func buildNotifier(cfg *config.Config, store *postgres.Store) *notify.Notifier {
	registry := notify.NewRegistry()

	if cfg.Slack.BotToken != "" {
		slackClient := slacklib.New(cfg.Slack.BotToken)
		registry.Register("slack", notify.NewSlackMessenger(slackClient))
		log.Info().Msg("Slack assignment notifications enabled")
	}

	return notify.New(registry, store.Users())
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
