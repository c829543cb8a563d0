// Package api provides the HTTP API for SafeRoute.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/api/handler"
	"github.com/saferoute/saferoute/internal/api/middleware"
	"github.com/saferoute/saferoute/internal/api/response"
	"github.com/saferoute/saferoute/internal/auth"
	"github.com/saferoute/saferoute/internal/provider/resilience"
	"github.com/saferoute/saferoute/internal/risk"
	"github.com/saferoute/saferoute/internal/routing"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	AuthService *auth.Service
	Engine      handler.RouteComputer
	Geocoder    handler.PlaceSearcher

	// Reported by the ops endpoints.
	Graphs   routing.GraphProvider
	Risk     *risk.Holder
	Registry *resilience.Registry
	DB       handler.Pinger

	// AllowedOrigins enables CORS for browser clients when non-empty.
	AllowedOrigins []string
	RequireTLS     bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "saferoute-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id", "Retry-After", "Location"},
			MaxAge:         300,
		}))
	}
	r.Use(middleware.SecurityHeaders)           // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement
	r.Use(middleware.RequireJSON)               // JSON request bodies only
	r.Use(middleware.ContentTypeJSON)           // JSON content type

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		response.NotFound(w, req, "no such endpoint")
	})

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Graphs:    cfg.Graphs,
		Risk:      cfg.Risk,
		Registry:  cfg.Registry,
		DB:        cfg.DB,
	})
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.Logger)
	geocodeHandler := handler.NewGeocodeHandler(cfg.Geocoder, cfg.Logger)
	routeHandler := handler.NewRouteHandler(cfg.Engine, cfg.Logger)

	authMiddleware := middleware.Auth(cfg.AuthService)

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitByIP(middleware.AuthRateLimit)) // 10 req/min per IP
				r.Post("/signup", authHandler.Signup)
				r.Post("/login", authHandler.Login)
			})
			r.With(
				authMiddleware,
				middleware.RateLimitByUser(middleware.StandardRateLimit), // 100 req/min per user
			).Get("/me", authHandler.Me)
		})

		r.With(middleware.RateLimitByIP(middleware.StandardRateLimit)).Post("/geocode", geocodeHandler.Geocode)

		// Routes endpoint - expensive compute, strict per-user limit
		r.With(
			authMiddleware,
			middleware.RateLimitByUser(middleware.ExpensiveRateLimit), // 30 req/min per user
		).Post("/routes:compute", routeHandler.ComputeRoute)
	})

	return r
}
