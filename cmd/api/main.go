// Package main provides the entrypoint for the SafeRoute API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/api"
	"github.com/saferoute/saferoute/internal/api/handler"
	"github.com/saferoute/saferoute/internal/api/middleware"
	"github.com/saferoute/saferoute/internal/auth"
	"github.com/saferoute/saferoute/internal/database"
	"github.com/saferoute/saferoute/internal/geo"
	"github.com/saferoute/saferoute/internal/geocoding"
	"github.com/saferoute/saferoute/internal/geocoding/nominatim"
	"github.com/saferoute/saferoute/internal/graph"
	"github.com/saferoute/saferoute/internal/provider/resilience"
	"github.com/saferoute/saferoute/internal/risk"
	"github.com/saferoute/saferoute/internal/routing"
	"github.com/saferoute/saferoute/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "saferoute-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting SafeRoute API")

	port := getEnv("APP_PORT", "8080")

	// Initialize OpenTelemetry
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetryCfg, err := telemetry.ConfigFromEnv(serviceName, Version)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid telemetry configuration")
	}
	tp, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()
	if telemetryCfg.Enabled {
		log.Info().
			Str("otlp_endpoint", telemetryCfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Road networks
	graphs := routing.Graphs{}
	for mode, key := range map[routing.Mode]string{
		routing.ModeDrive: "GRAPH_DRIVE_PATH",
		routing.ModeWalk:  "GRAPH_WALK_PATH",
	} {
		path := os.Getenv(key)
		if path == "" {
			log.Warn().Str("mode", string(mode)).Msgf("%s not set, mode unavailable", key)
			continue
		}
		g, err := graph.ReadSnapshotFile(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("failed to load graph")
		}
		graphs[mode] = g
		log.Info().
			Str("mode", string(mode)).
			Int("nodes", g.NodeCount()).
			Msg("graph loaded")
	}

	// Database
	var (
		pool     *pgxpool.Pool
		userRepo auth.UserRepository
		dbPinger handler.Pinger
	)
	if os.Getenv("DB_DISABLED") == "true" {
		log.Warn().Msg("database disabled, accounts are kept in memory")
		userRepo = auth.NewInMemoryUserRepository()
	} else {
		dbConfig, err := database.ConfigFromEnv()
		if err != nil {
			log.Fatal().Err(err).Msg("invalid database configuration")
		}
		pool, err = database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		if err := database.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("failed to apply schema")
		}
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")
		userRepo = auth.NewPostgresUserRepository(pool)
		dbPinger = pool
	}

	// Risk index
	holder := risk.NewHolder(nil)
	if path := os.Getenv("RISK_CSV_PATH"); path != "" {
		idx, err := risk.LoadCSVFile(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("failed to load risk csv")
		}
		holder.Store(idx)
	} else if pool != nil {
		repo := risk.NewPostgresRepository(pool)
		idx, err := repo.LoadIndex(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load risk index")
		}
		holder.Store(idx)

		interval, err := time.ParseDuration(getEnv("RISK_RELOAD_INTERVAL", "5m"))
		if err != nil || interval <= 0 {
			log.Fatal().Str("value", os.Getenv("RISK_RELOAD_INTERVAL")).Msg("invalid RISK_RELOAD_INTERVAL")
		}
		go reloadRisk(ctx, repo, holder, interval, log)
	} else {
		log.Warn().Msg("no risk source configured, all segments score zero risk")
	}
	log.Info().Int("segments", holder.Load().Segments()).Msg("risk index loaded")

	// Routing engine
	region, err := geo.RegionFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid coverage region")
	}
	routingCfg, err := routing.ConfigFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid routing configuration")
	}
	engine, err := routing.NewEngine(routing.EngineConfig{
		Graphs:        graphs,
		Risk:          routing.RiskProviderFunc(func() routing.RiskLookup { return holder.Load() }),
		Region:        &region,
		Weights:       routingCfg.Weights,
		Speeds:        routingCfg.Speeds,
		SearchTimeout: routingCfg.SearchTimeout,
		MaxConcurrent: routingCfg.MaxConcurrent,
		Logger:        log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create routing engine")
	}

	// Geocoder
	registry := resilience.NewRegistry()
	geocoderCfg := nominatim.ConfigFromEnv()
	geocoderCfg.Registry = registry
	geocoderCfg.Logger = log
	geocoder := geocoding.NewService(geocoding.ServiceConfig{
		Provider: nominatim.NewClient(geocoderCfg),
		Region:   &region,
		Logger:   log,
	})

	// Auth
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	authService := auth.NewService(auth.ServiceConfig{
		JWTService: auth.NewJWTService(auth.JWTConfig{
			SigningKey: jwtSigningKey,
			Issuer:     "saferoute",
			Audience:   serviceName,
		}),
		UserRepo: userRepo,
		Logger:   log,
	})

	router := api.NewRouter(api.RouterConfig{
		Version:        Version,
		BuildTime:      BuildTime,
		Logger:         log,
		ServiceName:    serviceName,
		Metrics:        metrics,
		AuthService:    authService,
		Engine:         engine,
		Geocoder:       geocoder,
		Graphs:         graphs,
		Risk:           holder,
		Registry:       registry,
		DB:             dbPinger,
		AllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		RequireTLS:     os.Getenv("REQUIRE_TLS") == "true",
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}

// reloadRisk refreshes the risk index from Postgres until ctx is cancelled.
// A failed reload keeps the previous index.
func reloadRisk(ctx context.Context, repo *risk.PostgresRepository, holder *risk.Holder, every time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			idx, err := repo.LoadIndex(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("risk reload failed")
				continue
			}
			holder.Store(idx)
			log.Debug().Int("segments", idx.Segments()).Msg("risk index reloaded")
		}
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
