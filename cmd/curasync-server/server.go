package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/curasync/ehr/internal/config"
	"github.com/curasync/ehr/internal/domain/clinical"
	"github.com/curasync/ehr/internal/domain/dashboard"
	"github.com/curasync/ehr/internal/domain/identity"
	"github.com/curasync/ehr/internal/domain/scheduling"
	"github.com/curasync/ehr/internal/platform/auth"
	"github.com/curasync/ehr/internal/platform/db"
	"github.com/curasync/ehr/internal/platform/kv"
	"github.com/curasync/ehr/internal/platform/metrics"
	"github.com/curasync/ehr/internal/platform/middleware"
	"github.com/curasync/ehr/internal/platform/response"
	"github.com/curasync/ehr/internal/platform/sandbox"
)

// isoMillis matches the timestamp format of JavaScript's toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z"

// server bundles the echo instance with the pieces main needs after wiring.
// readOnlyRoutes accept a POST body but write no collection.
var readOnlyRoutes = []string{"/login", "/logout", "/appointments/check"}

type server struct {
	echo     *echo.Echo
	seeder   *sandbox.Seeder
	sessions *auth.SessionManager
}

func newServer(cfg *config.Config, logger zerolog.Logger, store kv.Store, pool *pgxpool.Pool, m *metrics.Metrics) (*server, error) {
	store = m.InstrumentStore(store)

	signingKey, err := cfg.SigningKey()
	if err != nil {
		return nil, err
	}
	sessions := auth.NewSessionManager(store, signingKey, cfg.SessionTTL)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = response.ErrorHandler(logger)

	rateLimitCfg := middleware.DefaultRateLimitConfig()
	rateLimitCfg.RequestsPerSecond = cfg.RateLimitRPS
	rateLimitCfg.BurstSize = cfg.RateLimitBurst

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(m.Middleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader, auth.SessionHeader},
		ExposeHeaders: []string{auth.SessionHeader, middleware.RequestIDHeader},
	}))
	e.Use(middleware.RateLimit(rateLimitCfg))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.AuditWithConfig(middleware.AuditConfig{
		Logger: logger,
		Recorders: []middleware.AuditRecorder{
			middleware.AuditRecorderFunc(func(entry middleware.AuditEntry) error {
				m.Mutation(entry.Collection, entry.Action)
				return nil
			}),
		},
		ReadOnlyRoutes: readOnlyRoutes,
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(isoMillis),
		})
	})
	e.GET("/health/store", db.HealthHandler(cfg.StoreDriver, pool, logger))
	e.GET("/metrics", m.Handler())

	identitySvc := identity.NewService(identity.NewUserRepoKV(store), cfg.StaffEmailDomain)
	schedulingSvc := scheduling.NewService(scheduling.NewAppointmentRepoKV(store), scheduling.NewAvailabilityRepoKV(store))
	clinicalSvc := clinical.NewService(clinical.NewRecordRepoKV(store))
	seeder := sandbox.NewSeeder(store, logger)

	root := e.Group("")
	requireSession := auth.SessionMiddleware(sessions)

	identityHandler := identity.NewHandler(identitySvc, sessions, m)
	identityHandler.RegisterRoutes(root)
	identityHandler.RegisterSessionRoutes(root, requireSession)

	scheduling.NewHandler(schedulingSvc).RegisterRoutes(root)
	clinical.NewHandler(clinicalSvc).RegisterRoutes(root)
	sandbox.NewSeedHandler(seeder).RegisterRoutes(root)

	dashboardSvc := dashboard.NewService(identitySvc, schedulingSvc, clinicalSvc)
	dashboard.NewHandler(dashboardSvc).RegisterRoutes(e.Group("/dashboard", requireSession))

	return &server{echo: e, seeder: seeder, sessions: sessions}, nil
}

// warnRandomSigningKey flags any environment running without a configured
// session key. Production never gets here; Validate rejects it.
func warnRandomSigningKey(logger zerolog.Logger, cfg *config.Config) bool {
	if cfg.SessionSigningKey != "" {
		return false
	}
	logger.Warn().Str("env", cfg.Env).Msg("SESSION_SIGNING_KEY not set; using a random key, sessions end on restart")
	return true
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		l := newLogger(os.Getenv("ENV"))
		l.Fatal().Err(err).Msg("failed to load config")
	}
	logger := newLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	warnRandomSigningKey(logger, cfg)

	ctx := context.Background()
	store, pool, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	if pool != nil {
		defer pool.Close()
		logger.Info().Msg("connected to database")
	}
	logger.Info().Str("driver", cfg.StoreDriver).Msg("store ready")

	srv, err := newServer(cfg, logger, store, pool, metrics.New())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}

	if n, err := srv.sessions.PurgeExpired(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to purge expired sessions")
	} else if n > 0 {
		logger.Info().Int("sessions", n).Msg("purged expired sessions")
	}

	if cfg.SeedOnStart {
		res, err := srv.seeder.Initialize(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to seed demo data")
		}
		logger.Info().Bool("seeded", res.Seeded).Int("users", res.Users).Msg("demo data checked")
	}

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := srv.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.echo.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
