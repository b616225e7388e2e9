// Package main is the entry point for the travel itineraries API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/pkordes/travel-itineraries/backend/internal/auth"
	"github.com/pkordes/travel-itineraries/backend/internal/config"
	"github.com/pkordes/travel-itineraries/backend/internal/handler"
	"github.com/pkordes/travel-itineraries/backend/internal/middleware"
	"github.com/pkordes/travel-itineraries/backend/internal/repo"
	"github.com/pkordes/travel-itineraries/backend/internal/repo/memory"
	"github.com/pkordes/travel-itineraries/backend/internal/service"
	"github.com/pkordes/travel-itineraries/backend/migrations"
)

const (
	sessionPurgeInterval   = time.Hour
	rateLimitEvictInterval = time.Minute
)

// stores bundles the three repositories the services need.
type stores struct {
	users       repo.UserRepo
	sessions    repo.SessionRepo
	itineraries repo.ItineraryRepo
	close       func()
}

func main() {
	// --- Config -----------------------------------------------------------
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to read .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Storage ----------------------------------------------------------
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	defer st.close()

	// --- Services ---------------------------------------------------------
	authSvc := service.NewAuthService(
		st.users,
		st.sessions,
		auth.NewHasher(cfg.BcryptCost),
		auth.NewTokenSigner(cfg.Session.Secret, nil),
		cfg.Session.TTL,
		nil,
	)
	itinerarySvc := service.NewItineraryService(st.itineraries, st.users)
	exportSvc := service.NewExportService(st.itineraries)

	go purgeSessions(ctx, authSvc, logger)

	limiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst, logger)
	go limiter.Run(ctx, rateLimitEvictInterval)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP (when trusted) → Logger → Recoverer
	// → CORS → body limit → session. The session loader runs last so every
	// handler sees the resolved user.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.NewRealIPHandler(cfg.TrustProxyHeaders))
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Use(middleware.NewSessionLoader(authSvc, cfg.Session.CookieName, logger))

	srv := handler.NewServer(authSvc, itinerarySvc, exportSvc, handler.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
	}, logger)
	r.Mount("/", srv.Routes(limiter.Handler))

	// --- HTTP Server ------------------------------------------------------
	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", "addr", httpSrv.Addr, "storage", cfg.StorageBackend)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	logger.Info("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// openStores connects the configured storage backend. For Postgres it
// verifies the database is reachable and applies pending migrations when
// MigrateOnStart is set.
func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (stores, error) {
	if cfg.StorageBackend == config.StorageMemory {
		logger.Warn("using in-memory storage; data is lost on restart")
		s := memory.NewStore(nil)
		return stores{
			users:       s.Users(),
			sessions:    s.Sessions(),
			itineraries: s.Itineraries(),
			close:       func() {},
		}, nil
	}

	// New() does not open connections immediately; Ping does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return stores{}, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return stores{}, err
	}
	logger.Info("database connection established")

	if cfg.MigrateOnStart {
		// goose needs a database/sql handle; borrow one backed by the pool.
		db := stdlib.OpenDBFromPool(pool)
		n, err := migrations.Up(ctx, db)
		db.Close()
		if err != nil {
			pool.Close()
			return stores{}, err
		}
		logger.Info("migrations applied", "count", n)
	}

	return stores{
		users:       repo.NewUserRepo(pool),
		sessions:    repo.NewSessionRepo(pool),
		itineraries: repo.NewItineraryRepo(pool),
		close:       pool.Close,
	}, nil
}

// purgeSessions deletes expired sessions on a ticker until ctx is cancelled.
func purgeSessions(ctx context.Context, svc *service.AuthService, logger *slog.Logger) {
	t := time.NewTicker(sessionPurgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := svc.PurgeExpiredSessions(ctx)
			if err != nil {
				logger.Error("session purge failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("expired sessions purged", "count", n)
			}
		}
	}
}
