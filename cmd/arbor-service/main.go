package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/arborhq/arbor/internal/api"
	"github.com/arborhq/arbor/internal/auth"
	"github.com/arborhq/arbor/internal/config"
	"github.com/arborhq/arbor/internal/events"
	"github.com/arborhq/arbor/internal/health"
	"github.com/arborhq/arbor/internal/platform/logger"
	"github.com/arborhq/arbor/internal/store"
	"github.com/arborhq/arbor/internal/store/postgres"
	"github.com/arborhq/arbor/internal/store/sqlite"
)

func main() {
	// Optional build-target flag override (local | cloud-dev | cloud)
	buildTarget := flag.String("build-target", "", "Override BUILD_TARGET (local, cloud-dev, cloud)")
	flag.Parse()

	log := logger.New("arbor-service")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *buildTarget != "" {
		cfg.BuildTarget = *buildTarget
		cfg.DBDriver = "auto"
		if err := cfg.ResolveDefaults(); err != nil {
			log.Fatal().Err(err).Msg("Invalid build-target override")
		}
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Msg("Arbor service starting…")

	// -------- Storage layer -----------------
	ctx := context.Background()
	var (
		db        *sql.DB
		storeImpl store.Store
	)
	switch cfg.DBDriver {
	case "postgres":
		db, err = postgres.Open(cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("Postgres unavailable")
		}
		if err := postgres.Bootstrap(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("Postgres bootstrap failed")
		}
		storeImpl = postgres.NewWithDB(db)
	case "sqlite":
		db, err = sqlite.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("SQLite unavailable")
		}
		storeImpl = sqlite.NewWithDB(db)
	default:
		log.Fatal().Str("driver", cfg.DBDriver).Msg("Unknown DB driver")
	}
	defer func() { _ = db.Close() }()

	// -------- Auth ------------------------
	secret := cfg.JWTSecret
	if secret == "" {
		log.Warn().Msg("ARBOR_JWT_SECRET not set; using an ephemeral secret, tokens will not survive restarts")
		secret = fmt.Sprintf("ephemeral-%d", time.Now().UnixNano())
	}
	issuer := auth.NewTokenIssuer(secret, cfg.JWTTTL)

	// -------- Events ----------------------
	bus := events.NewBus(cfg.EventBuffer)
	go logLinkEvents(ctx, log, bus)

	// -------- Health monitor --------------
	storeHC := store.NewStoreHealthChecker(storeImpl, log, 2*time.Second)
	serviceHC := health.NewServiceHealthChecker(log, storeHC)
	go storeHC.Start(ctx, 30*time.Second)
	go serviceHC.Start(ctx, 30*time.Second)

	// -------- Router & Server -------------
	router := api.NewRouter(api.RouterDeps{
		Store:   storeImpl,
		Issuer:  issuer,
		Bus:     bus,
		Service: serviceHC,
		StoreHC: storeHC,
	})
	server := &http.Server{
		Addr:         cfg.GetHTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server…")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// logLinkEvents drains the bus so link lifecycle changes show up in the
// service log even when no other consumer is attached.
func logLinkEvents(ctx context.Context, log zerolog.Logger, bus *events.Bus) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-bus.Subscribe():
			log.Info().
				Str("kind", string(evt.Kind)).
				Str("parent", evt.ParentID).
				Str("child", evt.ChildID).
				Str("request", evt.RequestID).
				Msg("link event")
		}
	}
}
