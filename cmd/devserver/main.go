// Command devserver runs a local stand-in for the hosted book-catalog
// service so the client can be developed and tested offline. It serves the
// same REST contract over SQLite and carries the standard middleware chain
// (request IDs, structured logs, metrics, rate limiting, optional tracing).
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/cduarte/estante/internal/config"
	"github.com/cduarte/estante/internal/devserver"
	"github.com/cduarte/estante/internal/observability"
	"github.com/cduarte/estante/internal/sysutil"
)

// version is stamped at build time.
var version = "dev"

func main() {
	// A missing .env is fine; environment variables win either way.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogging(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.Setup(ctx, cfg.Server.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("tracing setup failed")
	}

	db, err := devserver.OpenSQLite(cfg.Server.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Server.DBPath).Msg("open database failed")
	}
	if err := devserver.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}
	if err := devserver.SeedCategories(db); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           devserver.NewRouter(db, cfg.Server),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("devserver listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown failed")
	}
}
