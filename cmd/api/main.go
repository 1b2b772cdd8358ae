// Package main is the entry point for the marketplace API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tiendadigital/marketplace-api/internal/api"
	"github.com/tiendadigital/marketplace-api/internal/api/handler"
	"github.com/tiendadigital/marketplace-api/internal/api/metrics"
	"github.com/tiendadigital/marketplace-api/internal/core/ports"
	"github.com/tiendadigital/marketplace-api/internal/core/service"
	mongodb "github.com/tiendadigital/marketplace-api/internal/infrastructure/db/mongo"
	redisdb "github.com/tiendadigital/marketplace-api/internal/infrastructure/db/redis"
	"github.com/tiendadigital/marketplace-api/internal/infrastructure/queue"
	"github.com/tiendadigital/marketplace-api/internal/infrastructure/scheduler"
	"github.com/tiendadigital/marketplace-api/internal/pkg/config"
	"github.com/tiendadigital/marketplace-api/internal/telemetry"
	"github.com/tiendadigital/marketplace-api/pkg/logger"
)

const (
	serviceName     = "marketplace-api"
	version         = "1.0.0"
	shutdownTimeout = 15 * time.Second
)

// @title Marketplace API
// @version 1.0
// @description Accounts, sessions and profiles for the marketplace.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger level comes from config, so fall back to defaults here.
		boot := logger.New(logger.Options{Service: serviceName})
		boot.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Env: cfg.Env, Service: serviceName})

	shutdownTracing, err := telemetry.InitTraceProvider(ctx, cfg.Telemetry.OTLPEndpoint, version)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise tracing")
	}

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("failed to create indexes")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}

	users := mongodb.NewUserRepository(db)
	tokenStore := mongodb.NewTokenRepository(db)
	var tokens ports.RefreshTokenRepository = redisdb.NewTokenCache(rdb, tokenStore, cfg.Redis.TokenCacheTTL, log)

	// --- Token codec ---
	codec, err := service.NewTokenCodec(service.TokenConfig{
		AccessSecret:      cfg.Auth.AccessSecret,
		AccessExpiration:  cfg.Auth.AccessExpiration.Duration(),
		RefreshSecret:     cfg.Auth.RefreshSecret,
		RefreshExpiration: cfg.Auth.RefreshExpiration.Duration(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build token codec")
	}

	// --- Background workers ---
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	audit := queue.NewDispatcher(cfg.Audit.Workers, mongodb.NewAuditRepository(db), metrics.AuditEventsDroppedTotal, log)
	audit.Start(workerCtx)

	var pruner *scheduler.Pruner
	if cfg.Auth.PruneSchedule != "" {
		pruner, err = scheduler.NewPruner(tokenStore, cfg.Auth.PruneSchedule, metrics.RefreshTokensPrunedTotal, log)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid refresh token prune schedule")
		}
		pruner.Start(workerCtx)
		log.Info().Str("schedule", cfg.Auth.PruneSchedule).Msg("refresh token pruning enabled")
	}

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Users:  users,
		Tokens: tokens,
		Codec:  codec,
		Hasher: service.NewPasswordHasher(cfg.Auth.BcryptCost),
		Audit:  audit,
		Readiness: map[string]handler.Pinger{
			"mongodb": mongodb.Pinger{Client: mongoClient},
			"redis":   redisdb.Pinger{Client: rdb},
		},
		APIPrefix: cfg.APIPrefix,
		Log:       log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting marketplace API")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if pruner != nil {
		pruner.Stop()
	}
	audit.Close()
	cancelWorkers()

	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("redis close")
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("mongo disconnect")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
}
