// Command server runs the authentication service for the case-filing platform.
//
// It wires high-level dependencies and keeps the server lifecycle small;
// business logic lives in the internal services packages. Optional backends
// (Redis, Postgres, Kafka) degrade to in-memory equivalents when unconfigured.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"firtrace/internal/audit"
	"firtrace/internal/auth"
	attemptstore "firtrace/internal/auth/store/attempts"
	tokenstore "firtrace/internal/auth/store/tokens"
	"firtrace/internal/platform/config"
	"firtrace/internal/platform/httpserver"
	"firtrace/internal/platform/logger"
	"firtrace/internal/platform/metrics"
	platformredis "firtrace/internal/platform/redis"
	httptransport "firtrace/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Issued-token tracking: Redis when configured, in-memory otherwise.
	var issued auth.TokenStore = tokenstore.NewInMemory()
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		issued = tokenstore.NewRedis(redisClient.Client)
		defer redisClient.Close()
		log.Info("issued-token store backed by redis")
	}

	// Attempt log: Postgres when configured.
	var attempts auth.AttemptStore = attemptstore.NewInMemory()
	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		attempts = attemptstore.NewPostgres(pool)
		log.Info("attempt log backed by postgres")
	}

	// Audit trail: Kafka when configured, otherwise attempts only.
	var auditor audit.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			log.Error("kafka unavailable", "error", err)
			os.Exit(1)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = kafka.Close(flushCtx)
		}()
		auditor = kafka
		log.Info("audit events published to kafka", "topic", cfg.KafkaTopic)
	}

	tokens := auth.NewTokenService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.TokenTTL)
	service := auth.NewService(auth.EnvelopeVerifier{}, tokens, issued, attempts, auditor, log)

	m := metrics.New()
	router := httptransport.NewRouter(httptransport.NewAuthHandler(service, m, log))
	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting firtrace auth server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
