package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/medisched/clinic-queue/internal/appointment"
	"github.com/medisched/clinic-queue/internal/config"
	"github.com/medisched/clinic-queue/internal/db"
	"github.com/medisched/clinic-queue/internal/events"
	"github.com/medisched/clinic-queue/internal/queue"
	redisclient "github.com/medisched/clinic-queue/internal/redis"
)

// The no-show worker sweeps appointments left in scheduled or confirmed
// status after their day has passed and marks them no-show, so their queue
// entries stop blocking the serving pointer and the status history stays
// honest.
func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "noshow-worker").Logger()
	logger.Info().Msg("noshow-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}

	logger.Info().
		Str("env", cfg.Env).
		Dur("interval", cfg.WorkerInterval).
		Msg("running no-show sweeper")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.PgMaxConns, cfg.PgMinConns)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisPoolSize)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	recorder := events.NewLogRecorder(pgPool, rdb, cfg.EventsChannel, logger)
	locker := redisclient.NewRedisPartitionLocker(rdb, cfg.LockTTL, cfg.LockWait)
	queues := queue.NewService(queue.NewPgRepository(pgPool), locker, logger)
	svc := appointment.NewService(appointment.NewPgRepository(pgPool), queues, recorder, logger)

	// Run once at startup
	runOnce(rootCtx, svc, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info().Msg("shutdown signal received, stopping no-show sweeper")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, logger)
		}
	}
}

func runOnce(ctx context.Context, svc *appointment.Service, logger zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	if err := svc.SweepNoShows(runCtx, start); err != nil {
		logger.Error().Err(err).Msg("sweep run error")
		return
	}
	logger.Info().Dur("took", time.Since(start)).Msg("sweep run complete")
}
