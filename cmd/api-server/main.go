package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/medisched/clinic-queue/internal/api"
	"github.com/medisched/clinic-queue/internal/appointment"
	"github.com/medisched/clinic-queue/internal/availability"
	"github.com/medisched/clinic-queue/internal/booking"
	"github.com/medisched/clinic-queue/internal/config"
	"github.com/medisched/clinic-queue/internal/db"
	"github.com/medisched/clinic-queue/internal/events"
	"github.com/medisched/clinic-queue/internal/queue"
	redisclient "github.com/medisched/clinic-queue/internal/redis"
)

const version = "0.3.0"

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "api-server").Logger()
	logger.Info().Msg("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}

	logger.Info().
		Str("env", cfg.Env).
		Str("http_port", cfg.HTTPPort).
		Int("horizon_days", cfg.HorizonDays).
		Msg("configuration loaded")

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
	idem := redisclient.NewIdempotencyStore(rdb, cfg.IdempotencyTTL)

	queues := queue.NewService(queue.NewPgRepository(pgPool), locker, logger)
	apptRepo := appointment.NewPgRepository(pgPool)
	lifecycle := appointment.NewService(apptRepo, queues, recorder, logger)
	profiles := availability.NewPgStore(pgPool)
	calc := availability.NewCalculator(cfg.HorizonDays)
	bookings := booking.NewService(apptRepo, lifecycle, queues, profiles, calc, idem, recorder, logger)

	handler := api.NewRouter(api.RouterConfig{
		Booking:      bookings,
		Appointments: lifecycle,
		Queues:       queues,
		Profiles:     profiles,
		Calculator:   calc,
		PgPool:       pgPool,
		Redis:        rdb,
		Logger:       logger,
		Env:          cfg.Env,
		Version:      version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()
	logger.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
