package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/medisched/clinic-queue/internal/appointment"
	"github.com/medisched/clinic-queue/internal/availability"
	"github.com/medisched/clinic-queue/internal/booking"
	"github.com/medisched/clinic-queue/internal/queue"
)

type RouterConfig struct {
	Booking      *booking.Service
	Appointments *appointment.Service
	Queues       *queue.Service
	Profiles     availability.ProfileStore
	Calculator   availability.Calculator
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Logger       zerolog.Logger
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints stay open; everything else needs an identity.
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Group(func(r chi.Router) {
		r.Use(ActorMiddleware)

		r.Post("/appointments", bookAppointmentHandler(cfg.Booking))
		r.Get("/appointments", listAppointmentsHandler(cfg.Appointments))
		r.Get("/appointments/{id}", getAppointmentHandler(cfg.Appointments))
		r.Patch("/appointments/{id}/status", updateStatusHandler(cfg.Appointments))
		r.Post("/appointments/{id}/reschedule", rescheduleHandler(cfg.Booking))
		r.Post("/appointments/{id}/cancel", cancelHandler(cfg.Booking))

		r.Get("/doctors/{id}/slots", daySlotsHandler(cfg.Profiles, cfg.Calculator, cfg.Queues))
		r.Get("/doctors/{id}/queue", dayQueueHandler(cfg.Queues))
		r.Put("/doctors/{id}/working-hours", setWorkingHoursHandler(cfg.Profiles))
		r.Put("/doctors/{id}/availability", setAvailabilityHandler(cfg.Profiles))
	})

	return r
}
