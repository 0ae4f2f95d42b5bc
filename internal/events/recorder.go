package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// LogRecorder appends each event to the event_logs table and publishes it on
// a Redis pub/sub channel for downstream subscribers.
type LogRecorder struct {
	pool    *pgxpool.Pool
	rdb     *redis.Client
	channel string
	log     zerolog.Logger
}

func NewLogRecorder(pool *pgxpool.Pool, rdb *redis.Client, channel string, log zerolog.Logger) *LogRecorder {
	return &LogRecorder{
		pool:    pool,
		rdb:     rdb,
		channel: channel,
		log:     log,
	}
}

func (r *LogRecorder) Record(ctx context.Context, eventType string, appointmentID uuid.UUID, payload map[string]any) {
	ev := Event{
		Type:          eventType,
		AppointmentID: appointmentID,
		Payload:       payload,
		CreatedAt:     time.Now(),
	}

	data, err := json.Marshal(ev.Payload)
	if err != nil {
		r.log.Error().Err(err).Str("event_type", eventType).Msg("marshal event payload")
		data = nil
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`, ev.Type, ev.AppointmentID, data, ev.CreatedAt)
	if err != nil {
		r.log.Error().Err(err).
			Str("event_type", eventType).
			Str("appointment_id", appointmentID.String()).
			Msg("insert event log")
	}

	msg, err := json.Marshal(ev)
	if err != nil {
		r.log.Error().Err(err).Str("event_type", eventType).Msg("marshal event")
		return
	}
	if err := r.rdb.Publish(ctx, r.channel, msg).Err(); err != nil {
		r.log.Warn().Err(err).
			Str("event_type", eventType).
			Str("channel", r.channel).
			Msg("publish event")
	}
}
