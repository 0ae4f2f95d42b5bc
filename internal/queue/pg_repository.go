package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry

	err := row.Scan(
		&e.ID,
		&e.DoctorID,
		&e.Date,
		&e.Lane,
		&e.Ordinal,
		&e.Sequence,
		&e.AppointmentID,
		&e.Cancelled,
		&e.Served,
		&e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	return &e, nil
}

// NextOrdinal keeps one counter row per partition and advances it with an
// upsert, so the increment is atomic at the database even if the partition
// lock is ever bypassed.
func (r *PgRepository) NextOrdinal(ctx context.Context, doctorID uuid.UUID, date time.Time, lane Lane) (int, int64, error) {
	column := "regular_count"
	if lane == LaneEmergency {
		column = "emergency_count"
	}

	var ordinal int
	var sequence int64

	query := fmt.Sprintf(`
		INSERT INTO queue_counters (doctor_id, date, regular_count, emergency_count, sequence)
		VALUES ($1, $2, %s, %s, 1)
		ON CONFLICT (doctor_id, date) DO UPDATE
		SET %s = queue_counters.%s + 1,
		    sequence = queue_counters.sequence + 1
		RETURNING %s, sequence
	`,
		initialCount(lane, LaneRegular),
		initialCount(lane, LaneEmergency),
		column, column, column,
	)

	err := r.pool.QueryRow(ctx, query, doctorID, date).Scan(&ordinal, &sequence)
	if err != nil {
		return 0, 0, fmt.Errorf("advance %s counter: %w", lane, err)
	}

	return ordinal, sequence, nil
}

func initialCount(lane, want Lane) string {
	if lane == want {
		return "1"
	}
	return "0"
}

func (r *PgRepository) InsertEntry(ctx context.Context, e *Entry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO queue_entries (id, doctor_id, date, lane, ordinal, sequence, appointment_id, cancelled, served, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, false, now())
	`, e.ID, e.DoctorID, e.Date, e.Lane, e.Ordinal, e.Sequence, e.AppointmentID)
	if err != nil {
		return fmt.Errorf("insert queue entry: %w", err)
	}
	return nil
}

func (r *PgRepository) GetEntry(ctx context.Context, id uuid.UUID) (*Entry, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, date, lane, ordinal, sequence, appointment_id, cancelled, served, created_at
		FROM queue_entries
		WHERE id = $1
	`, id)
	return scanEntry(row)
}

func (r *PgRepository) ListEntries(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, date, lane, ordinal, sequence, appointment_id, cancelled, served, created_at
		FROM queue_entries
		WHERE doctor_id = $1 AND date = $2
		ORDER BY (lane = 'emergency') DESC, ordinal ASC
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) NextUnserved(ctx context.Context, doctorID uuid.UUID, date time.Time) (*Entry, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, date, lane, ordinal, sequence, appointment_id, cancelled, served, created_at
		FROM queue_entries
		WHERE doctor_id = $1 AND date = $2
		  AND NOT served AND NOT cancelled
		ORDER BY (lane = 'emergency') DESC, ordinal ASC
		LIMIT 1
	`, doctorID, date)
	return scanEntry(row)
}

func (r *PgRepository) MarkServed(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE queue_entries
		SET served = true
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("mark entry served: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *PgRepository) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE queue_entries
		SET cancelled = true
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("mark entry cancelled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (r *PgRepository) CountLive(ctx context.Context, doctorID uuid.UUID, date time.Time) (int, int, error) {
	var regular, emergency int
	err := r.pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE lane = 'regular'),
			count(*) FILTER (WHERE lane = 'emergency')
		FROM queue_entries
		WHERE doctor_id = $1 AND date = $2
		  AND NOT served AND NOT cancelled
	`, doctorID, date).Scan(&regular, &emergency)
	if err != nil {
		return 0, 0, fmt.Errorf("count live entries: %w", err)
	}
	return regular, emergency, nil
}
