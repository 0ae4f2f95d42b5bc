package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) GetProfile(ctx context.Context, doctorID uuid.UUID) (*Profile, error) {
	var p Profile
	var specialty *string

	row := s.pool.QueryRow(ctx, `
		SELECT id, name, specialty, availability_status, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, doctorID)

	err := row.Scan(&p.DoctorID, &p.Name, &specialty, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	p.Specialty = specialty

	rows, err := s.pool.Query(ctx, `
		SELECT weekday, start_minute, end_minute
		FROM doctor_working_hours
		WHERE doctor_id = $1
	`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("load working hours: %w", err)
	}
	defer rows.Close()

	p.Hours = make(WeekHours)
	for rows.Next() {
		var weekday int
		var w DayWindow
		if err := rows.Scan(&weekday, &w.Start, &w.End); err != nil {
			return nil, err
		}
		p.Hours[time.Weekday(weekday)] = w
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &p, nil
}

// SetWorkingHours replaces the doctor's weekly schedule in one transaction.
func (s *PgStore) SetWorkingHours(ctx context.Context, doctorID uuid.UUID, hours WeekHours) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `SELECT 1 FROM doctors WHERE id = $1`, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM doctor_working_hours WHERE doctor_id = $1`, doctorID); err != nil {
		return fmt.Errorf("clear working hours: %w", err)
	}

	for day, w := range hours {
		_, err := tx.Exec(ctx, `
			INSERT INTO doctor_working_hours (doctor_id, weekday, start_minute, end_minute)
			VALUES ($1, $2, $3, $4)
		`, doctorID, int(day), w.Start, w.End)
		if err != nil {
			return fmt.Errorf("insert working hours: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PgStore) SetStatus(ctx context.Context, doctorID uuid.UUID, status Status) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE doctors
		SET availability_status = $2,
		    updated_at = now()
		WHERE id = $1
	`, doctorID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDoctorNotFound
	}
	return nil
}
