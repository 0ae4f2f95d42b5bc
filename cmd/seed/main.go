package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medisched/clinic-queue/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn, 4, 1)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := createSchema(ctx, pool); err != nil {
		log.Fatalf("create schema: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedDoctors(ctx, pool, 25); err != nil {
		log.Fatalf("seed doctors: %v", err)
	}

	log.Println("seed complete")
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS doctors (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		specialty TEXT,
		availability_status TEXT NOT NULL DEFAULT 'available',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS doctor_working_hours (
		doctor_id UUID NOT NULL REFERENCES doctors(id),
		weekday SMALLINT NOT NULL,
		start_minute INT NOT NULL,
		end_minute INT NOT NULL,
		PRIMARY KEY (doctor_id, weekday),
		CHECK (start_minute < end_minute)
	)`,
	`CREATE TABLE IF NOT EXISTS queue_counters (
		doctor_id UUID NOT NULL,
		date DATE NOT NULL,
		regular_count INT NOT NULL DEFAULT 0,
		emergency_count INT NOT NULL DEFAULT 0,
		sequence BIGINT NOT NULL DEFAULT 0,
		PRIMARY KEY (doctor_id, date)
	)`,
	`CREATE TABLE IF NOT EXISTS queue_entries (
		id UUID PRIMARY KEY,
		doctor_id UUID NOT NULL,
		date DATE NOT NULL,
		lane TEXT NOT NULL,
		ordinal INT NOT NULL,
		sequence BIGINT NOT NULL,
		appointment_id UUID NOT NULL,
		cancelled BOOLEAN NOT NULL DEFAULT false,
		served BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (doctor_id, date, lane, ordinal)
	)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id UUID PRIMARY KEY,
		patient_id UUID NOT NULL,
		doctor_id UUID NOT NULL,
		date DATE NOT NULL,
		appointment_type TEXT NOT NULL,
		reason TEXT NOT NULL,
		symptoms TEXT,
		priority TEXT,
		is_emergency BOOLEAN NOT NULL DEFAULT false,
		status TEXT NOT NULL,
		queue_entry_id UUID NOT NULL,
		queue_number TEXT NOT NULL,
		cancel_reason TEXT,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_patient ON appointments (patient_id, date)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_doctor_date ON appointments (doctor_id, date)`,
	`CREATE TABLE IF NOT EXISTS event_logs (
		id BIGSERIAL PRIMARY KEY,
		event_type TEXT NOT NULL,
		appointment_id UUID,
		payload JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

func createSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	log.Println("schema ready")
	return nil
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d doctors", count)

	specialties := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := "Dr. " + gofakeit.Name()
		specialty := specialties[gofakeit.Number(0, len(specialties)-1)]

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (id, name, specialty, availability_status, created_at, updated_at)
			VALUES ($1, $2, $3, 'available', now(), now())
		`, id, name, specialty)
		if err != nil {
			return err
		}

		// Weekday clinic hours, with a random late start or early finish.
		start := 8*60 + gofakeit.Number(0, 4)*30
		end := 16*60 + gofakeit.Number(0, 4)*30
		for weekday := 1; weekday <= 5; weekday++ {
			_, err := tx.Exec(ctx, `
				INSERT INTO doctor_working_hours (doctor_id, weekday, start_minute, end_minute)
				VALUES ($1, $2, $3, $4)
			`, id, weekday, start, end)
			if err != nil {
				return err
			}
		}

		log.Printf("doctor %s (%s, %s)", id, name, specialty)
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("doctors seeded")
	return nil
}
