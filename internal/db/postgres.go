package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 15 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

// EnsureSchema creates the agenda tables if they do not exist yet. The
// uniqueness of national_id is enforced here so a concurrent insert
// race surfaces as a constraint violation rather than a silent
// duplicate.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS patients (
			id          UUID PRIMARY KEY,
			national_id CHAR(11)  NOT NULL UNIQUE,
			full_name   TEXT      NOT NULL,
			birth_date  DATE      NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS appointments (
			id         UUID PRIMARY KEY,
			patient_id UUID     NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
			date       DATE     NOT NULL,
			start_min  SMALLINT NOT NULL,
			end_min    SMALLINT NOT NULL,
			CHECK (end_min > start_min)
		)`,
		`CREATE INDEX IF NOT EXISTS appointments_patient_date_idx
			ON appointments (patient_id, date)`,
		`CREATE TABLE IF NOT EXISTS event_logs (
			id             BIGSERIAL PRIMARY KEY,
			event_type     TEXT        NOT NULL,
			appointment_id UUID,
			patient_id     UUID,
			payload        JSONB,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return nil
}
