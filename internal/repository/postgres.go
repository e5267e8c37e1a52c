// Package repository provides PostgreSQL persistence for the monitoring
// input tables: store status observations, business hours, and timezones.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/nadmax/storepulse/internal/store"
)

type PostgresStoreRepository struct {
	db *sql.DB
}

func NewPostgresStoreRepository(connectionString string) (*PostgresStoreRepository, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresStoreRepository{db: db}, nil
}

// LoadSnapshot bulk-reads the three input tables and assembles the immutable
// snapshot a report job computes against. Concurrent triggers each get their
// own load, so no job ever observes a partially written dataset.
func (r *PostgresStoreRepository) LoadSnapshot(ctx context.Context) (*store.Snapshot, error) {
	observations, err := r.loadObservations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load store status: %w", err)
	}

	hours, err := r.loadBusinessHours(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load business hours: %w", err)
	}

	zones, err := r.loadTimezones(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezones: %w", err)
	}

	return store.NewSnapshot(observations, hours, zones), nil
}

func (r *PostgresStoreRepository) loadObservations(ctx context.Context) ([]store.Observation, error) {
	query := `
		SELECT store_id, status, timestamp_utc
		FROM store_status
		ORDER BY timestamp_utc, id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	var observations []store.Observation
	for rows.Next() {
		var o store.Observation
		var status string
		if err := rows.Scan(&o.StoreID, &status, &o.Timestamp); err != nil {
			return nil, err
		}
		o.Status = store.Status(status)

		observations = append(observations, o)
	}

	return observations, rows.Err()
}

func (r *PostgresStoreRepository) loadBusinessHours(ctx context.Context) ([]store.BusinessHoursRow, error) {
	query := `
		SELECT store_id, day_of_week, start_time_local, end_time_local
		FROM business_hours
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	var hours []store.BusinessHoursRow
	for rows.Next() {
		var h store.BusinessHoursRow
		if err := rows.Scan(&h.StoreID, &h.DayOfWeek, &h.StartLocal, &h.EndLocal); err != nil {
			return nil, err
		}

		hours = append(hours, h)
	}

	return hours, rows.Err()
}

func (r *PostgresStoreRepository) loadTimezones(ctx context.Context) ([]store.Timezone, error) {
	query := `
		SELECT store_id, timezone_str
		FROM timezones
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	var zones []store.Timezone
	for rows.Next() {
		var z store.Timezone
		if err := rows.Scan(&z.StoreID, &z.Name); err != nil {
			return nil, err
		}

		zones = append(zones, z)
	}

	return zones, rows.Err()
}

// TruncateAll clears the three input tables before a fresh CSV import.
func (r *PostgresStoreRepository) TruncateAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `TRUNCATE store_status, business_hours, timezones`)
	return err
}

// InsertObservations bulk-loads observations with COPY.
func (r *PostgresStoreRepository) InsertObservations(ctx context.Context, observations []store.Observation) error {
	return r.copyRows(ctx,
		pq.CopyIn("store_status", "store_id", "status", "timestamp_utc"),
		len(observations),
		func(i int) []any {
			o := observations[i]
			return []any{o.StoreID, string(o.Status), o.Timestamp}
		},
	)
}

// InsertBusinessHours bulk-loads business-hours rows with COPY.
func (r *PostgresStoreRepository) InsertBusinessHours(ctx context.Context, hours []store.BusinessHoursRow) error {
	return r.copyRows(ctx,
		pq.CopyIn("business_hours", "store_id", "day_of_week", "start_time_local", "end_time_local"),
		len(hours),
		func(i int) []any {
			h := hours[i]
			return []any{h.StoreID, h.DayOfWeek, h.StartLocal, h.EndLocal}
		},
	)
}

// InsertTimezones bulk-loads timezone rows with COPY.
func (r *PostgresStoreRepository) InsertTimezones(ctx context.Context, zones []store.Timezone) error {
	return r.copyRows(ctx,
		pq.CopyIn("timezones", "store_id", "timezone_str"),
		len(zones),
		func(i int) []any {
			z := zones[i]
			return []any{z.StoreID, z.Name}
		},
	)
}

func (r *PostgresStoreRepository) copyRows(ctx context.Context, copyStmt string, n int, row func(i int) []any) error {
	if n == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, copyStmt)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, row(i)...); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return err
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return err
	}

	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (r *PostgresStoreRepository) Close() error {
	return r.db.Close()
}
