// Package db provides optional PostgreSQL persistence for the session ledger.
package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// CreateRun creates a new fill run record and returns its ID
func (db *DB) CreateRun(ctx context.Context, profilePath, startURL string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO fill_runs (profile_path, start_url, status)
		 VALUES ($1, $2, 'running')
		 RETURNING id`,
		profilePath, startURL,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun marks a fill run as finished with the given status
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, status string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE fill_runs SET status = $1, completed_at = NOW() WHERE id = $2`,
		status, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// RecordPage appends a ledger entry for one processed page
func (db *DB) RecordPage(ctx context.Context, runID uuid.UUID, page PageRecord) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO fill_pages (run_id, url, questions, filled, manual_changes, accepted, persisted)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		runID, page.URL, page.Questions, page.Filled, page.ManualChanges, page.Accepted, page.Persisted,
	)
	if err != nil {
		return fmt.Errorf("failed to record page %s: %w", page.URL, err)
	}
	return nil
}

// GetRun retrieves a fill run by ID
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	var run Run
	err := db.pool.QueryRow(ctx,
		`SELECT id, profile_path, start_url, status, created_at, completed_at
		 FROM fill_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.ProfilePath, &run.StartURL, &run.Status, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns retrieves recent fill runs
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit == 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, profile_path, start_url, status, created_at, completed_at
		 FROM fill_runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.ProfilePath, &run.StartURL, &run.Status, &run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// ListPages retrieves the page ledger for a run in processing order
func (db *DB) ListPages(ctx context.Context, runID uuid.UUID) ([]PageRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, url, questions, filled, manual_changes, accepted, persisted, created_at
		 FROM fill_pages WHERE run_id = $1 ORDER BY created_at ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var pages []PageRecord
	for rows.Next() {
		var p PageRecord
		if err := rows.Scan(&p.ID, &p.RunID, &p.URL, &p.Questions, &p.Filled, &p.ManualChanges, &p.Accepted, &p.Persisted, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, nil
}

// DeleteRun deletes a fill run and its page ledger (via cascade)
func (db *DB) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM fill_runs WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}
