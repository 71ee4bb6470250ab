package runstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes; a mismatched database
// must be deleted, not migrated in place.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store persists per-menu run state in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the run database inside dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure store directory: %w", err)
	}
	dbPath := filepath.Join(dir, "runs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the on-disk database location.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

const menuRunColumns = "id, run_id, menu_id, status, page_count, rect_count, fallback_count, error_message, created_at, updated_at"

// NewMenu inserts a pending record for one menu of a run.
func (s *Store) NewMenu(ctx context.Context, runID, menuID string) (*MenuRun, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO menu_runs (run_id, menu_id, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		runID, menuID, StatusPending, timestamp, timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert menu run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a menu run by identifier; nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*MenuRun, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+menuRunColumns+` FROM menu_runs WHERE id = ?`, id)
	run, err := scanMenuRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get menu run: %w", err)
	}
	return run, nil
}

// Update persists the mutable fields of a menu run.
func (s *Store) Update(ctx context.Context, run *MenuRun) error {
	if run == nil {
		return errors.New("menu run is required")
	}
	if !IsValidStatus(run.Status) {
		return fmt.Errorf("invalid status %q", run.Status)
	}
	run.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`UPDATE menu_runs SET status = ?, page_count = ?, rect_count = ?,
            fallback_count = ?, error_message = ?, updated_at = ?
         WHERE id = ?`,
		run.Status, run.PageCount, run.RectCount,
		run.FallbackCount, run.ErrorMessage,
		run.UpdatedAt.Format(time.RFC3339Nano), run.ID,
	)
	if err != nil {
		return fmt.Errorf("update menu run: %w", err)
	}
	return nil
}

// ListByRun returns every menu record of a run in menu-id order.
func (s *Store) ListByRun(ctx context.Context, runID string) ([]*MenuRun, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+menuRunColumns+` FROM menu_runs WHERE run_id = ? ORDER BY menu_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list menu runs: %w", err)
	}
	defer rows.Close()

	var runs []*MenuRun
	for rows.Next() {
		run, err := scanMenuRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan menu run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LatestRunID returns the most recently created run identifier, or "".
func (s *Store) LatestRunID(ctx context.Context) (string, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id FROM menu_runs ORDER BY created_at DESC, id DESC LIMIT 1`)
	var runID string
	err := row.Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("latest run id: %w", err)
	}
	return runID, nil
}

// Summarize aggregates menu counts for one run.
func (s *Store) Summarize(ctx context.Context, runID string) (Summary, error) {
	runs, err := s.ListByRun(ctx, runID)
	if err != nil {
		return Summary{}, err
	}
	var summary Summary
	summary.Total = len(runs)
	for _, run := range runs {
		switch run.Status {
		case StatusPending, StatusProcessing:
			summary.Pending++
		case StatusCompleted:
			summary.Completed++
		case StatusNoButtons:
			summary.NoButtons++
		case StatusFailed:
			summary.Failed++
		}
	}
	return summary, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMenuRun(row rowScanner) (*MenuRun, error) {
	var run MenuRun
	var status string
	var createdAt, updatedAt string
	if err := row.Scan(
		&run.ID, &run.RunID, &run.MenuID, &status,
		&run.PageCount, &run.RectCount, &run.FallbackCount,
		&run.ErrorMessage, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	run.Status = Status(status)
	if parsed, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		run.CreatedAt = parsed
	}
	if parsed, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		run.UpdatedAt = parsed
	}
	return &run, nil
}
