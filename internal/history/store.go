package history

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"simwatch/internal/config"
	"simwatch/internal/sim"
)

// Operation kinds recorded in the audit log.
const (
	KindActivation   = "activation"
	KindDeactivation = "deactivation"
	KindRetry        = "retry"
	KindAnalysis     = "analysis"
)

// Operation is one audit log entry.
type Operation struct {
	ID         int64
	OccurredAt time.Time
	Kind       string
	BatchID    string
	JobID      string
	Detail     string
}

// Store manages the audit log backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
	now  func() time.Time
}

// Open initializes or connects to the history database under cfg.History.Dir.
// The database is guarded by a file lock so only one process writes at a
// time.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.History.Dir, "history.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire history lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("history database is in use by another simwatch process")
	}

	dbPath := filepath.Join(cfg.History.Dir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
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
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, lock: lock, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}

	return store, nil
}

// Close closes the database and releases the file lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var dbErr error
	if s.db != nil {
		dbErr = s.db.Close()
	}
	if s.lock != nil {
		if err := s.lock.Unlock(); err != nil && dbErr == nil {
			dbErr = err
		}
	}
	return dbErr
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) record(ctx context.Context, kind, batchID, jobID, detail string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO operations (occurred_at, kind, batch_id, job_id, detail) VALUES (?, ?, ?, ?, ?)",
		s.now().UTC().Format(time.RFC3339), kind, batchID, jobID, detail)
	if err != nil {
		return fmt.Errorf("record %s: %w", kind, err)
	}
	return nil
}

// RecordActivation stores one entry per backend-reported assignment.
func (s *Store) RecordActivation(ctx context.Context, batchID string, assignments []sim.Assignment) error {
	for _, a := range assignments {
		if err := s.record(ctx, KindActivation, batchID, a.JobID, a.PhoneNumber); err != nil {
			return err
		}
	}
	return nil
}

// RecordDeactivation stores one entry per released job.
func (s *Store) RecordDeactivation(ctx context.Context, batchID string, jobIDs []string) error {
	for _, id := range jobIDs {
		if err := s.record(ctx, KindDeactivation, batchID, id, ""); err != nil {
			return err
		}
	}
	return nil
}

// RecordRetry stores the old-to-new job mapping of a retry.
func (s *Store) RecordRetry(ctx context.Context, oldJobID, newJobID string) error {
	return s.record(ctx, KindRetry, "", oldJobID, "retried as "+newJobID)
}

// RecordAnalysisSession stores the outcome of a finished polling session.
func (s *Store) RecordAnalysisSession(ctx context.Context, batchID, outcome string, analyzed, total, polls int, duration time.Duration) error {
	detail := fmt.Sprintf("%s: %d/%d analyzed in %d polls (%s)",
		outcome, analyzed, total, polls, duration.Round(time.Second))
	return s.record(ctx, KindAnalysis, batchID, "", detail)
}

// Recent returns the newest operations, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Operation, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, occurred_at, kind, batch_id, job_id, detail FROM operations ORDER BY id DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	var ops []Operation
	for rows.Next() {
		var op Operation
		var occurredAt string
		if err := rows.Scan(&op.ID, &occurredAt, &op.Kind, &op.BatchID, &op.JobID, &op.Detail); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339, occurredAt); parseErr == nil {
			op.OccurredAt = ts
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}
	return ops, nil
}
