// Package joblog records conversion runs and their artifacts in a local
// SQLite ledger so operators can audit what was synthesized, when, and
// where the files went. Recording is advisory: callers log failures and
// keep going.
package joblog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/papervoice/papervoice/internal/config"
)

// Run is one recorded conversion.
type Run struct {
	ID         string
	Source     string
	Mode       string
	Chunks     int
	Merged     bool
	Outcome    string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// ArtifactRecord is one file a run produced.
type ArtifactRecord struct {
	RunID     string
	Path      string
	PartIndex int
	CreatedAt time.Time
}

// Store wraps the SQLite-backed run ledger. With retention mode
// "ephemeral" it holds no database and every method is a no-op.
type Store struct {
	db    *sql.DB
	cfg   config.JobLogConfig
	log   *slog.Logger
	clock func() time.Time
}

// Open initializes the ledger according to config.
func Open(ctx context.Context, cfg config.JobLogConfig, log *slog.Logger) (*Store, error) {
	if cfg.RetentionMode == "ephemeral" {
		return &Store{cfg: cfg, log: log, clock: time.Now}, nil
	}

	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, cfg: cfg, log: log, clock: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.Prune(ctx); err != nil {
		log.Warn("job log prune on open failed", slog.String("error", err.Error()))
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    mode TEXT,
    chunks INTEGER DEFAULT 0,
    merged INTEGER DEFAULT 0,
    outcome TEXT DEFAULT '',
    error TEXT DEFAULT '',
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP
);
CREATE TABLE IF NOT EXISTS artifacts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    path TEXT NOT NULL,
    part_index INTEGER DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    FOREIGN KEY(run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases underlying resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun records the start of a conversion and returns its id.
func (s *Store) BeginRun(ctx context.Context, source, mode string) (string, error) {
	id := uuid.NewString()
	if s.db == nil {
		return id, nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs(run_id, source, mode, started_at) VALUES(?, ?, ?, ?)`,
		id, source, mode, s.clock().UTC().Format(time.RFC3339Nano))
	return id, err
}

// FinishRun records the outcome of a run. errMsg is empty on success.
func (s *Store) FinishRun(ctx context.Context, runID string, chunks int, merged bool, outcome, errMsg string) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET chunks = ?, merged = ?, outcome = ?, error = ?, finished_at = ? WHERE run_id = ?`,
		chunks, merged, outcome, errMsg, s.clock().UTC().Format(time.RFC3339Nano), runID)
	return err
}

// AddArtifact records one produced file. partIndex is 0 for single or
// merged outputs.
func (s *Store) AddArtifact(ctx context.Context, runID, path string, partIndex int) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts(run_id, path, part_index, created_at) VALUES(?, ?, ?, ?)`,
		runID, path, partIndex, s.clock().UTC().Format(time.RFC3339Nano))
	return err
}

// ListRuns returns up to limit runs, most recent first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, source, mode, chunks, merged, outcome, error, started_at, COALESCE(finished_at, '')
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Source, &r.Mode, &r.Chunks, &r.Merged, &r.Outcome, &r.Error, &started, &finished); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, started); err == nil {
			r.StartedAt = ts
		}
		if ts, err := time.Parse(time.RFC3339Nano, finished); err == nil {
			r.FinishedAt = ts
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListArtifacts returns the artifacts recorded for a run in insert order.
func (s *Store) ListArtifacts(ctx context.Context, runID string) ([]ArtifactRecord, error) {
	if s.db == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, path, part_index, created_at FROM artifacts WHERE run_id = ? ORDER BY id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var arts []ArtifactRecord
	for rows.Next() {
		var a ArtifactRecord
		var created string
		if err := rows.Scan(&a.RunID, &a.Path, &a.PartIndex, &created); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			a.CreatedAt = ts
		}
		arts = append(arts, a)
	}
	return arts, rows.Err()
}

// Prune applies configured retention. Mode "persistent" keeps everything;
// "recent" drops runs past RetentionDays and beyond MaxRuns.
func (s *Store) Prune(ctx context.Context) error {
	if s.db == nil || s.cfg.RetentionMode != "recent" {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if s.cfg.RetentionDays > 0 {
		cutoff := s.clock().Add(-time.Duration(s.cfg.RetentionDays) * 24 * time.Hour)
		if _, err = tx.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff.UTC().Format(time.RFC3339Nano)); err != nil {
			return err
		}
	}
	if s.cfg.MaxRuns > 0 {
		_, err = tx.ExecContext(ctx, `DELETE FROM runs WHERE run_id IN (
			SELECT run_id FROM runs ORDER BY started_at DESC LIMIT -1 OFFSET ?
		)`, s.cfg.MaxRuns)
		if err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}
