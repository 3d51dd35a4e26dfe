package output

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/contentmesh/content"
)

// SQLiteWriter archives finished runs in a SQLite database.
type SQLiteWriter struct {
	db *sql.DB
}

// Run is an archived run.
type Run struct {
	ID         string
	Artifacts  Artifacts
	Complete   bool
	Iterations int
	CreatedAt  time.Time
}

// NewSQLiteWriter opens (or creates) the database at path and applies the
// schema.
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %s: %w", p, err)
		}
	}

	w := &SQLiteWriter{db: db}
	if err := w.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return w, nil
}

func (w *SQLiteWriter) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id          TEXT PRIMARY KEY,
			complete    BOOLEAN NOT NULL,
			iterations  INTEGER NOT NULL,
			missing     TEXT,
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			name    TEXT NOT NULL,
			body    TEXT NOT NULL,
			PRIMARY KEY (run_id, name)
		)`,
	}

	for _, m := range migrations {
		if _, err := w.db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}

	return nil
}

// Write implements Writer. Rewriting a run replaces its pages.
func (w *SQLiteWriter) Write(ctx context.Context, runID string, a Artifacts) error {
	if a.Empty() {
		return ErrNoArtifacts
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, complete, iterations, missing)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			complete = excluded.complete,
			iterations = excluded.iterations,
			missing = excluded.missing`,
		runID, a.Complete(), a.Iterations, strings.Join(a.Missing, ",")); err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("clear pages: %w", err)
	}

	for _, p := range a.pages() {
		body, err := json.Marshal(p.Doc)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", p.File, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO pages (run_id, name, body) VALUES (?, ?, ?)`,
			runID, p.File, string(body)); err != nil {
			return fmt.Errorf("save page %s: %w", p.File, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// Get loads an archived run or returns ErrNotFound.
func (w *SQLiteWriter) Get(ctx context.Context, runID string) (*Run, error) {
	r := &Run{ID: runID}

	var missing string
	err := w.db.QueryRowContext(ctx, `
		SELECT complete, iterations, missing, created_at
		FROM runs WHERE id = ?`, runID).
		Scan(&r.Complete, &r.Iterations, &missing, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	r.Artifacts.Iterations = r.Iterations
	if missing != "" {
		r.Artifacts.Missing = strings.Split(missing, ",")
	}

	rows, err := w.db.QueryContext(ctx, `SELECT name, body FROM pages WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("get pages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, body string
		if err := rows.Scan(&name, &body); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		if err := r.Artifacts.decode(name, []byte(body)); err != nil {
			return nil, err
		}
	}

	return r, rows.Err()
}

// List returns the archived run IDs, newest first.
func (w *SQLiteWriter) List(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := w.db.QueryContext(ctx, `
		SELECT id FROM runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// Close closes the database.
func (w *SQLiteWriter) Close() error {
	return w.db.Close()
}

func (a *Artifacts) decode(name string, body []byte) error {
	var err error
	switch name {
	case FAQFile:
		a.FAQPage = new(content.FAQPage)
		err = json.Unmarshal(body, a.FAQPage)
	case ProductFile:
		a.ProductPage = new(content.ProductPage)
		err = json.Unmarshal(body, a.ProductPage)
	case ComparisonFile:
		a.ComparisonPage = new(content.ComparisonPage)
		err = json.Unmarshal(body, a.ComparisonPage)
	default:
		return fmt.Errorf("unknown page %q", name)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
