package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Release is one recorded deploy attempt.
type Release struct {
	// ID is the release identifier assigned at deploy time.
	ID string

	// App is the deployed application name.
	App string

	// Outcome is "success", "degraded", or "failed".
	Outcome string

	// ErrorKind names the failing stage's error class, empty on success.
	ErrorKind string

	// StartedAt and FinishedAt bound the pipeline run, in UTC.
	StartedAt  time.Time
	FinishedAt time.Time
}

// Outcomes recorded in the deploy history.
const (
	OutcomeSuccess  = "success"
	OutcomeDegraded = "degraded"
	OutcomeFailed   = "failed"
)

// HistoryStore persists the record of past deploys.
type HistoryStore interface {
	// Append records one release.
	Append(ctx context.Context, rel Release) error

	// Recent returns up to limit releases for app, newest first.
	Recent(ctx context.Context, app string, limit int) ([]Release, error)

	// Close releases the underlying resources.
	Close() error
}

// SQLiteHistory implements HistoryStore on a SQLite database.
type SQLiteHistory struct {
	db *sql.DB
}

// OpenHistory opens (creating if needed) the history database at path.
func OpenHistory(path string) (*SQLiteHistory, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	h := &SQLiteHistory{db: db}
	if err := h.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return h, nil
}

func (h *SQLiteHistory) ensureSchema(ctx context.Context) error {
	_, err := h.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS releases (
			id TEXT PRIMARY KEY,
			app TEXT NOT NULL,
			outcome TEXT NOT NULL,
			error_kind TEXT NOT NULL DEFAULT '',
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_releases_app_started
			ON releases (app, started_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("failed to create history schema: %w", err)
	}
	return nil
}

// Append records one release.
func (h *SQLiteHistory) Append(ctx context.Context, rel Release) error {
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO releases (id, app, outcome, error_kind, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		rel.ID,
		rel.App,
		rel.Outcome,
		rel.ErrorKind,
		rel.StartedAt.UTC().Format(time.RFC3339Nano),
		rel.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to append release: %w", err)
	}
	return nil
}

// Recent returns up to limit releases for app, newest first.
func (h *SQLiteHistory) Recent(ctx context.Context, app string, limit int) ([]Release, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, app, outcome, error_kind, started_at, finished_at
		FROM releases
		WHERE app = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, app, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query releases: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var releases []Release
	for rows.Next() {
		var rel Release
		var started, finished string
		if err := rows.Scan(&rel.ID, &rel.App, &rel.Outcome, &rel.ErrorKind, &started, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan release: %w", err)
		}
		if rel.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("failed to parse started_at: %w", err)
		}
		if rel.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("failed to parse finished_at: %w", err)
		}
		releases = append(releases, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate releases: %w", err)
	}
	return releases, nil
}

// Close closes the database connection.
func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}

// FakeHistory implements HistoryStore in memory for testing.
type FakeHistory struct {
	// Releases holds appended releases in insertion order.
	Releases []Release

	err error
}

// NewFakeHistory creates a new FakeHistory.
func NewFakeHistory() *FakeHistory {
	return &FakeHistory{}
}

// SetError sets the error returned by Append.
func (h *FakeHistory) SetError(err error) {
	h.err = err
}

// Append records the release in memory.
func (h *FakeHistory) Append(ctx context.Context, rel Release) error {
	if h.err != nil {
		return h.err
	}
	h.Releases = append(h.Releases, rel)
	return nil
}

// Recent returns up to limit releases for app, newest first.
func (h *FakeHistory) Recent(ctx context.Context, app string, limit int) ([]Release, error) {
	var out []Release
	for i := len(h.Releases) - 1; i >= 0 && len(out) < limit; i-- {
		if h.Releases[i].App == app {
			out = append(out, h.Releases[i])
		}
	}
	return out, nil
}

// Close is a no-op.
func (h *FakeHistory) Close() error {
	return nil
}
