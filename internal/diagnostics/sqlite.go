package diagnostics

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS fallback_events (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at  TEXT NOT NULL,
	kind         TEXT NOT NULL,
	project_type TEXT NOT NULL DEFAULT '',
	reason       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS fallback_events_recorded_at ON fallback_events (recorded_at);
`

// SQLiteSink persists fallback events so operators can inspect why
// estimates were simulated.
type SQLiteSink struct {
	db    *sqlx.DB
	clock func() time.Time
}

type eventRow struct {
	Event
	RecordedAt string `db:"recorded_at"`
}

func NewSQLiteSink(dbPath string) (*SQLiteSink, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteSink{db: db, clock: time.Now}, nil
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// Record writes ev. Write errors are logged, never returned.
func (s *SQLiteSink) Record(ctx context.Context, ev Event) {
	if ev.Time.IsZero() {
		ev.Time = s.clock()
	}
	// Detached from request cancellation so a fallback caused by a slow
	// client still gets recorded.
	ctx = context.WithoutCancel(ctx)
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO fallback_events (recorded_at, kind, project_type, reason) VALUES (?, ?, ?, ?)",
		ev.Time.UTC().Format(time.RFC3339Nano), string(ev.Kind), ev.ProjectType, ev.Reason,
	)
	if err != nil {
		log.Printf("warning: persist fallback event: %v", err)
	}
}

// Recent returns up to limit events, newest first.
func (s *SQLiteSink) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []eventRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT id, recorded_at, kind, project_type, reason FROM fallback_events ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query fallback events: %w", err)
	}
	out := make([]Event, 0, len(rows))
	for _, r := range rows {
		ev := r.Event
		ev.Time, _ = time.Parse(time.RFC3339Nano, r.RecordedAt)
		out = append(out, ev)
	}
	return out, nil
}
