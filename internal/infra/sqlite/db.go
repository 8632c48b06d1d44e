// Package sqlite provides SQLite-based persistent storage for typerace.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/t-race/typerace/internal/domain"
)

var _ domain.Store = (*DB)(nil)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/typerace.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "typerace.db")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id            TEXT PRIMARY KEY,
			email              TEXT NOT NULL DEFAULT '',
			display_name       TEXT NOT NULL DEFAULT '',
			photo_url          TEXT NOT NULL DEFAULT '',
			game_name          TEXT NOT NULL DEFAULT 'T-Race',
			highest_score      REAL NOT NULL DEFAULT 0,
			total_games_played INTEGER NOT NULL DEFAULT 0,
			total_time_played  REAL NOT NULL DEFAULT 0,
			last_login         INTEGER NOT NULL,
			created_at         INTEGER NOT NULL,
			updated_at         INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_score ON users(highest_score DESC)`,

		// Rolling session history, capped per user by the session recorder
		`CREATE TABLE IF NOT EXISTS typing_stats (
			seq         INTEGER PRIMARY KEY AUTOINCREMENT,
			id          TEXT NOT NULL UNIQUE,
			user_id     TEXT NOT NULL,
			wpm         REAL NOT NULL,
			accuracy    REAL NOT NULL,
			time_played REAL NOT NULL,
			created_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_typing_stats_user ON typing_stats(user_id, created_at DESC)`,

		// One row per unlocked badge; the primary key is the duplicate guard
		`CREATE TABLE IF NOT EXISTS user_badges (
			user_id     TEXT NOT NULL,
			badge_id    TEXT NOT NULL,
			unlocked_at INTEGER NOT NULL,
			is_viewed   BOOLEAN NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, badge_id)
		)`,

		`CREATE TABLE IF NOT EXISTS user_stats (
			user_id         TEXT PRIMARY KEY,
			current_streak  INTEGER NOT NULL DEFAULT 0,
			longest_streak  INTEGER NOT NULL DEFAULT 0,
			races_completed INTEGER NOT NULL DEFAULT 0,
			last_test_wpm   REAL NOT NULL DEFAULT 0,
			last_test_date  INTEGER,
			skill_level     TEXT NOT NULL DEFAULT '',
			xp_points       INTEGER NOT NULL DEFAULT 0,
			badges          TEXT NOT NULL DEFAULT '[]'
		)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Timestamps are stored as Unix milliseconds so rapid sessions keep their order.
func millis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

func nullableMillis(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}
