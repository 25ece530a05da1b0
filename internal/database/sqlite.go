package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"movie-discovery-match-service/internal/config"
)

// NewSQLite opens the embedded database at cfg.Path and applies migrations.
// ":memory:" gives a private in-memory database.
func NewSQLite(cfg config.SQLiteConfig) (*sql.DB, error) {
	dsn := cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	if cfg.Path == ":memory:" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// Single writer; also keeps ":memory:" on one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}

	slog.Info("opened SQLite", "path", cfg.Path)

	if err := runMigrations(db, sqliteMigrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS interactions (
		user_id TEXT NOT NULL,
		title_id INTEGER NOT NULL,
		title_type TEXT NOT NULL,
		action TEXT NOT NULL,
		interacted_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, title_id, title_type)
	)`,
	`CREATE TABLE IF NOT EXISTS watchlist (
		user_id TEXT NOT NULL,
		title_id INTEGER NOT NULL,
		title_type TEXT NOT NULL,
		added_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, title_id, title_type)
	)`,
	`CREATE TABLE IF NOT EXISTS friends (
		user_id TEXT NOT NULL,
		friend_id TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, friend_id)
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id TEXT PRIMARY KEY,
		user_a TEXT COLLATE BINARY NOT NULL,
		user_b TEXT COLLATE BINARY NOT NULL,
		title_id INTEGER NOT NULL,
		title_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'new',
		created_at TIMESTAMP NOT NULL,
		UNIQUE (user_a, user_b, title_id, title_type),
		CHECK (user_a < user_b)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_watchlist_title ON watchlist(title_id, title_type)`,
	`CREATE INDEX IF NOT EXISTS idx_friends_friend_id ON friends(friend_id)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_user_a ON matches(user_a, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_user_b ON matches(user_b, created_at)`,
}
