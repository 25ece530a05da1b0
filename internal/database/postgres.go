package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"movie-discovery-match-service/internal/config"
)

func NewPostgres(cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)

	slog.Info("connected to PostgreSQL", "db", cfg.DBName)

	if err := runMigrations(db, postgresMigrations); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS interactions (
		user_id VARCHAR(128) NOT NULL,
		title_id INTEGER NOT NULL,
		title_type VARCHAR(10) NOT NULL,
		action VARCHAR(32) NOT NULL,
		interacted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, title_id, title_type)
	)`,
	`CREATE TABLE IF NOT EXISTS watchlist (
		user_id VARCHAR(128) NOT NULL,
		title_id INTEGER NOT NULL,
		title_type VARCHAR(10) NOT NULL,
		added_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, title_id, title_type)
	)`,
	`CREATE TABLE IF NOT EXISTS friends (
		user_id VARCHAR(128) NOT NULL,
		friend_id VARCHAR(128) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, friend_id)
	)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id VARCHAR(64) PRIMARY KEY,
		user_a VARCHAR(128) COLLATE "C" NOT NULL,
		user_b VARCHAR(128) COLLATE "C" NOT NULL,
		title_id INTEGER NOT NULL,
		title_type VARCHAR(10) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'new',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_a, user_b, title_id, title_type),
		CHECK (user_a < user_b)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_watchlist_title ON watchlist(title_id, title_type)`,
	`CREATE INDEX IF NOT EXISTS idx_friends_friend_id ON friends(friend_id)`,
	// Pair ordering is byte-wise in the application; tables created before
	// the columns carried an explicit collation are converted in place.
	`ALTER TABLE matches ALTER COLUMN user_a TYPE VARCHAR(128) COLLATE "C"`,
	`ALTER TABLE matches ALTER COLUMN user_b TYPE VARCHAR(128) COLLATE "C"`,
	`CREATE INDEX IF NOT EXISTS idx_matches_user_a ON matches(user_a, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_user_b ON matches(user_b, created_at DESC)`,
}

func runMigrations(db *sql.DB, migrations []string) error {
	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	slog.Info("database migrations completed")
	return nil
}
