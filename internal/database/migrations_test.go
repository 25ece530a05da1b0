package database

import (
	"strings"
	"testing"

	"movie-discovery-match-service/internal/config"
)

func TestPostgresMatchColumnsUseByteCollation(t *testing.T) {
	var create string
	for _, m := range postgresMigrations {
		if strings.Contains(m, "CREATE TABLE IF NOT EXISTS matches") {
			create = m
		}
	}
	if create == "" {
		t.Fatal("expected a matches table migration")
	}
	for _, col := range []string{"user_a", "user_b"} {
		if !strings.Contains(create, col+` VARCHAR(128) COLLATE "C"`) {
			t.Fatalf("expected %s to declare COLLATE \"C\"", col)
		}

		altered := false
		for _, m := range postgresMigrations {
			if strings.Contains(m, "ALTER COLUMN "+col) && strings.Contains(m, `COLLATE "C"`) {
				altered = true
			}
		}
		if !altered {
			t.Fatalf("expected existing tables to have %s converted to COLLATE \"C\"", col)
		}
	}
}

func TestSQLiteMatchOrderingIsByteWise(t *testing.T) {
	db, err := NewSQLite(config.SQLiteConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer db.Close()

	insert := `INSERT INTO matches (id, user_a, user_b, title_id, title_type, status, created_at)
		VALUES (?, ?, ?, 1, 'movie', 'new', CURRENT_TIMESTAMP)`

	// "B" (0x42) sorts before "a" (0x61).
	if _, err := db.Exec(insert, "m-1", "Bob", "alice"); err != nil {
		t.Fatalf("expected byte-ordered pair to be accepted, got %v", err)
	}
	if _, err := db.Exec(insert, "m-2", "alice", "Bob"); err == nil {
		t.Fatal("expected reversed pair to violate the ordering check")
	}
}
