package repository

import (
	"testing"

	"movie-discovery-match-service/internal/config"
	"movie-discovery-match-service/internal/database"
)

func TestSQLiteRepositoryContract(t *testing.T) {
	db, err := database.NewSQLite(config.SQLiteConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	r := NewSQLRepository(db, DialectSQLite)
	t.Cleanup(func() { r.Close() })

	addFriend := func(a, b string) {
		if _, err := db.Exec(`INSERT INTO friends (user_id, friend_id) VALUES (?, ?)`, a, b); err != nil {
			t.Fatalf("insert friend: %v", err)
		}
	}
	runStoreContract(t, r, addFriend)
}

func TestRebindPlaceholders(t *testing.T) {
	pg := NewSQLRepository(nil, DialectPostgres)
	lite := NewSQLRepository(nil, DialectSQLite)
	query := `SELECT 1 FROM t WHERE a = $1 AND b = $2 AND c = $10`

	if got := pg.q(query); got != query {
		t.Fatalf("expected postgres query unchanged, got %q", got)
	}
	want := `SELECT 1 FROM t WHERE a = ? AND b = ? AND c = ?`
	if got := lite.q(query); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
