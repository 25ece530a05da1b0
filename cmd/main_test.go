package main

import (
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"testing"

	"movie-discovery-match-service/internal/config"
	"movie-discovery-match-service/internal/repository"
	"movie-discovery-match-service/internal/service"
)

type closeCountingStore struct {
	*repository.MemoryRepository
	closed atomic.Int32
}

func (s *closeCountingStore) Close() error {
	s.closed.Add(1)
	return s.MemoryRepository.Close()
}

func TestRunClosesStoreWhenServerFails(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("REDIS_ADDR", "127.0.0.1:1")
	t.Setenv("NATS_URL", "")
	t.Setenv("SERVER_PORT", "not-a-port")

	store := &closeCountingStore{MemoryRepository: repository.NewMemoryRepository()}
	newStore = func(*config.Config) (service.Store, error) { return store, nil }
	defer func() { newStore = openStore }()

	if err := run(); err == nil {
		t.Fatal("expected listen error")
	}
	if n := store.closed.Load(); n != 1 {
		t.Fatalf("expected store closed once, got %d", n)
	}
}

func TestRunReturnsConfigErrors(t *testing.T) {
	t.Setenv("STORE_DRIVER", "cassandra")
	if err := run(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestOpenStore(t *testing.T) {
	s, err := openStore(&config.Config{Store: config.StoreConfig{Driver: config.DriverMemory}})
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	_ = s.Close()

	s, err = openStore(&config.Config{
		Store:  config.StoreConfig{Driver: config.DriverSQLite},
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "match.db")},
	})
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	_ = s.Close()

	if _, err := openStore(&config.Config{Store: config.StoreConfig{Driver: "cassandra"}}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := logLevel(in); got != want {
			t.Fatalf("logLevel(%q): expected %v, got %v", in, want, got)
		}
	}
}
