package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("STORE_TIMEOUT", "")
	t.Setenv("DECK_MAX_PAGES", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Driver != DriverPostgres {
		t.Fatalf("expected postgres driver, got %q", cfg.Store.Driver)
	}
	if cfg.Store.Timeout != 5*time.Second {
		t.Fatalf("expected 5s store timeout, got %s", cfg.Store.Timeout)
	}
	if cfg.Port != "8084" {
		t.Fatalf("expected port 8084, got %q", cfg.Port)
	}
	if cfg.Deck.MaxPages != 5 {
		t.Fatalf("expected 5 deck pages, got %d", cfg.Deck.MaxPages)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Mongo")
	t.Setenv("STORE_TIMEOUT", "750ms")
	t.Setenv("DECK_MAX_PAGES", "0")
	t.Setenv("NATS_URL", "nats://127.0.0.1:4222")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Driver != DriverMongo {
		t.Fatalf("expected mongo driver, got %q", cfg.Store.Driver)
	}
	if cfg.Store.Timeout != 750*time.Millisecond {
		t.Fatalf("expected 750ms, got %s", cfg.Store.Timeout)
	}
	if cfg.Deck.MaxPages != 1 {
		t.Fatalf("expected deck pages clamped to 1, got %d", cfg.Deck.MaxPages)
	}
	if cfg.NATS.Subject != "match.created" {
		t.Fatalf("unexpected nats subject %q", cfg.NATS.Subject)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "cassandra")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("STORE_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for bad timeout")
	}
}

func TestDSNIncludesRootCert(t *testing.T) {
	d := DBConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "n", SSLMode: "verify-ca", SSLRootCert: "/ca.pem"}
	want := "host=db port=5432 user=u password=p dbname=n sslmode=verify-ca sslrootcert=/ca.pem"
	if got := d.DSN(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
