package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config holds all configuration for the match service.
type Config struct {
	Store     StoreConfig
	DB        DBConfig
	SQLite    SQLiteConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	NATS      NATSConfig
	TMDB      TMDBConfig
	Deck      DeckConfig
	RateLimit RateLimitConfig
	APIToken  string
	LogLevel  string
	Port      string
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver  string
	Timeout time.Duration
}

// DBConfig holds PostgreSQL configuration.
type DBConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	SSLRootCert string
}

// DSN returns the PostgreSQL connection string.
func (d DBConfig) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
	if d.SSLRootCert != "" {
		dsn += fmt.Sprintf(" sslrootcert=%s", d.SSLRootCert)
	}
	return dsn
}

// SQLiteConfig holds the embedded database location.
type SQLiteConfig struct {
	Path string
}

// MongoConfig holds MongoDB configuration.
type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NATSConfig holds the match event publisher configuration. An empty URL
// disables publishing.
type NATSConfig struct {
	URL     string
	Subject string
}

// TMDBConfig holds TMDB API configuration.
type TMDBConfig struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// DeckConfig bounds how far a deck request walks the catalog.
type DeckConfig struct {
	MaxPages int
}

// RateLimitConfig holds the per-client request limit.
type RateLimitConfig struct {
	Max           int
	WindowSeconds int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "2"))
	deckPages, _ := strconv.Atoi(getEnv("DECK_MAX_PAGES", "5"))
	rateLimitMax, _ := strconv.Atoi(getEnv("RATE_LIMIT_MAX", "120"))
	rateLimitWindow, _ := strconv.Atoi(getEnv("RATE_LIMIT_WINDOW_SECONDS", "60"))
	tmdbRPS, err := strconv.ParseFloat(getEnv("TMDB_RPS", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TMDB_RPS: %w", err)
	}
	storeTimeout, err := time.ParseDuration(getEnv("STORE_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_TIMEOUT: %w", err)
	}
	tmdbTimeout, err := time.ParseDuration(getEnv("TMDB_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid TMDB_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Store: StoreConfig{
			Driver:  strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
			Timeout: storeTimeout,
		},
		DB: DBConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        dbPort,
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "match_service"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			SSLRootCert: getEnv("DB_SSLROOTCERT", ""),
		},
		SQLite: SQLiteConfig{
			Path: getEnv("SQLITE_PATH", "match_service.db"),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://127.0.0.1:27017"),
			Database: getEnv("MONGO_DATABASE", "match_service"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", ""),
			Subject: getEnv("NATS_MATCH_SUBJECT", "match.created"),
		},
		TMDB: TMDBConfig{
			APIKey:            getEnv("TMDB_API_KEY", "XXXXXX"),
			BaseURL:           getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
			Timeout:           tmdbTimeout,
			RequestsPerSecond: tmdbRPS,
		},
		Deck: DeckConfig{
			MaxPages: deckPages,
		},
		RateLimit: RateLimitConfig{
			Max:           rateLimitMax,
			WindowSeconds: rateLimitWindow,
		},
		APIToken: getEnv("API_TOKEN", ""),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Port:     getEnv("SERVER_PORT", "8084"),
	}

	switch cfg.Store.Driver {
	case DriverPostgres, DriverSQLite, DriverMongo, DriverMemory:
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.Store.Driver)
	}
	if cfg.Deck.MaxPages < 1 {
		cfg.Deck.MaxPages = 1
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
