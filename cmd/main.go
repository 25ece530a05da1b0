package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"movie-discovery-match-service/docs"
	"movie-discovery-match-service/internal/config"
	"movie-discovery-match-service/internal/database"
	"movie-discovery-match-service/internal/events"
	"movie-discovery-match-service/internal/handler"
	"movie-discovery-match-service/internal/middleware"
	"movie-discovery-match-service/internal/repository"
	"movie-discovery-match-service/internal/service"
	"movie-discovery-match-service/internal/tmdb"
)

func main() {
	if err := run(); err != nil {
		slog.Error("match service stopped", "error", err)
		os.Exit(1)
	}
}

// run wires the service and blocks until the server stops. Resources are
// released by its deferred calls before main exits.
func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Structured logging
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)})))

	store, err := newStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}()

	// Connect to Redis (non-fatal if unavailable)
	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		slog.Warn("Redis unavailable, running without cache", "error", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	// Match events are optional
	var publisher service.MatchPublisher
	if cfg.NATS.URL != "" {
		nc, err := events.NewNATSPublisher(cfg.NATS)
		if err != nil {
			slog.Warn("NATS unavailable, match events disabled", "error", err)
		} else {
			defer nc.Close()
			publisher = nc
		}
	}

	// Initialize TMDB client
	tmdbClient := tmdb.NewClient(cfg.TMDB)
	catalog := service.NewCachedCatalog(tmdbClient, rdb)

	// Initialize layers
	interactions := service.NewInteractionService(store, store, rdb, cfg.Store.Timeout)
	detector := service.NewMatchDetector(store, store, publisher, cfg.Store.Timeout).WithTitles(catalog)
	swipes := service.NewSwipeService(interactions, store, detector, cfg.Store.Timeout)
	deck := service.NewDeckService(catalog, interactions, cfg.Deck.MaxPages)
	titles := service.NewTitleService(catalog)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Movie Match Service",
		ServerHeader: "Movie-Match-Service",
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: handler.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())
	app.Use(middleware.AuthMiddleware(cfg.APIToken))
	app.Use(middleware.NewRateLimiter(rdb, cfg.RateLimit.Max, cfg.RateLimit.WindowSeconds).Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger docs
	if err := handler.RegisterSwagger(app, "Movie Match Service API", docs.SwaggerYAML); err != nil {
		slog.Warn("swagger UI unavailable", "error", err)
	}

	// API routes
	api := app.Group("/api/v1")
	api.Get("/health", handler.Health)
	handler.NewInteractionHandler(interactions, swipes).Register(api)
	handler.NewMatchHandler(swipes, detector).Register(api)
	handler.NewDeckHandler(deck, titles, tmdbClient).Register(api)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		slog.Info("shutting down match service...")
		_ = app.Shutdown()
	}()

	// Start server
	addr := ":" + cfg.Port
	slog.Info("starting match service", "addr", addr, "store", cfg.Store.Driver)
	if err := app.Listen(addr); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// newStore is replaced in tests.
var newStore = openStore

// openStore connects the configured persistence backend.
func openStore(cfg *config.Config) (service.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		db, err := database.NewPostgres(cfg.DB)
		if err != nil {
			return nil, err
		}
		return repository.NewSQLRepository(db, repository.DialectPostgres), nil
	case config.DriverSQLite:
		db, err := database.NewSQLite(cfg.SQLite)
		if err != nil {
			return nil, err
		}
		return repository.NewSQLRepository(db, repository.DialectSQLite), nil
	case config.DriverMongo:
		db, err := database.NewMongo(cfg.Mongo)
		if err != nil {
			return nil, err
		}
		return repository.NewMongoRepository(db), nil
	case config.DriverMemory:
		slog.Warn("using in-memory store, data is lost on restart")
		return repository.NewMemoryRepository(), nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
}

func logLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
