package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"movie-discovery-match-service/internal/config"
)

// Collection names of the document store layout.
const (
	CollInteractions = "interactions"
	CollWatchlist    = "watchlist"
	CollFriends      = "friends"
	CollMatches      = "matches"
)

// NewMongo connects to MongoDB and ensures the indexes the repository relies on.
func NewMongo(cfg config.MongoConfig) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(cfg.Database)
	if err := ensureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	slog.Info("connected to MongoDB", "db", cfg.Database)
	return db, nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		CollInteractions: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "title_type", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "interacted_at", Value: -1}}},
		},
		CollWatchlist: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "added_at", Value: -1}}},
		},
		CollFriends: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "friend_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "friend_id", Value: 1}}},
		},
		CollMatches: {
			{Keys: bson.D{{Key: "participant_ids", Value: 1}, {Key: "created_at", Value: -1}}},
			{
				Keys:    bson.D{{Key: "match_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}
	for coll, idx := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("%s: %w", coll, err)
		}
	}
	return nil
}
