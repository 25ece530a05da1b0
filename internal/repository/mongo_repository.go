package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"movie-discovery-match-service/internal/database"
	"movie-discovery-match-service/internal/models"
)

type interactionDoc struct {
	ID           string    `bson:"_id"`
	UserID       string    `bson:"user_id"`
	TitleID      int       `bson:"title_id"`
	TitleType    string    `bson:"title_type"`
	Action       string    `bson:"action"`
	InteractedAt time.Time `bson:"interacted_at"`
}

type watchlistDoc struct {
	ID        string    `bson:"_id,omitempty"`
	UserID    string    `bson:"user_id"`
	TitleID   int       `bson:"title_id"`
	TitleType string    `bson:"title_type"`
	AddedAt   time.Time `bson:"added_at"`
}

type friendDoc struct {
	UserID   string `bson:"user_id"`
	FriendID string `bson:"friend_id"`
}

// matchDoc is keyed by the match de-duplication key so that the document id
// itself enforces one match per pair and title.
type matchDoc struct {
	Key            string    `bson:"_id,omitempty"`
	MatchID        string    `bson:"match_id"`
	ParticipantIDs []string  `bson:"participant_ids"`
	TitleID        int       `bson:"title_id"`
	TitleType      string    `bson:"title_type"`
	Status         string    `bson:"status"`
	CreatedAt      time.Time `bson:"created_at"`
}

func (d matchDoc) record() *models.MatchRecord {
	m := &models.MatchRecord{
		ID:        d.MatchID,
		TitleID:   d.TitleID,
		TitleType: models.TitleType(d.TitleType),
		Status:    models.MatchStatus(d.Status),
		CreatedAt: d.CreatedAt,
	}
	if len(d.ParticipantIDs) == 2 {
		m.ParticipantIDs = models.Pair{d.ParticipantIDs[0], d.ParticipantIDs[1]}
	}
	return m
}

// docKey is the per-user document id of a title, mirroring a
// users/{uid}/{collection}/{type}:{id} layout.
func docKey(userID string, titleID int, titleType models.TitleType) string {
	return userID + "|" + string(titleType) + "|" + strconv.Itoa(titleID)
}

// MongoRepository stores the match service data in MongoDB.
type MongoRepository struct {
	db *mongo.Database
}

// NewMongoRepository creates a new MongoRepository.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{db: db}
}

func (r *MongoRepository) coll(name string) *mongo.Collection {
	return r.db.Collection(name)
}

// UpsertInteraction stores rec keyed by (user, title id, title type).
// Repeating the current action keeps the original timestamp.
func (r *MongoRepository) UpsertInteraction(ctx context.Context, rec models.InteractionRecord) error {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "user_id", Value: rec.UserID},
			{Key: "title_id", Value: rec.TitleID},
			{Key: "title_type", Value: string(rec.TitleType)},
			{Key: "interacted_at", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$eq", Value: bson.A{"$action", string(rec.Action)}}},
				"$interacted_at",
				rec.InteractedAt.UTC(),
			}}}},
			{Key: "action", Value: string(rec.Action)},
		}}},
	}
	_, err := r.coll(database.CollInteractions).UpdateOne(ctx,
		bson.M{"_id": docKey(rec.UserID, rec.TitleID, rec.TitleType)},
		pipeline,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert interaction: %w", err)
	}
	return nil
}

// ListInteractions returns a user's interactions, newest first.
func (r *MongoRepository) ListInteractions(ctx context.Context, userID string, limit int) ([]models.InteractionRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "interacted_at", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.coll(database.CollInteractions).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	var docs []interactionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode interactions: %w", err)
	}

	out := make([]models.InteractionRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.InteractionRecord{
			UserID:       d.UserID,
			TitleID:      d.TitleID,
			TitleType:    models.TitleType(d.TitleType),
			Action:       models.Action(d.Action),
			InteractedAt: d.InteractedAt,
		})
	}
	return out, nil
}

// InteractedTitleIDs returns the ids of every title the user acted on.
// An empty titleType matches all types.
func (r *MongoRepository) InteractedTitleIDs(ctx context.Context, userID string, titleType models.TitleType) ([]int, error) {
	filter := bson.M{"user_id": userID}
	if titleType != "" {
		filter["title_type"] = string(titleType)
	}
	opts := options.Find().
		SetProjection(bson.M{"title_id": 1}).
		SetSort(bson.D{{Key: "title_id", Value: 1}})
	cur, err := r.coll(database.CollInteractions).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query interacted ids: %w", err)
	}
	var docs []struct {
		TitleID int `bson:"title_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode interacted ids: %w", err)
	}

	ids := make([]int, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.TitleID)
	}
	return ids, nil
}

// UpsertWatchlistEntry adds e; adding an existing entry is a no-op.
func (r *MongoRepository) UpsertWatchlistEntry(ctx context.Context, e models.WatchlistEntry) error {
	id := docKey(e.UserID, e.TitleID, e.TitleType)
	doc := watchlistDoc{
		UserID:    e.UserID,
		TitleID:   e.TitleID,
		TitleType: string(e.TitleType),
		AddedAt:   e.AddedAt.UTC(),
	}
	_, err := r.coll(database.CollWatchlist).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$setOnInsert": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert watchlist entry: %w", err)
	}
	return nil
}

// HasWatchlistEntry reports whether the user has the title on their watchlist.
func (r *MongoRepository) HasWatchlistEntry(ctx context.Context, userID string, titleID int, titleType models.TitleType) (bool, error) {
	n, err := r.coll(database.CollWatchlist).CountDocuments(ctx,
		bson.M{"_id": docKey(userID, titleID, titleType)},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, fmt.Errorf("failed to query watchlist: %w", err)
	}
	return n > 0, nil
}

// ListWatchlist returns a user's watchlist, most recently added first.
func (r *MongoRepository) ListWatchlist(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "added_at", Value: -1}})
	cur, err := r.coll(database.CollWatchlist).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	var docs []watchlistDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode watchlist: %w", err)
	}

	out := make([]models.WatchlistEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.WatchlistEntry{
			UserID:    d.UserID,
			TitleID:   d.TitleID,
			TitleType: models.TitleType(d.TitleType),
			AddedAt:   d.AddedAt,
		})
	}
	return out, nil
}

// DeleteWatchlistEntry removes a title from the watchlist.
func (r *MongoRepository) DeleteWatchlistEntry(ctx context.Context, userID string, titleID int, titleType models.TitleType) error {
	res, err := r.coll(database.CollWatchlist).DeleteOne(ctx, bson.M{"_id": docKey(userID, titleID, titleType)})
	if err != nil {
		return fmt.Errorf("failed to delete watchlist entry: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FriendIDs returns the user's friends in lexicographic order. Links are
// read in both directions.
func (r *MongoRepository) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"user_id": userID},
		bson.M{"friend_id": userID},
	}}
	cur, err := r.coll(database.CollFriends).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query friends: %w", err)
	}
	var docs []friendDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode friends: %w", err)
	}

	seen := make(map[string]struct{}, len(docs))
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		other := d.FriendID
		if other == userID {
			other = d.UserID
		}
		if other == userID {
			continue
		}
		if _, dup := seen[other]; dup {
			continue
		}
		seen[other] = struct{}{}
		ids = append(ids, other)
	}
	sort.Strings(ids)
	return ids, nil
}

// FindMatch returns the match for the pair and title, or nil.
func (r *MongoRepository) FindMatch(ctx context.Context, pair models.Pair, titleID int, titleType models.TitleType) (*models.MatchRecord, error) {
	var d matchDoc
	err := r.coll(database.CollMatches).FindOne(ctx, matchFilter(pair, titleID, titleType)).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query match: %w", err)
	}
	return d.record(), nil
}

// matchFilter selects a match by its fields rather than its _id, so
// documents keyed under an earlier key format are still found.
func matchFilter(pair models.Pair, titleID int, titleType models.TitleType) bson.M {
	return bson.M{
		"participant_ids": bson.A{pair[0], pair[1]},
		"title_id":        titleID,
		"title_type":      string(titleType),
	}
}

// CreateMatchIfAbsent writes m with $setOnInsert on its de-duplication key,
// so concurrent callers for the same pair and title create one document.
func (r *MongoRepository) CreateMatchIfAbsent(ctx context.Context, m models.MatchRecord) (*models.MatchRecord, bool, error) {
	key := m.Key()
	doc := matchDoc{
		MatchID:        m.ID,
		ParticipantIDs: []string{m.ParticipantIDs[0], m.ParticipantIDs[1]},
		TitleID:        m.TitleID,
		TitleType:      string(m.TitleType),
		Status:         string(m.Status),
		CreatedAt:      m.CreatedAt.UTC(),
	}
	res, err := r.coll(database.CollMatches).UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$setOnInsert": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return nil, false, fmt.Errorf("failed to insert match: %w", err)
	}
	if err == nil && res.UpsertedCount == 1 {
		return &m, true, nil
	}

	existing, err := r.FindMatch(ctx, m.ParticipantIDs, m.TitleID, m.TitleType)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("match %s neither inserted nor found", key)
	}
	return existing, false, nil
}

// ListMatches returns matches involving userID, newest first.
func (r *MongoRepository) ListMatches(ctx context.Context, userID string, limit int) ([]models.MatchRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.coll(database.CollMatches).Find(ctx, bson.M{"participant_ids": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	var docs []matchDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode matches: %w", err)
	}

	out := make([]models.MatchRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d.record())
	}
	return out, nil
}

// Close disconnects the client.
func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.db.Client().Disconnect(ctx)
}
