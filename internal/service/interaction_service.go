package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"movie-discovery-match-service/internal/metrics"
	"movie-discovery-match-service/internal/models"
	"movie-discovery-match-service/internal/repository"
	"movie-discovery-match-service/internal/validation"
)

const (
	interactedCacheTTL = 5 * time.Minute
	defaultListLimit   = 50
	maxListLimit       = 500
)

// titleRef is the validated identity of a user's decision about a title.
type titleRef struct {
	UserID    string           `json:"user_id" validate:"required,max=128"`
	TitleID   int              `json:"title_id" validate:"required,gt=0"`
	TitleType models.TitleType `json:"title_type" validate:"required,oneof=movie tv"`
}

func validateTitleRef(userID string, titleID int, titleType models.TitleType) error {
	return validation.Struct(titleRef{UserID: userID, TitleID: titleID, TitleType: titleType})
}

// normalizeUserID trims surrounding whitespace and validates the result.
func normalizeUserID(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if err := validation.Var("user_id", userID, "required,max=128"); err != nil {
		return "", err
	}
	return userID, nil
}

// opContext bounds a single store call.
func opContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// InteractionService records swipe decisions and maintains watchlists.
type InteractionService struct {
	interactions InteractionStore
	watchlist    WatchlistStore
	cache        cache
	timeout      time.Duration
	now          func() time.Time
}

// NewInteractionService creates a new InteractionService. rdb may be nil.
func NewInteractionService(interactions InteractionStore, watchlist WatchlistStore, rdb *redis.Client, timeout time.Duration) *InteractionService {
	return &InteractionService{
		interactions: interactions,
		watchlist:    watchlist,
		cache:        newCache("interacted_ids", rdb),
		timeout:      timeout,
		now:          time.Now,
	}
}

// Record stores the user's decision about a title, replacing any earlier
// decision. Interested actions also put the title on the watchlist. Store
// failures are returned as PersistenceError; nothing is retried here.
func (s *InteractionService) Record(ctx context.Context, userID string, titleID int, titleType models.TitleType, action models.Action) error {
	userID = strings.TrimSpace(userID)
	if err := validateTitleRef(userID, titleID, titleType); err != nil {
		return invalid("record", err)
	}
	if !action.Valid() {
		return invalid("record", errors.New("unknown action "+strconv.Quote(string(action))))
	}

	now := s.now().UTC()
	rec := models.InteractionRecord{
		UserID:       userID,
		TitleID:      titleID,
		TitleType:    titleType,
		Action:       action,
		InteractedAt: now,
	}

	opCtx, cancel := opContext(ctx, s.timeout)
	err := s.interactions.UpsertInteraction(opCtx, rec)
	cancel()
	if err != nil {
		metrics.StoreErrors.WithLabelValues("upsert_interaction").Inc()
		return persistence("record interaction", err)
	}
	s.cache.bump(ctx, interactedVersionKey(userID))

	if action.Interested() {
		entry := models.WatchlistEntry{
			UserID:    userID,
			TitleID:   titleID,
			TitleType: titleType,
			AddedAt:   now,
		}
		opCtx, cancel := opContext(ctx, s.timeout)
		err := s.watchlist.UpsertWatchlistEntry(opCtx, entry)
		cancel()
		if err != nil {
			metrics.StoreErrors.WithLabelValues("upsert_watchlist").Inc()
			return persistence("add to watchlist", err)
		}
	}

	metrics.InteractionsRecorded.WithLabelValues(string(action)).Inc()
	slog.Debug("interaction recorded", "user_id", userID, "title_id", titleID, "title_type", titleType, "action", action)
	return nil
}

// Interactions returns the user's most recent decisions.
func (s *InteractionService) Interactions(ctx context.Context, userID string, limit int) ([]models.InteractionRecord, error) {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return nil, invalid("list interactions", err)
	}
	opCtx, cancel := opContext(ctx, s.timeout)
	defer cancel()

	out, err := s.interactions.ListInteractions(opCtx, userID, clampLimit(limit))
	if err != nil {
		return nil, persistence("list interactions", err)
	}
	if out == nil {
		out = []models.InteractionRecord{}
	}
	return out, nil
}

// InteractedIDs returns the ids of titles of the given type the user has
// already acted on, whatever the action.
func (s *InteractionService) InteractedIDs(ctx context.Context, userID string, titleType models.TitleType) ([]int, error) {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return nil, invalid("interacted ids", err)
	}
	if titleType != "" && !titleType.Valid() {
		return nil, invalid("interacted ids", errors.New("unknown title type "+strconv.Quote(string(titleType))))
	}

	// The generation is read before the store so a concurrent Record always
	// leaves this entry behind a newer one.
	version, cacheable := s.cache.version(ctx, interactedVersionKey(userID))
	key := interactedKey(userID, version, string(titleType))
	var ids []int
	if cacheable && s.cache.get(ctx, key, &ids) {
		return ids, nil
	}

	opCtx, cancel := opContext(ctx, s.timeout)
	defer cancel()
	ids, err = s.interactions.InteractedTitleIDs(opCtx, userID, titleType)
	if err != nil {
		return nil, persistence("interacted ids", err)
	}
	if ids == nil {
		ids = []int{}
	}
	if cacheable {
		s.cache.set(ctx, key, ids, interactedCacheTTL)
	}
	return ids, nil
}

// Watchlist returns the user's watchlist.
func (s *InteractionService) Watchlist(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return nil, invalid("watchlist", err)
	}
	opCtx, cancel := opContext(ctx, s.timeout)
	defer cancel()

	out, err := s.watchlist.ListWatchlist(opCtx, userID)
	if err != nil {
		return nil, persistence("watchlist", err)
	}
	if out == nil {
		out = []models.WatchlistEntry{}
	}
	return out, nil
}

// OnWatchlist reports whether the title is on the user's watchlist.
func (s *InteractionService) OnWatchlist(ctx context.Context, userID string, titleID int, titleType models.TitleType) (bool, error) {
	userID = strings.TrimSpace(userID)
	if err := validateTitleRef(userID, titleID, titleType); err != nil {
		return false, invalid("watchlist lookup", err)
	}
	opCtx, cancel := opContext(ctx, s.timeout)
	defer cancel()

	ok, err := s.watchlist.HasWatchlistEntry(opCtx, userID, titleID, titleType)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("watchlist_lookup").Inc()
		return false, persistence("watchlist lookup", err)
	}
	return ok, nil
}

// RemoveFromWatchlist deletes a watchlist entry. The interaction record is
// kept, so the title stays out of the deck.
func (s *InteractionService) RemoveFromWatchlist(ctx context.Context, userID string, titleID int, titleType models.TitleType) error {
	userID = strings.TrimSpace(userID)
	if err := validateTitleRef(userID, titleID, titleType); err != nil {
		return invalid("remove from watchlist", err)
	}
	opCtx, cancel := opContext(ctx, s.timeout)
	defer cancel()

	err := s.watchlist.DeleteWatchlistEntry(opCtx, userID, titleID, titleType)
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Resource: "watchlist entry", ID: string(titleType) + "/" + strconv.Itoa(titleID)}
	}
	if err != nil {
		return persistence("remove from watchlist", err)
	}
	return nil
}
