package repository

import (
	"context"
	"sort"
	"sync"

	"movie-discovery-match-service/internal/models"
)

type titleKey struct {
	userID    string
	titleID   int
	titleType models.TitleType
}

// MemoryRepository keeps all state in process. It backs tests and the
// "memory" store driver.
type MemoryRepository struct {
	mu           sync.RWMutex
	interactions map[titleKey]models.InteractionRecord
	watchlist    map[titleKey]models.WatchlistEntry
	friends      map[string]map[string]struct{}
	matches      map[string]models.MatchRecord
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		interactions: make(map[titleKey]models.InteractionRecord),
		watchlist:    make(map[titleKey]models.WatchlistEntry),
		friends:      make(map[string]map[string]struct{}),
		matches:      make(map[string]models.MatchRecord),
	}
}

// UpsertInteraction stores rec, replacing any earlier decision for the title.
// Repeating the current action keeps the original timestamp.
func (r *MemoryRepository) UpsertInteraction(ctx context.Context, rec models.InteractionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	k := titleKey{rec.UserID, rec.TitleID, rec.TitleType}
	if prev, ok := r.interactions[k]; ok && prev.Action == rec.Action {
		return nil
	}
	r.interactions[k] = rec
	return nil
}

// ListInteractions returns a user's interactions, newest first.
func (r *MemoryRepository) ListInteractions(ctx context.Context, userID string, limit int) ([]models.InteractionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.InteractionRecord
	for k, rec := range r.interactions {
		if k.userID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].InteractedAt.After(out[j].InteractedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// InteractedTitleIDs returns the ids of every title the user acted on.
// An empty titleType matches all types.
func (r *MemoryRepository) InteractedTitleIDs(ctx context.Context, userID string, titleType models.TitleType) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []int
	for k := range r.interactions {
		if k.userID == userID && (titleType == "" || k.titleType == titleType) {
			ids = append(ids, k.titleID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

// UpsertWatchlistEntry adds e unless it already exists.
func (r *MemoryRepository) UpsertWatchlistEntry(ctx context.Context, e models.WatchlistEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	k := titleKey{e.UserID, e.TitleID, e.TitleType}
	if _, ok := r.watchlist[k]; !ok {
		r.watchlist[k] = e
	}
	return nil
}

// HasWatchlistEntry reports whether the user has the title on their watchlist.
func (r *MemoryRepository) HasWatchlistEntry(ctx context.Context, userID string, titleID int, titleType models.TitleType) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.watchlist[titleKey{userID, titleID, titleType}]
	return ok, nil
}

// ListWatchlist returns a user's watchlist, most recently added first.
func (r *MemoryRepository) ListWatchlist(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.WatchlistEntry
	for k, e := range r.watchlist {
		if k.userID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AddedAt.After(out[j].AddedAt)
	})
	return out, nil
}

// DeleteWatchlistEntry removes a title from the watchlist.
func (r *MemoryRepository) DeleteWatchlistEntry(ctx context.Context, userID string, titleID int, titleType models.TitleType) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	k := titleKey{userID, titleID, titleType}
	if _, ok := r.watchlist[k]; !ok {
		return ErrNotFound
	}
	delete(r.watchlist, k)
	return nil
}

// AddFriend links two users in both directions.
func (r *MemoryRepository) AddFriend(userID, friendID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range [][2]string{{userID, friendID}, {friendID, userID}} {
		set, ok := r.friends[p[0]]
		if !ok {
			set = make(map[string]struct{})
			r.friends[p[0]] = set
		}
		set[p[1]] = struct{}{}
	}
}

// FriendIDs returns the user's friends in lexicographic order.
func (r *MemoryRepository) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.friends[userID]))
	for id := range r.friends[userID] {
		if id != userID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// FindMatch returns the match for the pair and title, or nil.
func (r *MemoryRepository) FindMatch(ctx context.Context, pair models.Pair, titleID int, titleType models.TitleType) (*models.MatchRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.matches[models.MatchKey(pair, titleID, titleType)]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

// CreateMatchIfAbsent stores m unless a match with the same key exists. It
// returns the stored record and whether it was created by this call.
func (r *MemoryRepository) CreateMatchIfAbsent(ctx context.Context, m models.MatchRecord) (*models.MatchRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := m.Key()
	if existing, ok := r.matches[key]; ok {
		return &existing, false, nil
	}
	r.matches[key] = m
	return &m, true, nil
}

// ListMatches returns matches involving userID, newest first.
func (r *MemoryRepository) ListMatches(ctx context.Context, userID string, limit int) ([]models.MatchRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.MatchRecord
	for _, m := range r.matches {
		if m.ParticipantIDs[0] == userID || m.ParticipantIDs[1] == userID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MatchCount returns the number of stored matches.
func (r *MemoryRepository) MatchCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matches)
}

// Close is a no-op.
func (r *MemoryRepository) Close() error { return nil }
