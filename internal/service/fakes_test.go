package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"movie-discovery-match-service/internal/models"
	"movie-discovery-match-service/internal/repository"
)

var (
	errStoreDown = errors.New("connection refused")
	fixedNow     = time.Date(2026, 5, 1, 18, 30, 0, 0, time.UTC)
)

// faultyStore wraps the in-memory repository with call counting and
// injectable failures.
type faultyStore struct {
	*repository.MemoryRepository

	mu               sync.Mutex
	writes           int
	watchlistQueries []string
	failWatchlistFor map[string]error
	failUpsert       error
	failWatchlistAdd error
	failFriends      error
	failFindMatch    error
}

func newFaultyStore() *faultyStore {
	return &faultyStore{
		MemoryRepository: repository.NewMemoryRepository(),
		failWatchlistFor: make(map[string]error),
	}
}

func (f *faultyStore) UpsertInteraction(ctx context.Context, rec models.InteractionRecord) error {
	f.mu.Lock()
	f.writes++
	err := f.failUpsert
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.MemoryRepository.UpsertInteraction(ctx, rec)
}

func (f *faultyStore) UpsertWatchlistEntry(ctx context.Context, e models.WatchlistEntry) error {
	f.mu.Lock()
	f.writes++
	err := f.failWatchlistAdd
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.MemoryRepository.UpsertWatchlistEntry(ctx, e)
}

func (f *faultyStore) HasWatchlistEntry(ctx context.Context, userID string, titleID int, titleType models.TitleType) (bool, error) {
	f.mu.Lock()
	f.watchlistQueries = append(f.watchlistQueries, userID)
	err := f.failWatchlistFor[userID]
	f.mu.Unlock()
	if err != nil {
		return false, err
	}
	return f.MemoryRepository.HasWatchlistEntry(ctx, userID, titleID, titleType)
}

func (f *faultyStore) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	if f.failFriends != nil {
		return nil, f.failFriends
	}
	return f.MemoryRepository.FriendIDs(ctx, userID)
}

func (f *faultyStore) FindMatch(ctx context.Context, pair models.Pair, titleID int, titleType models.TitleType) (*models.MatchRecord, error) {
	if f.failFindMatch != nil {
		return nil, f.failFindMatch
	}
	return f.MemoryRepository.FindMatch(ctx, pair, titleID, titleType)
}

func (f *faultyStore) queried() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.watchlistQueries...)
}

func (f *faultyStore) addWatchlist(userID string, titleID int, titleType models.TitleType) {
	_ = f.MemoryRepository.UpsertWatchlistEntry(context.Background(), models.WatchlistEntry{
		UserID: userID, TitleID: titleID, TitleType: titleType, AddedAt: fixedNow,
	})
}

type recordingPublisher struct {
	mu      sync.Mutex
	matches []models.MatchRecord
	err     error
}

func (p *recordingPublisher) PublishMatch(_ context.Context, m models.MatchRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.matches = append(p.matches, m)
	return p.err
}

// fakeCatalog serves fixed pages and titles.
type fakeCatalog struct {
	pages      map[int][]models.Title
	totalPages int
	err        error
	requested  []int

	details      map[int]models.Title
	detailsErr   error
	detailLookup []int
}

func (c *fakeCatalog) Details(_ context.Context, t models.TitleType, id int) (*models.Title, error) {
	c.detailLookup = append(c.detailLookup, id)
	if c.detailsErr != nil {
		return nil, c.detailsErr
	}
	title, ok := c.details[id]
	if !ok || title.Type != t {
		return nil, fmt.Errorf("%w: %s %d", models.ErrTitleNotFound, t, id)
	}
	return &title, nil
}

func (c *fakeCatalog) Discover(_ context.Context, q models.CatalogQuery) (*models.CatalogPage, error) {
	c.requested = append(c.requested, q.Page)
	if c.err != nil {
		return nil, c.err
	}
	results := c.pages[q.Page]
	return &models.CatalogPage{Page: q.Page, TotalPages: c.totalPages, TotalResults: len(results), Results: results}, nil
}

func titles(t models.TitleType, ids ...int) []models.Title {
	out := make([]models.Title, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Title{ID: id, Type: t})
	}
	return out
}

func newDetector(s *faultyStore, pub MatchPublisher) *MatchDetector {
	d := NewMatchDetector(s, s, pub, time.Second)
	d.now = func() time.Time { return fixedNow }
	n := 0
	d.newID = func() string {
		n++
		return "match-" + strconv.Itoa(n)
	}
	return d
}

func newInteractions(s *faultyStore) *InteractionService {
	svc := NewInteractionService(s, s, nil, time.Second)
	svc.now = func() time.Time { return fixedNow }
	return svc
}
