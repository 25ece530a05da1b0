package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"movie-discovery-match-service/internal/models"
	"movie-discovery-match-service/internal/validation"
)

const (
	catalogCacheTTL = 5 * time.Minute
	detailsCacheTTL = time.Hour
)

// IDSet is a set of catalog title ids.
type IDSet map[int]struct{}

// NewIDSet builds an IDSet from ids.
func NewIDSet(ids ...int) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set.
func (s IDSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

// FilterUnseen returns the titles of page whose id is not in interacted,
// keeping catalog order. It never fetches more titles.
func FilterUnseen(page []models.Title, interacted IDSet) []models.Title {
	out := make([]models.Title, 0, len(page))
	for _, t := range page {
		if interacted.Has(t.ID) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// DeckService builds swipe decks from the catalog, skipping titles the user
// already acted on.
type DeckService struct {
	catalog      Catalog
	interactions *InteractionService
	maxPages     int
}

// NewDeckService creates a new DeckService that walks at most maxPages
// catalog pages per request.
func NewDeckService(catalog Catalog, interactions *InteractionService, maxPages int) *DeckService {
	if maxPages < 1 {
		maxPages = 1
	}
	return &DeckService{catalog: catalog, interactions: interactions, maxPages: maxPages}
}

// NextDeck returns the first non-empty page of unseen titles at or after
// q.Page. When every page checked is fully seen the deck is empty;
// Exhausted is set once the catalog has no further pages.
func (s *DeckService) NextDeck(ctx context.Context, userID string, q models.CatalogQuery) (*models.Deck, error) {
	q.Normalize()
	userID, err := normalizeUserID(userID)
	if err != nil {
		return nil, invalid("deck", err)
	}
	if err := validation.Struct(q); err != nil {
		return nil, invalid("deck", err)
	}

	ids, err := s.interactions.InteractedIDs(ctx, userID, q.Type)
	if err != nil {
		return nil, err
	}
	seen := NewIDSet(ids...)

	deck := &models.Deck{
		UserID: userID,
		Type:   q.Type,
		Page:   q.Page,
		Titles: []models.Title{},
	}
	for i := 0; i < s.maxPages; i++ {
		page := q.Page + i
		res, err := s.catalog.Discover(ctx, models.CatalogQuery{Type: q.Type, Page: page, GenreID: q.GenreID})
		if err != nil {
			return nil, &CatalogError{Err: err}
		}
		deck.Page = page
		deck.TotalPages = res.TotalPages

		unseen := FilterUnseen(res.Results, seen)
		if len(unseen) > 0 {
			deck.Titles = unseen
			return deck, nil
		}
		if len(res.Results) == 0 || page >= res.TotalPages {
			deck.Exhausted = true
			break
		}
	}

	slog.Info("no unseen titles found", "user_id", userID, "type", q.Type, "last_page", deck.Page, "exhausted", deck.Exhausted)
	return deck, nil
}

// CachedCatalog caches discover pages and title details in Redis in front
// of another catalog.
type CachedCatalog struct {
	next       CatalogSource
	cache      cache
	ttl        time.Duration
	detailsTTL time.Duration
}

// NewCachedCatalog wraps next with a Redis cache. rdb may be nil.
func NewCachedCatalog(next CatalogSource, rdb *redis.Client) *CachedCatalog {
	return &CachedCatalog{
		next:       next,
		cache:      newCache("catalog", rdb),
		ttl:        catalogCacheTTL,
		detailsTTL: detailsCacheTTL,
	}
}

// Discover returns the cached page or fetches and caches it.
func (c *CachedCatalog) Discover(ctx context.Context, q models.CatalogQuery) (*models.CatalogPage, error) {
	key := fmt.Sprintf("catalog:discover:%s:%d:%d", q.Type, q.Page, q.GenreID)
	var page models.CatalogPage
	if c.cache.get(ctx, key, &page) {
		return &page, nil
	}

	res, err := c.next.Discover(ctx, q)
	if err != nil {
		return nil, err
	}
	c.cache.set(ctx, key, res, c.ttl)
	return res, nil
}

// Details returns the cached title or fetches and caches it.
func (c *CachedCatalog) Details(ctx context.Context, t models.TitleType, id int) (*models.Title, error) {
	key := fmt.Sprintf("catalog:details:%s:%d", t, id)
	var title models.Title
	if c.cache.get(ctx, key, &title) {
		return &title, nil
	}

	res, err := c.next.Details(ctx, t, id)
	if err != nil {
		return nil, err
	}
	c.cache.set(ctx, key, res, c.detailsTTL)
	return res, nil
}

// TitleService looks up single catalog titles.
type TitleService struct {
	source TitleSource
}

// NewTitleService creates a new TitleService.
func NewTitleService(source TitleSource) *TitleService {
	return &TitleService{source: source}
}

// Details returns the title identified by (id, type).
func (s *TitleService) Details(ctx context.Context, titleType models.TitleType, id int) (*models.Title, error) {
	if err := validation.Struct(titleLookup{TitleID: id, TitleType: titleType}); err != nil {
		return nil, invalid("title details", err)
	}
	title, err := s.source.Details(ctx, titleType, id)
	if errors.Is(err, models.ErrTitleNotFound) {
		return nil, &NotFoundError{Resource: "title", ID: string(titleType) + "/" + strconv.Itoa(id)}
	}
	if err != nil {
		return nil, &CatalogError{Err: err}
	}
	return title, nil
}

type titleLookup struct {
	TitleID   int              `json:"title_id" validate:"required,gt=0"`
	TitleType models.TitleType `json:"title_type" validate:"required,oneof=movie tv"`
}
