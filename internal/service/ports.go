package service

import (
	"context"

	"movie-discovery-match-service/internal/models"
)

// InteractionStore persists swipe decisions.
type InteractionStore interface {
	UpsertInteraction(ctx context.Context, rec models.InteractionRecord) error
	ListInteractions(ctx context.Context, userID string, limit int) ([]models.InteractionRecord, error)
	InteractedTitleIDs(ctx context.Context, userID string, titleType models.TitleType) ([]int, error)
}

// WatchlistStore persists watchlist entries.
type WatchlistStore interface {
	UpsertWatchlistEntry(ctx context.Context, e models.WatchlistEntry) error
	HasWatchlistEntry(ctx context.Context, userID string, titleID int, titleType models.TitleType) (bool, error)
	ListWatchlist(ctx context.Context, userID string) ([]models.WatchlistEntry, error)
	DeleteWatchlistEntry(ctx context.Context, userID string, titleID int, titleType models.TitleType) error
}

// MatchStore persists match records. CreateMatchIfAbsent must be a single
// conditional write keyed by the match de-duplication key.
type MatchStore interface {
	FindMatch(ctx context.Context, pair models.Pair, titleID int, titleType models.TitleType) (*models.MatchRecord, error)
	CreateMatchIfAbsent(ctx context.Context, m models.MatchRecord) (*models.MatchRecord, bool, error)
	ListMatches(ctx context.Context, userID string, limit int) ([]models.MatchRecord, error)
}

// FriendSource reads a user's friend list.
type FriendSource interface {
	FriendIDs(ctx context.Context, userID string) ([]string, error)
}

// Store is the full persistence surface implemented by each repository.
type Store interface {
	InteractionStore
	WatchlistStore
	MatchStore
	FriendSource
	Close() error
}

// Catalog supplies pages of titles in catalog ranking order.
type Catalog interface {
	Discover(ctx context.Context, q models.CatalogQuery) (*models.CatalogPage, error)
}

// TitleSource resolves a single catalog title. Unknown titles return an
// error wrapping models.ErrTitleNotFound.
type TitleSource interface {
	Details(ctx context.Context, t models.TitleType, id int) (*models.Title, error)
}

// CatalogSource is a catalog that can also resolve single titles.
type CatalogSource interface {
	Catalog
	TitleSource
}

// MatchPublisher announces newly created matches.
type MatchPublisher interface {
	PublishMatch(ctx context.Context, m models.MatchRecord) error
}
