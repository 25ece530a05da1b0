package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"movie-discovery-match-service/internal/models"
)

type store interface {
	UpsertInteraction(ctx context.Context, rec models.InteractionRecord) error
	ListInteractions(ctx context.Context, userID string, limit int) ([]models.InteractionRecord, error)
	InteractedTitleIDs(ctx context.Context, userID string, titleType models.TitleType) ([]int, error)
	UpsertWatchlistEntry(ctx context.Context, e models.WatchlistEntry) error
	HasWatchlistEntry(ctx context.Context, userID string, titleID int, titleType models.TitleType) (bool, error)
	ListWatchlist(ctx context.Context, userID string) ([]models.WatchlistEntry, error)
	DeleteWatchlistEntry(ctx context.Context, userID string, titleID int, titleType models.TitleType) error
	FriendIDs(ctx context.Context, userID string) ([]string, error)
	FindMatch(ctx context.Context, pair models.Pair, titleID int, titleType models.TitleType) (*models.MatchRecord, error)
	CreateMatchIfAbsent(ctx context.Context, m models.MatchRecord) (*models.MatchRecord, bool, error)
	ListMatches(ctx context.Context, userID string, limit int) ([]models.MatchRecord, error)
}

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func runStoreContract(t *testing.T, s store, addFriend func(a, b string)) {
	ctx := context.Background()

	t.Run("interaction upsert is last write wins", func(t *testing.T) {
		rec := models.InteractionRecord{UserID: "u1", TitleID: 10, TitleType: models.TitleTypeMovie, Action: models.ActionLiked, InteractedAt: base}
		if err := s.UpsertInteraction(ctx, rec); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		rec.Action = models.ActionDislikedOrSkipped
		rec.InteractedAt = base.Add(time.Minute)
		if err := s.UpsertInteraction(ctx, rec); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		got, err := s.ListInteractions(ctx, "u1", 50)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 interaction, got %d", len(got))
		}
		if got[0].Action != models.ActionDislikedOrSkipped {
			t.Fatalf("expected overwritten action, got %q", got[0].Action)
		}
	})

	t.Run("repeating an action keeps the original timestamp", func(t *testing.T) {
		rec := models.InteractionRecord{UserID: "u2", TitleID: 11, TitleType: models.TitleTypeTV, Action: models.ActionLiked, InteractedAt: base}
		if err := s.UpsertInteraction(ctx, rec); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		rec.InteractedAt = base.Add(time.Hour)
		if err := s.UpsertInteraction(ctx, rec); err != nil {
			t.Fatalf("upsert: %v", err)
		}
		got, err := s.ListInteractions(ctx, "u2", 50)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 1 || !got[0].InteractedAt.Equal(base) {
			t.Fatalf("expected single record at %s, got %+v", base, got)
		}
	})

	t.Run("interacted ids are scoped by title type", func(t *testing.T) {
		for _, rec := range []models.InteractionRecord{
			{UserID: "u3", TitleID: 7, TitleType: models.TitleTypeMovie, Action: models.ActionLiked, InteractedAt: base},
			{UserID: "u3", TitleID: 7, TitleType: models.TitleTypeTV, Action: models.ActionLiked, InteractedAt: base},
			{UserID: "u3", TitleID: 3, TitleType: models.TitleTypeMovie, Action: models.ActionDislikedOrSkipped, InteractedAt: base},
		} {
			if err := s.UpsertInteraction(ctx, rec); err != nil {
				t.Fatalf("upsert: %v", err)
			}
		}
		movies, err := s.InteractedTitleIDs(ctx, "u3", models.TitleTypeMovie)
		if err != nil {
			t.Fatalf("ids: %v", err)
		}
		if len(movies) != 2 || movies[0] != 3 || movies[1] != 7 {
			t.Fatalf("expected [3 7], got %v", movies)
		}
		all, err := s.InteractedTitleIDs(ctx, "u3", "")
		if err != nil {
			t.Fatalf("ids: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 ids across types, got %v", all)
		}
	})

	t.Run("watchlist add is idempotent and deletable", func(t *testing.T) {
		e := models.WatchlistEntry{UserID: "u4", TitleID: 550, TitleType: models.TitleTypeMovie, AddedAt: base}
		for i := 0; i < 2; i++ {
			if err := s.UpsertWatchlistEntry(ctx, e); err != nil {
				t.Fatalf("upsert %d: %v", i, err)
			}
		}
		list, err := s.ListWatchlist(ctx, "u4")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 1 {
			t.Fatalf("expected 1 watchlist entry, got %d", len(list))
		}
		has, err := s.HasWatchlistEntry(ctx, "u4", 550, models.TitleTypeMovie)
		if err != nil || !has {
			t.Fatalf("expected entry present, got %v %v", has, err)
		}
		has, err = s.HasWatchlistEntry(ctx, "u4", 550, models.TitleTypeTV)
		if err != nil || has {
			t.Fatalf("expected tv entry absent, got %v %v", has, err)
		}
		if err := s.DeleteWatchlistEntry(ctx, "u4", 550, models.TitleTypeMovie); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := s.DeleteWatchlistEntry(ctx, "u4", 550, models.TitleTypeMovie); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("friends are symmetric", func(t *testing.T) {
		addFriend("alice", "bob")
		addFriend("carol", "alice")
		got, err := s.FriendIDs(ctx, "alice")
		if err != nil {
			t.Fatalf("friends: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 friends, got %v", got)
		}
		got, err = s.FriendIDs(ctx, "bob")
		if err != nil {
			t.Fatalf("friends: %v", err)
		}
		if len(got) != 1 || got[0] != "alice" {
			t.Fatalf("expected [alice], got %v", got)
		}
	})

	t.Run("create match if absent writes once", func(t *testing.T) {
		pair := models.CanonicalPair("zed", "amy")
		m := models.MatchRecord{ID: "m-1", ParticipantIDs: pair, TitleID: 550, TitleType: models.TitleTypeMovie, CreatedAt: base, Status: models.MatchStatusNew}
		got, created, err := s.CreateMatchIfAbsent(ctx, m)
		if err != nil || !created || got.ID != "m-1" {
			t.Fatalf("expected first create, got %+v %v %v", got, created, err)
		}
		m.ID = "m-2"
		got, created, err = s.CreateMatchIfAbsent(ctx, m)
		if err != nil {
			t.Fatalf("second create: %v", err)
		}
		if created || got.ID != "m-1" {
			t.Fatalf("expected existing m-1, got %+v created=%v", got, created)
		}
		found, err := s.FindMatch(ctx, pair, 550, models.TitleTypeMovie)
		if err != nil || found == nil || found.ID != "m-1" {
			t.Fatalf("expected to find m-1, got %+v %v", found, err)
		}
		if found.ParticipantIDs != (models.Pair{"amy", "zed"}) {
			t.Fatalf("unexpected participants %v", found.ParticipantIDs)
		}
		missing, err := s.FindMatch(ctx, pair, 550, models.TitleTypeTV)
		if err != nil || missing != nil {
			t.Fatalf("expected no tv match, got %+v %v", missing, err)
		}
	})

	t.Run("pairs differing only by separator position stay distinct", func(t *testing.T) {
		first := models.MatchRecord{ID: "sep-1", ParticipantIDs: models.CanonicalPair("a|b", "c"), TitleID: 77, TitleType: models.TitleTypeMovie, CreatedAt: base, Status: models.MatchStatusNew}
		second := models.MatchRecord{ID: "sep-2", ParticipantIDs: models.CanonicalPair("a", "b|c"), TitleID: 77, TitleType: models.TitleTypeMovie, CreatedAt: base, Status: models.MatchStatusNew}
		for _, m := range []models.MatchRecord{first, second} {
			got, created, err := s.CreateMatchIfAbsent(ctx, m)
			if err != nil || !created || got.ID != m.ID {
				t.Fatalf("expected %s to be created, got %+v %v %v", m.ID, got, created, err)
			}
		}
		for _, m := range []models.MatchRecord{first, second} {
			found, err := s.FindMatch(ctx, m.ParticipantIDs, 77, models.TitleTypeMovie)
			if err != nil || found == nil || found.ID != m.ID {
				t.Fatalf("expected to find %s, got %+v %v", m.ID, found, err)
			}
		}
	})

	t.Run("mixed case pair is ordered by byte value", func(t *testing.T) {
		pair := models.CanonicalPair("alice", "Bob")
		m := models.MatchRecord{ID: "case-1", ParticipantIDs: pair, TitleID: 88, TitleType: models.TitleTypeTV, CreatedAt: base, Status: models.MatchStatusNew}
		got, created, err := s.CreateMatchIfAbsent(ctx, m)
		if err != nil || !created || got.ID != "case-1" {
			t.Fatalf("expected create, got %+v %v %v", got, created, err)
		}
		found, err := s.FindMatch(ctx, models.CanonicalPair("Bob", "alice"), 88, models.TitleTypeTV)
		if err != nil || found == nil || found.ID != "case-1" {
			t.Fatalf("expected to find case-1, got %+v %v", found, err)
		}
		if found.ParticipantIDs != (models.Pair{"Bob", "alice"}) {
			t.Fatalf("unexpected participants %v", found.ParticipantIDs)
		}
	})

	t.Run("list matches newest first", func(t *testing.T) {
		for i, title := range []int{1, 2, 3} {
			m := models.MatchRecord{
				ID:             "lm-" + string(rune('a'+i)),
				ParticipantIDs: models.CanonicalPair("lister", "other"),
				TitleID:        title,
				TitleType:      models.TitleTypeTV,
				CreatedAt:      base.Add(time.Duration(i) * time.Minute),
				Status:         models.MatchStatusNew,
			}
			if _, _, err := s.CreateMatchIfAbsent(ctx, m); err != nil {
				t.Fatalf("create: %v", err)
			}
		}
		got, err := s.ListMatches(ctx, "lister", 2)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 2 || got[0].TitleID != 3 || got[1].TitleID != 2 {
			t.Fatalf("expected titles [3 2], got %+v", got)
		}
		got, err = s.ListMatches(ctx, "other", 10)
		if err != nil || len(got) != 3 {
			t.Fatalf("expected 3 matches for other participant, got %d %v", len(got), err)
		}
	})
}
