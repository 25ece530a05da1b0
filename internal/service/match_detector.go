package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"movie-discovery-match-service/internal/metrics"
	"movie-discovery-match-service/internal/models"
)

// MatchDetector turns a new watchlist addition into a match with the first
// friend who already holds the same title.
type MatchDetector struct {
	watchlist WatchlistStore
	matches   MatchStore
	publisher MatchPublisher
	titles    TitleSource
	timeout   time.Duration
	now       func() time.Time
	newID     func() string
}

// NewMatchDetector creates a new MatchDetector. publisher may be nil.
func NewMatchDetector(watchlist WatchlistStore, matches MatchStore, publisher MatchPublisher, timeout time.Duration) *MatchDetector {
	return &MatchDetector{
		watchlist: watchlist,
		matches:   matches,
		publisher: publisher,
		timeout:   timeout,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// WithTitles makes Matches attach catalog details to each match.
func (d *MatchDetector) WithTitles(titles TitleSource) *MatchDetector {
	d.titles = titles
	return d
}

// CheckAndCreate checks friendIDs in order and stops at the first friend
// whose watchlist holds the title. If that pair has no match for the title
// yet, one is created and returned; otherwise the result is nil. A failed
// lookup for one friend is logged and the friend is skipped; if every lookup
// fails the error is returned as PersistenceError.
func (d *MatchDetector) CheckAndCreate(ctx context.Context, userID string, friendIDs []string, titleID int, titleType models.TitleType) (*models.MatchRecord, error) {
	userID = strings.TrimSpace(userID)
	if err := validateTitleRef(userID, titleID, titleType); err != nil {
		return nil, invalid("check match", err)
	}

	var (
		attempted int
		failed    int
		lastErr   error
	)
	for _, friendID := range friendIDs {
		friendID = strings.TrimSpace(friendID)
		if friendID == "" || friendID == userID {
			slog.Warn("skipping invalid friend id", "user_id", userID, "friend_id", friendID)
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, persistence("check match", err)
		}

		attempted++
		holds, err := d.friendHolds(ctx, friendID, titleID, titleType)
		if err != nil {
			failed++
			lastErr = err
			metrics.FriendLookupFailures.Inc()
			slog.Warn("friend watchlist lookup failed, skipping friend",
				"user_id", userID, "friend_id", friendID, "title_id", titleID, "title_type", titleType, "error", err)
			continue
		}
		if !holds {
			continue
		}

		return d.createOnce(ctx, models.CanonicalPair(userID, friendID), titleID, titleType)
	}

	if attempted > 0 && failed == attempted {
		metrics.StoreErrors.WithLabelValues("friend_watchlist").Inc()
		return nil, persistence("check match", fmt.Errorf("all %d friend lookups failed: %w", failed, lastErr))
	}
	return nil, nil
}

func (d *MatchDetector) friendHolds(ctx context.Context, friendID string, titleID int, titleType models.TitleType) (bool, error) {
	opCtx, cancel := opContext(ctx, d.timeout)
	defer cancel()
	return d.watchlist.HasWatchlistEntry(opCtx, friendID, titleID, titleType)
}

// createOnce creates the match for pair and title unless one exists. The
// existence check avoids a write in the common case; CreateMatchIfAbsent
// closes the window between two friends adding the title concurrently.
func (d *MatchDetector) createOnce(ctx context.Context, pair models.Pair, titleID int, titleType models.TitleType) (*models.MatchRecord, error) {
	opCtx, cancel := opContext(ctx, d.timeout)
	existing, err := d.matches.FindMatch(opCtx, pair, titleID, titleType)
	cancel()
	if err != nil {
		metrics.StoreErrors.WithLabelValues("find_match").Inc()
		return nil, persistence("check match", err)
	}
	if existing != nil {
		metrics.MatchDuplicatesSkipped.Inc()
		slog.Info("match already exists, not creating duplicate",
			"match_id", existing.ID, "participants", pair, "title_id", titleID, "title_type", titleType)
		return nil, nil
	}

	rec := models.MatchRecord{
		ID:             d.newID(),
		ParticipantIDs: pair,
		TitleID:        titleID,
		TitleType:      titleType,
		CreatedAt:      d.now().UTC(),
		Status:         models.MatchStatusNew,
	}
	opCtx, cancel = opContext(ctx, d.timeout)
	stored, created, err := d.matches.CreateMatchIfAbsent(opCtx, rec)
	cancel()
	if err != nil {
		metrics.StoreErrors.WithLabelValues("create_match").Inc()
		return nil, persistence("create match", err)
	}
	if !created {
		metrics.MatchDuplicatesSkipped.Inc()
		slog.Info("match created concurrently, not creating duplicate", "match_id", stored.ID, "participants", pair)
		return nil, nil
	}

	metrics.MatchesCreated.WithLabelValues(string(titleType)).Inc()
	slog.Info("match created", "match_id", stored.ID, "participants", pair, "title_id", titleID, "title_type", titleType)
	d.publish(ctx, *stored)
	return stored, nil
}

func (d *MatchDetector) publish(ctx context.Context, m models.MatchRecord) {
	if d.publisher == nil {
		return
	}
	if err := d.publisher.PublishMatch(ctx, m); err != nil {
		slog.Warn("failed to publish match event", "match_id", m.ID, "error", err)
	}
}

// Matches returns the user's matches, newest first, each annotated with the
// other participant.
func (d *MatchDetector) Matches(ctx context.Context, userID string, limit int) ([]models.MatchView, error) {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return nil, invalid("list matches", err)
	}
	opCtx, cancel := opContext(ctx, d.timeout)
	defer cancel()

	records, err := d.matches.ListMatches(opCtx, userID, clampLimit(limit))
	if err != nil {
		return nil, persistence("list matches", err)
	}

	out := make([]models.MatchView, 0, len(records))
	for _, m := range records {
		friendID := m.ParticipantIDs.Other(userID)
		if friendID == userID || friendID == "" {
			slog.Warn("match has no other participant", "match_id", m.ID)
			continue
		}
		out = append(out, models.MatchView{MatchRecord: m, FriendID: friendID})
	}
	d.attachTitles(ctx, out)
	return out, nil
}

// attachTitles fills in catalog details. A failed lookup leaves Title nil.
func (d *MatchDetector) attachTitles(ctx context.Context, views []models.MatchView) {
	if d.titles == nil {
		return
	}
	resolved := make(map[string]*models.Title)
	for i := range views {
		key := string(views[i].TitleType) + "/" + strconv.Itoa(views[i].TitleID)
		title, ok := resolved[key]
		if !ok {
			var err error
			title, err = d.titles.Details(ctx, views[i].TitleType, views[i].TitleID)
			if err != nil {
				slog.Warn("title details unavailable", "match_id", views[i].ID, "title", key, "error", err)
			}
			resolved[key] = title
		}
		views[i].Title = title
	}
}
