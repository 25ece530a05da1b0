package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"movie-discovery-match-service/internal/models"
)

// SwipeResult is the outcome of a resolved swipe.
type SwipeResult struct {
	UserID       string              `json:"user_id"`
	TitleID      int                 `json:"title_id"`
	TitleType    models.TitleType    `json:"title_type"`
	Action       models.Action       `json:"action"`
	MatchChecked bool                `json:"match_checked"`
	Match        *models.MatchRecord `json:"match"`
}

// SwipeService runs the swipe flow: record the decision, then look for a
// match when the user showed interest.
type SwipeService struct {
	interactions *InteractionService
	friends      FriendSource
	detector     *MatchDetector
	timeout      time.Duration
}

// NewSwipeService creates a new SwipeService.
func NewSwipeService(interactions *InteractionService, friends FriendSource, detector *MatchDetector, timeout time.Duration) *SwipeService {
	return &SwipeService{
		interactions: interactions,
		friends:      friends,
		detector:     detector,
		timeout:      timeout,
	}
}

// Swipe records the decision and, for interested actions, runs match
// detection against the user's friends. Recording errors are returned;
// match detection is best-effort and its failures only leave Match nil.
func (s *SwipeService) Swipe(ctx context.Context, userID string, titleID int, titleType models.TitleType, action models.Action) (*SwipeResult, error) {
	userID = strings.TrimSpace(userID)
	if err := s.interactions.Record(ctx, userID, titleID, titleType, action); err != nil {
		return nil, err
	}

	res := &SwipeResult{
		UserID:    userID,
		TitleID:   titleID,
		TitleType: titleType,
		Action:    action,
	}
	if !action.Interested() {
		return res, nil
	}

	friends, err := s.Friends(ctx, userID)
	if err != nil {
		slog.Warn("could not load friends, skipping match check", "user_id", userID, "error", err)
		return res, nil
	}
	match, err := s.detector.CheckAndCreate(ctx, userID, friends, titleID, titleType)
	if err != nil {
		slog.Warn("match check failed", "user_id", userID, "title_id", titleID, "title_type", titleType, "error", err)
		return res, nil
	}
	res.MatchChecked = true
	res.Match = match
	return res, nil
}

// Friends returns the user's friend ids.
func (s *SwipeService) Friends(ctx context.Context, userID string) ([]string, error) {
	userID, err := normalizeUserID(userID)
	if err != nil {
		return nil, invalid("friends", err)
	}
	opCtx, cancel := opContext(ctx, s.timeout)
	defer cancel()

	ids, err := s.friends.FriendIDs(opCtx, userID)
	if err != nil {
		return nil, persistence("friends", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// CheckMatch runs match detection on demand for a title already on the
// user's watchlist. Without explicit friendIDs the stored friend list is
// used; explicit ids that are not stored friends are ignored.
func (s *SwipeService) CheckMatch(ctx context.Context, userID string, friendIDs []string, titleID int, titleType models.TitleType) (*models.MatchRecord, error) {
	userID = strings.TrimSpace(userID)
	onList, err := s.interactions.OnWatchlist(ctx, userID, titleID, titleType)
	if err != nil {
		return nil, err
	}
	if !onList {
		return nil, &NotFoundError{Resource: "watchlist entry", ID: string(titleType) + "/" + strconv.Itoa(titleID)}
	}

	stored, err := s.Friends(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(friendIDs) > 0 {
		friendIDs = knownFriends(userID, friendIDs, stored)
	} else {
		friendIDs = stored
	}
	return s.detector.CheckAndCreate(ctx, userID, friendIDs, titleID, titleType)
}

// knownFriends keeps the requested ids that are in stored, in request order.
func knownFriends(userID string, requested, stored []string) []string {
	known := make(map[string]struct{}, len(stored))
	for _, id := range stored {
		known[id] = struct{}{}
	}
	out := make([]string, 0, len(requested))
	for _, id := range requested {
		id = strings.TrimSpace(id)
		if _, ok := known[id]; !ok {
			slog.Warn("ignoring requested id that is not a friend", "user_id", userID, "friend_id", id)
			continue
		}
		out = append(out, id)
	}
	return out
}
