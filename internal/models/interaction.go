package models

import "time"

// Action is the outcome of a resolved swipe.
type Action string

const (
	ActionLiked             Action = "liked"
	ActionDislikedOrSkipped Action = "disliked_or_skipped"
	ActionAddedToWatchlist  Action = "added_to_watchlist"
)

// Valid reports whether a is one of the defined actions.
func (a Action) Valid() bool {
	switch a {
	case ActionLiked, ActionDislikedOrSkipped, ActionAddedToWatchlist:
		return true
	}
	return false
}

// Interested reports whether the action expresses interest in the title.
// Interested actions put the title on the user's watchlist.
func (a Action) Interested() bool {
	return a == ActionLiked || a == ActionAddedToWatchlist
}

// InteractionRecord is the latest decision a user made about a title.
// There is at most one per (UserID, TitleID, TitleType).
type InteractionRecord struct {
	UserID       string    `json:"user_id"`
	TitleID      int       `json:"title_id"`
	TitleType    TitleType `json:"title_type"`
	Action       Action    `json:"action"`
	InteractedAt time.Time `json:"interacted_at"`
}

// WatchlistEntry marks a title the user is interested in watching.
type WatchlistEntry struct {
	UserID    string    `json:"user_id"`
	TitleID   int       `json:"title_id"`
	TitleType TitleType `json:"title_type"`
	AddedAt   time.Time `json:"added_at"`
}

// FriendLink associates two users. Links are read in both directions.
type FriendLink struct {
	UserID   string `json:"user_id"`
	FriendID string `json:"friend_id"`
}

// RecordInteractionRequest is the request body for recording an interaction
// or a swipe.
type RecordInteractionRequest struct {
	TitleID   int       `json:"title_id" validate:"required,gt=0"`
	TitleType TitleType `json:"title_type" validate:"required,oneof=movie tv"`
	Action    Action    `json:"action" validate:"required,oneof=liked disliked_or_skipped added_to_watchlist"`
}

// CheckMatchRequest is the request body for an explicit match check.
// When FriendIDs is empty the user's stored friend list is used.
type CheckMatchRequest struct {
	TitleID   int       `json:"title_id" validate:"required,gt=0"`
	TitleType TitleType `json:"title_type" validate:"required,oneof=movie tv"`
	FriendIDs []string  `json:"friend_ids" validate:"omitempty,dive,required"`
}
