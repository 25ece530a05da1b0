package models

import (
	"strconv"
	"strings"
	"time"
)

// MatchStatus tracks whether the participants have seen a match.
type MatchStatus string

const (
	MatchStatusNew          MatchStatus = "new"
	MatchStatusAcknowledged MatchStatus = "acknowledged"
)

// Pair is a canonically ordered pair of user ids.
type Pair [2]string

// CanonicalPair orders two user ids by byte value so that {a, b} and
// {b, a} produce the same key. Stores must compare ids the same way.
func CanonicalPair(a, b string) Pair {
	if b < a {
		return Pair{b, a}
	}
	return Pair{a, b}
}

// Other returns the participant that is not userID.
func (p Pair) Other(userID string) string {
	if p[0] == userID {
		return p[1]
	}
	return p[0]
}

// MatchKey is the de-duplication key of a match: one per pair and title.
// User ids are length-prefixed since they may contain the separator.
func MatchKey(p Pair, titleID int, titleType TitleType) string {
	var b strings.Builder
	for _, id := range p {
		b.WriteString(strconv.Itoa(len(id)))
		b.WriteByte(':')
		b.WriteString(id)
		b.WriteByte('|')
	}
	b.WriteString(string(titleType))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(titleID))
	return b.String()
}

// MatchRecord records that two friends both want to watch the same title.
type MatchRecord struct {
	ID             string      `json:"id"`
	ParticipantIDs Pair        `json:"participant_ids"`
	TitleID        int         `json:"title_id"`
	TitleType      TitleType   `json:"title_type"`
	CreatedAt      time.Time   `json:"created_at"`
	Status         MatchStatus `json:"status"`
}

// Key returns the de-duplication key of m.
func (m MatchRecord) Key() string {
	return MatchKey(m.ParticipantIDs, m.TitleID, m.TitleType)
}

// MatchView is a match as seen by one of its participants.
type MatchView struct {
	MatchRecord
	FriendID string `json:"friend_id"`
	Title    *Title `json:"title,omitempty"`
}
