package events

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"movie-discovery-match-service/internal/models"
)

func TestEncodeMatch(t *testing.T) {
	created := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	m := models.MatchRecord{
		ID:             "0b6a3f1e-match",
		ParticipantIDs: models.Pair{"alice", "bob"},
		TitleID:        1399,
		TitleType:      models.TitleTypeTV,
		CreatedAt:      created,
		Status:         models.MatchStatusNew,
	}

	msg, err := encodeMatch("match.created", m)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if msg.Subject != "match.created" {
		t.Fatalf("expected subject match.created, got %s", msg.Subject)
	}
	if got := msg.Header.Get(nats.MsgIdHdr); got != m.ID {
		t.Fatalf("expected message id %s, got %s", m.ID, got)
	}

	var ev MatchCreatedEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.MatchID != m.ID || ev.TitleID != 1399 || ev.TitleType != models.TitleTypeTV {
		t.Fatalf("unexpected event %+v", ev)
	}
	if len(ev.ParticipantIDs) != 2 || ev.ParticipantIDs[0] != "alice" || ev.ParticipantIDs[1] != "bob" {
		t.Fatalf("unexpected participants %v", ev.ParticipantIDs)
	}
	if !ev.CreatedAt.Equal(created) {
		t.Fatalf("expected created_at %v, got %v", created, ev.CreatedAt)
	}
}
