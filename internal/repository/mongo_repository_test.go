package repository

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"movie-discovery-match-service/internal/models"
)

func TestDocKeySeparatesTitleTypes(t *testing.T) {
	movie := docKey("u1", 550, models.TitleTypeMovie)
	tv := docKey("u1", 550, models.TitleTypeTV)
	if movie == tv {
		t.Fatalf("expected distinct keys, both were %q", movie)
	}
	if movie != "u1|movie|550" {
		t.Fatalf("unexpected key %q", movie)
	}
}

func TestMatchDocRecord(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	d := matchDoc{
		Key:            "1:a|1:b|tv|42",
		MatchID:        "m-1",
		ParticipantIDs: []string{"a", "b"},
		TitleID:        42,
		TitleType:      "tv",
		Status:         "new",
		CreatedAt:      created,
	}
	m := d.record()
	if m.ID != "m-1" || m.ParticipantIDs != (models.Pair{"a", "b"}) || m.TitleType != models.TitleTypeTV {
		t.Fatalf("unexpected record %+v", m)
	}
	if m.Key() != d.Key {
		t.Fatalf("expected key %q, got %q", d.Key, m.Key())
	}
	if !m.CreatedAt.Equal(created) {
		t.Fatalf("expected created %s, got %s", created, m.CreatedAt)
	}
}

func TestMatchFilterUsesFields(t *testing.T) {
	f := matchFilter(models.CanonicalPair("b|c", "a"), 5, models.TitleTypeMovie)
	if _, ok := f["_id"]; ok {
		t.Fatalf("expected field filter, got %v", f)
	}
	ids, ok := f["participant_ids"].(bson.A)
	if !ok || len(ids) != 2 || ids[0] != "a" || ids[1] != "b|c" {
		t.Fatalf("expected ordered participants [a b|c], got %v", f["participant_ids"])
	}
	if f["title_id"] != 5 || f["title_type"] != "movie" {
		t.Fatalf("unexpected filter %v", f)
	}
}
