package models

import "testing"

func TestCanonicalPairUsesByteOrder(t *testing.T) {
	tests := []struct {
		a, b string
		want Pair
	}{
		{"bob", "alice", Pair{"alice", "bob"}},
		{"alice", "bob", Pair{"alice", "bob"}},
		{"alice", "Bob", Pair{"Bob", "alice"}},
		{"uid_Z9", "uid_a1", Pair{"uid_Z9", "uid_a1"}},
	}
	for _, tt := range tests {
		if got := CanonicalPair(tt.a, tt.b); got != tt.want {
			t.Fatalf("CanonicalPair(%q, %q): expected %v, got %v", tt.a, tt.b, tt.want, got)
		}
	}
}

func TestMatchKeyDistinguishesSeparatorInIDs(t *testing.T) {
	left := MatchKey(CanonicalPair("a|b", "c"), 5, TitleTypeMovie)
	right := MatchKey(CanonicalPair("a", "b|c"), 5, TitleTypeMovie)
	if left == right {
		t.Fatalf("expected distinct keys, both were %q", left)
	}

	auth0 := MatchKey(CanonicalPair("auth0|123", "google|9"), 1, TitleTypeTV)
	if auth0 != "9:auth0|123|8:google|9|tv|1" {
		t.Fatalf("unexpected key %q", auth0)
	}
}

func TestMatchKeySeparatesTitles(t *testing.T) {
	p := CanonicalPair("u1", "u2")
	if MatchKey(p, 10, TitleTypeMovie) == MatchKey(p, 10, TitleTypeTV) {
		t.Fatal("expected movie and tv keys to differ")
	}
	if MatchKey(p, 1, TitleTypeMovie) == MatchKey(p, 11, TitleTypeMovie) {
		t.Fatal("expected different title ids to differ")
	}
}
