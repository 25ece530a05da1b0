package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordCache(t *testing.T) {
	beforeHit := testutil.ToFloat64(CacheResults.WithLabelValues("deck", "hit"))
	beforeMiss := testutil.ToFloat64(CacheResults.WithLabelValues("deck", "miss"))

	RecordCache("deck", true)
	RecordCache("deck", false)
	RecordCache("deck", false)

	if got := testutil.ToFloat64(CacheResults.WithLabelValues("deck", "hit")) - beforeHit; got != 1 {
		t.Fatalf("expected 1 hit, got %v", got)
	}
	if got := testutil.ToFloat64(CacheResults.WithLabelValues("deck", "miss")) - beforeMiss; got != 2 {
		t.Fatalf("expected 2 misses, got %v", got)
	}
}

func TestRecordCatalogRequest(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status string
	}{
		{name: "success", err: nil, status: "ok"},
		{name: "failure", err: errors.New("boom"), status: "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.CollectAndCount(CatalogRequestDuration)
			RecordCatalogRequest("discover_test_"+tt.status, time.Now().Add(-10*time.Millisecond), tt.err)
			after := testutil.CollectAndCount(CatalogRequestDuration)
			if after != before+1 {
				t.Fatalf("expected a new series for %s, got %d -> %d", tt.status, before, after)
			}
		})
	}
}
