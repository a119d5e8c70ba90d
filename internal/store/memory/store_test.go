package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestInsertAssignsIdentityAndTimestamp(t *testing.T) {
	s := NewStore()

	rec, err := s.Insert(context.Background(), "cough, fever", json.RawMessage(`{"summary":"x"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID == "" || rec.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp, got %+v", rec)
	}
	if rec.Symptoms != "cough, fever" || string(rec.Analysis) != `{"summary":"x"}` {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestRecentReturnsNewestTwenty(t *testing.T) {
	s := NewStore()
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	for i := 0; i < 25; i++ {
		if _, err := s.Insert(context.Background(), fmt.Sprintf("symptom %d", i), json.RawMessage(`{}`)); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	recs, err := s.Recent(context.Background(), 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 20 {
		t.Fatalf("expected 20 records, got %d", len(recs))
	}
	if recs[0].Symptoms != "symptom 24" || recs[19].Symptoms != "symptom 5" {
		t.Fatalf("unexpected window: first=%q last=%q", recs[0].Symptoms, recs[19].Symptoms)
	}
	for i := 1; i < len(recs); i++ {
		if !recs[i-1].CreatedAt.After(recs[i].CreatedAt) {
			t.Fatalf("records %d and %d are not strictly descending", i-1, i)
		}
	}
}

func TestRecentZeroLimit(t *testing.T) {
	s := NewStore()
	_, _ = s.Insert(context.Background(), "a", json.RawMessage(`{}`))
	recs, err := s.Recent(context.Background(), 0)
	if err != nil || len(recs) != 0 {
		t.Fatalf("expected no records, got %d (%v)", len(recs), err)
	}
}

func TestConcurrentInserts(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.Insert(context.Background(), fmt.Sprintf("s%d", i), json.RawMessage(`{}`))
		}(i)
	}
	wg.Wait()

	if s.Len() != 50 {
		t.Fatalf("expected 50 records, got %d", s.Len())
	}
	ids := map[string]struct{}{}
	recs, _ := s.Recent(context.Background(), 100)
	for _, r := range recs {
		ids[r.ID] = struct{}{}
	}
	if len(ids) != 50 {
		t.Fatalf("expected 50 distinct ids, got %d", len(ids))
	}
}
