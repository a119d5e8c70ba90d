package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Skufu/symptomcheck/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps query records in process memory. It is lost on restart.
type Store struct {
	records []store.Query
	last    time.Time
	mtx     sync.RWMutex
	now     func() time.Time
}

func (s *Store) Insert(ctx context.Context, symptoms string, analysis json.RawMessage) (store.Query, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	// createdAt must stay strictly increasing so history order is total.
	now := s.now().UTC()
	if !now.After(s.last) {
		now = s.last.Add(time.Microsecond)
	}
	s.last = now

	cpy := make(json.RawMessage, len(analysis))
	copy(cpy, analysis)

	rec := store.Query{
		ID:        uuid.New().String(),
		Symptoms:  symptoms,
		Analysis:  cpy,
		CreatedAt: now,
	}

	s.records = append(s.records, rec)

	return rec, nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]store.Query, error) {
	if limit < 1 {
		return nil, nil
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	out := make([]store.Query, len(s.records))
	copy(out, s.records)

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (s *Store) Len() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return len(s.records)
}

func (s *Store) Ping(ctx context.Context) error {
	return nil
}

func (s *Store) Close() {}

func NewStore() *Store {
	return &Store{
		now: time.Now,
	}
}
