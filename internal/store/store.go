// Package store persists submitted symptom queries and their analyses.
package store

import (
	"context"
	"encoding/json"
	"time"
)

// Query is immutable once inserted.
type Query struct {
	ID        string          `json:"_id"`
	Symptoms  string          `json:"symptoms"`
	Analysis  json.RawMessage `json:"analysis"`
	CreatedAt time.Time       `json:"createdAt"`
}

type Store interface {
	Insert(ctx context.Context, symptoms string, analysis json.RawMessage) (Query, error)
	// Recent returns at most limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Query, error)
	Ping(ctx context.Context) error
	Close()
}
