package service

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/Skufu/symptomcheck/internal/analysis"
	"github.com/Skufu/symptomcheck/internal/store"
)

var _ analysis.Gateway = (*MockGateway)(nil)

type MockGateway struct {
	AnalyzeFunc func(ctx context.Context, symptoms string) (json.RawMessage, error)

	AnalyzeCallCount int32
}

func (m *MockGateway) Analyze(ctx context.Context, symptoms string) (json.RawMessage, error) {
	atomic.AddInt32(&m.AnalyzeCallCount, 1)
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, symptoms)
	}
	return json.RawMessage(`{}`), nil
}

var _ store.Store = (*MockStore)(nil)

type MockStore struct {
	InsertFunc func(ctx context.Context, symptoms string, analysis json.RawMessage) (store.Query, error)
	RecentFunc func(ctx context.Context, limit int) ([]store.Query, error)

	InsertCallCount int32
}

func (m *MockStore) Insert(ctx context.Context, symptoms string, analysis json.RawMessage) (store.Query, error) {
	atomic.AddInt32(&m.InsertCallCount, 1)
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, symptoms, analysis)
	}
	return store.Query{ID: "mock", Symptoms: symptoms, Analysis: analysis}, nil
}

func (m *MockStore) Recent(ctx context.Context, limit int) ([]store.Query, error) {
	if m.RecentFunc != nil {
		return m.RecentFunc(ctx, limit)
	}
	return nil, nil
}

func (m *MockStore) Ping(ctx context.Context) error { return nil }

func (m *MockStore) Close() {}
