// Package service runs symptom submissions through the analysis gateway and
// the store, and serves the recent history.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Skufu/symptomcheck/internal/analysis"
	"github.com/Skufu/symptomcheck/internal/store"
)

const (
	HistoryLimit     = 20
	DefaultMaxLength = 250
)

type Config struct {
	// MaxLength caps symptom text in runes. Zero disables the cap.
	MaxLength int
	// DedupeWindow reuses an analysis for identical symptoms submitted
	// within the window. Zero disables it.
	DedupeWindow time.Duration
}

type Service struct {
	gateway analysis.Gateway
	store   store.Store
	logger  *slog.Logger
	cfg     Config
	dedupe  *dedupeWindow
}

func New(gw analysis.Gateway, st store.Store, logger *slog.Logger, cfg Config) *Service {
	s := &Service{
		gateway: gw,
		store:   st,
		logger:  logger,
		cfg:     cfg,
	}
	if cfg.DedupeWindow > 0 {
		s.dedupe = newDedupeWindow(cfg.DedupeWindow)
	}
	return s
}

// Submit analyzes symptoms and persists the result. The stored symptoms are
// the input verbatim; only the returned analysis is handed back.
func (s *Service) Submit(ctx context.Context, symptoms string) (json.RawMessage, error) {
	if err := s.validate(symptoms); err != nil {
		return nil, err
	}

	result, cached := s.lookup(symptoms)
	if !cached {
		var err error
		result, err = s.gateway.Analyze(ctx, symptoms)
		if err != nil {
			return nil, err
		}
	}

	rec, err := s.store.Insert(ctx, symptoms, result)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProcessingFailed, err)
	}

	if s.dedupe != nil && !cached {
		s.dedupe.Add(symptoms, result)
	}

	s.logger.DebugContext(ctx, "query stored",
		slog.String("id", rec.ID),
		slog.Bool("deduped", cached),
	)

	return result, nil
}

func (s *Service) History(ctx context.Context) ([]store.Query, error) {
	recs, err := s.store.Recent(ctx, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHistoryUnavailable, err)
	}
	if recs == nil {
		recs = []store.Query{}
	}
	return recs, nil
}

func (s *Service) MaxLength() int {
	return s.cfg.MaxLength
}

func (s *Service) validate(symptoms string) error {
	if strings.TrimSpace(symptoms) == "" {
		return ErrMissingSymptoms
	}
	if s.cfg.MaxLength > 0 && utf8.RuneCountInString(symptoms) > s.cfg.MaxLength {
		return ErrSymptomsTooLong
	}
	return nil
}

func (s *Service) lookup(symptoms string) (json.RawMessage, bool) {
	if s.dedupe == nil {
		return nil, false
	}
	return s.dedupe.Get(symptoms)
}
