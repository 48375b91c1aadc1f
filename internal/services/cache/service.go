// Package cache reuses recently fetched fundamentals payloads so repeated
// loads of the same ticker do not spend provider quota.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finview/internal/interfaces"
	"github.com/ternarybob/finview/internal/models"
)

const (
	// DefaultTTL is how long a fetched payload is reused.
	DefaultTTL = time.Hour

	// KeyPrefix is the prefix for cached payload keys in KV storage.
	KeyPrefix = "payload:"
)

// entry is the stored form of a cached payload.
type entry struct {
	Ticker    string          `json:"ticker"`
	FetchedAt time.Time       `json:"fetched_at"`
	Payload   *models.Payload `json:"payload"`
}

// Service wraps a FinancialDataProvider with a KV-backed payload cache.
// Only successful fetches are cached; errors always reach the caller.
type Service struct {
	upstream interfaces.FinancialDataProvider
	kv       interfaces.KeyValueStorage
	logger   arbor.ILogger
	ttl      time.Duration
	now      func() time.Time
}

// NewService creates a caching provider in front of upstream.
func NewService(upstream interfaces.FinancialDataProvider, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) *Service {
	return &Service{
		upstream: upstream,
		kv:       kvStorage,
		logger:   logger,
		ttl:      DefaultTTL,
		now:      time.Now,
	}
}

// WithTTL sets the reuse window. A zero TTL turns the cache off.
func (s *Service) WithTTL(ttl time.Duration) *Service {
	s.ttl = ttl
	return s
}

// GetAllData returns a fresh cached payload or fetches and stores a new one.
func (s *Service) GetAllData(ctx context.Context, ticker string) (*models.Payload, error) {
	if s.ttl <= 0 {
		return s.upstream.GetAllData(ctx, ticker)
	}

	cached, err := s.get(ctx, ticker)
	if err == nil && s.isFresh(cached) {
		s.logger.Debug().
			Str("ticker", ticker).
			Str("fetched_at", cached.FetchedAt.Format(time.RFC3339)).
			Msg("Using cached fundamentals")
		return cached.Payload, nil
	}
	if err != nil && !errors.Is(err, interfaces.ErrKeyNotFound) {
		s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Ignoring unreadable cache entry")
	}

	payload, err := s.upstream.GetAllData(ctx, ticker)
	if err != nil {
		return nil, err
	}

	if err := s.store(ctx, ticker, payload); err != nil {
		s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Failed to cache fundamentals")
	}

	return payload, nil
}

// Invalidate drops the cached payload for a ticker.
func (s *Service) Invalidate(ctx context.Context, ticker string) error {
	err := s.kv.Delete(ctx, KeyPrefix+ticker)
	if errors.Is(err, interfaces.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (s *Service) get(ctx context.Context, ticker string) (*entry, error) {
	value, err := s.kv.Get(ctx, KeyPrefix+ticker)
	if err != nil {
		return nil, err
	}

	var cached entry
	if err := json.Unmarshal([]byte(value), &cached); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached payload: %w", err)
	}
	if cached.Payload == nil {
		return nil, fmt.Errorf("cached entry for %s has no payload", ticker)
	}
	return &cached, nil
}

func (s *Service) store(ctx context.Context, ticker string, payload *models.Payload) error {
	cached := entry{Ticker: ticker, FetchedAt: s.now(), Payload: payload}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	description := fmt.Sprintf("Fundamentals for %s, fetched at %s", ticker, cached.FetchedAt.Format(time.RFC3339))
	return s.kv.Set(ctx, KeyPrefix+ticker, string(data), description)
}

func (s *Service) isFresh(cached *entry) bool {
	return s.now().Sub(cached.FetchedAt) < s.ttl
}
