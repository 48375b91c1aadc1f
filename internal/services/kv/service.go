// Package kv stores dashboard preferences in the key/value store.
package kv

import (
	"context"
	"errors"
	"strconv"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finview/internal/interfaces"
)

// Preference keys
const (
	KeyDarkMode   = "pref_dark_mode"
	KeyLastTicker = "pref_last_ticker"
)

// Service provides display preferences over key/value storage.
// Read failures fall back to defaults so the page always renders.
type Service struct {
	storage interfaces.KeyValueStorage
	logger  arbor.ILogger
}

// NewService creates a new preference service
func NewService(storage interfaces.KeyValueStorage, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// DarkMode returns the persisted theme; light when unset.
func (s *Service) DarkMode(ctx context.Context) bool {
	value, ok := s.get(ctx, KeyDarkMode)
	if !ok {
		return false
	}
	dark, err := strconv.ParseBool(value)
	if err != nil {
		s.logger.Warn().Str("key", KeyDarkMode).Str("value", value).Msg("Ignoring malformed preference")
		return false
	}
	return dark
}

// SetDarkMode persists the theme.
func (s *Service) SetDarkMode(ctx context.Context, dark bool) error {
	return s.set(ctx, KeyDarkMode, strconv.FormatBool(dark), "Dashboard dark mode")
}

// LastTicker returns the last successfully loaded ticker, or "".
func (s *Service) LastTicker(ctx context.Context) string {
	value, _ := s.get(ctx, KeyLastTicker)
	return value
}

// SetLastTicker persists the last successfully loaded ticker.
func (s *Service) SetLastTicker(ctx context.Context, ticker string) error {
	return s.set(ctx, KeyLastTicker, ticker, "Last loaded ticker")
}

func (s *Service) get(ctx context.Context, key string) (string, bool) {
	value, err := s.storage.Get(ctx, key)
	if errors.Is(err, interfaces.ErrKeyNotFound) {
		return "", false
	}
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to get preference")
		return "", false
	}
	return value, true
}

func (s *Service) set(ctx context.Context, key, value, description string) error {
	if err := s.storage.Set(ctx, key, value, description); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to store preference")
		return err
	}
	s.logger.Debug().Str("key", key).Str("value", value).Msg("Stored preference")
	return nil
}
