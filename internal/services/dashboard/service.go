// Package dashboard owns the dashboard's session state: the last loaded
// payload, its ticker and the display theme. Derived views are pure
// functions of one State snapshot, so a concurrent Load cannot mix two
// tickers into one response.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finview/internal/common"
	"github.com/ternarybob/finview/internal/interfaces"
	"github.com/ternarybob/finview/internal/models"
	"github.com/ternarybob/finview/internal/services/fundamentals"
)

// ErrNoData is returned by the query methods before any ticker has loaded.
var ErrNoData = errors.New("no data loaded")

// Service holds the session state behind a RWMutex. Loads are serialised
// so at most one provider fetch is in flight.
type Service struct {
	provider interfaces.FinancialDataProvider
	prefs    interfaces.PreferenceService
	logger   arbor.ILogger
	now      func() time.Time

	loadMu sync.Mutex
	mu     sync.RWMutex
	state  models.SessionState
}

// NewService creates the dashboard service and restores the persisted theme.
func NewService(provider interfaces.FinancialDataProvider, prefs interfaces.PreferenceService, logger arbor.ILogger) *Service {
	s := &Service{
		provider: provider,
		prefs:    prefs,
		logger:   logger,
		now:      time.Now,
	}
	if prefs != nil {
		s.state.DarkMode = prefs.DarkMode(context.Background())
	}
	return s
}

// Load fetches a ticker and, on success, replaces the cached payload.
// A failed fetch leaves the previous state untouched.
func (s *Service) Load(ctx context.Context, ticker string) (models.SessionState, error) {
	symbol, err := common.NormalizeTicker(ticker)
	if err != nil {
		return s.State(), err
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.logger.Info().Str("ticker", symbol).Msg("Loading fundamentals")

	payload, err := s.provider.GetAllData(ctx, symbol)
	if err != nil {
		s.logger.Warn().Err(err).Str("ticker", symbol).Msg("Failed to load fundamentals")
		return s.State(), fmt.Errorf("load %s: %w", symbol, err)
	}
	if payload == nil {
		payload = &models.Payload{}
	}

	s.mu.Lock()
	s.state.Ticker = symbol
	s.state.Payload = payload
	s.state.LoadedAt = s.now()
	snapshot := s.state
	s.mu.Unlock()

	if s.prefs != nil {
		if err := s.prefs.SetLastTicker(ctx, symbol); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to persist last ticker")
		}
	}

	s.logger.Info().
		Str("ticker", symbol).
		Str("company", snapshot.CompanyName()).
		Str("currency", snapshot.Currency()).
		Int("periods", len(payload.Metadata.PeriodEndDate)).
		Msg("Fundamentals loaded")

	return snapshot, nil
}

// Reload drops any reused payload for the ticker, then loads it.
func (s *Service) Reload(ctx context.Context, ticker string) (models.SessionState, error) {
	symbol, err := common.NormalizeTicker(ticker)
	if err != nil {
		return s.State(), err
	}

	if invalidator, ok := s.provider.(interfaces.PayloadInvalidator); ok {
		if err := invalidator.Invalidate(ctx, symbol); err != nil {
			s.logger.Warn().Err(err).Str("ticker", symbol).Msg("Failed to drop cached payload")
		}
	}

	return s.Load(ctx, symbol)
}

// State returns a copy of the session state.
func (s *Service) State() models.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetDarkMode updates and persists the theme.
func (s *Service) SetDarkMode(ctx context.Context, dark bool) error {
	s.mu.Lock()
	s.state.DarkMode = dark
	s.mu.Unlock()

	if s.prefs != nil {
		return s.prefs.SetDarkMode(ctx, dark)
	}
	return nil
}

// LastTicker returns the persisted last ticker, or fallback when none.
func (s *Service) LastTicker(ctx context.Context, fallback string) string {
	if s.prefs != nil {
		if ticker := s.prefs.LastTicker(ctx); ticker != "" {
			return ticker
		}
	}
	return fallback
}

// Symbol returns the display symbol for a snapshot's reporting currency.
func Symbol(state models.SessionState) string {
	return common.CurrencySymbol(state.Currency())
}

// Summary returns the TTM cards for a state snapshot.
func Summary(state models.SessionState) ([]models.MetricCard, error) {
	if !state.Loaded() {
		return nil, ErrNoData
	}
	return fundamentals.Summarize(state.Payload, Symbol(state)), nil
}

// History builds the historical table for [start, end] from a state snapshot.
func History(state models.SessionState, start, end models.YearBound) (*models.HistoricalTable, error) {
	if !state.Loaded() {
		return nil, ErrNoData
	}
	return fundamentals.BuildHistory(state.Payload, start, end), nil
}

// FormattedHistory is History rendered with the snapshot's currency symbol.
func FormattedHistory(state models.SessionState, start, end models.YearBound) (*models.FormattedTable, error) {
	table, err := History(state, start, end)
	if err != nil {
		return nil, err
	}
	return fundamentals.FormatTable(table, Symbol(state)), nil
}

// YearOptions lists selector values from minYear to the current year.
// withTTM appends the TTM sentinel for the end-year selector.
func YearOptions(minYear int, now time.Time, withTTM bool) []string {
	current := now.Year()
	if minYear > current {
		minYear = current
	}
	out := make([]string, 0, current-minYear+2)
	for y := minYear; y <= current; y++ {
		out = append(out, strconv.Itoa(y))
	}
	if withTTM {
		out = append(out, models.TTMLabel)
	}
	return out
}
