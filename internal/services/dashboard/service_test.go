package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finview/internal/common"
	"github.com/ternarybob/finview/internal/models"
	"github.com/ternarybob/finview/internal/quickfs"
)

type fakeProvider struct {
	payloads map[string]string
	calls    []string
}

func (f *fakeProvider) GetAllData(_ context.Context, ticker string) (*models.Payload, error) {
	f.calls = append(f.calls, ticker)
	doc, ok := f.payloads[ticker]
	if !ok {
		return nil, quickfs.ErrTickerNotFound
	}
	var p models.Payload
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

type memoryPrefs struct {
	dark   bool
	ticker string
}

func (m *memoryPrefs) DarkMode(context.Context) bool { return m.dark }
func (m *memoryPrefs) SetDarkMode(_ context.Context, dark bool) error {
	m.dark = dark
	return nil
}
func (m *memoryPrefs) LastTicker(context.Context) string { return m.ticker }
func (m *memoryPrefs) SetLastTicker(_ context.Context, ticker string) error {
	m.ticker = ticker
	return nil
}

const appleDoc = `{
  "metadata": {"name": "Apple Inc.", "currency": "USD", "period_end_date": ["2022-09-24", "2023-09-30"]},
  "financials": {
    "annual": {"revenue": [394328000000, 383290000000], "operating_income": [119437000000, 114301000000]},
    "ttm": {"revenue": 385706000000}
  }
}`

func newTestService(prefs *memoryPrefs) (*Service, *fakeProvider) {
	provider := &fakeProvider{payloads: map[string]string{"AAPL:US": appleDoc}}
	svc := NewService(provider, prefs, arbor.NewLogger())
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	return svc, provider
}

func TestQueriesBeforeLoad(t *testing.T) {
	svc, _ := newTestService(&memoryPrefs{})

	_, err := Summary(svc.State())
	assert.True(t, errors.Is(err, ErrNoData))

	_, err = History(svc.State(), models.Year(2020), models.TTM())
	assert.True(t, errors.Is(err, ErrNoData))

	_, err = FormattedHistory(svc.State(), models.Year(2020), models.TTM())
	assert.True(t, errors.Is(err, ErrNoData))

	assert.False(t, svc.State().Loaded())
}

func TestLoad(t *testing.T) {
	prefs := &memoryPrefs{}
	svc, provider := newTestService(prefs)

	state, err := svc.Load(context.Background(), " aapl ")
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL:US"}, provider.calls)
	assert.Equal(t, "AAPL:US", state.Ticker)
	assert.Equal(t, "Apple Inc.", state.CompanyName())
	assert.Equal(t, "USD", state.Currency())
	assert.Equal(t, 2024, state.LoadedAt.Year())
	assert.Equal(t, "AAPL:US", prefs.ticker)
	assert.Equal(t, "$", Symbol(state))

	cards, err := Summary(state)
	require.NoError(t, err)
	assert.Equal(t, "$385.71B", cards[0].Formatted)

	table, err := History(state, models.Year(2023), models.TTM())
	require.NoError(t, err)
	require.Len(t, table.Columns, 2)
	assert.Equal(t, models.Some(383290000000), table.Cell(models.MetricRevenue, 0))

	formatted, err := FormattedHistory(state, models.Year(2022), models.Year(2023))
	require.NoError(t, err)
	assert.Equal(t, []string{"$394.33B", "$383.29B"}, formatted.Rows[models.MetricRevenue])
}

const bhpDoc = `{
  "metadata": {"name": "BHP Group", "currency": "AUD", "period_end_date": ["2023-06-30"]},
  "financials": {"annual": {"revenue": [53817000000]}, "ttm": {"revenue": 55658000000}}
}`

func TestViewsUseOneSnapshot(t *testing.T) {
	svc, provider := newTestService(&memoryPrefs{})
	provider.payloads["BHP:AU"] = bhpDoc
	ctx := context.Background()

	_, err := svc.Load(ctx, "AAPL:US")
	require.NoError(t, err)
	apple := svc.State()

	_, err = svc.Load(ctx, "BHP:AU")
	require.NoError(t, err)

	formatted, err := FormattedHistory(apple, models.Year(2023), models.Year(2023))
	require.NoError(t, err)
	assert.Equal(t, []string{"$383.29B"}, formatted.Rows[models.MetricRevenue])

	cards, err := Summary(svc.State())
	require.NoError(t, err)
	assert.Equal(t, "A$55.66B", cards[0].Formatted)
}

type invalidatingProvider struct {
	fakeProvider
	invalidated []string
}

func (p *invalidatingProvider) Invalidate(_ context.Context, ticker string) error {
	p.invalidated = append(p.invalidated, ticker)
	return nil
}

func TestReload(t *testing.T) {
	provider := &invalidatingProvider{fakeProvider: fakeProvider{payloads: map[string]string{"AAPL:US": appleDoc}}}
	svc := NewService(provider, nil, arbor.NewLogger())
	ctx := context.Background()

	_, err := svc.Load(ctx, "AAPL:US")
	require.NoError(t, err)
	assert.Empty(t, provider.invalidated)

	state, err := svc.Reload(ctx, "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL:US", state.Ticker)
	assert.Equal(t, []string{"AAPL:US"}, provider.invalidated)
	assert.Equal(t, []string{"AAPL:US", "AAPL:US"}, provider.calls)

	_, err = svc.Reload(ctx, "not a ticker")
	assert.True(t, errors.Is(err, common.ErrInvalidTicker))
	assert.Len(t, provider.invalidated, 1)
}

func TestReloadWithoutInvalidator(t *testing.T) {
	svc, provider := newTestService(&memoryPrefs{})

	_, err := svc.Reload(context.Background(), "AAPL:US")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL:US"}, provider.calls)
}

func TestFailedLoadKeepsState(t *testing.T) {
	svc, _ := newTestService(&memoryPrefs{})
	ctx := context.Background()

	_, err := svc.Load(ctx, "AAPL:US")
	require.NoError(t, err)

	state, err := svc.Load(ctx, "MSFT:US")
	require.Error(t, err)
	assert.True(t, errors.Is(err, quickfs.ErrTickerNotFound))
	assert.Equal(t, "AAPL:US", state.Ticker)
	assert.Equal(t, "AAPL:US", svc.State().Ticker)
}

func TestLoadInvalidTicker(t *testing.T) {
	svc, provider := newTestService(&memoryPrefs{})

	_, err := svc.Load(context.Background(), "not a ticker")
	assert.True(t, errors.Is(err, common.ErrInvalidTicker))
	assert.Empty(t, provider.calls)
}

func TestDarkModePersists(t *testing.T) {
	prefs := &memoryPrefs{dark: true}
	svc, _ := newTestService(prefs)
	assert.True(t, svc.State().DarkMode)

	require.NoError(t, svc.SetDarkMode(context.Background(), false))
	assert.False(t, svc.State().DarkMode)
	assert.False(t, prefs.dark)
}

func TestLastTicker(t *testing.T) {
	svc, _ := newTestService(&memoryPrefs{})
	assert.Equal(t, "MSFT:US", svc.LastTicker(context.Background(), "MSFT:US"))

	svc, _ = newTestService(&memoryPrefs{ticker: "NVDA:US"})
	assert.Equal(t, "NVDA:US", svc.LastTicker(context.Background(), "MSFT:US"))
}

func TestYearOptions(t *testing.T) {
	now := time.Date(2003, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, []string{"2000", "2001", "2002", "2003"}, YearOptions(2000, now, false))
	assert.Equal(t, []string{"2002", "2003", "TTM"}, YearOptions(2002, now, true))
	assert.Equal(t, []string{"2003"}, YearOptions(2050, now, false))
}
