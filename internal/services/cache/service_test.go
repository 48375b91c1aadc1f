package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finview/internal/common"
	"github.com/ternarybob/finview/internal/interfaces"
	"github.com/ternarybob/finview/internal/models"
	"github.com/ternarybob/finview/internal/storage/badger"
)

type countingProvider struct {
	calls int
	err   error
}

func (p *countingProvider) GetAllData(_ context.Context, ticker string) (*models.Payload, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &models.Payload{
		Metadata: models.Metadata{Name: ticker, Currency: "USD", PeriodEndDate: models.DateList{"2023-12-31"}},
		Financials: models.Financials{
			Annual: models.SeriesMap{"revenue": models.Series{models.Some(100), models.Absent}},
			TTM:    models.ValueMap{"revenue": models.Some(250)},
		},
	}, nil
}

func newTestService(t *testing.T, upstream interfaces.FinancialDataProvider) (*Service, interfaces.KeyValueStorage) {
	t.Helper()
	logger := arbor.NewLogger()
	db, err := badger.NewBadgerDB(logger, &common.BadgerConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	storage := badger.NewKVStorage(db, logger)
	return NewService(upstream, storage, logger), storage
}

func TestGetAllDataReusesFreshPayload(t *testing.T) {
	upstream := &countingProvider{}
	svc, _ := newTestService(t, upstream)
	ctx := context.Background()

	first, err := svc.GetAllData(ctx, "ACME:US")
	require.NoError(t, err)
	second, err := svc.GetAllData(ctx, "ACME:US")
	require.NoError(t, err)

	assert.Equal(t, 1, upstream.calls)
	assert.Equal(t, first.Metadata, second.Metadata)
	assert.Equal(t, models.Some(250), second.Financials.TTM["revenue"])
	assert.Equal(t, models.Series{models.Some(100), models.Absent}, second.Financials.Annual["revenue"])

	_, err = svc.GetAllData(ctx, "OTHER:US")
	require.NoError(t, err)
	assert.Equal(t, 2, upstream.calls)
}

func TestGetAllDataRefetchesAfterTTL(t *testing.T) {
	upstream := &countingProvider{}
	svc, _ := newTestService(t, upstream)
	svc.WithTTL(time.Minute)
	ctx := context.Background()

	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	_, err := svc.GetAllData(ctx, "ACME:US")
	require.NoError(t, err)

	clock = clock.Add(59 * time.Second)
	_, err = svc.GetAllData(ctx, "ACME:US")
	require.NoError(t, err)
	assert.Equal(t, 1, upstream.calls)

	clock = clock.Add(time.Second)
	_, err = svc.GetAllData(ctx, "ACME:US")
	require.NoError(t, err)
	assert.Equal(t, 2, upstream.calls)
}

func TestGetAllDataZeroTTLDisablesCache(t *testing.T) {
	upstream := &countingProvider{}
	svc, storage := newTestService(t, upstream)
	svc.WithTTL(0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.GetAllData(ctx, "ACME:US")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, upstream.calls)

	_, err := storage.Get(ctx, KeyPrefix+"ACME:US")
	assert.True(t, errors.Is(err, interfaces.ErrKeyNotFound))
}

func TestGetAllDataErrorsAreNotCached(t *testing.T) {
	upstream := &countingProvider{err: errors.New("provider down")}
	svc, storage := newTestService(t, upstream)
	ctx := context.Background()

	_, err := svc.GetAllData(ctx, "ACME:US")
	require.Error(t, err)

	_, err = storage.Get(ctx, KeyPrefix+"ACME:US")
	assert.True(t, errors.Is(err, interfaces.ErrKeyNotFound))

	upstream.err = nil
	_, err = svc.GetAllData(ctx, "ACME:US")
	require.NoError(t, err)
	assert.Equal(t, 2, upstream.calls)
}

func TestGetAllDataIgnoresCorruptEntry(t *testing.T) {
	upstream := &countingProvider{}
	svc, storage := newTestService(t, upstream)
	ctx := context.Background()

	require.NoError(t, storage.Set(ctx, KeyPrefix+"ACME:US", "{not json", ""))

	payload, err := svc.GetAllData(ctx, "ACME:US")
	require.NoError(t, err)
	assert.Equal(t, "ACME:US", payload.Metadata.Name)
	assert.Equal(t, 1, upstream.calls)
}

func TestInvalidate(t *testing.T) {
	upstream := &countingProvider{}
	svc, _ := newTestService(t, upstream)
	ctx := context.Background()

	require.NoError(t, svc.Invalidate(ctx, "ACME:US"))

	_, err := svc.GetAllData(ctx, "ACME:US")
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(ctx, "ACME:US"))

	_, err = svc.GetAllData(ctx, "ACME:US")
	require.NoError(t, err)
	assert.Equal(t, 2, upstream.calls)
}
