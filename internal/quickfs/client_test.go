package quickfs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finview/internal/models"
)

func newTestClient(serverURL string, opts ...ClientOption) *Client {
	base := []ClientOption{
		WithBaseURL(serverURL),
		WithLogger(arbor.NewLogger()),
		WithRateLimit(1000),
		WithRetry(2, time.Millisecond),
	}
	return NewClient("test-key", append(base, opts...)...)
}

func TestGetAllData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/all-data/AAPL:US", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{
			"metadata":{"name":"Apple Inc.","currency":"USD","period_end_date":["2022-09-24","2023-09-30"]},
			"financials":{"annual":{"revenue":[394328000000,383285000000]},"ttm":{"revenue":"385,706,000,000"}}
		}}`))
	}))
	defer server.Close()

	payload, err := newTestClient(server.URL).GetAllData(context.Background(), "AAPL:US")
	require.NoError(t, err)

	assert.Equal(t, "Apple Inc.", payload.Metadata.Name)
	assert.Equal(t, "USD", payload.Metadata.Currency)
	assert.Equal(t, models.DateList{"2022-09-24", "2023-09-30"}, payload.Metadata.PeriodEndDate)
	assert.Len(t, payload.Financials.Annual["revenue"], 2)
	assert.Equal(t, models.Some(385706000000), payload.Financials.TTM["revenue"])
}

func TestGetAllDataMissingData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":null}`))
	}))
	defer server.Close()

	payload, err := newTestClient(server.URL).GetAllData(context.Background(), "AAPL:US")
	require.NoError(t, err)
	require.NotNil(t, payload)
	assert.Empty(t, payload.Metadata.PeriodEndDate)
}

func TestGetAllDataNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"errors":{"ticker":"not found"}}`, http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetAllData(context.Background(), "NOPE:US")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTickerNotFound))
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetAllDataRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"data":{"metadata":{"name":"Recovered"}}}`))
	}))
	defer server.Close()

	payload, err := newTestClient(server.URL).GetAllData(context.Background(), "AAPL:US")
	require.NoError(t, err)
	assert.Equal(t, "Recovered", payload.Metadata.Name)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetAllDataRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetAllData(context.Background(), "AAPL:US")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Transient)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, 3, apiErr.Attempts)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetAllDataNoRetriesConfigured(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, WithRetry(0, 0)).GetAllData(context.Background(), "AAPL:US")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetAllDataClientErrorIsTerminal(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "invalid api key", http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetAllData(context.Background(), "AAPL:US")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.False(t, apiErr.Transient)
	assert.Equal(t, "403 Forbidden", apiErr.Status)
	assert.Contains(t, apiErr.Message, "invalid api key")
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetAllDataTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	_, err := newTestClient(serverURL).GetAllData(context.Background(), "AAPL:US")

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.False(t, transportErr.Timeout())
}

func TestGetAllDataTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, WithTimeout(20*time.Millisecond)).GetAllData(context.Background(), "AAPL:US")

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.True(t, transportErr.Timeout())
}

func TestGetAllDataTruncatedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "4096")
		w.Write([]byte(`{"data":{"metadata":{"name":"Acme`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetAllData(context.Background(), "ACME:US")

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr), "got %v", err)
	assert.False(t, transportErr.Timeout())
}

func TestGetAllDataMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": nonsense}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetAllData(context.Background(), "ACME:US")
	require.Error(t, err)

	var transportErr *TransportError
	assert.False(t, errors.As(err, &transportErr))
	assert.Contains(t, err.Error(), "failed to decode response")
}
