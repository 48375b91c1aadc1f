package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finview/internal/services/dashboard"
)

func newTestPageHandler(t *testing.T, svc *dashboard.Service) *PageHandler {
	t.Helper()
	h, err := NewPageHandler(svc, testDashboardConfig(), arbor.NewLogger())
	require.NoError(t, err)
	h.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	return h
}

func postForm(handler http.HandlerFunc, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestDashboardPageEmpty(t *testing.T) {
	h := newTestPageHandler(t, newTestDashboard())

	rec := get(h.DashboardPage, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Financial Dashboard")
	assert.Contains(t, body, `value="AAPL:US"`)
	assert.Contains(t, body, `<option value="2000">`)
	assert.Contains(t, body, `<option value="TTM" selected>`)
	assert.NotContains(t, body, "metric-card\"")
}

func TestDashboardPageLoaded(t *testing.T) {
	svc := newTestDashboard()
	_, err := svc.Load(context.Background(), "ACME:US")
	require.NoError(t, err)
	h := newTestPageHandler(t, svc)

	rec := get(h.DashboardPage, "/?start=2020&end=TTM")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Acme Corp")
	assert.Contains(t, body, "$1.50B")
	assert.Contains(t, body, "<th>2021</th>")
	assert.Contains(t, body, "<th>TTM</th>")
	assert.Contains(t, body, `class="na"`)
	assert.Contains(t, body, "/api/chart?")
	assert.Equal(t, 1, strings.Count(body, `<span class="metric-unit">per share</span>`))
}

func TestDashboardPageQueryTicker(t *testing.T) {
	svc := newTestDashboard()
	h := newTestPageHandler(t, svc)

	rec := get(h.DashboardPage, "/?ticker=acme")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ACME:US", svc.State().Ticker)

	rec = get(h.DashboardPage, "/?ticker=NOPE:US")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ticker not found")
	assert.Equal(t, "ACME:US", svc.State().Ticker)
}

func TestDashboardPageNoDataForWindow(t *testing.T) {
	svc := newTestDashboard()
	_, err := svc.Load(context.Background(), "ACME:US")
	require.NoError(t, err)
	h := newTestPageHandler(t, svc)

	rec := get(h.DashboardPage, "/?start=2023&end=2024")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No data available")
}

func TestDashboardPageUnknownPath(t *testing.T) {
	h := newTestPageHandler(t, newTestDashboard())
	assert.Equal(t, http.StatusNotFound, get(h.DashboardPage, "/nope").Code)
}

func TestLoadForm(t *testing.T) {
	svc := newTestDashboard()
	h := newTestPageHandler(t, svc)

	rec := postForm(h.LoadForm, "/load", url.Values{"ticker": {"ACME:US"}, "start": {"2021"}, "end": {"TTM"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/", location.Path)
	assert.Equal(t, "2021", location.Query().Get("start"))
	assert.Equal(t, "TTM", location.Query().Get("end"))
	assert.True(t, svc.State().Loaded())
}

func TestLoadFormErrors(t *testing.T) {
	svc := newTestDashboard()
	h := newTestPageHandler(t, svc)

	rec := postForm(h.LoadForm, "/load", url.Values{"ticker": {"ACME:US"}, "start": {"2022"}, "end": {"2021"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "before start year")
	assert.False(t, svc.State().Loaded())

	rec = postForm(h.LoadForm, "/load", url.Values{"ticker": {"DOWN:US"}})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "unavailable")
}

func TestThemeForm(t *testing.T) {
	svc := newTestDashboard()
	h := newTestPageHandler(t, svc)

	rec := postForm(h.ThemeForm, "/theme", url.Values{"dark_mode": {"true"}, "return": {"/?start=2020&end=TTM"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?start=2020&end=TTM", rec.Header().Get("Location"))
	assert.True(t, svc.State().DarkMode)

	rec = postForm(h.ThemeForm, "/theme", url.Values{"return": {"//evil.example"}})
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.False(t, svc.State().DarkMode)

	page := get(newTestPageHandler(t, svc).DashboardPage, "/")
	assert.Contains(t, page.Body.String(), `<body class="light">`)
}

func TestStaticFileHandler(t *testing.T) {
	h := newTestPageHandler(t, newTestDashboard())

	rec := get(h.StaticFileHandler, "/static/dashboard.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "metric-card")
}
