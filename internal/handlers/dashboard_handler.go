package handlers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finview/internal/common"
	"github.com/ternarybob/finview/internal/interfaces"
	"github.com/ternarybob/finview/internal/models"
	"github.com/ternarybob/finview/internal/services/chart"
	"github.com/ternarybob/finview/internal/services/dashboard"
)

// DashboardHandler serves the JSON API over the dashboard session state.
type DashboardHandler struct {
	logger    arbor.ILogger
	dashboard interfaces.DashboardService
	config    common.DashboardConfig
	validate  *validator.Validate
	now       func() time.Time
}

// NewDashboardHandler creates the dashboard API handler.
func NewDashboardHandler(dashboard interfaces.DashboardService, config common.DashboardConfig, logger arbor.ILogger) *DashboardHandler {
	return &DashboardHandler{
		logger:    logger,
		dashboard: dashboard,
		config:    config,
		validate:  validator.New(),
		now:       time.Now,
	}
}

// LoadRequest is the body of POST /api/load.
type LoadRequest struct {
	Ticker  string `json:"ticker" validate:"required,max=32"`
	Refresh bool   `json:"refresh"`
}

// ThemeRequest is the body of POST /api/theme.
type ThemeRequest struct {
	DarkMode *bool `json:"dark_mode" validate:"required"`
}

// StateResponse describes the loaded session.
type StateResponse struct {
	Loaded   bool       `json:"loaded"`
	Ticker   string     `json:"ticker,omitempty"`
	Company  string     `json:"company,omitempty"`
	Currency string     `json:"currency,omitempty"`
	Symbol   string     `json:"symbol"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
	DarkMode bool       `json:"dark_mode"`
	Periods  []string   `json:"period_end_dates,omitempty"`
}

func (h *DashboardHandler) stateResponse(state models.SessionState) StateResponse {
	resp := StateResponse{
		Loaded:   state.Loaded(),
		Ticker:   state.Ticker,
		Symbol:   dashboard.Symbol(state),
		DarkMode: state.DarkMode,
	}
	if state.Loaded() {
		loadedAt := state.LoadedAt
		resp.Company = state.CompanyName()
		resp.Currency = state.Currency()
		resp.LoadedAt = &loadedAt
		resp.Periods = state.Payload.Metadata.PeriodEndDate
	}
	return resp
}

// LoadHandler fetches a ticker and replaces the cached payload.
// refresh=true drops any reused payload so the provider is asked again.
func (h *DashboardHandler) LoadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req LoadRequest
	if err := DecodeJSON(w, r, h.validate, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	load := h.dashboard.Load
	if req.Refresh {
		load = h.dashboard.Reload
	}

	state, err := load(r.Context(), req.Ticker)
	if err != nil {
		status, message := ErrorStatus(err)
		h.logger.Warn().Err(err).Str("ticker", req.Ticker).Int("status", status).Msg("Load failed")
		WriteError(w, status, message)
		return
	}

	WriteJSON(w, http.StatusOK, h.stateResponse(state))
}

// StateHandler returns the current session state.
func (h *DashboardHandler) StateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, h.stateResponse(h.dashboard.State()))
}

// SummaryHandler returns the TTM metric cards.
func (h *DashboardHandler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	state := h.dashboard.State()
	cards, err := dashboard.Summary(state)
	if err != nil {
		status, message := ErrorStatus(err)
		WriteError(w, status, message)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ticker": state.Ticker,
		"cards":  cards,
	})
}

// HistoryHandler returns the historical table for ?start=&end=.
// format=true returns display strings instead of numbers.
func (h *DashboardHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	start, end, err := ParseWindow(h.validate, windowFromRequest(r, DefaultWindow(h.config.DefaultWindow, h.now())))
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	state := h.dashboard.State()

	var table interface{}
	if r.URL.Query().Get("format") == "true" {
		table, err = dashboard.FormattedHistory(state, start, end)
	} else {
		table, err = dashboard.History(state, start, end)
	}
	if err != nil {
		status, message := ErrorStatus(err)
		WriteError(w, status, message)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ticker": state.Ticker,
		"start":  start.String(),
		"end":    end.String(),
		"table":  table,
	})
}

// ChartHandler renders one metric of the historical table as a PNG.
func (h *DashboardHandler) ChartHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	start, end, err := ParseWindow(h.validate, windowFromRequest(r, DefaultWindow(h.config.DefaultWindow, h.now())))
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = models.MetricRevenue
	}

	state := h.dashboard.State()
	table, err := dashboard.History(state, start, end)
	if err == nil {
		var png []byte
		png, err = chart.RenderMetricChart(table, metric, dashboard.Symbol(state), state.DarkMode)
		if err == nil {
			w.Header().Set("Content-Type", "image/png")
			w.Header().Set("Cache-Control", "no-store")
			w.WriteHeader(http.StatusOK)
			w.Write(png)
			return
		}
	}

	status, message := ErrorStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("metric", metric).Msg("Failed to render chart")
	}
	WriteError(w, status, message)
}

// ThemeHandler sets the persisted dark/light preference.
func (h *DashboardHandler) ThemeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req ThemeRequest
	if err := DecodeJSON(w, r, h.validate, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.dashboard.SetDarkMode(r.Context(), *req.DarkMode); err != nil {
		h.logger.Error().Err(err).Msg("Failed to persist theme")
		WriteError(w, http.StatusInternalServerError, "Failed to save theme")
		return
	}

	WriteJSON(w, http.StatusOK, h.stateResponse(h.dashboard.State()))
}
