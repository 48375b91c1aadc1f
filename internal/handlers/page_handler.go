package handlers

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finview/internal/common"
	"github.com/ternarybob/finview/internal/interfaces"
	"github.com/ternarybob/finview/internal/models"
	"github.com/ternarybob/finview/internal/services/dashboard"
	"github.com/ternarybob/finview/internal/templates"
)

// PageHandler renders the server-side dashboard and handles its forms.
type PageHandler struct {
	logger    arbor.ILogger
	templates *template.Template
	static    http.Handler
	dashboard interfaces.DashboardService
	config    common.DashboardConfig
	validate  *validator.Validate
	now       func() time.Time
}

// NewPageHandler parses the embedded templates.
func NewPageHandler(dashboard interfaces.DashboardService, config common.DashboardConfig, logger arbor.ILogger) (*PageHandler, error) {
	tmpl, err := templates.Pages()
	if err != nil {
		return nil, err
	}

	return &PageHandler{
		logger:    logger,
		templates: tmpl,
		static:    http.StripPrefix("/static/", http.FileServer(http.FS(templates.Static()))),
		dashboard: dashboard,
		config:    config,
		validate:  validator.New(),
		now:       time.Now,
	}, nil
}

// PageData is the dashboard template model.
type PageData struct {
	Title        string
	Version      string
	DarkMode     bool
	Loaded       bool
	Ticker       string
	Company      string
	Currency     string
	LoadedAt     string
	Presets      []string
	StartOptions []string
	EndOptions   []string
	Metrics      []string
	Start        string
	End          string
	ChartMetric  string
	ChartURL     string
	ReturnURL    string
	Cards        []models.MetricCard
	Table        *models.FormattedTable
	Flash        string
	FlashLevel   string
}

// DashboardPage renders GET /. A ?ticker= that differs from the loaded one
// triggers a load first.
func (h *PageHandler) DashboardPage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	status := http.StatusOK
	var flash string

	if ticker := strings.TrimSpace(r.URL.Query().Get("ticker")); ticker != "" {
		if normalized, err := common.NormalizeTicker(ticker); err != nil || normalized != h.dashboard.State().Ticker {
			if _, err := h.dashboard.Load(r.Context(), ticker); err != nil {
				status, flash = ErrorStatus(err)
			}
		}
	}

	h.render(w, r, status, windowFromRequest(r, h.defaultWindow()), r.URL.Query().Get("metric"), flash)
}

// LoadForm handles POST /load and redirects to the dashboard on success.
func (h *PageHandler) LoadForm(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	window := windowFromRequest(r, h.defaultWindow())
	metric := r.FormValue("metric")

	if _, _, err := ParseWindow(h.validate, window); err != nil {
		status, message := ErrorStatus(err)
		h.render(w, r, status, window, metric, message)
		return
	}

	if _, err := h.dashboard.Load(r.Context(), r.FormValue("ticker")); err != nil {
		status, message := ErrorStatus(err)
		h.logger.Warn().Err(err).Str("ticker", r.FormValue("ticker")).Int("status", status).Msg("Load failed")
		h.render(w, r, status, window, metric, message)
		return
	}

	http.Redirect(w, r, dashboardURL(window, metric), http.StatusSeeOther)
}

// ThemeForm handles POST /theme and redirects back.
func (h *PageHandler) ThemeForm(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	dark, err := strconv.ParseBool(r.FormValue("dark_mode"))
	if err != nil {
		dark = !h.dashboard.State().DarkMode
	}
	if err := h.dashboard.SetDarkMode(r.Context(), dark); err != nil {
		h.logger.Error().Err(err).Msg("Failed to persist theme")
	}

	http.Redirect(w, r, safeReturn(r.FormValue("return")), http.StatusSeeOther)
}

// StaticFileHandler serves the embedded CSS.
func (h *PageHandler) StaticFileHandler(w http.ResponseWriter, r *http.Request) {
	h.static.ServeHTTP(w, r)
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, window WindowQuery, metric, flash string) {
	state := h.dashboard.State()
	now := h.now()

	if _, ok := models.LookupMetric(metric); !ok {
		metric = models.MetricRevenue
	}

	data := PageData{
		Title:        "Financial Dashboard",
		Version:      common.GetVersion(),
		DarkMode:     state.DarkMode,
		Loaded:       state.Loaded(),
		Ticker:       state.Ticker,
		Presets:      h.config.Presets,
		StartOptions: dashboard.YearOptions(h.config.MinYear, now, false),
		EndOptions:   dashboard.YearOptions(h.config.MinYear, now, true),
		Metrics:      models.MetricNames(),
		Start:        window.Start,
		End:          window.End,
		ChartMetric:  metric,
		ReturnURL:    dashboardURL(window, metric),
		Flash:        flash,
		FlashLevel:   "error",
	}

	if !state.Loaded() {
		data.Ticker = h.dashboard.LastTicker(r.Context(), h.config.DefaultTicker)
	} else {
		data.Title = state.CompanyName() + " - Financial Dashboard"
		data.Company = state.CompanyName()
		data.Currency = state.Currency()
		data.LoadedAt = state.LoadedAt.Format("2006-01-02 15:04:05")

		if cards, err := dashboard.Summary(state); err == nil {
			data.Cards = cards
		}

		data.Table = &models.FormattedTable{}
		if start, end, err := ParseWindow(h.validate, window); err != nil {
			if data.Flash == "" {
				_, data.Flash = ErrorStatus(err)
				status = http.StatusBadRequest
			}
		} else if table, err := dashboard.FormattedHistory(state, start, end); err == nil {
			data.Table = table
			if len(table.Columns) > 0 {
				data.ChartURL = "/api/chart?" + windowValues(window, metric).Encode()
			}
		}
	}

	// Render to a buffer so a template error can still produce a clean 500
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, templates.DashboardTemplate, data); err != nil {
		h.logger.Error().
			Err(err).
			Str("template", templates.DashboardTemplate).
			Msg("Failed to render page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func (h *PageHandler) defaultWindow() WindowQuery {
	return DefaultWindow(h.config.DefaultWindow, h.now())
}

func windowValues(window WindowQuery, metric string) url.Values {
	values := url.Values{}
	values.Set("start", window.Start)
	values.Set("end", window.End)
	if metric != "" {
		values.Set("metric", metric)
	}
	return values
}

func dashboardURL(window WindowQuery, metric string) string {
	return "/?" + windowValues(window, metric).Encode()
}

// safeReturn only allows local redirect targets.
func safeReturn(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	return target
}

