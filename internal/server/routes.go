package server

import (
	"net/http"
	"sort"
	"strings"

	"github.com/ternarybob/finview/internal/handlers"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// UI routes (server-rendered dashboard and its forms)
	mux.HandleFunc("/", s.app.PageHandler.DashboardPage)
	mux.HandleFunc("/load", s.app.PageHandler.LoadForm)
	mux.HandleFunc("/theme", s.app.PageHandler.ThemeForm)

	// Static files (CSS)
	mux.HandleFunc("/static/", s.app.PageHandler.StaticFileHandler)

	// API routes - Dashboard
	mux.HandleFunc("/api/load", s.app.DashboardHandler.LoadHandler)       // POST - fetch and cache a ticker
	mux.HandleFunc("/api/state", s.app.DashboardHandler.StateHandler)     // GET - loaded ticker and theme
	mux.HandleFunc("/api/summary", s.app.DashboardHandler.SummaryHandler) // GET - TTM metric cards
	mux.HandleFunc("/api/history", s.app.DashboardHandler.HistoryHandler) // GET - historical table
	mux.HandleFunc("/api/chart", s.app.DashboardHandler.ChartHandler)     // GET - PNG bar chart
	mux.HandleFunc("/api/theme", s.handleThemeRoute)                      // GET/POST - dark mode

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleThemeRoute reads the theme with GET and sets it with POST.
func (s *Server) handleThemeRoute(w http.ResponseWriter, r *http.Request) {
	routeByMethod(w, r, map[string]http.HandlerFunc{
		http.MethodGet:  s.app.DashboardHandler.StateHandler,
		http.MethodPost: s.app.DashboardHandler.ThemeHandler,
	})
}

// routeByMethod dispatches on the request method. Unlisted methods get the
// same JSON 405 as handlers.RequireMethod.
func routeByMethod(w http.ResponseWriter, r *http.Request, routes map[string]http.HandlerFunc) {
	if handler, ok := routes[r.Method]; ok {
		handler(w, r)
		return
	}

	allowed := make([]string, 0, len(routes))
	for method := range routes {
		allowed = append(allowed, method)
	}
	sort.Strings(allowed)

	w.Header().Set("Allow", strings.Join(allowed, ", "))
	handlers.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
