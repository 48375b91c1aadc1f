package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ternarybob/finview/internal/common"
	"github.com/ternarybob/finview/internal/models"
	"github.com/ternarybob/finview/internal/quickfs"
	"github.com/ternarybob/finview/internal/services/chart"
	"github.com/ternarybob/finview/internal/services/dashboard"
)

// ErrInvalidWindow is returned for a start/end pair the builder cannot serve.
var ErrInvalidWindow = errors.New("invalid year window")

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 16

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a standard success JSON response.
func WriteSuccess(w http.ResponseWriter, message string) error {
	return WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": message,
	})
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// DecodeJSON reads a JSON body into dst and runs struct validation.
func DecodeJSON(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

// validationError turns validator output into a short user-facing error.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%s failed %q validation", fe.Field(), fe.Tag())
	}
	return err
}

// ErrorStatus maps a load or query error to an HTTP status and a message
// suitable for the dashboard user.
func ErrorStatus(err error) (int, string) {
	var apiErr *quickfs.APIError
	var transportErr *quickfs.TransportError

	switch {
	case errors.Is(err, dashboard.ErrNoData):
		return http.StatusConflict, "No data loaded. Load a ticker first."
	case errors.Is(err, common.ErrInvalidTicker):
		return http.StatusBadRequest, "Enter a ticker such as AAPL:US."
	case errors.Is(err, ErrInvalidWindow):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, chart.ErrUnknownMetric):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, chart.ErrNoValues):
		return http.StatusNotFound, "No values to chart for this selection."
	case errors.Is(err, quickfs.ErrTickerNotFound):
		return http.StatusNotFound, "Ticker not found. Check the symbol and exchange."
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, apiErr.UserMessage()
	case errors.As(err, &transportErr):
		if transportErr.Timeout() {
			return http.StatusGatewayTimeout, "The data provider did not respond in time."
		}
		return http.StatusBadGateway, "Could not reach the data provider."
	default:
		return http.StatusInternalServerError, "Unexpected error."
	}
}

// WindowQuery is the start/end selection shared by the page and the API.
type WindowQuery struct {
	Start string `validate:"required,max=8"`
	End   string `validate:"required,max=8"`
}

// ParseWindow validates a start/end pair. start may be TTM only when end is
// TTM too; a calendar end year may not precede the start year.
func ParseWindow(validate *validator.Validate, q WindowQuery) (models.YearBound, models.YearBound, error) {
	if err := validate.Struct(q); err != nil {
		return models.YearBound{}, models.YearBound{}, fmt.Errorf("%w: %v", ErrInvalidWindow, validationError(err))
	}

	start, err := models.ParseYearBound(q.Start)
	if err != nil {
		return models.YearBound{}, models.YearBound{}, fmt.Errorf("%w: start: %v", ErrInvalidWindow, err)
	}
	end, err := models.ParseYearBound(q.End)
	if err != nil {
		return models.YearBound{}, models.YearBound{}, fmt.Errorf("%w: end: %v", ErrInvalidWindow, err)
	}

	switch {
	case start.TTM && !end.TTM:
		return start, end, fmt.Errorf("%w: start TTM requires end TTM", ErrInvalidWindow)
	case !start.TTM && !end.TTM && end.Year < start.Year:
		return start, end, fmt.Errorf("%w: end year %d is before start year %d", ErrInvalidWindow, end.Year, start.Year)
	}
	return start, end, nil
}

// DefaultWindow is the window shown when the request names none:
// the last window years through TTM.
func DefaultWindow(window int, now time.Time) WindowQuery {
	return WindowQuery{
		Start: strconv.Itoa(now.Year() - window),
		End:   models.TTMLabel,
	}
}

// windowFromRequest reads start/end from the query or form, filling blanks
// from the default window.
func windowFromRequest(r *http.Request, defaults WindowQuery) WindowQuery {
	q := WindowQuery{Start: r.FormValue("start"), End: r.FormValue("end")}
	if q.Start == "" {
		q.Start = defaults.Start
	}
	if q.End == "" {
		q.End = defaults.End
	}
	return q
}
