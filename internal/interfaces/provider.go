package interfaces

import (
	"context"

	"github.com/ternarybob/finview/internal/models"
)

// FinancialDataProvider fetches the raw fundamentals document for a ticker.
// Implementations return quickfs.ErrTickerNotFound, *quickfs.APIError or
// *quickfs.TransportError so callers can tell the failure kinds apart.
type FinancialDataProvider interface {
	GetAllData(ctx context.Context, ticker string) (*models.Payload, error)
}

// PayloadInvalidator is implemented by providers that reuse payloads and can
// forget one on request.
type PayloadInvalidator interface {
	Invalidate(ctx context.Context, ticker string) error
}

// PreferenceService persists display preferences between restarts.
type PreferenceService interface {
	DarkMode(ctx context.Context) bool
	SetDarkMode(ctx context.Context, dark bool) error
	LastTicker(ctx context.Context) string
	SetLastTicker(ctx context.Context, ticker string) error
}
