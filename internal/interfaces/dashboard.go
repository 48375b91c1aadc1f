package interfaces

import (
	"context"

	"github.com/ternarybob/finview/internal/models"
)

// DashboardService is the session-state surface the HTTP handlers use.
// Views are derived from the State snapshot by the dashboard package.
type DashboardService interface {
	Load(ctx context.Context, ticker string) (models.SessionState, error)
	Reload(ctx context.Context, ticker string) (models.SessionState, error)
	State() models.SessionState
	SetDarkMode(ctx context.Context, dark bool) error
	LastTicker(ctx context.Context, fallback string) string
}
