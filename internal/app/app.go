package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finview/internal/common"
	"github.com/ternarybob/finview/internal/handlers"
	"github.com/ternarybob/finview/internal/interfaces"
	"github.com/ternarybob/finview/internal/quickfs"
	"github.com/ternarybob/finview/internal/services/cache"
	"github.com/ternarybob/finview/internal/services/dashboard"
	"github.com/ternarybob/finview/internal/services/kv"
	"github.com/ternarybob/finview/internal/storage/badger"
)

// EnvFile is read into the key/value store at startup.
const EnvFile = ".env"

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Storage
	DB        *badger.BadgerDB
	KVStorage interfaces.KeyValueStorage

	// Services
	Provider          interfaces.FinancialDataProvider
	PreferenceService interfaces.PreferenceService
	DashboardService  interfaces.DashboardService

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	DashboardHandler *handlers.DashboardHandler
	PageHandler      *handlers.PageHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize database
	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize services
	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize handlers
	if err := app.initHandlers(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	logger.Info().
		Bool("persistent_preferences", !cfg.Storage.Badger.InMemory()).
		Int("presets", len(cfg.Dashboard.Presets)).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase opens badger and loads .env secrets into the key/value store.
func (a *App) initDatabase() error {
	db, err := badger.NewBadgerDB(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}
	a.DB = db
	a.KVStorage = badger.NewKVStorage(db, a.Logger)

	count, err := badger.LoadEnvFile(context.Background(), a.KVStorage, a.Logger, EnvFile)
	if err != nil {
		a.Logger.Warn().Err(err).Str("path", EnvFile).Msg("Failed to load .env into key/value store")
	} else if count > 0 {
		a.Logger.Debug().Int("keys", count).Str("path", EnvFile).Msg("Loaded .env into key/value store")
	}

	return nil
}

// initServices builds the provider client, preferences and dashboard state.
func (a *App) initServices() error {
	apiKey, err := common.ResolveAPIKey(context.Background(), a.KVStorage, a.Config.Provider.APIKey)
	if err != nil {
		return err
	}

	provider := a.Config.Provider
	client := quickfs.NewClient(apiKey,
		quickfs.WithBaseURL(provider.BaseURL),
		quickfs.WithTimeout(provider.TimeoutDuration()),
		quickfs.WithRateLimit(provider.RateLimit),
		quickfs.WithRetry(provider.MaxRetries, provider.RetryDelayDuration()),
		quickfs.WithLogger(a.Logger),
	)
	a.Provider = cache.NewService(client, a.KVStorage, a.Logger).WithTTL(provider.CacheTTLDuration())
	a.Logger.Debug().
		Str("base_url", provider.BaseURL).
		Int("max_retries", provider.MaxRetries).
		Dur("cache_ttl", provider.CacheTTLDuration()).
		Msg("Provider client initialized")

	a.PreferenceService = kv.NewService(a.KVStorage, a.Logger)
	a.DashboardService = dashboard.NewService(a.Provider, a.PreferenceService, a.Logger)

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() error {
	a.APIHandler = handlers.NewAPIHandler(a.Logger)
	a.DashboardHandler = handlers.NewDashboardHandler(a.DashboardService, a.Config.Dashboard, a.Logger)

	pageHandler, err := handlers.NewPageHandler(a.DashboardService, a.Config.Dashboard, a.Logger)
	if err != nil {
		return err
	}
	a.PageHandler = pageHandler

	return nil
}

// Close closes all application resources
func (a *App) Close() error {
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.DB = nil
		a.Logger.Info().Msg("Storage closed")
	}
	return nil
}
