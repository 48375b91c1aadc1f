package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and logs the startup settings
func PrintBanner(config *Config, logger arbor.ILogger) {
	b := banner.New().SetStyle(banner.StyleDouble).SetWidth(60)
	b.PrintTopLine()
	b.PrintCenteredText("FINVIEW")
	b.PrintCenteredText("Fundamentals dashboard")
	b.PrintSeparatorLine()
	b.PrintKeyValue("Version", GetVersion(), 12)
	b.PrintKeyValue("Address", "http://"+config.Server.Address(), 12)
	b.PrintBottomLine()

	logger.Info().
		Str("version", GetFullVersion()).
		Str("environment", config.Environment).
		Str("address", config.Server.Address()).
		Str("provider", config.Provider.BaseURL).
		Int("max_retries", config.Provider.MaxRetries).
		Bool("storage_in_memory", config.Storage.Badger.InMemory()).
		Msg("Finview starting")
}
