package badger

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finview/internal/interfaces"
)

// LoadEnvFile copies variables from a .env file into the KV store so keys
// such as QUICKFS_API_KEY resolve even when the process environment lacks them.
// A missing file is not an error.
func LoadEnvFile(ctx context.Context, kv interfaces.KeyValueStorage, logger arbor.ILogger, filePath string) (int, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		logger.Debug().Str("file", filePath).Msg(".env file does not exist, skipping")
		return 0, nil
	}

	vars, err := godotenv.Read(filePath)
	if err != nil {
		logger.Warn().Err(err).Str("file", filePath).Msg("Failed to parse .env file")
		return 0, err
	}

	loaded := 0
	for key, value := range vars {
		if key == "" || value == "" {
			logger.Warn().Str("file", filePath).Str("key", key).Msg("Skipping variable with empty value")
			continue
		}

		isNew, err := kv.Upsert(ctx, key, value, "Loaded from .env file")
		if err != nil {
			logger.Error().Err(err).Str("key", key).Msg("Failed to store variable from .env")
			continue
		}

		if isNew {
			logger.Debug().Str("key", key).Msg("Loaded new variable from .env")
		} else {
			logger.Debug().Str("key", key).Msg("Updated existing variable from .env")
		}
		loaded++
	}

	logger.Debug().Str("file", filePath).Int("loaded", loaded).Msg("Finished loading variables from .env file")
	return loaded, nil
}
