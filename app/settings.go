package app

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"

	"duckstudio/storage"
	"duckstudio/typedef"
)

const settingsFile = "settings.json"

// LoadSettings reads settings.json from the data directory. A missing or
// unreadable file yields the defaults.
func LoadSettings(logger *slog.Logger) typedef.Settings {
	settings := typedef.DefaultSettings()
	data, err := storage.ReadDataFile(settingsFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("read settings", "error", err)
		}
		return settings
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		logger.Warn("ignoring corrupt settings", "error", err)
		return typedef.DefaultSettings()
	}
	settings.Normalize()
	return settings
}

// SaveSettings writes settings.json to the data directory.
func SaveSettings(settings typedef.Settings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return storage.WriteDataFile(settingsFile, data, 0o644)
}
