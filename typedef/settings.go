package typedef

import "time"

// Settings is the persisted user configuration (settings.json in the data dir).
type Settings struct {
	Keybinds          Keybinds `json:"keybinds"`
	APIAddr           string   `json:"apiAddr"`
	LoadTimeoutMs     int      `json:"loadTimeoutMs"`
	FrameBudgetMs     int      `json:"frameBudgetMs"`
	RestoreLocalEdits bool     `json:"restoreLocalEdits"`
	ShowHelp          bool     `json:"showHelp"`
	ShowLibrary       bool     `json:"showLibrary"`
}

// DefaultSettings returns the baseline configuration.
func DefaultSettings() Settings {
	return Settings{
		Keybinds:          DefaultKeybinds(),
		APIAddr:           "127.0.0.1:42069",
		LoadTimeoutMs:     5000,
		FrameBudgetMs:     2000,
		RestoreLocalEdits: true,
		ShowHelp:          true,
		ShowLibrary:       true,
	}
}

// Normalize fills invalid or missing values with defaults.
func (s *Settings) Normalize() {
	defaults := DefaultSettings()
	NormalizeKeybinds(&s.Keybinds)
	if s.LoadTimeoutMs <= 0 {
		s.LoadTimeoutMs = defaults.LoadTimeoutMs
	}
	if s.FrameBudgetMs <= 0 {
		s.FrameBudgetMs = defaults.FrameBudgetMs
	}
}

func (s Settings) LoadTimeout() time.Duration {
	return time.Duration(s.LoadTimeoutMs) * time.Millisecond
}

func (s Settings) FrameBudget() time.Duration {
	return time.Duration(s.FrameBudgetMs) * time.Millisecond
}
