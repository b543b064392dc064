package typedef

import (
	"strconv"
	"strings"
)

// Keybinds stores user-configurable keyboard shortcuts for studio actions.
type Keybinds struct {
	RunScript       string `json:"runScript,omitempty"`
	StopScript      string `json:"stopScript,omitempty"`
	RunBuiltin      string `json:"runBuiltin,omitempty"`
	NextFile        string `json:"nextFile,omitempty"`
	PrevPart        string `json:"prevPart,omitempty"`
	NextPart        string `json:"nextPart,omitempty"`
	NextProperty    string `json:"nextProperty,omitempty"`
	Decrease        string `json:"decrease,omitempty"`
	Increase        string `json:"increase,omitempty"`
	ResetPart       string `json:"resetPart,omitempty"`
	ResetScene      string `json:"resetScene,omitempty"`
	NextScene       string `json:"nextScene,omitempty"`
	SaveLocal       string `json:"saveLocal,omitempty"`
	SaveFile        string `json:"saveFile,omitempty"`
	RestoreOriginal string `json:"restoreOriginal,omitempty"`
	Export          string `json:"export,omitempty"`
	CopyScene       string `json:"copyScene,omitempty"`
	PasteScript     string `json:"pasteScript,omitempty"`
	OpenExternal    string `json:"openExternal,omitempty"`
	Reload          string `json:"reload,omitempty"`
	ClearStorage    string `json:"clearStorage,omitempty"`
	ToggleHelp      string `json:"toggleHelp,omitempty"`
	ToggleLibrary   string `json:"toggleLibrary,omitempty"`
}

// DefaultKeybinds returns the baseline key configuration.
func DefaultKeybinds() Keybinds {
	return Keybinds{
		RunScript:       "R",
		StopScript:      "S",
		RunBuiltin:      "D",
		NextFile:        "TAB",
		PrevPart:        "UP",
		NextPart:        "DOWN",
		NextProperty:    "P",
		Decrease:        "LEFT",
		Increase:        "RIGHT",
		ResetPart:       "BACKSPACE",
		ResetScene:      "HOME",
		NextScene:       "PAGEDOWN",
		SaveLocal:       "L",
		SaveFile:        "W",
		RestoreOriginal: "END",
		Export:          "E",
		CopyScene:       "C",
		PasteScript:     "V",
		OpenExternal:    "O",
		Reload:          "F5",
		ClearStorage:    "DELETE",
		ToggleHelp:      "F1",
		ToggleLibrary:   "F2",
	}
}

// CanonicalizeBinding trims, uppercases, and validates supported key names.
// Allowed values: empty string (disabled), single letters A-Z, function keys F1-F12, and common names like SPACE, ESCAPE, ENTER, TAB, BACKSPACE, DELETE, INSERT, HOME, END, PAGEUP, PAGEDOWN, and arrow keys (UP/DOWN/LEFT/RIGHT).
// Returns the canonical uppercase name and true when valid.
func CanonicalizeBinding(binding string) (string, bool) {
	val := strings.TrimSpace(binding)
	if val == "" {
		return "", true // empty means unbound/disabled
	}
	upper := strings.ToUpper(val)

	// Single-letter A-Z
	if len(upper) == 1 {
		ch := upper[0]
		if ch >= 'A' && ch <= 'Z' {
			return upper, true
		}
	}

	// Function keys F1-F12
	if strings.HasPrefix(upper, "F") && len(upper) > 1 {
		if n, err := strconv.Atoi(upper[1:]); err == nil && n >= 1 && n <= 12 {
			return "F" + strconv.Itoa(n), true
		}
	}

	switch upper {
	case "SPACE", "SPACEBAR":
		return "SPACE", true
	case "ESC", "ESCAPE":
		return "ESCAPE", true
	case "ENTER", "RETURN":
		return "ENTER", true
	case "TAB":
		return "TAB", true
	case "BACKSPACE":
		return "BACKSPACE", true
	case "DELETE", "DEL":
		return "DELETE", true
	case "INSERT", "INS":
		return "INSERT", true
	case "HOME":
		return "HOME", true
	case "END":
		return "END", true
	case "PAGEUP", "PGUP":
		return "PAGEUP", true
	case "PAGEDOWN", "PGDN":
		return "PAGEDOWN", true
	case "UP", "ARROWUP":
		return "UP", true
	case "DOWN", "ARROWDOWN":
		return "DOWN", true
	case "LEFT", "ARROWLEFT":
		return "LEFT", true
	case "RIGHT", "ARROWRIGHT":
		return "RIGHT", true
	default:
		return "", false
	}
}

// NormalizeKeybinds uppercases, canonicalizes, and fills defaults when missing or invalid.
func NormalizeKeybinds(k *Keybinds) {
	if k == nil {
		return
	}
	defaults := DefaultKeybinds()
	normalize := func(target *string, fallback string) {
		if val, ok := CanonicalizeBinding(*target); ok {
			*target = val
			return
		}
		if val, ok := CanonicalizeBinding(fallback); ok {
			*target = val
		} else {
			*target = fallback
		}
	}

	normalize(&k.RunScript, defaults.RunScript)
	normalize(&k.StopScript, defaults.StopScript)
	normalize(&k.RunBuiltin, defaults.RunBuiltin)
	normalize(&k.NextFile, defaults.NextFile)
	normalize(&k.PrevPart, defaults.PrevPart)
	normalize(&k.NextPart, defaults.NextPart)
	normalize(&k.NextProperty, defaults.NextProperty)
	normalize(&k.Decrease, defaults.Decrease)
	normalize(&k.Increase, defaults.Increase)
	normalize(&k.ResetPart, defaults.ResetPart)
	normalize(&k.ResetScene, defaults.ResetScene)
	normalize(&k.NextScene, defaults.NextScene)
	normalize(&k.SaveLocal, defaults.SaveLocal)
	normalize(&k.SaveFile, defaults.SaveFile)
	normalize(&k.RestoreOriginal, defaults.RestoreOriginal)
	normalize(&k.Export, defaults.Export)
	normalize(&k.CopyScene, defaults.CopyScene)
	normalize(&k.PasteScript, defaults.PasteScript)
	normalize(&k.OpenExternal, defaults.OpenExternal)
	normalize(&k.Reload, defaults.Reload)
	normalize(&k.ClearStorage, defaults.ClearStorage)
	normalize(&k.ToggleHelp, defaults.ToggleHelp)
	normalize(&k.ToggleLibrary, defaults.ToggleLibrary)
}
