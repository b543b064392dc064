package app

import (
	"strconv"
	"strings"

	"duckstudio/typedef"

	"github.com/hajimehoshi/ebiten/v2"
)

// keyFromBinding converts a canonical binding (letter, F-key, or named key) to an ebiten.Key.
func keyFromBinding(binding string) (ebiten.Key, bool) {
	canonical, ok := typedef.CanonicalizeBinding(binding)
	if !ok {
		return 0, false
	}
	if canonical == "" {
		return 0, false // disabled binding
	}

	if len(canonical) == 1 {
		ch := canonical[0]
		return ebiten.KeyA + ebiten.Key(ch-'A'), true
	}

	if strings.HasPrefix(canonical, "F") {
		n, err := strconv.Atoi(canonical[1:])
		if err == nil && n >= 1 && n <= 12 {
			return ebiten.KeyF1 + ebiten.Key(n-1), true
		}
	}

	switch canonical {
	case "SPACE":
		return ebiten.KeySpace, true
	case "ESCAPE":
		return ebiten.KeyEscape, true
	case "ENTER":
		return ebiten.KeyEnter, true
	case "TAB":
		return ebiten.KeyTab, true
	case "BACKSPACE":
		return ebiten.KeyBackspace, true
	case "DELETE":
		return ebiten.KeyDelete, true
	case "INSERT":
		return ebiten.KeyInsert, true
	case "HOME":
		return ebiten.KeyHome, true
	case "END":
		return ebiten.KeyEnd, true
	case "PAGEUP":
		return ebiten.KeyPageUp, true
	case "PAGEDOWN":
		return ebiten.KeyPageDown, true
	case "UP":
		return ebiten.KeyArrowUp, true
	case "DOWN":
		return ebiten.KeyArrowDown, true
	case "LEFT":
		return ebiten.KeyArrowLeft, true
	case "RIGHT":
		return ebiten.KeyArrowRight, true
	default:
		return 0, false
	}
}

// bindingMatches reports whether the given ebiten key equals the binding.
func bindingMatches(key ebiten.Key, binding string) bool {
	if k, ok := keyFromBinding(binding); ok {
		return key == k
	}
	return false
}

// action is one keyboard-triggered studio operation.
type action struct {
	name    string
	binding func(typedef.Keybinds) string
	run     func(g *Game, ev KeyEvent)
}

// actions lists every bindable operation in help-panel order.
var actions = []action{
	{"run script", func(k typedef.Keybinds) string { return k.RunScript }, (*Game).runActive},
	{"stop", func(k typedef.Keybinds) string { return k.StopScript }, (*Game).stop},
	{"run built-in duck", func(k typedef.Keybinds) string { return k.RunBuiltin }, (*Game).runBuiltin},
	{"next file", func(k typedef.Keybinds) string { return k.NextFile }, (*Game).nextFile},
	{"previous part", func(k typedef.Keybinds) string { return k.PrevPart }, (*Game).prevPart},
	{"next part", func(k typedef.Keybinds) string { return k.NextPart }, (*Game).nextPart},
	{"next property", func(k typedef.Keybinds) string { return k.NextProperty }, (*Game).nextProperty},
	{"decrease", func(k typedef.Keybinds) string { return k.Decrease }, (*Game).decrease},
	{"increase", func(k typedef.Keybinds) string { return k.Increase }, (*Game).increase},
	{"reset part", func(k typedef.Keybinds) string { return k.ResetPart }, (*Game).resetPart},
	{"reset scene", func(k typedef.Keybinds) string { return k.ResetScene }, (*Game).resetScene},
	{"next scene", func(k typedef.Keybinds) string { return k.NextScene }, (*Game).nextScene},
	{"save local", func(k typedef.Keybinds) string { return k.SaveLocal }, (*Game).saveLocal},
	{"save file", func(k typedef.Keybinds) string { return k.SaveFile }, (*Game).saveFile},
	{"restore original", func(k typedef.Keybinds) string { return k.RestoreOriginal }, (*Game).restoreOriginal},
	{"export frame + scene", func(k typedef.Keybinds) string { return k.Export }, (*Game).export},
	{"copy scene", func(k typedef.Keybinds) string { return k.CopyScene }, (*Game).copyScene},
	{"paste script (shift: replace text)", func(k typedef.Keybinds) string { return k.PasteScript }, (*Game).pasteScript},
	{"open externally", func(k typedef.Keybinds) string { return k.OpenExternal }, (*Game).openExternal},
	{"reload from disk", func(k typedef.Keybinds) string { return k.Reload }, (*Game).reload},
	{"clear local storage", func(k typedef.Keybinds) string { return k.ClearStorage }, (*Game).clearStorage},
	{"toggle help", func(k typedef.Keybinds) string { return k.ToggleHelp }, (*Game).toggleHelp},
	{"toggle scene library", func(k typedef.Keybinds) string { return k.ToggleLibrary }, (*Game).toggleLibrary},
}

// actionFor returns the action bound to key, if any.
func actionFor(k typedef.Keybinds, key ebiten.Key) (action, bool) {
	for _, a := range actions {
		if bindingMatches(key, a.binding(k)) {
			return a, true
		}
	}
	return action{}, false
}
