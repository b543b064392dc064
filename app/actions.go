package app

import (
	"fmt"
	"path/filepath"
	"time"

	"duckstudio/duck"
	"duckstudio/storage"
)

// exportsDir is where saved scripts, frames and scene documents go.
func exportsDir() string {
	return storage.DataFile("exports")
}

func (g *Game) runActive(KeyEvent) {
	f := g.workspace.Active()
	if f == nil {
		g.notify("No script open: drop a .js file or paste one")
		return
	}
	// failures reach the toast through the session reporter
	if err := g.session.Run(g.ctx, f.Name, f.Text); err == nil {
		g.notify("Running " + f.Name)
	}
}

func (g *Game) stop(KeyEvent) {
	g.session.Stop()
	g.notify("Stopped")
}

func (g *Game) runBuiltin(KeyEvent) {
	if err := g.session.RunUnit(duck.Builtin(g.loader)); err == nil {
		g.notify("Running " + duck.BuiltinName)
	}
}

func (g *Game) nextFile(KeyEvent) {
	if g.workspace.Next() {
		g.notify("Selected " + g.workspace.Active().Name)
	}
}

func (g *Game) prevPart(KeyEvent) { g.stage.SelectPart(-1) }
func (g *Game) nextPart(KeyEvent) { g.stage.SelectPart(1) }

func (g *Game) nextProperty(KeyEvent) { g.stage.NextProperty() }

func (g *Game) decrease(ev KeyEvent) { g.nudge(-1, ev) }
func (g *Game) increase(ev KeyEvent) { g.nudge(1, ev) }

// nudge moves the selected property by one step, ten with shift held.
func (g *Game) nudge(dir float64, ev KeyEvent) {
	if ev.Shift {
		dir *= 10
	}
	if err := g.stage.Nudge(dir); err != nil {
		g.notifyError("Edit failed", err)
	}
}

func (g *Game) resetPart(KeyEvent) {
	if err := g.stage.ResetPart(g.stage.Selected()); err != nil {
		g.notifyError("Reset failed", err)
	}
}

func (g *Game) resetScene(KeyEvent) {
	g.stage.ResetScene()
	g.notify("Scene reset to defaults")
}

// nextScene installs the next document from the library, newest first.
func (g *Game) nextScene(KeyEvent) {
	if g.library.Len() == 0 {
		g.notify("No scene documents loaded")
		return
	}
	g.selectScene((g.sceneIdx + 1) % g.library.Len())
}

// selectScene installs library document i.
func (g *Game) selectScene(i int) {
	doc, ok := g.library.At(i)
	if !ok {
		return
	}
	g.sceneIdx = i
	g.libview.Reveal(i)
	g.stage.Install(doc.Scene)
	g.notify("Scene " + doc.Name)
}

func (g *Game) saveLocal(KeyEvent) {
	key, err := g.workspace.SaveLocal()
	if err != nil {
		g.notifyError("Save failed", err)
		return
	}
	g.notify("Saved to local storage as " + key)
}

func (g *Game) saveFile(KeyEvent) {
	path, err := g.workspace.SaveToDisk(exportsDir())
	if err != nil {
		g.notifyError("Save failed", err)
		return
	}
	g.notify("Saved " + path)
}

func (g *Game) restoreOriginal(KeyEvent) {
	if err := g.workspace.RestoreOriginal(); err != nil {
		g.notifyError("Restore failed", err)
		return
	}
	g.notify("Restored original text")
}

// export writes the current frame as PNG and the live scene as JSON.
func (g *Game) export(KeyEvent) {
	png, doc, err := g.exportTo(exportsDir(), time.Now())
	if err != nil {
		g.notifyError("Export failed", err)
		return
	}
	g.notify(fmt.Sprintf("Exported %s and %s", filepath.Base(png), filepath.Base(doc)))
}

func (g *Game) exportTo(dir string, now time.Time) (png, doc string, err error) {
	stamp := now.Format("20060102-150405")
	png = filepath.Join(dir, "frame-"+stamp+".png")
	doc = filepath.Join(dir, "scene-"+stamp+".json")
	if err := g.surface.SavePNG(png); err != nil {
		return "", "", err
	}
	if err := g.stage.Scene().SaveFile(doc); err != nil {
		return "", "", err
	}
	return png, doc, nil
}

func (g *Game) copyScene(KeyEvent) {
	doc, err := g.stage.Document()
	if err == nil {
		err = g.clip.WriteText(string(doc))
	}
	if err != nil {
		g.notifyError("Copy failed", err)
		return
	}
	msg := "Scene copied to clipboard"
	if !g.clip.Native() {
		msg += " (external clipboard tool)"
	}
	g.notify(msg)
}

// pasteScript opens the clipboard text as a new script, or with shift held
// replaces the active buffer with it.
func (g *Game) pasteScript(ev KeyEvent) {
	text, err := g.clip.ReadText()
	if err != nil {
		g.notifyError("Paste failed", err)
		return
	}
	if ev.Shift && g.workspace.Active() != nil {
		g.replaceText(text)
		return
	}
	g.addPasted(text)
}

func (g *Game) replaceText(text string) {
	if text == "" {
		g.notify("Clipboard is empty")
		return
	}
	if err := g.workspace.SetText(text); err != nil {
		g.notifyError("Paste failed", err)
		return
	}
	g.notify("Replaced the text of " + g.workspace.Active().Name)
}

func (g *Game) addPasted(text string) {
	if text == "" {
		g.notify("Clipboard is empty")
		return
	}
	g.pasted++
	name := fmt.Sprintf("pasted-%d.js", g.pasted)
	g.workspace.Add(name, text)
	g.workspace.Select(len(g.workspace.Files()) - 1)
	g.notify("Pasted " + name)
}

// openExternal opens the active script in the system editor, or the
// exports folder when the script has no file behind it.
func (g *Game) openExternal(KeyEvent) {
	target := exportsDir()
	if f := g.workspace.Active(); f != nil && f.Path != "" {
		target = f.Path
	}
	if err := openExternally(target); err != nil {
		g.notifyError("Could not open "+target, err)
	}
}

func (g *Game) reload(KeyEvent) {
	if err := g.workspace.Reload(); err != nil {
		g.notifyError("Reload failed", err)
		return
	}
	f := g.workspace.Active()
	if f.Dirty {
		g.notify("Reloaded " + f.Name + " (differs from the opened text)")
		return
	}
	g.notify("Reloaded " + f.Name)
}

func (g *Game) clearStorage(KeyEvent) {
	n := len(g.store.Keys())
	if g.store.Clear() {
		g.notify(fmt.Sprintf("Local storage cleared (%d %s)", n, plural(n, "entry", "entries")))
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func (g *Game) toggleHelp(KeyEvent) {
	g.showHelp = !g.showHelp
	g.settings.ShowHelp = g.showHelp
	g.saveSettings()
}

func (g *Game) toggleLibrary(KeyEvent) {
	g.settings.ShowLibrary = g.libview.Toggle()
	g.saveSettings()
}

// saveSettings persists panel visibility so the next start matches.
func (g *Game) saveSettings() {
	if err := SaveSettings(g.settings); err != nil {
		g.notifyError("Could not save settings", err)
	}
}
