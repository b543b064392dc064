// Package workspace holds what the user is working on: open script files
// with their edit buffers, the live scene being edited and the library of
// loaded scene documents.
package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"duckstudio/storage"
)

var ErrNoActiveFile = errors.New("no active file")

// File is one open script.
type File struct {
	Name     string
	Path     string // empty for text that did not come from disk
	Text     string
	Original string
	Size     int
	Opened   time.Time
	Dirty    bool

	// checked is set once the store has been consulted for a local edit.
	checked bool
}

// Workspace is the list of open scripts and the active one. It is not safe
// for concurrent use.
type Workspace struct {
	store        *storage.Tolerant
	restoreLocal bool
	log          *slog.Logger

	files  []*File
	active int
}

// New creates an empty workspace. When restoreLocal is set, the first
// selection of a file replaces its text with a saved local edit if one
// exists.
func New(store *storage.Tolerant, restoreLocal bool, logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workspace{
		store:        store,
		restoreLocal: restoreLocal,
		log:          logger.With("component", "workspace"),
		active:       -1,
	}
}

// OpenPath reads a script from disk and adds it. The first file added
// becomes active.
func (w *Workspace) OpenPath(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	f := w.add(filepath.Base(path), path, string(raw))
	w.log.Info("opened script", "name", f.Name, "bytes", f.Size)
	return f, nil
}

// Add adds in-memory text, for example pasted from the clipboard.
func (w *Workspace) Add(name, text string) *File {
	return w.add(name, "", text)
}

func (w *Workspace) add(name, path, text string) *File {
	f := &File{
		Name:     name,
		Path:     path,
		Text:     text,
		Original: text,
		Size:     len(text),
		Opened:   time.Now(),
	}
	w.files = append(w.files, f)
	if w.active == -1 {
		w.Select(0)
	}
	return f
}

func (w *Workspace) Files() []*File { return w.files }

func (w *Workspace) ActiveIndex() int { return w.active }

// Active returns the active file or nil.
func (w *Workspace) Active() *File {
	if w.active < 0 || w.active >= len(w.files) {
		return nil
	}
	return w.files[w.active]
}

// Select makes file i active and reports whether a saved local edit was
// restored into it. Only the first selection of a file restores; later
// selections keep whatever the buffer holds. Out of range indexes are
// ignored.
func (w *Workspace) Select(i int) bool {
	if i < 0 || i >= len(w.files) {
		return false
	}
	w.active = i
	f := w.files[i]
	if f.checked || !w.restoreLocal || w.store == nil {
		return false
	}
	f.checked = true
	saved, ok := w.store.Get(storage.EditKey(f.Name))
	if !ok || saved == f.Text {
		return false
	}
	f.Text = saved
	f.Dirty = f.Text != f.Original
	w.log.Info("restored local edit", "name", f.Name)
	return true
}

// Next activates the following file, wrapping around.
func (w *Workspace) Next() bool {
	if len(w.files) == 0 {
		return false
	}
	return w.Select((w.active + 1) % len(w.files))
}

// SetText replaces the active file's buffer.
func (w *Workspace) SetText(text string) error {
	f := w.Active()
	if f == nil {
		return ErrNoActiveFile
	}
	f.Text = text
	f.Dirty = f.Text != f.Original
	return nil
}

// RestoreOriginal discards edits to the active file.
func (w *Workspace) RestoreOriginal() error {
	f := w.Active()
	if f == nil {
		return ErrNoActiveFile
	}
	f.Text = f.Original
	f.Dirty = false
	return nil
}

// SaveToDisk writes the active buffer to its path, or into dir when the
// file has none, and makes it the new original.
func (w *Workspace) SaveToDisk(dir string) (string, error) {
	f := w.Active()
	if f == nil {
		return "", ErrNoActiveFile
	}
	path := f.Path
	if path == "" {
		path = filepath.Join(dir, f.Name)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("save %s: %w", f.Name, err)
	}
	if err := os.WriteFile(path, []byte(f.Text), 0o644); err != nil {
		return "", fmt.Errorf("save %s: %w", f.Name, err)
	}
	f.Path = path
	f.Original = f.Text
	f.Size = len(f.Text)
	f.Dirty = false
	w.log.Info("saved script", "path", path)
	return path, nil
}

// SaveLocal stores the active buffer under its edit key.
func (w *Workspace) SaveLocal() (key string, err error) {
	f := w.Active()
	if f == nil {
		return "", ErrNoActiveFile
	}
	key = storage.EditKey(f.Name)
	if w.store == nil || !w.store.Set(key, f.Text) {
		return key, fmt.Errorf("could not store %s", key)
	}
	return key, nil
}

// Autosave stores the active buffer locally if it has unsaved edits.
func (w *Workspace) Autosave() bool {
	f := w.Active()
	if f == nil || !f.Dirty {
		return false
	}
	_, err := w.SaveLocal()
	return err == nil
}

// Reload replaces the active buffer with the file's current contents. The
// original is kept, so changes made in an external editor count as edits
// until the file is saved or restored.
func (w *Workspace) Reload() error {
	f := w.Active()
	if f == nil {
		return ErrNoActiveFile
	}
	if f.Path == "" {
		return fmt.Errorf("reload %s: not backed by a file", f.Name)
	}
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("reload %s: %w", f.Name, err)
	}
	f.Size = len(raw)
	return w.SetText(string(raw))
}
