package workspace

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"duckstudio/scene"
	"duckstudio/storage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func newStore(t *testing.T) *storage.Tolerant {
	t.Helper()
	return storage.NewTolerant(storage.OpenKV(filepath.Join(t.TempDir(), storage.LocalStoreFile)), quietLogger())
}

func writeScript(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenSelectsFirstFile(t *testing.T) {
	dir := t.TempDir()
	w := New(newStore(t), true, quietLogger())
	if w.Active() != nil {
		t.Fatal("empty workspace has an active file")
	}
	if _, err := w.OpenPath(writeScript(t, dir, "a.js", "// a")); err != nil {
		t.Fatal(err)
	}
	if _, err := w.OpenPath(writeScript(t, dir, "b.js", "// b")); err != nil {
		t.Fatal(err)
	}
	if w.ActiveIndex() != 0 || w.Active().Name != "a.js" {
		t.Errorf("active = %d", w.ActiveIndex())
	}
	w.Next()
	if w.Active().Name != "b.js" {
		t.Errorf("after Next active = %s", w.Active().Name)
	}
	w.Next()
	if w.Active().Name != "a.js" {
		t.Error("Next does not wrap")
	}
	if _, err := w.OpenPath(filepath.Join(dir, "missing.js")); err == nil {
		t.Error("opened a missing file")
	}
}

func TestEditRestoreAndDirty(t *testing.T) {
	w := New(nil, false, quietLogger())
	if err := w.SetText("x"); !errors.Is(err, ErrNoActiveFile) {
		t.Errorf("SetText without file: %v", err)
	}
	w.Add("pasted.js", "original")
	_ = w.SetText("edited")
	if !w.Active().Dirty {
		t.Error("edit not marked dirty")
	}
	_ = w.SetText("original")
	if w.Active().Dirty {
		t.Error("text equal to original is still dirty")
	}
	_ = w.SetText("edited again")
	_ = w.RestoreOriginal()
	if f := w.Active(); f.Text != "original" || f.Dirty {
		t.Errorf("after restore: %+v", f)
	}
}

func TestSaveLocalAndRestoreOnSelect(t *testing.T) {
	store := newStore(t)
	w := New(store, true, quietLogger())
	w.Add("duck.js", "v1")
	_ = w.SetText("v2")
	key, err := w.SaveLocal()
	if err != nil || key != "js_edit_v1_duck_js" {
		t.Fatalf("SaveLocal = %q, %v", key, err)
	}

	next := New(store, true, quietLogger())
	next.Add("duck.js", "v1")
	if f := next.Active(); f.Text != "v2" || !f.Dirty {
		t.Errorf("local edit not restored: %+v", f)
	}

	off := New(store, false, quietLogger())
	off.Add("duck.js", "v1")
	if off.Active().Text != "v1" {
		t.Error("restored although the policy is off")
	}
}

func TestLocalEditRestoredOnlyOnFirstSelect(t *testing.T) {
	store := newStore(t)
	store.Set(storage.EditKey("a.js"), "saved")
	w := New(store, true, quietLogger())
	w.Add("a.js", "disk")
	w.Add("b.js", "other")
	if w.Active().Text != "saved" {
		t.Fatalf("text = %q", w.Active().Text)
	}
	_ = w.RestoreOriginal()

	w.Next()
	if restored := w.Next(); restored {
		t.Error("cycling back restored the local edit again")
	}
	if f := w.Active(); f.Name != "a.js" || f.Text != "disk" || f.Dirty {
		t.Errorf("after cycling: %+v", f)
	}
}

func TestAutosaveOnlyWhenDirty(t *testing.T) {
	store := newStore(t)
	w := New(store, true, quietLogger())
	if w.Autosave() {
		t.Error("autosaved without a file")
	}
	w.Add("a.js", "same")
	if w.Autosave() {
		t.Error("autosaved a clean file")
	}
	_ = w.SetText("changed")
	if !w.Autosave() {
		t.Error("dirty file not autosaved")
	}
	if v, _ := store.Get(storage.EditKey("a.js")); v != "changed" {
		t.Errorf("stored %q", v)
	}
}

func TestSaveToDiskAndReload(t *testing.T) {
	dir := t.TempDir()
	w := New(nil, false, quietLogger())
	path := writeScript(t, dir, "draw.js", "one")
	if _, err := w.OpenPath(path); err != nil {
		t.Fatal(err)
	}
	_ = w.SetText("two")
	saved, err := w.SaveToDisk(filepath.Join(dir, "exports"))
	if err != nil || saved != path {
		t.Fatalf("SaveToDisk = %q, %v", saved, err)
	}
	if f := w.Active(); f.Dirty || f.Original != "two" {
		t.Errorf("after save: %+v", f)
	}

	if err := os.WriteFile(path, []byte("three"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := w.Reload(); err != nil {
		t.Fatal(err)
	}
	if f := w.Active(); f.Text != "three" || !f.Dirty || f.Original != "two" {
		t.Errorf("after reload: %+v", f)
	}
	if err := os.WriteFile(path, []byte("two"), 0o644); err != nil {
		t.Fatal(err)
	}
	_ = w.Reload()
	if w.Active().Dirty {
		t.Error("reloading the saved text left the file dirty")
	}

	w.Add("pasted.js", "p")
	w.Select(1)
	if err := w.Reload(); err == nil {
		t.Error("reloaded a file with no path")
	}
	saved, err = w.SaveToDisk(filepath.Join(dir, "exports"))
	if err != nil || saved != filepath.Join(dir, "exports", "pasted.js") {
		t.Errorf("SaveToDisk pasted = %q, %v", saved, err)
	}
}

func TestStageEditsPersist(t *testing.T) {
	store := newStore(t)
	st := NewStage(store, quietLogger())
	if !st.Scene().Equal(scene.Default()) {
		t.Fatal("fresh stage is not the default duck")
	}
	if err := st.Set(scene.Head, scene.PropScale, 0); err != nil {
		t.Fatal(err)
	}

	restored := NewStage(store, quietLogger())
	p, _ := restored.Scene().Get(scene.Head)
	if p.Scale != scene.MinScale {
		t.Errorf("restored head scale = %v", p.Scale)
	}

	restored.ResetScene()
	again := NewStage(store, quietLogger())
	if !again.Scene().Equal(scene.Default()) {
		t.Error("reset not persisted")
	}
}

func TestStageIgnoresCorruptStoredScene(t *testing.T) {
	store := newStore(t)
	store.Set(storage.LastSceneKey, "{broken")
	if !NewStage(store, quietLogger()).Scene().Equal(scene.Default()) {
		t.Error("corrupt stored scene was not replaced by the default")
	}
}

func TestStageSelectionAndNudge(t *testing.T) {
	st := NewStage(nil, quietLogger())
	if st.Selected() != scene.Body {
		t.Fatalf("selected = %s", st.Selected())
	}
	if k := st.SelectPart(-1); k != scene.RightLeg {
		t.Errorf("SelectPart(-1) = %s", k)
	}
	st.SelectPart(1)

	if err := st.Nudge(3); err != nil {
		t.Fatal(err)
	}
	if p, _ := st.Scene().Get(scene.Body); p.X != 3 {
		t.Errorf("body.x = %v", p.X)
	}

	st.NextProperty()
	st.NextProperty()
	if st.Property() != scene.PropRotation {
		t.Fatalf("property = %s", st.Property())
	}
	_ = st.Nudge(2)
	if p, _ := st.Scene().Get(scene.Body); math.Abs(p.Rotation-10*math.Pi/180) > 1e-9 {
		t.Errorf("rotation = %v", p.Rotation)
	}

	st.NextProperty()
	_ = st.Nudge(-100)
	if p, _ := st.Scene().Get(scene.Body); p.Scale != scene.MinScale {
		t.Errorf("scale = %v", p.Scale)
	}
	if !strings.HasPrefix(st.Describe(), "body") {
		t.Errorf("describe = %q", st.Describe())
	}

	if err := st.ResetPart(scene.Body); err != nil {
		t.Fatal(err)
	}
	if p, _ := st.Scene().Get(scene.Body); p.X != 0 || p.Scale != 1 {
		t.Errorf("after reset: %+v", p)
	}
}

func TestStageInstallCopies(t *testing.T) {
	st := NewStage(nil, quietLogger())
	doc := scene.Default()
	_ = doc.Set(scene.Bill, scene.PropX, 40)
	st.Install(doc)

	_ = doc.Set(scene.Bill, scene.PropX, 99)
	if p, _ := st.Scene().Get(scene.Bill); p.X != 40 {
		t.Errorf("installed scene aliases the document: bill.x = %v", p.X)
	}
}

func TestLibraryNewestFirst(t *testing.T) {
	dir := t.TempDir()
	var lib Library
	first := scene.Default()
	if err := first.SaveFile(filepath.Join(dir, "first.json")); err != nil {
		t.Fatal(err)
	}
	if err := first.SaveFile(filepath.Join(dir, "second.json.lz4")); err != nil {
		t.Fatal(err)
	}
	if _, err := lib.LoadFile(filepath.Join(dir, "first.json")); err != nil {
		t.Fatal(err)
	}
	doc, err := lib.LoadFile(filepath.Join(dir, "second.json.lz4"))
	if err != nil {
		t.Fatal(err)
	}
	if top, _ := lib.At(0); top != doc || lib.Len() != 2 {
		t.Errorf("newest document is not first")
	}
	if b := doc.Thumb.Bounds(); b.Dx() != ThumbWidth || b.Dy() != ThumbHeight {
		t.Errorf("thumb = %v", b)
	}
	if _, ok := lib.At(5); ok {
		t.Error("At out of range succeeded")
	}
	if _, err := lib.LoadFile(filepath.Join(dir, "nope.json")); err == nil {
		t.Error("loaded a missing document")
	}
}

func TestLibraryLoadBytes(t *testing.T) {
	var lib Library
	var buf bytes.Buffer
	if err := scene.Default().Encode(&buf); err != nil {
		t.Fatal(err)
	}
	doc, err := lib.LoadBytes("dropped/duck.json", buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if doc.Name != "duck.json" || !doc.Scene.Equal(scene.Default()) {
		t.Errorf("doc = %s", doc.Name)
	}
	if _, err := lib.LoadBytes("duck.json.lz4", buf.Bytes()); err == nil {
		t.Error("plain JSON accepted as lz4")
	}
	if lib.Len() != 1 {
		t.Errorf("len = %d", lib.Len())
	}
}
