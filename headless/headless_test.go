package headless

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"duckstudio/anim"
	"duckstudio/duck"
	"duckstudio/scene"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func script(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func decodeSize(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestBuiltinByDefault(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out", "duck.png")
	results, err := Run(context.Background(), Options{
		Frames: 3, Out: out, Width: 120, Height: 80, DPR: 2, Logger: quiet(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Script != duck.BuiltinName || results[0].Frames != 3 {
		t.Fatalf("results = %+v", results)
	}
	if w, h := decodeSize(t, out); w != 240 || h != 160 {
		t.Errorf("png is %dx%d", w, h)
	}
}

func TestScriptsGetTheirOwnFiles(t *testing.T) {
	dir := t.TempDir()
	ok := script(t, dir, "ok.js", `export function draw(ctx) { ctx.fillStyle = "red"; ctx.fillRect(0, 0, 10, 10); }`)
	bad := script(t, dir, "bad.js", `export function draw(ctx, s) { if (s.frame === 2) throw new Error("boom"); }`)
	out := filepath.Join(dir, "frame.png")

	results, err := Run(context.Background(), Options{
		Scripts: []string{ok, bad}, Frames: 5, Out: out, Logger: quiet(),
	})
	if err == nil || !strings.Contains(err.Error(), "bad.js") {
		t.Fatalf("err = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	if r := results[0]; r.Err != nil || r.Frames != 5 || r.Out != filepath.Join(dir, "frame-ok.png") {
		t.Errorf("ok result = %+v", r)
	}
	var fe *anim.FrameError
	if r := results[1]; !errors.As(r.Err, &fe) || fe.Frame != 2 || r.Frames != 2 {
		t.Errorf("bad result = %+v", r)
	}
	for _, r := range results {
		if _, err := os.Stat(r.Out); err != nil {
			t.Errorf("%s: %v", r.Script, err)
		}
	}
}

func TestSceneDocumentIsUsed(t *testing.T) {
	dir := t.TempDir()
	doc := scene.Default()
	_ = doc.Set(scene.Head, scene.PropX, 25)
	scenePath := filepath.Join(dir, "duck.json.lz4")
	if err := doc.SaveFile(scenePath); err != nil {
		t.Fatal(err)
	}
	src := script(t, dir, "check-head.js", `export function draw(ctx, s) { if (s.parts.head.x !== 25) throw new Error("head.x=" + s.parts.head.x); }`)

	if _, err := Run(context.Background(), Options{
		Scripts: []string{src}, ScenePath: scenePath, Frames: 2, Out: filepath.Join(dir, "p.png"), Logger: quiet(),
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := Run(context.Background(), Options{ScenePath: filepath.Join(dir, "missing.json"), Logger: quiet()}); err == nil {
		t.Error("missing scene document accepted")
	}
}

func TestMissingScriptIsReported(t *testing.T) {
	dir := t.TempDir()
	results, err := Run(context.Background(), Options{
		Scripts: []string{filepath.Join(dir, "nope.js")}, Out: filepath.Join(dir, "n.png"), Logger: quiet(),
	})
	if err == nil || len(results) != 1 || results[0].Frames != 0 {
		t.Errorf("results = %+v, err = %v", results, err)
	}
}
