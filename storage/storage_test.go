package storage

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEditKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"duck.js", "js_edit_v1_duck_js"},
		{"my duck (2).js", "js_edit_v1_my_duck_2_js"},
		{"snake_case.js", "js_edit_v1_snake_case_js"},
		{"ñandú.js", "js_edit_v1__and_js"},
	}
	for _, tt := range tests {
		if got := EditKey(tt.in); got != tt.want {
			t.Errorf("EditKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store", LocalStoreFile)
	kv := OpenKV(path)

	if _, ok, err := kv.Get("missing"); ok || err != nil {
		t.Fatalf("Get(missing) = %v, %v", ok, err)
	}
	if err := kv.Set("a", "1"); err != nil {
		t.Fatal(err)
	}
	if err := kv.Set("b", "two\nlines"); err != nil {
		t.Fatal(err)
	}

	reopened := OpenKV(path)
	if v, ok, err := reopened.Get("b"); err != nil || !ok || v != "two\nlines" {
		t.Errorf("Get(b) after reopen = %q, %v, %v", v, ok, err)
	}
	keys, _ := reopened.Keys()
	if strings.Join(keys, ",") != "a,b" {
		t.Errorf("keys = %v", keys)
	}

	if err := reopened.Remove("a"); err != nil {
		t.Fatal(err)
	}
	if err := reopened.Remove("a"); err != nil {
		t.Errorf("second remove: %v", err)
	}
	if err := reopened.Clear(); err != nil {
		t.Fatal(err)
	}
	if keys, _ := OpenKV(path).Keys(); len(keys) != 0 {
		t.Errorf("keys after clear = %v", keys)
	}
}

func TestKVCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), LocalStoreFile)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	kv := OpenKV(path)
	if _, _, err := kv.Get("x"); err == nil {
		t.Error("corrupt file read without error")
	}
	if err := kv.Clear(); err != nil {
		t.Fatalf("Clear did not recover: %v", err)
	}
	if err := kv.Set("x", "y"); err != nil {
		t.Fatal(err)
	}
}

type failingStore struct{}

var errDisk = errors.New("disk on fire")

func (failingStore) Set(string, string) error         { return errDisk }
func (failingStore) Get(string) (string, bool, error) { return "", false, errDisk }
func (failingStore) Remove(string) error              { return errDisk }
func (failingStore) Clear() error                     { return errDisk }
func (failingStore) Keys() ([]string, error)          { return nil, errDisk }

func TestTolerantSwallowsFailures(t *testing.T) {
	var logs bytes.Buffer
	tol := NewTolerant(failingStore{}, slog.New(slog.NewTextHandler(&logs, nil)))

	if tol.Set("k", "v") {
		t.Error("Set reported success")
	}
	if v, ok := tol.Get("k"); ok || v != "" {
		t.Errorf("Get = %q, %v", v, ok)
	}
	tol.Remove("k")
	if tol.Clear() {
		t.Error("Clear reported success")
	}
	if tol.Keys() != nil {
		t.Error("Keys returned data")
	}
	if n := strings.Count(logs.String(), "disk on fire"); n != 5 {
		t.Errorf("logged %d failures, want 5:\n%s", n, logs.String())
	}
}

func TestTolerantPassesThrough(t *testing.T) {
	tol := NewTolerant(OpenKV(filepath.Join(t.TempDir(), LocalStoreFile)), nil)
	if !tol.Set(EditKey("duck.js"), "export function draw() {}") {
		t.Fatal("Set failed")
	}
	if v, ok := tol.Get("js_edit_v1_duck_js"); !ok || !strings.HasPrefix(v, "export") {
		t.Errorf("Get = %q, %v", v, ok)
	}
}

func TestWriteFileAtomicReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.json")
	if err := writeFileAtomic(path, []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := writeFileAtomic(path, []byte("two"), 0o644); err != nil {
		t.Fatal(err)
	}
	raw, _ := os.ReadFile(path)
	if string(raw) != "two" {
		t.Errorf("content = %q", raw)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("left temp files behind: %v", entries)
	}
}
