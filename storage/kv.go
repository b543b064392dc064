package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"sync"
)

const (
	// EditPrefix namespaces saved script edits.
	EditPrefix = "js_edit_v1_"
	// LastSceneKey holds the most recently installed or edited scene document.
	LastSceneKey = "last_loaded"
	// LocalStoreFile is the store's file name inside the data dir.
	LocalStoreFile = "localstore.json"
)

var nonWord = regexp.MustCompile(`\W+`)

// EditKey returns the store key for the saved edit of a script file.
func EditKey(fileName string) string {
	return EditPrefix + nonWord.ReplaceAllString(fileName, "_")
}

// Store is an opaque string key/value store.
type Store interface {
	Set(key, value string) error
	Get(key string) (value string, ok bool, err error)
	Remove(key string) error
	Clear() error
	Keys() ([]string, error)
}

// KV is a Store persisted as one JSON object in a file. Every mutation is
// written through.
type KV struct {
	path string

	mu     sync.Mutex
	loaded bool
	data   map[string]string
}

// OpenKV returns a store backed by path. The file is read lazily and created
// on the first write.
func OpenKV(path string) *KV {
	return &KV{path: path}
}

func (kv *KV) Path() string { return kv.path }

func (kv *KV) load() error {
	if kv.loaded {
		return nil
	}
	raw, err := os.ReadFile(kv.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		kv.data = map[string]string{}
	case err != nil:
		return fmt.Errorf("read %s: %w", kv.path, err)
	default:
		data := map[string]string{}
		if err := json.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("decode %s: %w", kv.path, err)
		}
		kv.data = data
	}
	kv.loaded = true
	return nil
}

func (kv *KV) flush() error {
	raw, err := json.MarshalIndent(kv.data, "", "  ")
	if err != nil {
		return err
	}
	if err := writeFileAtomic(kv.path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", kv.path, err)
	}
	return nil
}

func (kv *KV) Set(key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if err := kv.load(); err != nil {
		return err
	}
	prev, had := kv.data[key]
	kv.data[key] = value
	if err := kv.flush(); err != nil {
		if had {
			kv.data[key] = prev
		} else {
			delete(kv.data, key)
		}
		return err
	}
	return nil
}

func (kv *KV) Get(key string) (string, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if err := kv.load(); err != nil {
		return "", false, err
	}
	v, ok := kv.data[key]
	return v, ok, nil
}

func (kv *KV) Remove(key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if err := kv.load(); err != nil {
		return err
	}
	if _, ok := kv.data[key]; !ok {
		return nil
	}
	delete(kv.data, key)
	return kv.flush()
}

// Clear removes every key. A corrupt backing file is replaced.
func (kv *KV) Clear() error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.data = map[string]string{}
	kv.loaded = true
	return kv.flush()
}

func (kv *KV) Keys() ([]string, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if err := kv.load(); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(kv.data))
	for k := range kv.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Tolerant wraps a Store so failures are logged instead of returned. A
// failing read looks like a missing key.
type Tolerant struct {
	store Store
	log   *slog.Logger
}

func NewTolerant(store Store, logger *slog.Logger) *Tolerant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tolerant{store: store, log: logger.With("component", "storage")}
}

// Set reports whether the value was stored.
func (t *Tolerant) Set(key, value string) bool {
	if err := t.store.Set(key, value); err != nil {
		t.log.Warn("store write failed", "key", key, "error", err)
		return false
	}
	return true
}

func (t *Tolerant) Get(key string) (string, bool) {
	v, ok, err := t.store.Get(key)
	if err != nil {
		t.log.Warn("store read failed", "key", key, "error", err)
		return "", false
	}
	return v, ok
}

func (t *Tolerant) Remove(key string) {
	if err := t.store.Remove(key); err != nil {
		t.log.Warn("store remove failed", "key", key, "error", err)
	}
}

func (t *Tolerant) Clear() bool {
	if err := t.store.Clear(); err != nil {
		t.log.Warn("store clear failed", "error", err)
		return false
	}
	return true
}

func (t *Tolerant) Keys() []string {
	keys, err := t.store.Keys()
	if err != nil {
		t.log.Warn("store list failed", "error", err)
		return nil
	}
	return keys
}
