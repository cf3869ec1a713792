package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"safespace/internal/core"
)

type fileEntry struct {
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

// FileKV is a core.KeyValue kept in a single JSON file.
type FileKV struct {
	path string
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]fileEntry
}

var _ core.KeyValue = (*FileKV)(nil)

func NewFileKV(path string) (*FileKV, error) {
	kv := &FileKV{
		path:    path,
		now:     time.Now,
		entries: map[string]fileEntry{},
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return kv, nil
	case err != nil:
		return nil, err
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &kv.entries); err != nil {
			return nil, err
		}
	}

	return kv, nil
}

func (f *FileKV) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.entries[key]
	if !ok || f.expired(entry) {
		return nil, core.ErrKeyNotFound
	}
	return entry.Value, nil
}

func (f *FileKV) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry := fileEntry{Value: value}
	if ttl > 0 {
		entry.ExpiresAt = f.now().Add(ttl)
	}
	f.entries[key] = entry

	return f.flush()
}

func (f *FileKV) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.entries[key]; !ok {
		return nil
	}
	delete(f.entries, key)

	return f.flush()
}

func (f *FileKV) expired(entry fileEntry) bool {
	return !entry.ExpiresAt.IsZero() && !f.now().Before(entry.ExpiresAt)
}

// flush writes the live entries. It must be called with mu held.
func (f *FileKV) flush() error {
	for key, entry := range f.entries {
		if f.expired(entry) {
			delete(f.entries, key)
		}
	}

	data, err := json.MarshalIndent(f.entries, "", "  ")
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
