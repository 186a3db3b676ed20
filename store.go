package ticketeta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Compile-time check that FileCache implements Cache.
var _ Cache = (*FileCache)(nil)

// FileCache implements Cache using one JSON file per key on disk.
type FileCache struct {
	dir string
	mu  sync.RWMutex
	now func() time.Time
}

type fileEntry struct {
	ExpiresAt time.Time `json:"expires_at"`
	Value     []byte    `json:"value"`
}

// NewFileCache creates a file-backed cache in dir.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

func (fc *FileCache) entryPath(key string) string {
	return filepath.Join(fc.dir, key+".json")
}

// Get loads an entry; expired entries are reported as missing.
func (fc *FileCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	data, err := os.ReadFile(fc.entryPath(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}

	var e fileEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false, fmt.Errorf("unmarshal cache entry: %w", err)
	}
	if !fc.now().Before(e.ExpiresAt) {
		return nil, false, nil
	}
	return e.Value, true, nil
}

// SetWithTTL persists an entry using atomic write (temp file + rename).
func (fc *FileCache) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	return atomicWriteJSON(fc.entryPath(key), fileEntry{ExpiresAt: fc.now().Add(ttl), Value: value})
}

// Prune removes expired and unreadable entries and returns how many were removed.
func (fc *FileCache) Prune(_ context.Context, dryRun bool) (int, error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	entries, err := os.ReadDir(fc.dir)
	if err != nil {
		return 0, fmt.Errorf("read cache dir: %w", err)
	}

	removed := 0
	now := fc.now()
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(fc.dir, entry.Name())

		var e fileEntry
		data, err := os.ReadFile(path)
		if err == nil {
			err = json.Unmarshal(data, &e)
		}
		if err == nil && now.Before(e.ExpiresAt) {
			continue
		}

		removed++
		if dryRun {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("remove cache entry %s: %w", entry.Name(), err)
		}
	}
	return removed, nil
}

// Close is a no-op.
func (fc *FileCache) Close() error { return nil }

// atomicWriteJSON writes data as JSON to a file atomically (temp file + rename).
func atomicWriteJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}
