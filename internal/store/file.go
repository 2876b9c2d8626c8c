package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileStore persists records as JSON lines in a local file.
// Thread-safe for concurrent use.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// Compile-time interface check.
var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore that writes to the given path.
// The file is created on first save if it does not exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save appends rec as one JSON line.
func (fs *FileStore) Save(_ context.Context, rec Record) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: marshal record: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(fs.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("store: open %q: %w", fs.path, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("store: write: %w", err)
	}
	return nil
}

// Recent reads the whole file and returns the last records, newest first.
// Lines that fail to parse are skipped rather than failing the read, so one
// corrupt line cannot hide the rest of the log.
func (fs *FileStore) Recent(_ context.Context, limit int) ([]Record, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := os.Open(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: open %q: %w", fs.path, err)
	}
	defer f.Close()

	var all []Record
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			continue
		}
		all = append(all, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("store: scan %q: %w", fs.path, err)
	}

	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	out := make([]Record, 0, limit)
	for i := len(all) - 1; i >= len(all)-limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// Ping verifies the directory holding the log is accessible.
func (fs *FileStore) Ping(_ context.Context) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, err := os.Stat(fs.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: stat %q: %w", fs.path, err)
	}
	return nil
}
