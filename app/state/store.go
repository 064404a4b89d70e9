package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Store is a key-value store over a single JSON document. Every write
// replaces the file via write-to-temp-then-rename in the same directory, so
// the on-disk file is always either the old or the new complete document.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// ReadAll loads the full document. A missing, corrupt or unreadable file is
// treated as an empty document; the store self-heals on the next write.
func (s *Store) ReadAll() map[string]json.RawMessage {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Debug("State file unreadable, treating as empty", "path", s.path, "error", err)
		}
		return map[string]json.RawMessage{}
	}

	var document map[string]json.RawMessage
	if err := json.Unmarshal(data, &document); err != nil {
		slog.Debug("State file corrupt, treating as empty", "path", s.path, "error", err)
		return map[string]json.RawMessage{}
	}
	if document == nil {
		return map[string]json.RawMessage{}
	}
	return document
}

// Read returns the raw value for a top-level key.
func (s *Store) Read(key string) (json.RawMessage, bool) {
	value, ok := s.ReadAll()[key]
	return value, ok
}

// ReadInto unmarshals the value for a top-level key into out. A missing key
// leaves out untouched and returns false.
func (s *Store) ReadInto(key string, out interface{}) bool {
	raw, ok := s.Read(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		slog.Debug("State key corrupt, ignoring", "key", key, "error", err)
		return false
	}
	return true
}

// Write replaces one top-level key and atomically rewrites the document.
// Failure to create the parent directory or rename the temp file means
// storage is unavailable and is returned as an error.
func (s *Store) Write(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %q: %w", key, err)
	}

	document := s.ReadAll()
	document[key] = raw

	return s.replace(document)
}

func (s *Store) replace(document map[string]json.RawMessage) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpPath := tmp.Name()

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(document); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp state file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}
