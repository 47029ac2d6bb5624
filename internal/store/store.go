// Package store reads and writes the files workers exchange. Writes go to a
// temporary file in the destination directory and are renamed into place, so
// a reader either sees the complete file or no file at all.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"DiskMR/internal/types"
)

// RawPair is a pair whose value has not been decoded yet.
type RawPair struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// WriteFile atomically replaces path with data.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

// WritePairs encodes pairs as a JSON array. A nil slice is written as [].
func WritePairs[V any](path string, pairs []types.Pair[V]) error {
	if pairs == nil {
		pairs = []types.Pair[V]{}
	}
	data, err := json.Marshal(pairs)
	if err != nil {
		return fmt.Errorf("failed to encode pairs for %s: %w", path, err)
	}
	return WriteFile(path, data)
}

// ReadRawPairs decodes the array structure of a pair file but leaves each
// value encoded, so callers can handle a bad value without losing the file.
func ReadRawPairs(path string) ([]RawPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var pairs []RawPair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return pairs, nil
}

// ReadPairs decodes a pair file completely.
func ReadPairs[V any](path string) ([]types.Pair[V], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var pairs []types.Pair[V]
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return pairs, nil
}

// Exists reports whether path is present.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Remove deletes path. A file that is already gone is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
