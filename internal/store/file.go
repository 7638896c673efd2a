package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// fileBackend keeps the mapping as one JSON object on disk. Every save
// rewrites the whole file via tmp + rename, so the file at rest is always a
// complete, valid snapshot.
type fileBackend struct {
	path string
}

func newFileBackend(path string) (*fileBackend, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = "./channels.json"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &fileBackend{path: path}, nil
}

func (f *fileBackend) Load() (map[string]string, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (f *fileBackend) Save(bindings map[string]string) error {
	b, err := json.MarshalIndent(bindings, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *fileBackend) Close() error { return nil }
