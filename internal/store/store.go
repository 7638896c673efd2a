// Package store persists the tenant -> channel registrations used for the
// daily post.
//
// The mapping is tiny and mutated rarely (one privileged command), so the
// whole thing is kept in memory and flushed as a full snapshot on every
// write. Backends implement the snapshot load/save; the default is a single
// JSON file replaced atomically.
package store

import (
	"errors"
	"strings"
	"sync"

	logx "nasabot/pkg/logx"
)

// Backend is the injectable persistence layer beneath Store.
type Backend interface {
	// Load returns the full mapping. A missing underlying resource is not an
	// error; it returns an empty (or nil) map.
	Load() (map[string]string, error)
	// Save durably persists the full mapping before returning.
	Save(bindings map[string]string) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Driver string // "file" (default) or "sqlite"
	Path   string
}

type Store struct {
	log     logx.Logger
	backend Backend

	mu       sync.RWMutex
	bindings map[string]string
}

// Open initializes the configured backend and loads the mapping.
func Open(cfg Config, log logx.Logger) (*Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	var (
		b   Backend
		err error
	)
	switch driver {
	case "", "file":
		b, err = newFileBackend(cfg.Path)
	case "sqlite", "sqlite3":
		b, err = newSQLiteBackend(cfg.Path)
	default:
		return nil, errors.New("unknown store driver: " + driver)
	}
	if err != nil {
		return nil, err
	}
	return New(b, log), nil
}

// New loads the mapping from the backend. A load failure (e.g. corrupt
// snapshot) falls back to an empty mapping and is only logged; the bot
// must still come up.
func New(b Backend, log logx.Logger) *Store {
	if log.IsZero() {
		log = logx.Nop()
	}
	bindings, err := b.Load()
	if err != nil {
		log.Warn("channel store load failed; starting empty", logx.Err(err))
		bindings = nil
	}
	if bindings == nil {
		bindings = map[string]string{}
	}
	return &Store{log: log, backend: b, bindings: bindings}
}

// Get returns the registered target for a tenant.
func (s *Store) Get(tenantID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	target, ok := s.bindings[tenantID]
	return target, ok
}

// Set registers (or overwrites) the target for a tenant and persists the
// full snapshot before returning. Last write wins.
func (s *Store) Set(tenantID, targetID string) error {
	if strings.TrimSpace(tenantID) == "" {
		return errors.New("tenant id is empty")
	}
	if strings.TrimSpace(targetID) == "" {
		return errors.New("target id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]string, len(s.bindings)+1)
	for k, v := range s.bindings {
		next[k] = v
	}
	next[tenantID] = targetID

	if err := s.backend.Save(next); err != nil {
		return err
	}
	s.bindings = next
	return nil
}

// All returns a copy of the current mapping.
func (s *Store) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make(map[string]string, len(s.bindings))
	for k, v := range s.bindings {
		cp[k] = v
	}
	return cp
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bindings)
}

func (s *Store) Close() error {
	return s.backend.Close()
}
