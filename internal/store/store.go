package store

import (
	"errors"
	"sync"
	"time"

	"github.com/eugenenazirov/pivot/internal/settings"
)

// ErrNilSettings is returned when Set is called without settings.
var ErrNilSettings = errors.New("settings must not be nil")

// ErrEmpty is returned by Get before any settings were stored.
var ErrEmpty = errors.New("no settings loaded")

// Store provides access to the settings currently served.
type Store interface {
	Get() (*settings.Settings, time.Time, error)
	Set(s *settings.Settings) error
}

// MemoryStore keeps the current settings in memory and guards access with
// a RWMutex. Stored values are never mutated, so readers may share them.
type MemoryStore struct {
	mu        sync.RWMutex
	current   *settings.Settings
	updatedAt time.Time
	now       func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Get returns the current settings and the time they were stored.
func (s *MemoryStore) Get() (*settings.Settings, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, time.Time{}, ErrEmpty
	}
	return s.current, s.updatedAt, nil
}

// Set replaces the current settings.
func (s *MemoryStore) Set(next *settings.Settings) error {
	if next == nil {
		return ErrNilSettings
	}

	s.mu.Lock()
	s.current = next
	s.updatedAt = s.now().UTC()
	s.mu.Unlock()

	return nil
}
