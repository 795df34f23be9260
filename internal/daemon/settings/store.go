package settings

import (
	"fmt"
	"sync"

	"github.com/driftbox/driftbox/internal/daemon/kv"
)

const settingsKey = "sync.settings"

// Store owns the singleton Settings. All reads go through Get snapshots and
// all mutations through Update, which persists before returning.
type Store struct {
	kv      *kv.Store
	mu      sync.Mutex
	current *Settings
}

// NewStore loads persisted settings or falls back to defaults.
func NewStore(store *kv.Store) (*Store, error) {
	current := Default()
	ok, err := store.GetJSON(settingsKey, current)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	current.Clamp()

	s := &Store{kv: store, current: current}
	if !ok {
		// first run, persist defaults
		if err := store.SetJSON(settingsKey, current); err != nil {
			return nil, fmt.Errorf("persist default settings: %w", err)
		}
	}
	return s, nil
}

// Get returns a snapshot of the current settings.
func (s *Store) Get() *Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.clone()
}

// Update applies fn to the settings under the store lock, clamps the result
// and persists it. The read-modify-write never tears under concurrent access.
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.clone()
	fn(next)
	next.Clamp()

	if err := s.kv.SetJSON(settingsKey, next); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}
	s.current = next
	return nil
}
