package ledger

import (
	"time"

	"github.com/ppiankov/trustfuse/internal/model"
)

// LayeredStore implements a two-layer ledger (memory + archive)
type LayeredStore struct {
	memory Store
	disk   Store
}

// NewLayeredStore creates a layered store
func NewLayeredStore(memoryTTL time.Duration, dir string, diskTTL time.Duration) *LayeredStore {
	return &LayeredStore{
		memory: NewMemoryStore(memoryTTL, 10*time.Minute),
		disk:   NewArchiveStore(dir, diskTTL),
	}
}

// Get checks memory first, then the archive
func (s *LayeredStore) Get(id string) (*model.Judgment, bool) {
	if j, found := s.memory.Get(id); found {
		return j, true
	}

	if j, found := s.disk.Get(id); found {
		// Promote to memory
		_, _ = s.memory.Put(j, 0)
		return j, true
	}

	return nil, false
}

// Put stores a judgment in both layers
func (s *LayeredStore) Put(j *model.Judgment, ttl time.Duration) (string, error) {
	if _, err := s.memory.Put(j, ttl); err != nil {
		return "", err
	}
	return s.disk.Put(j, ttl)
}

// Delete removes a judgment from both layers
func (s *LayeredStore) Delete(id string) error {
	if err := s.memory.Delete(id); err != nil {
		return err
	}
	return s.disk.Delete(id)
}

// Clear removes all judgments from both layers
func (s *LayeredStore) Clear() error {
	if err := s.memory.Clear(); err != nil {
		return err
	}
	return s.disk.Clear()
}
