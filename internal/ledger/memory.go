package ledger

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/trustfuse/internal/model"
)

// MemoryStore keeps judgments in memory with per-entry expiry
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates a memory store. A defaultTTL of 0 keeps entries
// until they are deleted.
func NewMemoryStore(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryStore {
	if defaultTTL == 0 {
		defaultTTL = gocache.NoExpiration
	}
	return &MemoryStore{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a judgment by id
func (s *MemoryStore) Get(id string) (*model.Judgment, bool) {
	if val, found := s.cache.Get(Key(id)); found {
		return val.(*model.Judgment), true
	}
	return nil, false
}

// Put stores a judgment and returns its id. Judgments are immutable, so the
// pointer is shared rather than copied. A ttl of 0 uses the store default.
func (s *MemoryStore) Put(j *model.Judgment, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	id := ID(j)
	s.cache.Set(Key(id), j, ttl)
	return id, nil
}

// Delete removes a judgment
func (s *MemoryStore) Delete(id string) error {
	s.cache.Delete(Key(id))
	return nil
}

// Clear removes all judgments
func (s *MemoryStore) Clear() error {
	s.cache.Flush()
	return nil
}

// Len returns the number of stored judgments, including expired ones not yet
// cleaned up
func (s *MemoryStore) Len() int {
	return s.cache.ItemCount()
}
