package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/trustfuse/internal/model"
)

const archiveExt = ".json"

// ArchiveStore keeps one JSON file per judgment in a directory
type ArchiveStore struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewArchiveStore creates an archive rooted at dir. A ttl of 0 keeps entries
// forever.
func NewArchiveStore(dir string, ttl time.Duration) *ArchiveStore {
	return &ArchiveStore{
		dir: dir,
		ttl: ttl,
		now: time.Now,
	}
}

type archiveEntry struct {
	ID        string          `json:"id"`
	Judgment  *model.Judgment `json:"judgment"`
	StoredAt  time.Time       `json:"stored_at"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

// Get reads a judgment. Expired or corrupt files and files whose content no
// longer hashes to their id (seals included) are treated as missing.
func (s *ArchiveStore) Get(id string) (*model.Judgment, bool) {
	if checkID(id) != nil {
		return nil, false
	}
	path := s.path(id)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry archiveEntry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Judgment == nil {
		return nil, false
	}

	if entry.ExpiresAt != nil && s.now().After(*entry.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false
	}

	if ID(entry.Judgment) != id {
		return nil, false
	}

	return entry.Judgment, true
}

// Put writes a judgment and returns its id
func (s *ArchiveStore) Put(j *model.Judgment, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = s.ttl
	}

	id := ID(j)
	now := s.now().UTC()
	entry := archiveEntry{
		ID:       id,
		Judgment: j,
		StoredAt: now,
	}
	if ttl > 0 {
		expires := now.Add(ttl)
		entry.ExpiresAt = &expires
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal entry: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create ledger dir: %w", err)
	}

	if err := os.WriteFile(s.path(id), data, 0644); err != nil {
		return "", fmt.Errorf("write ledger file: %w", err)
	}

	return id, nil
}

// Delete removes a judgment. Deleting a missing id is not an error.
func (s *ArchiveStore) Delete(id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes the archive directory
func (s *ArchiveStore) Clear() error {
	return os.RemoveAll(s.dir)
}

// List returns the ids of all archived judgments in ascending order
func (s *ArchiveStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read ledger dir: %w", err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, archiveExt) {
			continue
		}
		id := strings.TrimSuffix(name, archiveExt)
		if checkID(id) == nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// path generates the file path for a judgment id
func (s *ArchiveStore) path(id string) string {
	return filepath.Join(s.dir, id+archiveExt)
}
