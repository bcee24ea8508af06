package ledger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/trustfuse/internal/model"
)

func testJudgment(t *testing.T, source string) *model.Judgment {
	t.Helper()
	j, err := model.NewJudgment(0.7, 0.2, 0.1, model.NewEntry(source, "2024-01-01T00:00:00Z"))
	require.NoError(t, err)
	return j
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore(0, time.Minute)
	j := testJudgment(t, "s1")

	id, err := s.Put(j, 0)
	require.NoError(t, err)
	assert.Equal(t, ID(j), id)
	assert.Equal(t, 1, s.Len())

	got, ok := s.Get(id)
	require.True(t, ok)
	assert.True(t, got.Equal(j, 0))

	require.NoError(t, s.Delete(id))
	_, ok = s.Get(id)
	assert.False(t, ok)

	_, _ = s.Put(j, 0)
	require.NoError(t, s.Clear())
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore(time.Hour, time.Minute)
	j := testJudgment(t, "s1")

	id, err := s.Put(j, time.Millisecond)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, ok := s.Get(id)
	assert.False(t, ok)
}

func TestArchiveStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewArchiveStore(dir, 0)

	fused, err := model.NewJudgment(0.5, 0.5, 0,
		model.NewEntry("s1", "2024-01-01T00:00:00Z"),
		model.NewDescribedEntry("fusion-cawa", "2024-01-02T00:00:00Z", "test").WithSeal("ab"),
	)
	require.NoError(t, err)

	id, err := s.Put(fused, 0)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, id+".json"))

	got, ok := s.Get(id)
	require.True(t, ok)
	assert.True(t, got.Equal(fused, 0))

	seal, ok := got.Seal()
	require.True(t, ok)
	assert.Equal(t, "ab", seal)

	ids, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)
}

func TestArchiveStore_Expiry(t *testing.T) {
	s := NewArchiveStore(t.TempDir(), time.Hour)
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	id, err := s.Put(testJudgment(t, "s1"), 0)
	require.NoError(t, err)

	_, ok := s.Get(id)
	assert.True(t, ok)

	current = current.Add(2 * time.Hour)
	_, ok = s.Get(id)
	assert.False(t, ok)
	assert.NoFileExists(t, s.path(id))
}

func TestArchiveStore_RejectsTampered(t *testing.T) {
	dir := t.TempDir()
	s := NewArchiveStore(dir, 0)
	a := testJudgment(t, "s1")
	b := testJudgment(t, "s2")

	idA, err := s.Put(a, 0)
	require.NoError(t, err)
	idB, err := s.Put(b, 0)
	require.NoError(t, err)

	// Swap the content of one file for the other
	data, err := os.ReadFile(s.path(idB))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.path(idA), data, 0644))

	_, ok := s.Get(idA)
	assert.False(t, ok)
}

func sealedJudgment(t *testing.T, seal string) *model.Judgment {
	t.Helper()
	j, err := model.NewJudgment(0.8, 0.1, 0.1,
		model.NewEntry("s1", "2024-01-01T00:00:00Z"),
		model.NewEntry("s2", "2024-01-01T00:00:00Z"),
		model.NewDescribedEntry("fusion-optimistic", "2024-01-02T00:00:00Z", "fused").WithSeal(seal),
	)
	require.NoError(t, err)
	return j
}

func TestStores_KeepJudgmentsDifferingOnlyBySeal(t *testing.T) {
	stores := map[string]Store{
		"memory":  NewMemoryStore(0, time.Minute),
		"archive": NewArchiveStore(t.TempDir(), 0),
		"layered": NewLayeredStore(0, t.TempDir(), 0),
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			first := sealedJudgment(t, strings.Repeat("a", 64))
			second := sealedJudgment(t, strings.Repeat("b", 64))

			id1, err := s.Put(first, 0)
			require.NoError(t, err)
			id2, err := s.Put(second, 0)
			require.NoError(t, err)
			require.NotEqual(t, id1, id2)

			got, ok := s.Get(id1)
			require.True(t, ok)
			seal, _ := got.Seal()
			assert.Equal(t, strings.Repeat("a", 64), seal)

			got, ok = s.Get(id2)
			require.True(t, ok)
			seal, _ = got.Seal()
			assert.Equal(t, strings.Repeat("b", 64), seal)
		})
	}
}

func TestArchiveStore_RejectsEditedSeal(t *testing.T) {
	s := NewArchiveStore(t.TempDir(), 0)

	id, err := s.Put(sealedJudgment(t, strings.Repeat("a", 64)), 0)
	require.NoError(t, err)

	data, err := os.ReadFile(s.path(id))
	require.NoError(t, err)
	edited := bytes.Replace(data, []byte(strings.Repeat("a", 64)), []byte(strings.Repeat("c", 64)), 1)
	require.NotEqual(t, data, edited)
	require.NoError(t, os.WriteFile(s.path(id), edited, 0644))

	_, ok := s.Get(id)
	assert.False(t, ok)
}

func TestArchiveStore_InvalidIDs(t *testing.T) {
	s := NewArchiveStore(t.TempDir(), 0)

	_, ok := s.Get("../../etc/passwd")
	assert.False(t, ok)
	assert.ErrorIs(t, s.Delete("../x"), ErrInvalidID)

	ids, err := NewArchiveStore(filepath.Join(t.TempDir(), "missing"), 0).List()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestLayeredStore_Promotes(t *testing.T) {
	dir := t.TempDir()
	j := testJudgment(t, "s1")

	writer := NewLayeredStore(time.Hour, dir, 0)
	id, err := writer.Put(j, 0)
	require.NoError(t, err)

	// A fresh store only has the archive populated
	reader := NewLayeredStore(time.Hour, dir, 0)
	got, ok := reader.Get(id)
	require.True(t, ok)
	assert.True(t, got.Equal(j, 0))

	_, ok = reader.memory.Get(id)
	assert.True(t, ok)

	require.NoError(t, reader.Delete(id))
	_, ok = reader.Get(id)
	assert.False(t, ok)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "trustfuse:v1:abc", Key("abc"))
}
