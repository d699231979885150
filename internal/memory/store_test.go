package memory

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "memory.txt"))
}

func TestAddAndList(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Add("User prefers metric units"))
	require.NoError(t, s.Add("Birthday is March 3rd"))

	notes, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"User prefers metric units", "Birthday is March 3rd"}, notes)
}

func TestAddFlattensNewlines(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Add("first part\nsecond part"))

	notes, err := s.List()
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "first part second part", notes[0])
}

func TestAddEmptyRejected(t *testing.T) {
	s := newTestStore(t)
	assert.Error(t, s.Add("   "))
}

func TestDeleteAllMatches(t *testing.T) {
	s := newTestStore(t)
	for _, note := range []string{
		"Coffee order: flat white",
		"Coffee budget: 20 euro",
		"Tea preference: green",
	} {
		require.NoError(t, s.Add(note))
	}

	removed, err := s.Delete("COFFEE")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	notes, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"Tea preference: green"}, notes)
}

func TestDeleteNoMatch(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Add("something"))

	removed, err := s.Delete("missing")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestListMissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	notes, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, notes)
}
