package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "window.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_WindowRoundTrip(t *testing.T) {
	s := openTestStore(t)

	oldest, current, err := s.Window()
	require.NoError(t, err)
	require.Equal(t, 0, oldest)
	require.Equal(t, 0, current)

	require.NoError(t, s.SetWindow(3, 7))
	oldest, current, err = s.Window()
	require.NoError(t, err)
	require.Equal(t, 3, oldest)
	require.Equal(t, 7, current)
}

func TestStore_ElectedRoundTrip(t *testing.T) {
	s := openTestStore(t)

	_, found, err := s.Elected()
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, s.SetElected(ElectedPattern{Partition: 2, Rank: 1, Score: 5}, false))
	p, found, err := s.Elected()
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 2, p.Partition)
	require.Equal(t, 1, p.Rank)
	require.Equal(t, 5, p.Score)

	require.NoError(t, s.SetElected(ElectedPattern{Partition: 4, Rank: 2, Score: 9}, true))
	p, found, err = s.Elected()
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 4, p.Partition)
}

func TestStore_NumAnomRoundTrip(t *testing.T) {
	s := openTestStore(t)

	n, err := s.NumAnom()
	require.NoError(t, err)
	require.Equal(t, 0, n)

	require.NoError(t, s.SetNumAnom(12))
	n, err = s.NumAnom()
	require.NoError(t, err)
	require.Equal(t, 12, n)
}
