package matcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeGraphFiles(t *testing.T, dir string) (a, b string) {
	t.Helper()
	a = filepath.Join(dir, "a.g")
	b = filepath.Join(dir, "b.g")
	require.NoError(t, os.WriteFile(a, []byte("v 1 \"A\"\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("v 1 \"A\"\n"), 0o644))
	return a, b
}

func TestMatcher_EquivalentWhenExecutableExitsZero(t *testing.T) {
	dir := t.TempDir()
	a, b := writeGraphFiles(t, dir)

	m := New("true", dir, 2)
	eq, err := m.Equivalent(context.Background(), a, b)
	require.NoError(t, err)
	require.True(t, eq)
}

func TestMatcher_NotEquivalentWhenExecutableExitsNonZero(t *testing.T) {
	dir := t.TempDir()
	a, b := writeGraphFiles(t, dir)

	m := New("false", dir, 2)
	eq, err := m.Equivalent(context.Background(), a, b)
	require.NoError(t, err)
	require.False(t, eq)
}

func TestMatcher_MissingInputFileErrors(t *testing.T) {
	dir := t.TempDir()
	m := New("true", dir, 1)
	_, err := m.Equivalent(context.Background(), filepath.Join(dir, "missing-a.g"), filepath.Join(dir, "missing-b.g"))
	require.Error(t, err)
}
