package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string, mtime time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestClaimOldest_PicksSmallestModTime(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	touch(t, dir, "b.g", now.Add(2*time.Second))
	touch(t, dir, "a.g", now)
	touch(t, dir, "c.g", now.Add(1*time.Second))

	name, ok, err := ClaimOldest(dir)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a.g", name)
}

func TestClaimOldest_EmptyDirIsNotFoundNotError(t *testing.T) {
	dir := t.TempDir()
	name, ok, err := ClaimOldest(dir)
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, name)
}

func TestMoveFile_MovesBetweenDirectories(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	touch(t, src, "p.g", time.Now())

	require.NoError(t, MoveFile("p.g", src, dst))

	_, err := os.Stat(filepath.Join(src, "p.g"))
	require.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(dst, "p.g"))
	require.NoError(t, err)
}

func TestMoveFile_MissingSourceErrors(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	err := MoveFile("missing.g", src, dst)
	require.Error(t, err)
}
