// Package watcher implements C1: picking the oldest unclaimed file out of
// the intake directory and moving files atomically between the
// coordinator's staging directories.
package watcher

import (
	"fmt"
	"os"

	pool "github.com/Emeline-1/pool"
)

// ClaimOldest scans dir and returns the name of the entry with the
// smallest modification time, skipping "." and ".." (spec.md §4.1). Ties
// are broken by the order entries were encountered in the directory
// listing. ok is false when dir contains no claimable entry — the caller
// is expected to sleep TIME_BETWEEN_FILE_CHECK seconds and retry; this is
// the one explicitly transient, non-fatal condition in C1 (spec.md §7).
func ClaimOldest(dir string) (name string, ok bool, err error) {
	files := pool.Get_directory_files(dir)
	if files == nil {
		return "", false, fmt.Errorf("watcher: listing %q failed", dir)
	}

	var oldestName string
	var oldestMod int64
	found := false
	for _, entry := range *files {
		if entry == "." || entry == ".." {
			continue
		}
		info, statErr := os.Stat(dir + "/" + entry)
		if statErr != nil {
			continue // entry vanished between listing and stat; skip it.
		}
		mtime := info.ModTime().UnixNano()
		if !found || mtime < oldestMod {
			oldestName, oldestMod, found = entry, mtime, true
		}
	}
	if !found {
		return "", false, nil
	}
	return oldestName, true, nil
}

// MoveFile performs an atomic rename of name from srcDir to dstDir. Any
// outcome other than success is fatal for the partition being moved
// (spec.md §4.1, §3 Lifecycle — "Failure to move a file is fatal").
func MoveFile(name, srcDir, dstDir string) error {
	src := srcDir + "/" + name
	dst := dstDir + "/" + name
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("watcher: move %q -> %q: %w", src, dst, err)
	}
	return nil
}
