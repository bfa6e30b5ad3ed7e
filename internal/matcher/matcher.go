// Package matcher wraps invocations of the external graph-equivalence
// matcher used by the normative and anomaly rankers (C6/C7) to decide
// whether two small substructure graphs are equivalent. Cross-matching a
// window of width W across M ranks is O(W^2 * M^2) matcher subprocesses
// (spec.md §4.6); Matcher bounds how many run concurrently so that a wide
// window does not fork-bomb the host.
package matcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Matcher invokes the external matcher executable, which returns exit code
// 0 iff its two input files are equivalent under the miner's substructure
// semantics (GLOSSARY).
type Matcher struct {
	Executable string
	ScratchDir string
	sem        *semaphore.Weighted
}

// New returns a Matcher bounding concurrent invocations to maxConcurrent.
func New(executable, scratchDir string, maxConcurrent int) *Matcher {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Matcher{
		Executable: executable,
		ScratchDir: scratchDir,
		sem:        semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// Equivalent reports whether fileA and fileB are equivalent under the
// matcher. Each call gets an isolated, uniquely-named scratch directory so
// concurrent invocations never collide on temp file names.
func (m *Matcher) Equivalent(ctx context.Context, fileA, fileB string) (bool, error) {
	if err := m.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("matcher: acquire slot: %w", err)
	}
	defer m.sem.Release(1)

	dir, err := m.stageScratch(fileA, fileB)
	if err != nil {
		return false, err
	}
	defer os.RemoveAll(dir)

	cmd := exec.CommandContext(ctx, m.Executable, dir+"/a.g", dir+"/b.g")
	err = cmd.Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if ok := asExitError(err, &exitErr); ok {
		return false, nil // non-zero exit means "not equivalent", per the matcher's contract.
	}
	return false, fmt.Errorf("matcher: invoking %q: %w", m.Executable, err)
}

func (m *Matcher) stageScratch(fileA, fileB string) (string, error) {
	dir := fmt.Sprintf("%s/match-%s", m.ScratchDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("matcher: scratch dir %q: %w", dir, err)
	}
	if err := copyFile(fileA, dir+"/a.g"); err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	if err := copyFile(fileB, dir+"/b.g"); err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	return dir, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("matcher: open %q: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("matcher: create %q: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("matcher: copy %q -> %q: %w", src, dst, err)
	}
	return nil
}

func asExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if ok {
		*target = ee
	}
	return ok
}
