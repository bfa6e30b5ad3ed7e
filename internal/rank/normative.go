// Package rank implements the cross-partition normative ranker (C6) and
// anomaly ranker (C7): folding every (partition, rank) or (partition,
// instance) artifact in the current window through the external matcher to
// find the globally best normative pattern and the most anomalous group.
package rank

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rpaudel42/plads/internal/matcher"
)

// NormativeHeader is the parsed form of a norm_p_r file's first two lines
// (spec.md §6): "% <sourceGraphFileName>" then "% <size> <numInstances>".
type NormativeHeader struct {
	Source       string
	Size         int
	NumInstances int
}

// ReadNormativeHeader reads and parses the two header lines of a norm_p_r
// file without reading the substructure graph body.
func ReadNormativeHeader(path string) (NormativeHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return NormativeHeader{}, fmt.Errorf("rank: open %q: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var h NormativeHeader
	if !scanner.Scan() {
		return NormativeHeader{}, fmt.Errorf("rank: %q: missing header line 1", path)
	}
	h.Source = strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "%"))

	if !scanner.Scan() {
		return NormativeHeader{}, fmt.Errorf("rank: %q: missing header line 2", path)
	}
	fields := strings.Fields(strings.TrimPrefix(scanner.Text(), "%"))
	if len(fields) != 2 {
		return NormativeHeader{}, fmt.Errorf("rank: %q: malformed size/instances line %q", path, scanner.Text())
	}
	h.Size, err = strconv.Atoi(fields[0])
	if err != nil {
		return NormativeHeader{}, fmt.Errorf("rank: %q: bad size: %w", path, err)
	}
	h.NumInstances, err = strconv.Atoi(fields[1])
	if err != nil {
		return NormativeHeader{}, fmt.Errorf("rank: %q: bad numInstances: %w", path, err)
	}
	return h, nil
}

// Candidate is one scored (partition, rank) normative tuple.
type Candidate struct {
	Partition int
	Rank      int
	Path      string
	Header    NormativeHeader
	Score     int
}

// Result is the outcome of one normative ranking pass.
type Result struct {
	Winner  Candidate
	Ranked  []Candidate // all candidates found in the window, in scan order
}

// Elect runs the normative ranker (C6, spec.md §4.6) over partitions
// window (ascending, inclusive range already expanded by the caller) and
// ranks 1..numRanks, reading norm_<p>_<r> from dir.
//
// Per other-partition p', only the *first* rank r' whose file matches
// under m contributes its score — scanning stops at the first match
// (spec.md §4.6 step 2, preserved asymmetrically against the anomaly
// ranker per the Open Question in spec.md §9).
func Elect(ctx context.Context, m *matcher.Matcher, dir string, window []int, numRanks int) (Result, error) {
	var candidates []Candidate
	for _, p := range window {
		for r := 1; r <= numRanks; r++ {
			path := fmt.Sprintf("%s/norm_%d_%d", dir, p, r)
			if _, err := os.Stat(path); err != nil {
				continue // missing artifact: scan continues (spec.md §7).
			}
			h, err := ReadNormativeHeader(path)
			if err != nil {
				return Result{}, err
			}
			candidates = append(candidates, Candidate{
				Partition: p, Rank: r, Path: path, Header: h,
				Score: h.Size * h.NumInstances,
			})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range candidates {
		i := i
		g.Go(func() error {
			extra, err := scoreAgainstOthers(gctx, m, dir, candidates[i], window, numRanks)
			if err != nil {
				return err
			}
			candidates[i].Score += extra
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	if len(candidates) == 0 {
		return Result{}, fmt.Errorf("rank: no normative candidates found in window")
	}

	winner := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > winner.Score {
			winner = c
		}
		// Ties broken by scan order: since candidates is already built in
		// ascending (partition, rank) order, keeping the first max found
		// (strictly-greater comparison above) is exactly "earlier
		// partition, then earlier rank" (spec.md §4.6 step 3).
	}

	return Result{Winner: winner, Ranked: candidates}, nil
}

// scoreAgainstOthers implements spec.md §4.6 step 2 for one candidate: for
// every other partition in the window, scan ranks 1..numRanks in order and
// add the score of the first matching norm_p'_r'; skip p' entirely if no
// rank matches.
func scoreAgainstOthers(ctx context.Context, m *matcher.Matcher, dir string, c Candidate, window []int, numRanks int) (int, error) {
	total := 0
	for _, p2 := range window {
		if p2 == c.Partition {
			continue
		}
		for r2 := 1; r2 <= numRanks; r2++ {
			path2 := fmt.Sprintf("%s/norm_%d_%d", dir, p2, r2)
			if _, err := os.Stat(path2); err != nil {
				continue
			}
			eq, err := m.Equivalent(ctx, c.Path, path2)
			if err != nil {
				return 0, err
			}
			if eq {
				h2, err := ReadNormativeHeader(path2)
				if err != nil {
					return 0, err
				}
				total += h2.Size * h2.NumInstances
				break // first match per other-partition wins.
			}
		}
	}
	return total, nil
}

// WriteBestSub copies winner's substructure body (the file minus its two
// header lines, spec.md §4.6 step 3) to bestSubPath.
func WriteBestSub(winner Candidate, bestSubPath string) error {
	src, err := os.Open(winner.Path)
	if err != nil {
		return fmt.Errorf("rank: open %q: %w", winner.Path, err)
	}
	defer src.Close()

	scanner := bufio.NewScanner(src)
	scanner.Scan() // header line 1
	scanner.Scan() // header line 2

	dst, err := os.Create(bestSubPath)
	if err != nil {
		return fmt.Errorf("rank: create %q: %w", bestSubPath, err)
	}
	defer dst.Close()

	w := bufio.NewWriter(dst)
	for scanner.Scan() {
		if _, err := w.WriteString(scanner.Text() + "\n"); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return fmt.Errorf("rank: reading %q: %w", winner.Path, err)
	}
	return w.Flush()
}

// sortedWindow is a small helper kept for callers that build window ranges
// from an (oldest, current) pair rather than an explicit slice.
func sortedWindow(oldest, current int) []int {
	w := make([]int, 0, current-oldest+1)
	for p := oldest; p <= current; p++ {
		w = append(w, p)
	}
	sort.Ints(w)
	return w
}

// Window returns the ascending partition ordinals in [oldest, current].
func Window(oldest, current int) []int {
	return sortedWindow(oldest, current)
}
