package rank

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rpaudel42/plads/internal/matcher"
)

// anomalyTolerance is the equality tolerance spec.md §4.7 step 3 specifies
// for comparing an aggregated score against the running minimum.
const anomalyTolerance = 1e-6

// AnomalyCandidate is one anom_p_k instance and its (possibly aggregated)
// score.
type AnomalyCandidate struct {
	Partition int
	Instance  int
	Path      string
	Score     float64
}

// ReadAnomalyScore reads the leading "% <score>" line of an anom_p_k file.
func ReadAnomalyScore(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("rank: open %q: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return 0, fmt.Errorf("rank: %q: missing score line", path)
	}
	fields := strings.Fields(strings.TrimPrefix(scanner.Text(), "%"))
	if len(fields) != 1 {
		return 0, fmt.Errorf("rank: %q: malformed score line %q", path, scanner.Text())
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("rank: %q: bad score: %w", path, err)
	}
	return v, nil
}

// listAnomalyFiles finds every anom_<p>_<k> file (excluding anomInst_*)
// for p in window, within dir.
func listAnomalyFiles(dir string, window []int) ([]AnomalyCandidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("rank: reading %q: %w", dir, err)
	}
	inWindow := make(map[int]bool, len(window))
	for _, p := range window {
		inWindow[p] = true
	}

	var out []AnomalyCandidate
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "anom_") || strings.HasPrefix(name, "anomInst_") {
			continue
		}
		parts := strings.Split(strings.TrimPrefix(name, "anom_"), "_")
		if len(parts) != 2 {
			continue
		}
		p, err1 := strconv.Atoi(parts[0])
		k, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil || !inWindow[p] {
			continue
		}
		out = append(out, AnomalyCandidate{Partition: p, Instance: k, Path: dir + "/" + name})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Partition != out[j].Partition {
			return out[i].Partition < out[j].Partition
		}
		return out[i].Instance < out[j].Instance
	})
	return out, nil
}

// AnomalyResult is the outcome of one anomaly ranking pass.
type AnomalyResult struct {
	MinScore       float64
	MostAnomalous  []AnomalyCandidate
	All            []AnomalyCandidate
}

// Rank runs the anomaly ranker (C7, spec.md §4.7) over every anom_p_k file
// in window within dir.
//
// Unlike the normative ranker, matching here is permissive: for each
// candidate, *every* other (p', k') in the window that matches contributes
// its score, not just the first per partition (spec.md §4.7 step 2,
// preserved asymmetrically per the Open Question in spec.md §9).
//
// The "most anomalous" set is rebuilt from scratch during a single linear
// sweep in (partition, instance) order: the running minimum and its tied
// members are whatever the sweep has accumulated by the time it finishes,
// not a union carried across separate calls to Rank (spec.md §4.7 step 3
// and §9's Open Question — preserved as observed, not "fixed").
func Rank(ctx context.Context, m *matcher.Matcher, dir string, window []int) (AnomalyResult, error) {
	candidates, err := listAnomalyFiles(dir, window)
	if err != nil {
		return AnomalyResult{}, err
	}
	if len(candidates) == 0 {
		return AnomalyResult{}, nil // "no anomalies this round" — not fatal (spec.md §7).
	}

	for i := range candidates {
		v, err := ReadAnomalyScore(candidates[i].Path)
		if err != nil {
			return AnomalyResult{}, err
		}
		candidates[i].Score = v
	}

	// Snapshot the self-reported scores before aggregating: every goroutine
	// below reads other candidates' baseline scores, so the baseline must
	// stay immutable while aggregation runs concurrently.
	baseline := make([]float64, len(candidates))
	for i, c := range candidates {
		baseline[i] = c.Score
	}
	extras := make([]float64, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	for i := range candidates {
		i := i
		g.Go(func() error {
			extra, err := aggregateAgainstAll(gctx, m, candidates, baseline, i)
			if err != nil {
				return err
			}
			extras[i] = extra
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return AnomalyResult{}, err
	}
	for i := range candidates {
		candidates[i].Score = baseline[i] + extras[i]
	}

	minScore := candidates[0].Score
	mostAnomalous := []AnomalyCandidate{candidates[0]}
	for _, c := range candidates[1:] {
		switch {
		case c.Score < minScore-anomalyTolerance:
			minScore = c.Score
			mostAnomalous = []AnomalyCandidate{c}
		case math.Abs(c.Score-minScore) <= anomalyTolerance:
			mostAnomalous = append(mostAnomalous, c)
		}
	}

	return AnomalyResult{MinScore: minScore, MostAnomalous: mostAnomalous, All: candidates}, nil
}

// aggregateAgainstAll adds the score of every other candidate that matches
// candidates[i] under m (spec.md §4.7 step 2 — all ranks, all other
// partitions, no early stop).
func aggregateAgainstAll(ctx context.Context, m *matcher.Matcher, candidates []AnomalyCandidate, baseline []float64, i int) (float64, error) {
	var total float64
	self := candidates[i]
	for j, other := range candidates {
		if j == i {
			continue
		}
		eq, err := m.Equivalent(ctx, self.Path, other.Path)
		if err != nil {
			return 0, err
		}
		if eq {
			total += baseline[j]
		}
	}
	return total, nil
}
