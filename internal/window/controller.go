// Package window implements C9: the outer state machine that drives a
// PLADS coordinator through bootstrap and then forever through the
// steady-state S1 (Idle) .. S7 (Report) cycle over a sliding window of
// partition ordinals (spec.md §4.9).
package window

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/rpaudel42/plads/internal/artifact"
	"github.com/rpaudel42/plads/internal/config"
	"github.com/rpaudel42/plads/internal/decide"
	"github.com/rpaudel42/plads/internal/matcher"
	"github.com/rpaudel42/plads/internal/metrics"
	"github.com/rpaudel42/plads/internal/miner"
	"github.com/rpaudel42/plads/internal/rank"
	"github.com/rpaudel42/plads/internal/store"
	"github.com/rpaudel42/plads/internal/watcher"
	"github.com/rpaudel42/plads/internal/workerpool"
)

const bestSubName = "bestSub.g"

// Controller owns the coordinator's sliding window [oldest, current] and
// every subsystem the S0..S7 passes drive.
type Controller struct {
	cfg    *config.Config
	log    *zap.Logger
	series *metrics.Store
	calc   *metrics.Calculator
	drv    *miner.Driver
	match  *matcher.Matcher
	pool   *workerpool.Pool
	win    *store.Store

	oldest, current int
	numAnom         int
	changeMicros    int64

	// processedNames remembers each live partition's original intake file
	// name so a later S4/S6 anomaly re-run can recover that partition's
	// graph from ProcessedInputFilesDir — anomaly mode takes no graph-file
	// argument (spec.md §4.5), so whichever partition isn't freshly staged
	// this pass still needs its archived file staged back in.
	processedNames map[int]string
}

// New builds a Controller from its configured subsystems.
func New(cfg *config.Config, log *zap.Logger, series *metrics.Store, calc *metrics.Calculator, drv *miner.Driver, match *matcher.Matcher, pool *workerpool.Pool, win *store.Store) *Controller {
	return &Controller{
		cfg:            cfg,
		log:            log,
		series:         series,
		calc:           calc,
		drv:            drv,
		match:          match,
		pool:           pool,
		win:            win,
		processedNames: make(map[int]string),
	}
}

func (c *Controller) partitionDir(root string, partition int) string {
	return filepath.Join(root, fmt.Sprintf("p%d", partition))
}

func (c *Controller) bestSubPath() string {
	return filepath.Join(c.cfg.BestNormativePatternDir, bestSubName)
}

// claimNext blocks the caller's goroutine only for the duration of one
// directory listing; the transient "nothing to claim" case is reported via
// ok=false so S1's idle loop can sleep and retry without treating it as an
// error (spec.md §7).
func (c *Controller) claimNext(ctx context.Context, dstRoot string, partition int) (graphPath string, ok bool, err error) {
	name, found, err := watcher.ClaimOldest(c.cfg.GraphInputFilesDir)
	if err != nil {
		return "", false, fmt.Errorf("window: claim: %w", err)
	}
	if !found {
		return "", false, nil
	}

	dir := c.partitionDir(dstRoot, partition)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("window: mkdir %q: %w", dir, err)
	}
	if err := watcher.MoveFile(name, c.cfg.GraphInputFilesDir, dir); err != nil {
		return "", false, err
	}
	c.log.Info("claimed partition file", zap.Int("partition", partition), zap.String("file", name))
	return filepath.Join(dir, name), true, nil
}

// measure computes every configured metric for partition against
// graphPath, returning the values keyed by metric id.
func (c *Controller) measure(graphPath string, partition int) (map[string]float64, error) {
	start := time.Now()
	values, err := c.calc.Compute(graphPath, partition)
	c.changeMicros += time.Since(start).Microseconds()
	if err != nil {
		return nil, fmt.Errorf("window: measuring partition %d: %w", partition, err)
	}
	if err := c.writeChangeDetectionValue(); err != nil {
		c.log.Warn("failed to persist changeDetectionValue.txt", zap.Error(err))
	}
	return values, nil
}

func (c *Controller) writeChangeDetectionValue() error {
	path := filepath.Join(c.cfg.OutputFilesDir, "changeDetectionValue.txt")
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", c.changeMicros)), 0o644)
}

func (c *Controller) writeNumAnom() error {
	path := filepath.Join(c.cfg.OutputFilesDir, "numanom.txt")
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", c.numAnom)), 0o644)
}

// Bootstrap runs S0: fills the window [1, N] from the intake directory,
// mining and ranking once over the whole initial window (spec.md §4.9 S0).
func (c *Controller) Bootstrap(ctx context.Context) error {
	n := c.cfg.NumPartitions
	c.oldest, c.current = 1, n
	c.log.Info("S0 bootstrap starting", zap.Int("numPartitions", n))

	graphPaths := make(map[int]string, n)
	for p := 1; p <= n; p++ {
		var graphPath string
		for {
			var ok bool
			var err error
			graphPath, ok, err = c.claimNext(ctx, c.cfg.FilesBeingProcessedDir, p)
			if err != nil {
				return err
			}
			if ok {
				break
			}
			if err := sleepOrDone(ctx, c.cfg.TimeBetweenFileCheck); err != nil {
				return err
			}
		}
		graphPaths[p] = graphPath
		c.processedNames[p] = filepath.Base(graphPath)

		values, err := c.measure(graphPath, p)
		if err != nil {
			return err
		}
		for metric, v := range values {
			if err := c.series.Append(metric, p, v); err != nil {
				return fmt.Errorf("window: bootstrap append %s[%d]: %w", metric, p, err)
			}
		}

		cmd := c.drv.NormativeCmd(miner.NormativeInput{
			Partition: p, GraphFile: graphPath, NumNormative: c.cfg.NumNormativePatterns,
			WorkDir: c.partitionDir(c.cfg.FilesBeingProcessedDir, p),
		})
		if err := c.pool.Spawn(ctx, cmd); err != nil {
			return fmt.Errorf("window: spawn normative miner for partition %d: %w", p, err)
		}
	}

	if err := c.pool.AwaitAll(ctx); err != nil {
		return fmt.Errorf("window: bootstrap normative mining: %w", err)
	}
	c.pool.Reset()

	for p := 1; p <= n; p++ {
		input := miner.NormativeInput{Partition: p, NumNormative: c.cfg.NumNormativePatterns, WorkDir: c.partitionDir(c.cfg.FilesBeingProcessedDir, p)}
		produced := miner.ProducedNormatives(input)
		if err := c.moveArtifacts(produced, input.WorkDir, c.cfg.NormSubstructureFilesDir); err != nil {
			return err
		}
	}

	window := rank.Window(c.oldest, c.current)
	elected, err := rank.Elect(ctx, c.match, c.cfg.NormSubstructureFilesDir, window, c.cfg.NumNormativePatterns)
	if err != nil {
		return fmt.Errorf("window: bootstrap normative election: %w", err)
	}
	c.log.Info("normative pattern elected", zap.Int("partition", elected.Winner.Partition), zap.Int("rank", elected.Winner.Rank), zap.Int("score", elected.Winner.Score))

	if err := os.MkdirAll(c.cfg.BestNormativePatternDir, 0o755); err != nil {
		return err
	}
	if err := rank.WriteBestSub(elected.Winner, c.bestSubPath()); err != nil {
		return fmt.Errorf("window: archiving bestSub.g: %w", err)
	}
	if err := c.win.SetElected(store.ElectedPattern{Partition: elected.Winner.Partition, Rank: elected.Winner.Rank, Score: elected.Winner.Score, ElectedAt: time.Now().UTC()}, false); err != nil {
		c.log.Warn("failed to persist elected pattern", zap.Error(err))
	}

	for p := 1; p <= n; p++ {
		stageDir := c.partitionDir(c.cfg.InitialFilesForAnomDetectionDir, p)
		if err := os.MkdirAll(stageDir, 0o755); err != nil {
			return err
		}
		if err := c.moveArtifacts([]string{filepath.Base(graphPaths[p])}, c.partitionDir(c.cfg.FilesBeingProcessedDir, p), stageDir); err != nil {
			return err
		}

		cmd := c.drv.AnomalyCmd(miner.AnomalyInput{
			Partition: p, NormativeRank: elected.Winner.Rank, NormativeFile: c.bestSubPath(),
			Algorithm: c.cfg.Algorithm, Threshold: c.cfg.Threshold, NumNormative: c.cfg.NumNormativePatterns,
			ExtraParams: c.cfg.ExtraParams, BareParam: c.cfg.BareParam, WorkDir: stageDir,
		})
		if err := c.pool.Spawn(ctx, cmd); err != nil {
			return fmt.Errorf("window: spawn anomaly miner for partition %d: %w", p, err)
		}
	}
	if err := c.pool.AwaitAll(ctx); err != nil {
		return fmt.Errorf("window: bootstrap anomaly mining: %w", err)
	}
	c.pool.Reset()

	total := 0
	for p := 1; p <= n; p++ {
		stageDir := c.partitionDir(c.cfg.InitialFilesForAnomDetectionDir, p)
		input := miner.AnomalyInput{Partition: p, WorkDir: stageDir}
		outputs, err := miner.ProducedAnomalies(input)
		if err != nil {
			return fmt.Errorf("window: reading bootstrap anomaly output for partition %d: %w", p, err)
		}
		total += len(outputs)
		names := make([]string, 0, len(outputs)*2)
		for _, o := range outputs {
			names = append(names, o.AnomFile, o.InstFile)
		}
		if err := c.moveArtifacts(names, stageDir, c.cfg.AnomalousSubstructureFilesDir); err != nil {
			return err
		}
		if err := os.Rename(filepath.Join(stageDir, filepath.Base(graphPaths[p])), filepath.Join(c.cfg.ProcessedInputFilesDir, filepath.Base(graphPaths[p]))); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("window: archiving processed partition %d: %w", p, err)
		}
	}
	c.numAnom = total
	if err := c.win.SetNumAnom(c.numAnom); err != nil {
		c.log.Warn("failed to persist numanom counter", zap.Error(err))
	}
	if err := c.writeNumAnom(); err != nil {
		c.log.Warn("failed to write numanom.txt", zap.Error(err))
	}

	anomResult, err := rank.Rank(ctx, c.match, c.cfg.AnomalousSubstructureFilesDir, window)
	if err != nil {
		return fmt.Errorf("window: bootstrap anomaly ranking: %w", err)
	}
	if err := c.writeReport(anomResult); err != nil {
		c.log.Warn("failed to write anomaly report", zap.Error(err))
	}
	if err := c.win.SetWindow(c.oldest, c.current); err != nil {
		c.log.Warn("failed to persist window bounds", zap.Error(err))
	}

	c.log.Info("S0 bootstrap complete", zap.Int("oldest", c.oldest), zap.Int("current", c.current), zap.Int("numAnom", c.numAnom))
	return nil
}

// Run loops S1..S7 until ctx is cancelled (e.g. by SIGINT/SIGTERM), per the
// graceful-shutdown addition over the original's unconditional infinite
// loop (spec.md §6 CLI; SPEC_FULL.md supplemented-features item 3).
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			c.log.Info("window controller stopping", zap.Error(ctx.Err()))
			return nil
		default:
		}

		graphPath, decided, err := c.idleAndMeasure(ctx)
		if err != nil {
			return err
		}
		if !decided {
			continue // S1 found nothing; loop back to S1.
		}

		if err := c.decideAndMine(ctx, graphPath); err != nil {
			return err
		}
	}
}

// idleAndMeasure runs S1 Idle: it claims the next intake file, advances the
// window and purges the partition that slid out. Measuring the new
// partition (S2) happens in decideAndMine. It returns decided=false when S1
// found nothing this pass (stay in S1).
func (c *Controller) idleAndMeasure(ctx context.Context) (graphPath string, decided bool, err error) {
	leaving := c.oldest
	newPartition := c.current + 1

	graphPath, ok, err := c.claimNext(ctx, c.cfg.FilesBeingProcessedDir, newPartition)
	if err != nil {
		return "", false, err
	}
	if !ok {
		if err := sleepOrDone(ctx, c.cfg.TimeBetweenFileCheck); err != nil {
			return "", false, err
		}
		return "", false, nil
	}

	c.oldest, c.current = leaving+1, newPartition
	c.processedNames[newPartition] = filepath.Base(graphPath)
	c.log.Info("S1->S2: new partition claimed", zap.Int("oldest", c.oldest), zap.Int("current", c.current))

	if err := c.purgePartition(leaving); err != nil {
		return "", false, err
	}

	return graphPath, true, nil
}

// decideAndMine runs S2 Measure's observation capture, then S3..S7 for the
// partition just claimed into the window.
func (c *Controller) decideAndMine(ctx context.Context, graphPath string) error {
	p := c.current

	observations := make(map[string]decide.MetricObservation, len(metrics.IDs))
	values, err := c.measure(graphPath, p)
	if err != nil {
		return err
	}
	for _, metric := range metrics.IDs {
		v, ok := values[metric]
		if !ok {
			continue
		}
		// Capture mean/stddev as they stand *before* rolling this sample in
		// (spec.md §9 Open Question — the decider compares the new sample
		// against the window's prior statistics, not the post-roll ones).
		priorMean, err := c.series.Mean(metric)
		if err != nil {
			return err
		}
		priorStdDev, err := c.series.StdDev(metric)
		if err != nil {
			return err
		}
		// Keyed by metric name so an unconfigured metric is simply absent
		// rather than shifting every later metric's position (decide.Decide's
		// single-metric modes look up metrics.IDs[approach-1] by name).
		observations[metric] = decide.MetricObservation{Metric: metric, Value: v, Mean: priorMean, StdDev: priorStdDev}

		if err := c.series.Roll(metric, p, v, c.cfg.NumPartitions); err != nil {
			return fmt.Errorf("window: rolling %s[%d]: %w", metric, p, err)
		}
	}

	rediscover := decide.Decide(c.cfg.ChangeDetectionApproach, c.cfg.ThresholdForNumExceededMetrics, observations)
	c.log.Info("S3 decide", zap.Int("partition", p), zap.Bool("rediscover", rediscover), zap.Int("approach", c.cfg.ChangeDetectionApproach))

	if rediscover {
		return c.rediscover(ctx, graphPath, p)
	}
	return c.skipRediscover(ctx, graphPath, p)
}

// rediscover implements S4 (and its S5 fallthrough): mine normative
// patterns for the new partition, re-elect across the full window, and
// fan out anomaly mining either to the whole window (pattern changed) or
// just the new partition (pattern unchanged).
func (c *Controller) rediscover(ctx context.Context, graphPath string, p int) error {
	workDir := c.partitionDir(c.cfg.FilesBeingProcessedDir, p)
	cmd := c.drv.NormativeCmd(miner.NormativeInput{Partition: p, GraphFile: graphPath, NumNormative: c.cfg.NumNormativePatterns, WorkDir: workDir})
	if err := c.pool.Spawn(ctx, cmd); err != nil {
		return fmt.Errorf("window: spawn rediscovery miner for partition %d: %w", p, err)
	}
	if err := c.pool.AwaitAll(ctx); err != nil {
		return fmt.Errorf("window: rediscovery mining partition %d: %w", p, err)
	}
	c.pool.Reset()

	input := miner.NormativeInput{Partition: p, NumNormative: c.cfg.NumNormativePatterns, WorkDir: workDir}
	produced := miner.ProducedNormatives(input)
	if err := c.moveArtifacts(produced, workDir, c.cfg.NormSubstructureFilesDir); err != nil {
		return err
	}

	window := rank.Window(c.oldest, c.current)
	elected, err := rank.Elect(ctx, c.match, c.cfg.NormSubstructureFilesDir, window, c.cfg.NumNormativePatterns)
	if err != nil {
		return fmt.Errorf("window: re-election for partition %d: %w", p, err)
	}

	candidatePath := filepath.Join(c.cfg.FilesBeingProcessedDir, fmt.Sprintf("candidate_%d.g", p))
	if err := rank.WriteBestSub(elected.Winner, candidatePath); err != nil {
		return err
	}
	defer os.Remove(candidatePath)

	same, err := c.match.Equivalent(ctx, candidatePath, c.bestSubPath())
	if err != nil {
		return fmt.Errorf("window: comparing re-elected pattern for partition %d: %w", p, err)
	}

	c.log.Info("S4 rediscover", zap.Int("partition", p), zap.Bool("patternUnchanged", same), zap.Int("electedPartition", elected.Winner.Partition), zap.Int("electedRank", elected.Winner.Rank))

	if !same {
		if err := os.Rename(candidatePath, c.bestSubPath()); err != nil {
			return fmt.Errorf("window: replacing bestSub.g: %w", err)
		}
		if err := c.win.SetElected(store.ElectedPattern{Partition: elected.Winner.Partition, Rank: elected.Winner.Rank, Score: elected.Winner.Score, ElectedAt: time.Now().UTC()}, true); err != nil {
			c.log.Warn("failed to persist elected pattern", zap.Error(err))
		}
		// S5: every partition in the window re-runs anomaly mining against
		// the newly replaced pattern.
		return c.runAnomalyMining(ctx, window, elected.Winner.Rank, map[int]string{p: graphPath})
	}

	// S4's "same" branch: only the new partition re-runs anomaly mining,
	// same as S6's skip-rediscover action.
	return c.runAnomalyMining(ctx, []int{p}, elected.Winner.Rank, map[int]string{p: graphPath})
}

// skipRediscover implements S6: the decider said no rediscovery is needed,
// so only the new partition mines anomalies against the already-archived
// pattern.
func (c *Controller) skipRediscover(ctx context.Context, graphPath string, p int) error {
	elected, _, err := c.win.Elected()
	if err != nil {
		return fmt.Errorf("window: reading elected pattern: %w", err)
	}
	c.log.Info("S6 skip-rediscover", zap.Int("partition", p))
	return c.runAnomalyMining(ctx, []int{p}, elected.Rank, map[int]string{p: graphPath})
}

// runAnomalyMining stages each partition's graph file into the
// anomaly-mining staging area, spawns an anomaly job against the archived
// bestSub.g for every partition in partitions, awaits them, moves the
// resulting artifacts into the holding area, recomputes the cumulative
// numanom counter across the window, and runs S7's anomaly ranking pass.
func (c *Controller) runAnomalyMining(ctx context.Context, partitions []int, normativeRank int, freshGraphs map[int]string) error {
	stageDirs := make(map[int]string, len(partitions))
	for _, p := range partitions {
		stageDir := c.partitionDir(c.cfg.InitialFilesForAnomDetectionDir, p)
		if err := os.MkdirAll(stageDir, 0o755); err != nil {
			return err
		}
		stageDirs[p] = stageDir

		if graphPath, ok := freshGraphs[p]; ok {
			if err := watcher.MoveFile(filepath.Base(graphPath), filepath.Dir(graphPath), stageDir); err != nil {
				return err
			}
		} else if name, ok := c.processedNames[p]; ok {
			// This partition isn't part of this pass's fresh claim (only the
			// new partition gets one); it last finished processing and its
			// graph lives in the archive. Anomaly mode takes no graph-file
			// argument (spec.md §4.5), so stage a copy back alongside it.
			if err := copyFile(filepath.Join(c.cfg.ProcessedInputFilesDir, name), filepath.Join(stageDir, name)); err != nil {
				return fmt.Errorf("window: staging archived graph for partition %d: %w", p, err)
			}
		}

		cmd := c.drv.AnomalyCmd(miner.AnomalyInput{
			Partition: p, NormativeRank: normativeRank, NormativeFile: c.bestSubPath(),
			Algorithm: c.cfg.Algorithm, Threshold: c.cfg.Threshold, NumNormative: c.cfg.NumNormativePatterns,
			ExtraParams: c.cfg.ExtraParams, BareParam: c.cfg.BareParam, WorkDir: stageDir,
		})
		if err := c.pool.Spawn(ctx, cmd); err != nil {
			return fmt.Errorf("window: spawn anomaly miner for partition %d: %w", p, err)
		}
	}
	if err := c.pool.AwaitAll(ctx); err != nil {
		return fmt.Errorf("window: anomaly mining: %w", err)
	}
	c.pool.Reset()

	anomIx, err := artifact.Build(c.cfg.AnomalousSubstructureFilesDir)
	if err != nil {
		return fmt.Errorf("window: indexing anomalous substructure dir: %w", err)
	}
	for _, p := range partitions {
		stageDir := stageDirs[p]
		outputs, err := miner.ProducedAnomalies(miner.AnomalyInput{Partition: p, WorkDir: stageDir})
		if err != nil {
			return fmt.Errorf("window: reading anomaly output for partition %d: %w", p, err)
		}
		names := make([]string, 0, len(outputs)*2)
		for _, o := range outputs {
			names = append(names, o.AnomFile, o.InstFile)
		}

		// A re-mined partition already has anom_p_*/anomInst_p_* from its
		// prior election in the holding dir; purge them before restaging so
		// a re-mine that yields fewer instances doesn't leave orphaned
		// higher-k files behind for recountNumAnom/rank.Rank to double-count
		// (spec.md §3 — purge before any new file with the same prefix).
		for _, prefix := range []string{fmt.Sprintf("anom_%d_", p), fmt.Sprintf("anomInst_%d_", p)} {
			if err := anomIx.Purge(prefix); err != nil {
				return fmt.Errorf("window: purging stale anomaly artifacts for partition %d: %w", p, err)
			}
		}

		if err := c.moveArtifacts(names, stageDir, c.cfg.AnomalousSubstructureFilesDir); err != nil {
			return err
		}
		if graphPath, ok := freshGraphs[p]; ok {
			dst := filepath.Join(c.cfg.ProcessedInputFilesDir, filepath.Base(graphPath))
			if err := os.Rename(filepath.Join(stageDir, filepath.Base(graphPath)), dst); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("window: archiving processed partition %d: %w", p, err)
			}
		}
	}

	if err := c.recountNumAnom(); err != nil {
		return err
	}

	window := rank.Window(c.oldest, c.current)
	result, err := rank.Rank(ctx, c.match, c.cfg.AnomalousSubstructureFilesDir, window)
	if err != nil {
		return fmt.Errorf("window: S7 anomaly ranking: %w", err)
	}
	if err := c.writeReport(result); err != nil {
		c.log.Warn("failed to write anomaly report", zap.Error(err))
	}
	if err := c.win.SetWindow(c.oldest, c.current); err != nil {
		c.log.Warn("failed to persist window bounds", zap.Error(err))
	}
	return nil
}

// recountNumAnom totals anom_<p>_* files across the current window via a
// prefix-filtered directory listing (spec.md §9 design note: replace
// probing k=1..K with a listing filtered by prefix) rather than threading a
// running delta through every mining branch.
func (c *Controller) recountNumAnom() error {
	ix, err := artifact.Build(c.cfg.AnomalousSubstructureFilesDir)
	if err != nil {
		return fmt.Errorf("window: indexing anomalous substructure dir: %w", err)
	}
	total := 0
	for p := c.oldest; p <= c.current; p++ {
		matches := ix.WithPrefix(fmt.Sprintf("anom_%d_", p))
		for _, name := range matches {
			if !isInstanceFile(name) {
				total++
			}
		}
	}
	c.numAnom = total
	if err := c.win.SetNumAnom(c.numAnom); err != nil {
		c.log.Warn("failed to persist numanom counter", zap.Error(err))
	}
	return c.writeNumAnom()
}

func isInstanceFile(name string) bool {
	return len(name) >= 9 && name[:9] == "anomInst_"
}

// purgePartition removes every norm_<p>_*/anom_<p>_*/anomInst_<p>_* artifact
// and metric sample for the partition sliding out of the window (spec.md §3
// invariants, §8 testable property on holding-area ordinals).
func (c *Controller) purgePartition(p int) error {
	for _, dir := range []string{c.cfg.NormSubstructureFilesDir, c.cfg.AnomalousSubstructureFilesDir} {
		ix, err := artifact.Build(dir)
		if err != nil {
			return fmt.Errorf("window: indexing %q for purge: %w", dir, err)
		}
		c.log.Debug("purge pass prefix groups", zap.String("dir", dir), zap.Int("groups", ix.GroupCount()))
		for _, prefix := range []string{fmt.Sprintf("norm_%d_", p), fmt.Sprintf("anom_%d_", p), fmt.Sprintf("anomInst_%d_", p)} {
			if err := ix.Purge(prefix); err != nil {
				return fmt.Errorf("window: purging %q: %w", prefix, err)
			}
		}
	}
	for _, metric := range metrics.IDs {
		if err := c.series.Purge(metric, p); err != nil {
			return fmt.Errorf("window: purging series %s[%d]: %w", metric, p, err)
		}
	}
	delete(c.processedNames, p)
	return nil
}

// moveArtifacts moves each named file from srcDir to dstDir, creating
// dstDir if needed. A name that never materialized (e.g. a miner producing
// fewer than M normative patterns) is skipped rather than treated as an
// error (spec.md §7 — missing expected artifacts are non-fatal).
func (c *Controller) moveArtifacts(names []string, srcDir, dstDir string) error {
	if len(names) == 0 {
		return nil
	}
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("window: mkdir %q: %w", dstDir, err)
	}
	for _, name := range names {
		if _, err := os.Stat(filepath.Join(srcDir, name)); err != nil {
			continue
		}
		if err := watcher.MoveFile(name, srcDir, dstDir); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) writeReport(result rank.AnomalyResult) error {
	if err := os.MkdirAll(c.cfg.AnomalousOutputFilesDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(c.cfg.AnomalousOutputFilesDir, "report.txt")
	if len(result.MostAnomalous) == 0 {
		c.log.Info("no anomalous substructures to report")
		return os.WriteFile(path, []byte("No anomalous substructures to report.\n"), 0o644)
	}

	var body string
	body += fmt.Sprintf("Most anomalous set (score=%.6f):\n", result.MinScore)
	for _, cand := range result.MostAnomalous {
		body += fmt.Sprintf("  partition=%d instance=%d score=%.6f\n", cand.Partition, cand.Instance, cand.Score)
		c.log.Info("anomalous instance reported", zap.Int("partition", cand.Partition), zap.Int("instance", cand.Instance), zap.Float64("score", cand.Score))
	}
	return os.WriteFile(path, []byte(body), 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("window: open %q: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("window: create %q: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("window: copy %q -> %q: %w", src, dst, err)
	}
	return nil
}

func sleepOrDone(ctx context.Context, seconds int) error {
	if seconds <= 0 {
		seconds = 1
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(seconds) * time.Second):
		return nil
	}
}
