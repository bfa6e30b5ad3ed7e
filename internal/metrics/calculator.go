package metrics

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rpaudel42/plads/internal/graphfile"
)

// connectednessScale and entropyScale are the load-bearing scale factors
// spec.md §4.2 calls out: mean/stddev comparisons in the decider happen in
// this scaled domain, so the transform is irreversible by design and must
// be applied before a value ever reaches the series store (spec.md §9 Open
// Questions — "preserve for fidelity").
const (
	connectednessScale = 1000.0
	entropyScale       = 100.0
)

// Calculator drives the external per-metric scripts configured in
// plads.cfg, keyed by metric identifier.
type Calculator struct {
	Scripts map[string]string // metric id -> executable path
	WorkDir string            // scratch directory for side files and script output
}

// NewCalculator builds a Calculator from the configured script paths.
func NewCalculator(scripts map[string]string, workDir string) *Calculator {
	return &Calculator{Scripts: scripts, WorkDir: workDir}
}

// Compute runs every enabled metric for partition id against graphPath and
// returns their (already scaled where applicable) values, keyed by metric
// id. Density never invokes an external script — it is derived directly
// from the vertex/edge counts of the same pass that produces the side files
// (spec.md §4.2).
func (c *Calculator) Compute(graphPath string, id int) (map[string]float64, error) {
	counts, sides, err := graphfile.Read(graphPath, c.WorkDir, id)
	if err != nil {
		return nil, fmt.Errorf("calculator: reading graph %q: %w", graphPath, err)
	}
	defer sides.Remove()

	values := map[string]float64{"density": counts.Density}

	for _, metric := range IDs {
		if metric == "density" {
			continue
		}
		script, ok := c.Scripts[metric]
		if !ok {
			continue // metric not enabled in this deployment
		}
		v, err := c.runScript(metric, script, sides, id)
		if err != nil {
			return nil, err
		}
		switch metric {
		case "connected":
			v *= connectednessScale
		case "entropy":
			v *= entropyScale
		}
		values[metric] = v
	}
	return values, nil
}

// runScript invokes the external script for one metric and reads its
// single-line numeric result from "<metric>_<id>.txt" in WorkDir, per
// spec.md §4.2's temp-file naming convention.
func (c *Calculator) runScript(metric, script string, sides graphfile.SideFiles, id int) (float64, error) {
	outPath := fmt.Sprintf("%s/%s_%d.txt", c.WorkDir, metric, id)
	defer os.Remove(outPath)

	inputPath := sides.EdgesPath
	if metric == "entropy" {
		inputPath = sides.EdgesCSVPath
	}

	cmd := exec.Command(script, sides.VerticesPath, inputPath, outPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return 0, fmt.Errorf("calculator: %s script %q failed: %w (output: %s)", metric, script, err, string(out))
	}

	f, err := os.Open(outPath)
	if err != nil {
		return 0, fmt.Errorf("calculator: %s script did not produce %q: %w", metric, outPath, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return 0, fmt.Errorf("calculator: %s output %q is empty", metric, outPath)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(scanner.Text()), 64)
	if err != nil {
		return 0, fmt.Errorf("calculator: %s output %q is not numeric: %w", metric, outPath, err)
	}
	return v, nil
}
