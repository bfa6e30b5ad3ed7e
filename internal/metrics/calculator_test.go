package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeFixedScript writes a shell script that ignores its input arguments and
// writes a constant value to its third (output) argument, standing in for a
// real metric calculator executable.
func writeFixedScript(t *testing.T, dir, name string, value float64) string {
	t.Helper()
	path := filepath.Join(dir, name)
	body := fmt.Sprintf("#!/bin/sh\necho %v > \"$3\"\n", value)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}

const calcGraph = `
v 1 "A"
v 2 "B"
v 3 "C"
e 1 2 "edge1"
e 2 3 "edge2"
`

func TestCalculator_ComputeAppliesScaling(t *testing.T) {
	dir := t.TempDir()
	graphPath := filepath.Join(dir, "g.g")
	require.NoError(t, os.WriteFile(graphPath, []byte(calcGraph), 0o644))

	connectedScript := writeFixedScript(t, dir, "connected.sh", 0.5)
	entropyScript := writeFixedScript(t, dir, "entropy.sh", 0.25)

	calc := NewCalculator(map[string]string{
		"connected": connectedScript,
		"entropy":   entropyScript,
	}, dir)

	values, err := calc.Compute(graphPath, 1)
	require.NoError(t, err)

	require.InDelta(t, float64(2)/9.0, values["density"], 1e-9)
	require.InDelta(t, 0.5*connectednessScale, values["connected"], 1e-9)
	require.InDelta(t, 0.25*entropyScale, values["entropy"], 1e-9)
	require.NotContains(t, values, "cluster")
}

func TestCalculator_ScriptFailurePropagates(t *testing.T) {
	dir := t.TempDir()
	graphPath := filepath.Join(dir, "g.g")
	require.NoError(t, os.WriteFile(graphPath, []byte(calcGraph), 0o644))

	failScript := filepath.Join(dir, "fail.sh")
	require.NoError(t, os.WriteFile(failScript, []byte("#!/bin/sh\nexit 1\n"), 0o755))

	calc := NewCalculator(map[string]string{"cluster": failScript}, dir)

	_, err := calc.Compute(graphPath, 1)
	require.Error(t, err)
}
