package graphfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleGraph = `
% a comment line
v 1 "A"
v 2 "B"
v 3 "C"
e 1 2 "edge1"
e 2 3 "edge2" % trailing comment
u 1 3 "edge3"
`

func TestRead_CountsAndDensity(t *testing.T) {
	dir := t.TempDir()
	graphPath := filepath.Join(dir, "g1.g")
	require.NoError(t, os.WriteFile(graphPath, []byte(sampleGraph), 0o644))

	counts, sides, err := Read(graphPath, dir, 7)
	require.NoError(t, err)
	defer sides.Remove()

	require.Equal(t, 3, counts.Vertices)
	require.Equal(t, 3, counts.Edges)
	require.InDelta(t, float64(3)/9.0, counts.Density, 1e-9)

	vdata, err := os.ReadFile(sides.VerticesPath)
	require.NoError(t, err)
	require.Equal(t, "1\n2\n3\n", string(vdata))

	edata, err := os.ReadFile(sides.EdgesPath)
	require.NoError(t, err)
	require.Equal(t, "1 2\n2 3\n1 3\n", string(edata))

	ecsv, err := os.ReadFile(sides.EdgesCSVPath)
	require.NoError(t, err)
	require.Equal(t, "1,2\n2,3\n1,3\n", string(ecsv))
}

func TestRead_EmptyGraphHasZeroDensity(t *testing.T) {
	dir := t.TempDir()
	graphPath := filepath.Join(dir, "empty.g")
	require.NoError(t, os.WriteFile(graphPath, []byte("% nothing here\n"), 0o644))

	counts, sides, err := Read(graphPath, dir, 1)
	require.NoError(t, err)
	defer sides.Remove()

	require.Equal(t, 0, counts.Vertices)
	require.Equal(t, 0, counts.Edges)
	require.Equal(t, 0.0, counts.Density)
}

func TestStripComment_QuotedPercentIsPreserved(t *testing.T) {
	require.Equal(t, `v 1 "100%"`, stripComment(`v 1 "100%"`))
	require.Equal(t, "v 1 ", stripComment("v 1 % comment"))
}

func TestSideFiles_RemoveIsIdempotent(t *testing.T) {
	sides := Paths(t.TempDir(), 1)
	sides.Remove()
	sides.Remove() // must not panic on already-absent files
}
