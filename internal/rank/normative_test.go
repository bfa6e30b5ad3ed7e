package rank

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpaudel42/plads/internal/matcher"
)

func writeNormFile(t *testing.T, dir, name, source string, size, numInstances int) {
	t.Helper()
	body := "% " + source + "\n% " + strconv.Itoa(size) + " " + strconv.Itoa(numInstances) + "\nv 1 \"A\"\nv 2 \"B\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestReadNormativeHeader_ParsesBothLines(t *testing.T) {
	dir := t.TempDir()
	writeNormFile(t, dir, "norm_1_1", "p1.g", 2, 3)

	h, err := ReadNormativeHeader(filepath.Join(dir, "norm_1_1"))
	require.NoError(t, err)
	require.Equal(t, "p1.g", h.Source)
	require.Equal(t, 2, h.Size)
	require.Equal(t, 3, h.NumInstances)
}

func TestElect_TieBreaksByScanOrder(t *testing.T) {
	dir := t.TempDir()
	writeNormFile(t, dir, "norm_1_1", "p1.g", 2, 3) // self score 6
	writeNormFile(t, dir, "norm_2_1", "p2.g", 1, 1) // self score 1

	m := matcher.New("true", dir, 2)
	result, err := Elect(context.Background(), m, dir, []int{1, 2}, 1)
	require.NoError(t, err)

	// Both candidates end up tied at 7 once cross-matched (6+1 and 1+6);
	// ties resolve to the earlier partition in scan order.
	require.Equal(t, 1, result.Winner.Partition)
	require.Equal(t, 7, result.Winner.Score)
}

func TestElect_NoCrossMatchKeepsSelfScoreOnly(t *testing.T) {
	dir := t.TempDir()
	writeNormFile(t, dir, "norm_1_1", "p1.g", 2, 3) // self score 6
	writeNormFile(t, dir, "norm_2_1", "p2.g", 1, 1) // self score 1

	m := matcher.New("false", dir, 2)
	result, err := Elect(context.Background(), m, dir, []int{1, 2}, 1)
	require.NoError(t, err)

	require.Equal(t, 1, result.Winner.Partition)
	require.Equal(t, 6, result.Winner.Score)
}

func TestElect_NoCandidatesErrors(t *testing.T) {
	dir := t.TempDir()
	m := matcher.New("true", dir, 1)
	_, err := Elect(context.Background(), m, dir, []int{1}, 1)
	require.Error(t, err)
}

func TestWriteBestSub_StripsHeaderLines(t *testing.T) {
	dir := t.TempDir()
	writeNormFile(t, dir, "norm_1_1", "p1.g", 2, 3)

	m := matcher.New("false", dir, 1)
	result, err := Elect(context.Background(), m, dir, []int{1}, 1)
	require.NoError(t, err)

	bestSubPath := filepath.Join(dir, "bestSub.g")
	require.NoError(t, WriteBestSub(result.Winner, bestSubPath))

	data, err := os.ReadFile(bestSubPath)
	require.NoError(t, err)
	require.Equal(t, "v 1 \"A\"\nv 2 \"B\"\n", string(data))
}

func TestWindow_BuildsAscendingRange(t *testing.T) {
	require.Equal(t, []int{2, 3, 4}, Window(2, 4))
}
