package metrics

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "series.db")
	s, err := OpenStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_AppendMeanStdDev(t *testing.T) {
	s := openTestStore(t)

	for p, v := range map[int]float64{1: 2, 2: 4, 3: 6} {
		require.NoError(t, s.Append("connected", p, v))
	}

	mean, err := s.Mean("connected")
	require.NoError(t, err)
	require.InDelta(t, 4.0, mean, 1e-9)

	sd, err := s.StdDev("connected")
	require.NoError(t, err)
	// population stddev of {2,4,6}: sqrt(((2-4)^2+(4-4)^2+(6-4)^2)/3) = sqrt(8/3)
	require.InDelta(t, 1.632993161855, sd, 1e-9)
}

func TestStore_EmptySeriesIsZero(t *testing.T) {
	s := openTestStore(t)

	mean, err := s.Mean("density")
	require.NoError(t, err)
	require.Equal(t, 0.0, mean)

	sd, err := s.StdDev("density")
	require.NoError(t, err)
	require.Equal(t, 0.0, sd)
}

func TestStore_RollEvictsOldestByPartition(t *testing.T) {
	s := openTestStore(t)

	for p := 1; p <= 3; p++ {
		require.NoError(t, s.Roll("eigen", p, float64(p), 2))
	}

	series, err := s.Series("eigen")
	require.NoError(t, err)
	require.Len(t, series, 2)
	require.Equal(t, 2, series[0].Partition)
	require.Equal(t, 3, series[1].Partition)
}

func TestStore_Purge(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Append("cluster", 1, 0.5))
	require.NoError(t, s.Purge("cluster", 1))

	series, err := s.Series("cluster")
	require.NoError(t, err)
	require.Empty(t, series)
}
