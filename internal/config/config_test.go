package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeCfg(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "plads.cfg")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const sampleCfg = `
// sample plads.cfg
GRAPH_INPUT_FILES_DIR                 /tmp/intake
FILES_BEING_PROCESSED_DIR             /tmp/being-processed
PROCESSED_INPUT_FILES_DIR             /tmp/processed
INITIAL_FILES_FOR_ANOM_DETECTION_DIR  /tmp/initial-anom
BEST_NORMATIVE_PATTERN_DIR            /tmp/best
ANOMALOUS_SUBSTRUCTURE_FILES_DIR      /tmp/anom
NORM_SUBSTRUCTURE_FILES_DIR           /tmp/norm
OUTPUT_FILES_DIR                      /tmp/out
ANOMALOUS_OUTPUT_FILES_DIR            /tmp/anom-out

NUM_PARTITIONS                        3
NUM_NORMATIVE_PATTERNS                2
TIME_BETWEEN_FILE_CHECK               5
CHANGE_DETECTION_APPROACH             9
THRESHOLD_FOR_NUM_EXCEEDED_METRICS    2

GBAD_EXECUTABLE                       /usr/bin/gbad
GM_EXECUTABLE                         /usr/bin/gm
CONNECTED_EXECUTABLE                  /usr/bin/connected.sh
ENTROPY_EXECUTABLE                    /usr/bin/entropy.sh

ALGORITHM                             sub
THRESHOLD                             0.1
PARAM1                                iterations
PARAM1_VALUE                          5
BARE_PARAM                            -verbose
`

func TestLoad_ParsesAllSections(t *testing.T) {
	path := writeCfg(t, sampleCfg)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "/tmp/intake", cfg.GraphInputFilesDir)
	require.Equal(t, "/tmp/anom-out", cfg.AnomalousOutputFilesDir)
	require.Equal(t, 3, cfg.NumPartitions)
	require.Equal(t, 2, cfg.NumNormativePatterns)
	require.Equal(t, 9, cfg.ChangeDetectionApproach)
	require.Equal(t, "/usr/bin/gbad", cfg.GbadExecutable)
	require.Equal(t, "/usr/bin/connected.sh", cfg.MetricScripts["connected"])
	require.Equal(t, "/usr/bin/entropy.sh", cfg.MetricScripts["entropy"])
	require.NotContains(t, cfg.MetricScripts, "density")
	require.Equal(t, "sub", cfg.Algorithm)
	require.InDelta(t, 0.1, cfg.Threshold, 1e-9)
	require.Equal(t, [][2]string{{"iterations", "5"}}, cfg.ExtraParams)
	require.Equal(t, "-verbose", cfg.BareParam)
}

func TestLoad_MissingRequiredDirFails(t *testing.T) {
	path := writeCfg(t, "NUM_PARTITIONS 3\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_UnparsableIntFails(t *testing.T) {
	body := sampleCfg + "\nNUM_PARTITIONS not-a-number\n"
	path := writeCfg(t, body)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.cfg"))
	require.Error(t, err)
}
