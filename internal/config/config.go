// Package config parses plads.cfg, the coordinator's whitespace-delimited
// KEY VALUE configuration file.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds every value spec.md §6 requires plads.cfg to carry.
type Config struct {
	// Directory paths.
	GraphInputFilesDir              string
	FilesBeingProcessedDir          string
	ProcessedInputFilesDir          string
	InitialFilesForAnomDetectionDir string
	BestNormativePatternDir         string
	AnomalousSubstructureFilesDir   string
	NormSubstructureFilesDir        string
	OutputFilesDir                  string
	AnomalousOutputFilesDir         string

	// Integers.
	NumPartitions                   int
	NumNormativePatterns            int
	TimeBetweenFileCheck            int
	ChangeDetectionApproach         int
	ThresholdForNumExceededMetrics int

	// Executables.
	GbadExecutable string
	GmExecutable   string
	MetricScripts  map[string]string // metric id -> executable path

	// Miner algorithm parameters, passed through opaquely (spec.md §6).
	Algorithm   string
	Threshold   float64
	ExtraParams [][2]string // up to four (param, value) pairs
	BareParam   string
}

// metricIDs are the seven metric identifiers spec.md §3/§4.2 names.
var metricIDs = []string{"connected", "density", "cluster", "eigen", "community", "triangle", "entropy"}

// Load reads and validates a plads.cfg file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg := &Config{MetricScripts: make(map[string]string)}
	raw := make(map[string]string)

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("config: %s:%d: expected KEY VALUE, got %q", path, lineNo, line)
		}
		key := fields[0]
		// Values may themselves contain whitespace (executable + args); keep the remainder joined.
		raw[key] = strings.Join(fields[1:], " ")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: reading %q: %w", path, err)
	}

	if err := bindDirs(raw, cfg); err != nil {
		return nil, err
	}
	if err := bindInts(raw, cfg); err != nil {
		return nil, err
	}
	if err := bindExecutables(raw, cfg); err != nil {
		return nil, err
	}
	bindMinerParams(raw, cfg)

	return cfg, nil
}

func bindDirs(raw map[string]string, cfg *Config) error {
	dirs := map[string]*string{
		"GRAPH_INPUT_FILES_DIR":                 &cfg.GraphInputFilesDir,
		"FILES_BEING_PROCESSED_DIR":             &cfg.FilesBeingProcessedDir,
		"PROCESSED_INPUT_FILES_DIR":             &cfg.ProcessedInputFilesDir,
		"INITIAL_FILES_FOR_ANOM_DETECTION_DIR":  &cfg.InitialFilesForAnomDetectionDir,
		"BEST_NORMATIVE_PATTERN_DIR":            &cfg.BestNormativePatternDir,
		"ANOMALOUS_SUBSTRUCTURE_FILES_DIR":      &cfg.AnomalousSubstructureFilesDir,
		"NORM_SUBSTRUCTURE_FILES_DIR":           &cfg.NormSubstructureFilesDir,
		"OUTPUT_FILES_DIR":                      &cfg.OutputFilesDir,
		"ANOMALOUS_OUTPUT_FILES_DIR":            &cfg.AnomalousOutputFilesDir,
	}
	for key, dst := range dirs {
		v, ok := raw[key]
		if !ok || v == "" {
			return fmt.Errorf("config: missing required key %s", key)
		}
		*dst = v
	}
	return nil
}

func bindInts(raw map[string]string, cfg *Config) error {
	ints := map[string]*int{
		"NUM_PARTITIONS":                       &cfg.NumPartitions,
		"NUM_NORMATIVE_PATTERNS":               &cfg.NumNormativePatterns,
		"TIME_BETWEEN_FILE_CHECK":              &cfg.TimeBetweenFileCheck,
		"CHANGE_DETECTION_APPROACH":            &cfg.ChangeDetectionApproach,
		"THRESHOLD_FOR_NUM_EXCEEDED_METRICS":   &cfg.ThresholdForNumExceededMetrics,
	}
	for key, dst := range ints {
		v, ok := raw[key]
		if !ok {
			return fmt.Errorf("config: missing required key %s", key)
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s=%q is not an integer: %w", key, v, err)
		}
		*dst = n
	}
	return nil
}

func bindExecutables(raw map[string]string, cfg *Config) error {
	for _, key := range []string{"GBAD_EXECUTABLE", "GM_EXECUTABLE"} {
		v, ok := raw[key]
		if !ok || v == "" {
			return fmt.Errorf("config: missing required key %s", key)
		}
		if key == "GBAD_EXECUTABLE" {
			cfg.GbadExecutable = v
		} else {
			cfg.GmExecutable = v
		}
	}
	for _, metric := range metricIDs {
		key := strings.ToUpper(metric) + "_EXECUTABLE"
		if v, ok := raw[key]; ok {
			cfg.MetricScripts[metric] = v
		}
	}
	return nil
}

func bindMinerParams(raw map[string]string, cfg *Config) {
	cfg.Algorithm = raw["ALGORITHM"]
	if v, ok := raw["THRESHOLD"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Threshold = f
		}
	}
	for i := 1; i <= 4; i++ {
		p, okP := raw[fmt.Sprintf("PARAM%d", i)]
		v, okV := raw[fmt.Sprintf("PARAM%d_VALUE", i)]
		if okP && okV {
			cfg.ExtraParams = append(cfg.ExtraParams, [2]string{p, v})
		}
	}
	cfg.BareParam = raw["BARE_PARAM"]
}
