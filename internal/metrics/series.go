// Package metrics implements the per-metric rolling series store (C3) and
// the driver that invokes the external metric calculators (C2/§4.2).
package metrics

import (
	"database/sql"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver, side-effect only.
)

// IDs lists the seven metric identifiers spec.md §3 names.
var IDs = []string{"connected", "density", "cluster", "eigen", "community", "triangle", "entropy"}

// Sample is one (partition, value) point of a metric series.
type Sample struct {
	Partition int
	Value     float64
}

// Store is the SQLite-backed metric series store. Each enabled metric gets
// an ordered, window-bounded sequence of samples; mean and population
// stddev are computed on demand from the rows currently in the window
// (spec.md §4.3 — a missing/empty series is treated as mean=0, stddev=0).
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if absent) the SQLite database at path and
// ensures the series table exists.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("metrics: open store %q: %w", path, err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS series (
	metric    TEXT    NOT NULL,
	partition INTEGER NOT NULL,
	value     REAL    NOT NULL,
	PRIMARY KEY (metric, partition)
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("metrics: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append records a new sample for metric without enforcing the window
// bound. Used by S0 Bootstrap, which fills the window from empty.
func (s *Store) Append(metric string, partition int, value float64) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO series (metric, partition, value) VALUES (?, ?, ?)`,
		metric, partition, value,
	)
	if err != nil {
		return fmt.Errorf("metrics: append %s[%d]=%v: %w", metric, partition, value, err)
	}
	return nil
}

// Roll appends (partition, value) and, if the series now exceeds window,
// evicts the oldest-partition rows until exactly window remain (spec.md
// §4.3's roll operation — the window width equals NUM_PARTITIONS).
func (s *Store) Roll(metric string, partition int, value float64, window int) error {
	if err := s.Append(metric, partition, value); err != nil {
		return err
	}
	_, err := s.db.Exec(`
DELETE FROM series
WHERE metric = ? AND partition NOT IN (
	SELECT partition FROM series WHERE metric = ? ORDER BY partition DESC LIMIT ?
)`, metric, metric, window)
	if err != nil {
		return fmt.Errorf("metrics: roll %s: %w", metric, err)
	}
	return nil
}

// Purge removes the sample for (metric, partition), used when a partition
// slides out of the window and its artifacts are purged (spec.md §3
// invariants).
func (s *Store) Purge(metric string, partition int) error {
	_, err := s.db.Exec(`DELETE FROM series WHERE metric = ? AND partition = ?`, metric, partition)
	return err
}

// Series returns the current window's samples for metric, ordered by
// partition ascending. An absent metric yields an empty slice, not an error.
func (s *Store) Series(metric string) ([]Sample, error) {
	rows, err := s.db.Query(`SELECT partition, value FROM series WHERE metric = ? ORDER BY partition ASC`, metric)
	if err != nil {
		return nil, fmt.Errorf("metrics: series %s: %w", metric, err)
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var sm Sample
		if err := rows.Scan(&sm.Partition, &sm.Value); err != nil {
			return nil, fmt.Errorf("metrics: scan %s: %w", metric, err)
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

// Mean returns the arithmetic mean of metric's current window, or 0 if the
// series is empty (spec.md §4.3 — "a missing file is treated as mean=0").
func (s *Store) Mean(metric string) (float64, error) {
	samples, err := s.Series(metric)
	if err != nil {
		return 0, err
	}
	return mean(samples), nil
}

// StdDev returns the *population* standard deviation of metric's current
// window (spec.md §4.3 — explicitly population, not sample; preserved per
// the Open Question in spec.md §9), or 0 if the series is empty.
func (s *Store) StdDev(metric string) (float64, error) {
	samples, err := s.Series(metric)
	if err != nil {
		return 0, err
	}
	return stddev(samples), nil
}

func mean(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, sm := range samples {
		sum += sm.Value
	}
	return sum / float64(len(samples))
}

func stddev(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	mu := mean(samples)
	var sumSq float64
	for _, sm := range samples {
		d := sm.Value - mu
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(samples)))
}
