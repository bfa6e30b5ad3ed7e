// Package decide implements the change-detection decider (C8, spec.md
// §4.8): given the latest metric values and their rolling statistics,
// decide whether normative-pattern rediscovery is required.
package decide

import (
	"math"

	"github.com/rpaudel42/plads/internal/metrics"
)

// Approach selects which change-detection mode to apply.
type Approach int

const (
	// ApproachAlways always rediscovers (mode 0).
	ApproachAlways Approach = 0
	// ApproachAllMetrics uses all seven metrics, triggering on a threshold
	// count of one-sided crossings (mode 9).
	ApproachAllMetrics Approach = 9
)

// MetricObservation is one metric's newest value alongside its rolling
// mean/stddev from the series store, as they stood *before* this value was
// rolled in.
type MetricObservation struct {
	Metric string
	Value  float64
	Mean   float64
	StdDev float64
}

// Exceeds reports the one-sided test spec.md §4.8 specifies: a sharp
// *increase* triggers, a sharp decrease does not.
func (o MetricObservation) Exceeds() bool {
	return (o.Value - o.Mean) > o.StdDev
}

// Decide applies the configured approach to observations and reports
// whether rediscovery is required. observations is keyed by metric ID, not
// position, since a metric with no configured script is simply absent from
// the map rather than shifting the others' indices.
//
// Modes 1..7 select a single metric by name, looking up metrics.IDs[approach-1]
// in observations (1-based); any single-metric mode funnels through the same
// "count vs threshold" branch as mode 9 by pinning the count to a value that
// always trips the threshold once its one metric exceeds — a quirk spec.md
// §4.8 calls out explicitly and this preserves rather than simplifies away.
func Decide(approach int, threshold int, observations map[string]MetricObservation) bool {
	switch {
	case approach == int(ApproachAlways):
		return true
	case approach == int(ApproachAllMetrics):
		count := 0
		for _, o := range observations {
			if o.Exceeds() {
				count++
			}
		}
		return count >= threshold
	case approach >= 1 && approach <= 7:
		idx := approach - 1
		if idx >= len(metrics.IDs) {
			return false
		}
		o, ok := observations[metrics.IDs[idx]]
		if !ok || !o.Exceeds() {
			return false
		}
		// Single-metric modes always trip the threshold once their one
		// metric exceeds: pin the count arbitrarily high instead of
		// branching differently from mode 9 (spec.md §4.8).
		count := math.MaxInt
		return count >= threshold
	default:
		return true // unrecognized approach behaves as mode 0.
	}
}
