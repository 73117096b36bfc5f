package metrics

import "time"

// Tracker adapts Metrics to the process package's MetricsSink without
// importing it, keeping the dependency direction one-way.
type Tracker struct {
	m *Metrics
}

// NewTracker wraps a Metrics set for use by the processor.
func NewTracker(m *Metrics) *Tracker {
	return &Tracker{m: m}
}

func (t *Tracker) PerResidueDone(_ string, residues int, elapsed time.Duration) {
	t.m.AggregationsTotal.Inc()
	t.m.AggregationDuration.Observe(elapsed.Seconds())
	t.m.ResiduesPerRun.Observe(float64(residues))
}

func (t *Tracker) DerivationFailed(string) {
	t.m.DerivationFailures.Inc()
}
