package process

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"mdpost/internal/importance"
)

// MetricsSink receives processing telemetry. The metrics package
// provides the Prometheus-backed implementation; tests use NopSink.
type MetricsSink interface {
	PerResidueDone(source string, residues int, elapsed time.Duration)
	DerivationFailed(source string)
}

// NopSink discards all telemetry.
type NopSink struct{}

func (NopSink) PerResidueDone(string, int, time.Duration) {}
func (NopSink) DerivationFailed(string)                   {}

// Processor projects importance sources onto the per-residue scale.
type Processor struct {
	opts importance.Options
	sink MetricsSink
}

// New builds a Processor. sink may be nil.
func New(opts importance.Options, sink MetricsSink) *Processor {
	if sink == nil {
		sink = NopSink{}
	}
	return &Processor{opts: opts, sink: sink}
}

// PerResidue extracts the source's importances and aggregates them onto
// residues.
func (p *Processor) PerResidue(src Source) (*importance.ResidueResult, error) {
	start := time.Now()

	fi, ranked, err := src.Importances()
	if err != nil {
		p.sink.DerivationFailed(src.Name())
		return nil, err
	}

	res, err := importance.AggregateToResidues(fi, ranked, p.opts)
	if err != nil {
		p.sink.DerivationFailed(src.Name())
		return nil, fmt.Errorf("%s: %w", src.Name(), err)
	}

	elapsed := time.Since(start)
	p.sink.PerResidueDone(src.Name(), len(res.Scores), elapsed)
	log.Info().
		Str("source", src.Name()).
		Int("features", len(fi)).
		Int("residues", len(res.Scores)).
		Dur("elapsed", elapsed).
		Msg("Projected feature importances onto residues")
	return res, nil
}

// TopFeatures returns the n highest-ranked features of a source with
// their scores, in ranked order. n beyond the available features clamps
// to all of them.
func (p *Processor) TopFeatures(src Source, n int) ([]string, importance.FeatureImportance, error) {
	if n < 1 {
		return nil, nil, fmt.Errorf("%w: feature count %d", ErrInvalidSelection, n)
	}

	fi, ranked, err := src.Importances()
	if err != nil {
		return nil, nil, err
	}
	if n > len(ranked) {
		n = len(ranked)
	}

	top := make(importance.FeatureImportance, n)
	names := make([]string, n)
	for i := 0; i < n; i++ {
		names[i] = ranked[i]
		top[ranked[i]] = fi[ranked[i]]
	}
	return names, top, nil
}
