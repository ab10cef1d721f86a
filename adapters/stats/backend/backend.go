// Package backend is the statistical backend that turns an outcome's data
// collections into significance tests and per-collection summaries.
package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"wiastat/domain/comparison"
	"wiastat/domain/core"
	"wiastat/ports"
)

// Backend selects tests by data type, collection count and pairing:
//
//	continuous, 2 collections, paired:   paired t-test, Wilcoxon signed-rank
//	continuous, 2 collections:           Welch t-test, Mann-Whitney U
//	continuous, 3 or more collections:   one-way ANOVA, Kruskal-Wallis H
//	discrete:                            chi-square test of independence
//
// The first test that can be computed is the primary one.
type Backend struct {
	logger *zap.Logger
}

var _ ports.StatisticalBackend = (*Backend)(nil)

// New creates a backend.
func New(logger *zap.Logger) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{logger: logger.Named("stats")}
}

// Compare runs the applicable tests for the outcome. It does not modify the
// outcome.
func (b *Backend) Compare(ctx context.Context, o *comparison.Outcome) (*comparison.Statistics, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(o.Collections) < 2 {
		return nil, fmt.Errorf("%s: %w", o.Name, core.ErrTooFewGroups)
	}
	typ := o.Collections[0].Type
	for _, c := range o.Collections[1:] {
		if c.Type != typ {
			return nil, fmt.Errorf("%s: %w", o.Name, core.ErrMixedDataTypes)
		}
	}

	stats := &comparison.Statistics{}
	for _, c := range o.Collections {
		stats.Summaries = append(stats.Summaries, Summarize(c))
	}

	var candidates []func() (comparison.TestResult, error)
	switch {
	case typ == comparison.Discrete:
		flags := make([][]bool, len(o.Collections))
		for i, c := range o.Collections {
			flags[i] = c.Flags
		}
		candidates = append(candidates, func() (comparison.TestResult, error) { return ChiSquare(flags) })
	case len(o.Collections) == 2:
		x, y := o.Collections[0].Values, o.Collections[1].Values
		if o.Paired {
			candidates = append(candidates,
				func() (comparison.TestResult, error) { return PairedTTest(x, y) },
				func() (comparison.TestResult, error) { return WilcoxonSignedRank(x, y) })
		} else {
			candidates = append(candidates,
				func() (comparison.TestResult, error) { return WelchTTest(x, y) },
				func() (comparison.TestResult, error) { return MannWhitneyU(x, y) })
		}
	default:
		groups := make([][]float64, len(o.Collections))
		for i, c := range o.Collections {
			groups[i] = c.Values
		}
		candidates = append(candidates,
			func() (comparison.TestResult, error) { return OneWayANOVA(groups) },
			func() (comparison.TestResult, error) { return KruskalWallis(groups) })
	}

	var lastErr error
	for _, run := range candidates {
		result, err := run()
		if err != nil {
			b.logger.Debug("test not applicable", zap.String("outcome", o.Name), zap.Error(err))
			lastErr = err
			continue
		}
		stats.Tests = append(stats.Tests, result)
	}
	if len(stats.Tests) == 0 {
		return nil, fmt.Errorf("%s: %w", o.Name, lastErr)
	}
	return stats, nil
}
