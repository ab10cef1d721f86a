// Package comparison builds the statistical comparisons of a cohort: groups of
// samples compared outcome by outcome, matched before/after pairs, and waves
// compared against each other within one set of samples.
package comparison

import (
	"context"
	"math"

	"go.uber.org/zap"

	"wiastat/domain/category"
	"wiastat/domain/comparison"
	"wiastat/domain/sample"
	"wiastat/internal/errors"
	"wiastat/internal/subtype"
	"wiastat/ports"
)

// Group is a labelled set of independent samples.
type Group struct {
	Label   string
	Samples []*sample.Sample
}

// PairGroup is a labelled set of matched pairs. Before and After name the
// two treatments the pairs were matched across.
type PairGroup struct {
	Label  string
	Before string
	After  string
	Pairs  []comparison.Pair
}

type metric struct {
	name  string
	value func(*sample.Sample) float64
	abs   bool
}

var cohortMetrics = []metric{
	{"Wave Speed", func(s *sample.Sample) float64 { return s.WaveSpeed }, true},
	{"Avg Pressure", func(s *sample.Sample) float64 { return s.AvgPressure }, false},
	{"Max Pressure", func(s *sample.Sample) float64 { return s.MaxPressure }, false},
	{"Min Pressure", func(s *sample.Sample) float64 { return s.MinPressure }, false},
	{"Avg Flow", func(s *sample.Sample) float64 { return s.AvgFlow }, false},
	{"Max Flow", func(s *sample.Sample) float64 { return s.MaxFlow }, false},
	{"Min Flow", func(s *sample.Sample) float64 { return s.MinFlow }, false},
	{"Resistance", func(s *sample.Sample) float64 { return s.Resistance }, false},
	{"Cumulative Net Intensity", func(s *sample.Sample) float64 { return s.CumulativeNet }, false},
	{"Cumulative Forward Intensity", func(s *sample.Sample) float64 { return s.CumulativeForward }, true},
	{"Cumulative Backward Intensity", func(s *sample.Sample) float64 { return s.CumulativeBackward }, true},
}

type derivedMetric struct {
	name      string
	value     func(*sample.Sample) *float64
	isPercent bool
}

var derivedMetrics = []derivedMetric{
	{"CFR", func(s *sample.Sample) *float64 { return s.FlowReserve }, false},
	{"HMR", func(s *sample.Sample) *float64 { return s.ResistanceIndex }, false},
	{"Flow Increase (%)", func(s *sample.Sample) *float64 { return s.FlowIncrease }, true},
}

// Builder turns groups of samples into comparisons and evaluates every
// outcome with the statistical backend. It only reads the registry, so one
// builder may serve concurrent calls as long as the registry is not mutated.
type Builder struct {
	registry   *category.Registry
	classifier *subtype.Classifier
	backend    ports.StatisticalBackend
	logger     *zap.Logger
}

// NewBuilder creates a builder over the registry's wave categories and groups.
func NewBuilder(registry *category.Registry, classifier *subtype.Classifier, backend ports.StatisticalBackend, logger *zap.Logger) *Builder {
	if classifier == nil {
		classifier = subtype.Default
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		registry:   registry,
		classifier: classifier,
		backend:    backend,
		logger:     logger.Named("comparison"),
	}
}

// CompareGroups compares independent groups outcome by outcome. It returns a
// StatisticsError for fewer than two groups and (nil, nil) when any group is
// empty.
func (b *Builder) CompareGroups(ctx context.Context, name string, groups []Group, includeDerived bool) (*comparison.Comparison, error) {
	if len(groups) < 2 {
		return nil, errors.StatisticsError(name, nil)
	}
	labels := make([]string, len(groups))
	var all []*sample.Sample
	for i, g := range groups {
		if len(g.Samples) == 0 {
			b.logger.Debug("skipping comparison with an empty group",
				zap.String("comparison", name), zap.String("group", g.Label))
			return nil, nil
		}
		labels[i] = g.Label
		all = append(all, g.Samples...)
	}

	var outcomes []*comparison.Outcome
	for _, m := range cohortMetrics {
		o := comparison.NewOutcome(m.name, labels, comparison.Continuous, false)
		for i, g := range groups {
			for _, s := range g.Samples {
				v := m.value(s)
				if m.abs {
					v = math.Abs(v)
				}
				o.Collections[i].Add(v)
			}
		}
		outcomes = append(outcomes, o)
	}

	if includeDerived && allHaveDerivedFields(all) {
		for _, m := range derivedMetrics {
			o := comparison.NewOutcome(m.name, labels, comparison.Continuous, m.isPercent)
			for i, g := range groups {
				for _, s := range g.Samples {
					o.Collections[i].Add(*m.value(s))
				}
			}
			outcomes = append(outcomes, o)
		}
		for _, ind := range b.classifier.Indicators() {
			o := comparison.NewOutcome(ind.Name, labels, comparison.Discrete, false)
			for i, g := range groups {
				for _, s := range g.Samples {
					if state := ind.Predicate(s); state.Known() {
						o.Collections[i].AddFlag(state == sample.True)
					}
				}
			}
			outcomes = append(outcomes, o)
		}
	}

	for _, wg := range b.registry.WaveCategoryGroups() {
		sum := comparison.NewOutcome(wg.Name()+" Cumulative Intensity", labels, comparison.Continuous, false)
		dir, directional := wg.Direction()
		var fraction *comparison.Outcome
		if directional {
			fraction = comparison.NewOutcome(wg.Name()+" Fraction of Total Intensity", labels, comparison.Continuous, false)
		}
		for i, g := range groups {
			for _, s := range g.Samples {
				v, ok := wg.SumIntensity(s)
				if !ok {
					continue
				}
				sum.Collections[i].Add(v)
				if fraction != nil {
					if f, ok := fractionOf(v, s.TotalIntensity(dir)); ok {
						fraction.Collections[i].Add(f)
					}
				}
			}
		}
		outcomes = append(outcomes, sum)
		if fraction != nil {
			outcomes = append(outcomes, fraction)
		}
	}

	for _, wc := range b.registry.WaveCategories() {
		abs := comparison.NewOutcome(wc.Label()+" Cumulative Intensity", labels, comparison.Continuous, false)
		fraction := comparison.NewOutcome(wc.Label()+" Fraction of Total Intensity", labels, comparison.Continuous, false)
		for i, g := range groups {
			for _, s := range g.Samples {
				w, ok := wc.WaveOf(s)
				if !ok {
					continue
				}
				v := math.Abs(w.CumulativeIntensity)
				abs.Collections[i].Add(v)
				if f, ok := fractionOf(v, s.TotalIntensity(wc.Direction())); ok {
					fraction.Collections[i].Add(f)
				}
			}
		}
		outcomes = append(outcomes, abs, fraction)
	}

	return b.assemble(ctx, name, labels, outcomes)
}

// CompareMatchedPairs compares matched before/after pairs per wave category
// and wave category group. With a single pair group the outcomes are paired:
// the two collections hold the before and after intensities. With two or
// more groups each collection holds the per-pair percent change.
// A lone percent-change collection has nothing to be tested against, which
// is why the single-group case compares before with after instead.
func (b *Builder) CompareMatchedPairs(ctx context.Context, name string, groups []PairGroup) (*comparison.Comparison, error) {
	if len(groups) == 0 {
		return nil, errors.StatisticsError(name, nil)
	}
	for _, g := range groups {
		if len(g.Pairs) == 0 {
			b.logger.Debug("skipping matched comparison with no pairs",
				zap.String("comparison", name), zap.String("group", g.Label))
			return nil, nil
		}
	}

	type intensity struct {
		label string
		value func(*sample.Sample) (float64, bool)
	}
	var sources []intensity
	for _, wg := range b.registry.WaveCategoryGroups() {
		sources = append(sources, intensity{wg.Name(), wg.SumIntensity})
	}
	for _, wc := range b.registry.WaveCategories() {
		sources = append(sources, intensity{wc.Label(), func(s *sample.Sample) (float64, bool) {
			w, ok := wc.WaveOf(s)
			return math.Abs(w.CumulativeIntensity), ok
		}})
	}

	var (
		labels   []string
		outcomes []*comparison.Outcome
	)
	if len(groups) == 1 {
		g := groups[0]
		labels = []string{g.Before, g.After}
		for _, src := range sources {
			o := comparison.NewOutcome(src.label+" Cumulative Intensity", labels, comparison.Continuous, false)
			o.Paired = true
			for _, p := range g.Pairs {
				before, okBefore := src.value(p.Before)
				after, okAfter := src.value(p.After)
				if okBefore && okAfter {
					o.Collections[0].Add(before)
					o.Collections[1].Add(after)
				}
			}
			outcomes = append(outcomes, o)
		}
		return b.assemble(ctx, name, labels, outcomes)
	}

	labels = make([]string, len(groups))
	for i, g := range groups {
		labels[i] = g.Label
	}
	for _, src := range sources {
		o := comparison.NewOutcome(src.label+" Cumulative Intensity Change (%)", labels, comparison.Continuous, true)
		for i, g := range groups {
			for _, p := range g.Pairs {
				before, okBefore := src.value(p.Before)
				after, okAfter := src.value(p.After)
				if !okBefore || !okAfter {
					continue
				}
				if change, ok := comparison.PercentChange(before, after); ok {
					o.Collections[i].Add(change)
				}
			}
		}
		outcomes = append(outcomes, o)
	}
	return b.assemble(ctx, name, labels, outcomes)
}

// CompareWavesWithinGroup compares the intensities of wave categories and
// wave category groups against each other over one set of samples. Each
// collection holds the samples that exhibit that wave.
func (b *Builder) CompareWavesWithinGroup(ctx context.Context, name string, samples []*sample.Sample) (*comparison.Comparison, error) {
	if len(samples) == 0 {
		return nil, nil
	}
	waves := b.registry.WaveCategories()
	groups := b.registry.WaveCategoryGroups()

	cumulative := func(wc *category.WaveCategory) func(*sample.Sample) (float64, bool) {
		return func(s *sample.Sample) (float64, bool) {
			w, ok := wc.WaveOf(s)
			return math.Abs(w.CumulativeIntensity), ok
		}
	}
	peak := func(wc *category.WaveCategory) func(*sample.Sample) (float64, bool) {
		return func(s *sample.Sample) (float64, bool) {
			w, ok := wc.WaveOf(s)
			return math.Abs(w.PeakIntensity), ok
		}
	}

	var outcomes []*comparison.Outcome
	collect := func(outcome string, labels []string, values []func(*sample.Sample) (float64, bool)) *comparison.Outcome {
		o := comparison.NewOutcome(outcome, labels, comparison.Continuous, false)
		for i, value := range values {
			for _, s := range samples {
				if v, ok := value(s); ok {
					o.Collections[i].Add(v)
				}
			}
		}
		return o
	}
	pairwise := func(left, right string, leftCum, rightCum, leftPeak, rightPeak func(*sample.Sample) (float64, bool)) {
		labels := []string{left, right}
		prefix := left + " vs " + right
		outcomes = append(outcomes,
			collect(prefix+" Cumulative Intensity", labels, []func(*sample.Sample) (float64, bool){leftCum, rightCum}),
			collect(prefix+" Peak Intensity", labels, []func(*sample.Sample) (float64, bool){leftPeak, rightPeak}))
	}

	for i := 0; i < len(waves); i++ {
		for j := i + 1; j < len(waves); j++ {
			pairwise(waves[i].Label(), waves[j].Label(),
				cumulative(waves[i]), cumulative(waves[j]), peak(waves[i]), peak(waves[j]))
		}
	}
	for i := 0; i < len(groups); i++ {
		for j := i + 1; j < len(groups); j++ {
			pairwise(groups[i].Name(), groups[j].Name(),
				groups[i].SumIntensity, groups[j].SumIntensity, groups[i].SumPeakIntensity, groups[j].SumPeakIntensity)
		}
	}
	for _, g := range groups {
		for _, wc := range waves {
			if g.Contains(wc) {
				continue
			}
			pairwise(g.Name(), wc.Label(), g.SumIntensity, cumulative(wc), g.SumPeakIntensity, peak(wc))
		}
	}

	var spanning []*comparison.Outcome
	if len(waves) > 2 {
		labels := make([]string, 0, len(waves))
		values := make([]func(*sample.Sample) (float64, bool), 0, len(waves))
		for _, wc := range waves {
			labels = append(labels, wc.Label())
			values = append(values, cumulative(wc))
		}
		spanning = append(spanning, collect("All waves Cumulative Intensity", labels, values))

		if len(groups) > 0 {
			labels, values = nil, nil
			for _, g := range groups {
				labels = append(labels, g.Name())
				values = append(values, g.SumIntensity)
			}
			for _, wc := range waves {
				if !groupsContain(groups, wc) {
					labels = append(labels, wc.Label())
					values = append(values, cumulative(wc))
				}
			}
			spanning = append(spanning, collect("All waves and groups Cumulative Intensity", labels, values))
		}
	}
	for _, o := range spanning {
		o.DropEmpty()
		if len(o.Collections) >= 2 {
			outcomes = append(outcomes, o)
		}
	}

	return b.assemble(ctx, name, nil, outcomes)
}

// assemble keeps the complete outcomes, evaluates them and wraps them into a
// comparison. A comparison without outcomes is skipped.
func (b *Builder) assemble(ctx context.Context, name string, labels []string, outcomes []*comparison.Outcome) (*comparison.Comparison, error) {
	kept := make([]*comparison.Outcome, 0, len(outcomes))
	for _, o := range outcomes {
		if !o.Complete() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stats, err := b.backend.Compare(ctx, o)
		if err != nil {
			b.logger.Warn("outcome could not be evaluated",
				zap.String("comparison", name), zap.String("outcome", o.Name), zap.Error(err))
			o.Error = err.Error()
		} else {
			o.Result = stats
		}
		kept = append(kept, o)
	}
	if len(kept) == 0 {
		b.logger.Debug("skipping comparison without outcomes", zap.String("comparison", name))
		return nil, nil
	}
	return &comparison.Comparison{Name: name, Groups: labels, Outcomes: kept}, nil
}

func allHaveDerivedFields(samples []*sample.Sample) bool {
	for _, s := range samples {
		if !s.HasDerivedFields() {
			return false
		}
	}
	return true
}

func fractionOf(part, total float64) (float64, bool) {
	if total == 0 {
		return 0, false
	}
	return part / total, true
}

func groupsContain(groups []*category.WaveCategoryGroup, wc *category.WaveCategory) bool {
	for _, g := range groups {
		if g.Contains(wc) {
			return true
		}
	}
	return false
}
