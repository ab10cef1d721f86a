package subtype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wiastat/domain/sample"
)

func ptr(v float64) *float64 { return &v }

func classified(path string, cfr, increase, hmr *float64) *sample.Sample {
	return &sample.Sample{Path: path, Subject: path, FlowReserve: cfr, FlowIncrease: increase, ResistanceIndex: hmr}
}

func TestPredicates_KnownValues(t *testing.T) {
	c := Default

	healthy := classified("healthy", ptr(3.2), ptr(80), ptr(1.2))
	assert.Equal(t, sample.False, c.Disease(healthy))
	assert.Equal(t, sample.True, c.NoDisease(healthy))
	assert.Equal(t, sample.False, c.Functional(healthy))
	assert.Equal(t, sample.False, c.Structural(healthy))

	depOnly := classified("dep", ptr(3.0), ptr(10), ptr(1.0))
	assert.Equal(t, sample.True, c.Disease(depOnly))
	assert.Equal(t, sample.True, c.EndoDependentOnly(depOnly))
	assert.Equal(t, sample.False, c.EndoIndependentOnly(depOnly))
	assert.Equal(t, sample.False, c.BothEndothelial(depOnly))
	assert.Equal(t, sample.True, c.Functional(depOnly))

	both := classified("both", ptr(1.8), ptr(-5), ptr(2.4))
	assert.Equal(t, sample.True, c.BothEndothelial(both))
	assert.Equal(t, sample.False, c.EndoDependentOnly(both))
	assert.Equal(t, sample.True, c.Structural(both))
	assert.Equal(t, sample.False, c.Functional(both))
}

func TestPredicates_UnknownNeverCoerced(t *testing.T) {
	c := Default
	missingIncrease := classified("m", ptr(1.5), nil, ptr(2.0))

	assert.Equal(t, sample.True, c.EndoIndependent(missingIncrease))
	assert.Equal(t, sample.Unknown, c.EndoDependent(missingIncrease))
	assert.Equal(t, sample.Unknown, c.Disease(missingIncrease))
	assert.Equal(t, sample.Unknown, c.NoDisease(missingIncrease))
	assert.Equal(t, sample.Unknown, c.EndoIndependentOnly(missingIncrease))
	assert.Equal(t, sample.Unknown, c.Functional(missingIncrease))
	assert.Equal(t, sample.Unknown, c.Structural(missingIncrease))

	missingHMR := classified("h", ptr(3.0), ptr(70), nil)
	assert.Equal(t, sample.False, c.Disease(missingHMR))
	assert.Equal(t, sample.Unknown, c.Functional(missingHMR))
}

func TestPredicates_FlagsOverrideMeasurements(t *testing.T) {
	s := classified("f", ptr(3.0), nil, nil)
	s.EndoDependentFlag = sample.True
	assert.Equal(t, sample.True, Default.EndoDependent(s))
	assert.Equal(t, sample.True, Default.Disease(s))

	s.EndoIndependentFlag = sample.True
	assert.Equal(t, sample.True, Default.EndoIndependent(s), "flag wins over a normal CFR")
}

func TestAnd_UnknownDominates(t *testing.T) {
	always := func(v sample.Tristate) Predicate {
		return func(*sample.Sample) sample.Tristate { return v }
	}
	s := &sample.Sample{}
	assert.Equal(t, sample.True, And(always(sample.True), always(sample.True))(s))
	assert.Equal(t, sample.False, And(always(sample.True), always(sample.False))(s))
	assert.Equal(t, sample.Unknown, And(always(sample.False), always(sample.Unknown))(s))
	assert.Equal(t, sample.Unknown, Not(always(sample.Unknown))(s))
}

func TestSubsetOf_AllUnknownIsEmpty(t *testing.T) {
	samples := []*sample.Sample{
		classified("a", nil, nil, nil),
		classified("b", nil, ptr(20), nil),
	}
	assert.Empty(t, SubsetOf(samples, Default.Disease))
	assert.Empty(t, SubsetOf(samples, Default.NoDisease))

	has, lacks := Partition(samples, Default.Disease)
	assert.Empty(t, has)
	assert.Empty(t, lacks)
}

func TestPartition(t *testing.T) {
	healthy := classified("h", ptr(3.0), ptr(80), ptr(1.0))
	sick := classified("s", ptr(1.5), ptr(80), ptr(1.0))
	unknown := classified("u", nil, nil, nil)

	has, lacks := Partition([]*sample.Sample{healthy, sick, unknown}, Default.Disease)
	assert.Equal(t, []*sample.Sample{sick}, has)
	assert.Equal(t, []*sample.Sample{healthy}, lacks)
}

func TestMatchPairs(t *testing.T) {
	restA := &sample.Sample{Path: "rest/a.wia", Subject: "P1", FlowReserve: ptr(1.5), FlowIncrease: ptr(80)}
	restB := &sample.Sample{Path: "rest/b.wia", Subject: "P2", FlowReserve: ptr(3.0), FlowIncrease: ptr(80)}
	restC := &sample.Sample{Path: "rest/c.wia", Subject: "P3", FlowReserve: ptr(1.5), FlowIncrease: ptr(80)}
	adoA := &sample.Sample{Path: "ado/a.wia", Subject: "p1", FlowReserve: ptr(1.5), FlowIncrease: ptr(80)}
	adoB := &sample.Sample{Path: "ado/b.wia", Subject: "P2", FlowReserve: ptr(1.5), FlowIncrease: ptr(80)}

	all := MatchPairs([]*sample.Sample{restA, restB, restC}, []*sample.Sample{adoA, adoB}, nil)
	require.Len(t, all, 2, "P3 has no counterpart")
	assert.Equal(t, restA, all[0].Before)
	assert.Equal(t, adoA, all[0].After)

	diseased := MatchPairs([]*sample.Sample{restA, restB, restC}, []*sample.Sample{adoA, adoB}, Default.Disease)
	require.Len(t, diseased, 1, "P2 disagrees between conditions")
	assert.Equal(t, restA, diseased[0].Before)

	unknown := &sample.Sample{Path: "ado/c.wia", Subject: "P3"}
	assert.Empty(t, MatchPairs([]*sample.Sample{restC}, []*sample.Sample{unknown}, Default.Disease))
	assert.Empty(t, MatchPairs([]*sample.Sample{restC}, []*sample.Sample{unknown}, Default.NoDisease))
}

func TestStrataAndContrasts(t *testing.T) {
	assert.Len(t, Default.Strata(), 10)
	assert.Len(t, Default.Indicators(), 9)
	for _, contrast := range Default.Contrasts() {
		assert.GreaterOrEqual(t, len(contrast.Strata), 2, contrast.Name)
	}
}
