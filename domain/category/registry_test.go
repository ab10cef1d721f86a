package category

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wiastat/domain/sample"
)

func wave(name string, d sample.Direction, cumulative float64) sample.Wave {
	return sample.Wave{Name: name, Direction: d, CumulativeIntensity: cumulative, PeakIntensity: cumulative / 10}
}

func scenarioSamples() (a, b, c *sample.Sample) {
	a = &sample.Sample{Path: "A.wia", Treatment: "Rest", Waves: []sample.Wave{wave("FCW", sample.Proximal, 10)}}
	b = &sample.Sample{Path: "B.wia", Treatment: "Adenosine", Waves: []sample.Wave{wave("FCW", sample.Proximal, 12)}}
	c = &sample.Sample{Path: "C.wia", Treatment: "Adenosine", Waves: []sample.Wave{wave("BDW", sample.Distal, -4)}}
	return a, b, c
}

func TestDiscover_ThreeSampleScenario(t *testing.T) {
	a, b, c := scenarioSamples()
	r := NewRegistry(nil)
	r.Discover([]*sample.Sample{a, b, c})

	waves := r.WaveCategories()
	require.Len(t, waves, 2)
	assert.Equal(t, "FCW", waves[0].Name())
	assert.Equal(t, []*sample.Sample{a, b}, waves[0].Samples())
	assert.Equal(t, "BDW", waves[1].Name())
	assert.Equal(t, sample.Distal, waves[1].Direction())
	assert.Equal(t, []*sample.Sample{c}, waves[1].Samples())

	treatments := r.TreatmentCategories()
	require.Len(t, treatments, 2)
	assert.Equal(t, "Rest", treatments[0].Name())
	assert.Equal(t, TreatmentRest, treatments[0].Type())
	assert.Equal(t, []*sample.Sample{a}, treatments[0].Samples())
	assert.Equal(t, "Adenosine", treatments[1].Name())
	assert.Equal(t, TreatmentVasodilator, treatments[1].Type())
	assert.Equal(t, []*sample.Sample{b, c}, treatments[1].Samples())
}

func TestDiscoverWaveCategories_CaseAndDirection(t *testing.T) {
	s1 := &sample.Sample{Path: "1", Waves: []sample.Wave{wave("fcw", sample.Proximal, 1)}}
	s2 := &sample.Sample{Path: "2", Waves: []sample.Wave{wave("FCW", sample.Proximal, 2)}}
	s3 := &sample.Sample{Path: "3", Waves: []sample.Wave{wave("FCW", sample.Distal, 3)}}

	r := NewRegistry(nil)
	r.Discover([]*sample.Sample{s1, s2, s3})

	waves := r.WaveCategories()
	require.Len(t, waves, 2, "same name in the opposite direction is a distinct category")
	assert.Equal(t, 2, waves[0].Len())
	assert.Equal(t, 1, waves[1].Len())
	assert.False(t, waves[0].Equal(waves[1]))
}

func TestDiscoverTreatmentCategories_CaseInsensitive(t *testing.T) {
	s1 := &sample.Sample{Path: "1", Treatment: "ACh"}
	s2 := &sample.Sample{Path: "2", Treatment: "ach"}
	r := NewRegistry(nil)
	r.Discover([]*sample.Sample{s1, s2})

	treatments := r.TreatmentCategories()
	require.Len(t, treatments, 1)
	assert.Equal(t, 2, treatments[0].Len())
	assert.Equal(t, TreatmentEndothelial, treatments[0].Type())
}

func TestRenameWaveCategory_IdentityStable(t *testing.T) {
	a, b, _ := scenarioSamples()
	r := NewRegistry(nil)
	r.Discover([]*sample.Sample{a, b})

	fcw := r.WaveCategories()[0]
	before := fcw.Key()

	require.NoError(t, r.RenameWaveCategory(fcw, "Forward compression"))
	assert.Equal(t, before, fcw.Key())
	assert.Equal(t, "Forward compression", fcw.Name())
	assert.Equal(t, "Forward compression", a.Waves[0].Name)
	assert.True(t, fcw.Matches(a.Waves[0]))
	assert.False(t, fcw.Matches(wave("FCW", sample.Proximal, 1)))

	require.NoError(t, r.RenameWaveCategory(fcw, "FCW"))
	original := newWaveCategory("FCW", sample.Proximal)
	assert.True(t, fcw.Equal(original))
	assert.True(t, fcw.Matches(wave("fcw", sample.Proximal, 1)))
}

func TestRenameWaveCategory_RejectsDuplicate(t *testing.T) {
	s := &sample.Sample{Path: "1", Waves: []sample.Wave{wave("FCW", sample.Proximal, 1), wave("FDW", sample.Proximal, 1)}}
	r := NewRegistry(nil)
	r.Discover([]*sample.Sample{s})

	err := r.RenameWaveCategory(r.WaveCategories()[0], "fdw")
	assert.Error(t, err)
}

func TestRenameTreatment(t *testing.T) {
	a, b, c := scenarioSamples()
	r := NewRegistry(nil)
	r.Discover([]*sample.Sample{a, b, c})

	r.RenameTreatment(a, "Rest")
	assert.Len(t, r.TreatmentCategories(), 2)

	// The only Rest sample moves: the Rest category disappears.
	r.RenameTreatment(a, "ADENOSINE")
	require.Len(t, r.TreatmentCategories(), 1)
	ado := r.TreatmentCategories()[0]
	assert.Equal(t, "Adenosine", ado.Name())
	assert.Equal(t, 3, ado.Len())
	assert.Equal(t, "ADENOSINE", a.Treatment)

	r.RenameTreatment(b, "Papaverine")
	require.Len(t, r.TreatmentCategories(), 2)
	pap, ok := r.TreatmentCategory("papaverine")
	require.True(t, ok)
	assert.Equal(t, TreatmentVasodilator, pap.Type())
	got, ok := r.TreatmentOf(b)
	require.True(t, ok)
	assert.Equal(t, pap, got)
}

func TestRemoveSample_Cascades(t *testing.T) {
	a, b, c := scenarioSamples()
	r := NewRegistry(nil)
	r.Discover([]*sample.Sample{a, b, c})

	waves := r.WaveCategories()
	fcw, bdw := waves[0], waves[1]
	mixed, err := r.AddWaveCategoryGroup("All", []*WaveCategory{fcw, bdw})
	require.NoError(t, err)
	_, ok := mixed.Direction()
	assert.False(t, ok)
	distalOnly, err := r.AddWaveCategoryGroup("Backward", []*WaveCategory{bdw})
	require.NoError(t, err)
	d, ok := distalOnly.Direction()
	assert.True(t, ok)
	assert.Equal(t, sample.Distal, d)

	r.RemoveSample(c)
	assert.Len(t, r.Samples(), 2)
	require.Len(t, r.WaveCategories(), 1)
	assert.True(t, r.WaveCategories()[0].Equal(fcw))

	groups := r.WaveCategoryGroups()
	require.Len(t, groups, 1, "the group left without members is deleted")
	assert.Equal(t, "All", groups[0].Name())
	assert.False(t, groups[0].Contains(bdw))

	// Removing again changes nothing.
	r.RemoveSample(c)
	assert.Len(t, r.Samples(), 2)
	assert.Len(t, r.TreatmentCategories(), 2)

	r.RemoveSample(a)
	r.RemoveSample(b)
	assert.Empty(t, r.WaveCategories())
	assert.Empty(t, r.WaveCategoryGroups())
	assert.Empty(t, r.TreatmentCategories())
}

func TestAddWaveCategoryGroup_Validation(t *testing.T) {
	a, _, _ := scenarioSamples()
	r := NewRegistry(nil)
	r.Discover([]*sample.Sample{a})

	_, err := r.AddWaveCategoryGroup("Empty", nil)
	assert.Error(t, err)

	foreign := newWaveCategory("XYZ", sample.Proximal)
	_, err = r.AddWaveCategoryGroup("Foreign", []*WaveCategory{foreign})
	assert.Error(t, err)

	_, err = r.AddWaveCategoryGroup("G", r.WaveCategories())
	require.NoError(t, err)
	_, err = r.AddWaveCategoryGroup("g", r.WaveCategories())
	assert.Error(t, err)
}

func TestGroupSumIntensity(t *testing.T) {
	s := &sample.Sample{Path: "1", Waves: []sample.Wave{
		wave("FCW", sample.Proximal, 10),
		wave("LFCW", sample.Proximal, -5),
	}}
	other := &sample.Sample{Path: "2", Waves: []sample.Wave{wave("BDW", sample.Distal, 3)}}
	r := NewRegistry(nil)
	r.Discover([]*sample.Sample{s, other})

	waves := r.WaveCategories()
	g, err := r.AddWaveCategoryGroup("Forward compression", waves[:2])
	require.NoError(t, err)

	sum, ok := g.SumIntensity(s)
	assert.True(t, ok)
	assert.Equal(t, 15.0, sum)
	_, ok = g.SumIntensity(other)
	assert.False(t, ok)
	assert.Equal(t, []*sample.Sample{s}, g.Samples())
}

func TestGroupsSurviveRediscovery(t *testing.T) {
	a, b, c := scenarioSamples()
	r := NewRegistry(nil)
	r.Discover([]*sample.Sample{a, b, c})
	_, err := r.AddWaveCategoryGroup("Forward", r.WaveCategories()[:1])
	require.NoError(t, err)

	r.Discover([]*sample.Sample{a, b, c})
	require.Len(t, r.WaveCategoryGroups(), 1)
	assert.Equal(t, 2, len(r.WaveCategoryGroups()[0].Samples()))

	r.Discover([]*sample.Sample{c})
	assert.Empty(t, r.WaveCategoryGroups())
}

func TestGroupsSurviveRenameAndRediscovery(t *testing.T) {
	a, b, c := scenarioSamples()
	r := NewRegistry(nil)
	r.Discover([]*sample.Sample{a, b, c})
	fcw := r.WaveCategories()[0]
	_, err := r.AddWaveCategoryGroup("Forward", []*WaveCategory{fcw})
	require.NoError(t, err)
	require.NoError(t, r.RenameWaveCategory(fcw, "LFCW"))

	r.Discover([]*sample.Sample{a, b, c})

	groups := r.WaveCategoryGroups()
	require.Len(t, groups, 1)
	members := groups[0].Members()
	require.Len(t, members, 1)
	assert.Equal(t, "LFCW", members[0].Name())
	assert.Equal(t, "lfcw|proximal", members[0].Key())
	assert.Equal(t, []*sample.Sample{a, b}, groups[0].Samples())
}

func TestAliasTable_Classify(t *testing.T) {
	aliases := DefaultAliases()
	cases := map[string]TreatmentType{
		"Rest":               TreatmentRest,
		"adenosine 140":      TreatmentVasodilator,
		"ACh 10^-6":          TreatmentEndothelial,
		"ach":                TreatmentEndothelial,
		"Saline":             TreatmentOther,
		"":                   TreatmentOther,
		"Hyperaemia (ado)":   TreatmentVasodilator,
		"Baseline recording": TreatmentRest,
	}
	for label, want := range cases {
		assert.Equal(t, want, aliases.Classify(label), label)
	}
}
