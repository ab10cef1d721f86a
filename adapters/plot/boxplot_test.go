package plot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wiastat/domain/comparison"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestOutcomePNG_Continuous(t *testing.T) {
	o := comparison.NewOutcome("Avg Flow", []string{"Rest", "Adenosine"}, comparison.Continuous, false)
	for _, v := range []float64{10, 12, 11, 13} {
		o.Collections[0].Add(v)
		o.Collections[1].Add(v * 3)
	}

	png, err := OutcomePNG("Rest vs Adenosine", o)
	require.NoError(t, err)
	require.True(t, len(png) > len(pngMagic))
	assert.Equal(t, pngMagic, png[:4])
}

func TestOutcomePNG_Discrete(t *testing.T) {
	o := comparison.NewOutcome("Endothelium-dependent CMD", []string{"A", "B"}, comparison.Discrete, false)
	o.Collections[0].AddFlag(true)
	o.Collections[0].AddFlag(false)
	o.Collections[1].AddFlag(false)

	png, err := OutcomePNG("A vs B", o)
	require.NoError(t, err)
	assert.Equal(t, pngMagic, png[:4])
}

func TestOutcomePNG_NoCollections(t *testing.T) {
	_, err := OutcomePNG("empty", &comparison.Outcome{Name: "x"})
	assert.Error(t, err)
}

func TestSignificant(t *testing.T) {
	c := &comparison.Comparison{Outcomes: []*comparison.Outcome{
		{Name: "a", Result: &comparison.Statistics{Tests: []comparison.TestResult{{PValue: 0.01}}}},
		{Name: "b", Result: &comparison.Statistics{Tests: []comparison.TestResult{{PValue: 0.2}}}},
		{Name: "c"},
		{Name: "d", Result: &comparison.Statistics{}},
	}}
	got := Significant(c, 0.05)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, 50.0, percentTrue([]bool{true, false}))
}
