package comparison

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcomeComplete(t *testing.T) {
	o := NewOutcome("Avg Flow", []string{"Rest", "Adenosine"}, Continuous, false)
	assert.False(t, o.Complete())

	o.Collection("Rest").Add(1)
	assert.False(t, o.Complete())
	o.Collection("Adenosine").Add(math.NaN())
	assert.False(t, o.Complete(), "NaN values are dropped")
	o.Collection("Adenosine").Add(2)
	assert.True(t, o.Complete())
	assert.Equal(t, 2, o.TotalN())
}

func TestOutcomeDropEmpty(t *testing.T) {
	o := NewOutcome("All waves", []string{"FCW", "BDW", "FDW"}, Continuous, false)
	o.Collection("FCW").Add(1)
	o.Collection("FDW").Add(1)
	o.DropEmpty()
	require.Len(t, o.Collections, 2)
	assert.Equal(t, "FDW", o.Collections[1].Name)
}

func TestDiscreteCollection(t *testing.T) {
	o := NewOutcome("CMD", []string{"A", "B"}, Discrete, false)
	o.Collection("A").AddFlag(true)
	o.Collection("B").AddFlag(false)
	assert.True(t, o.Complete())
	assert.Equal(t, Discrete, o.Collections[0].Type)
}

func TestPercentChange(t *testing.T) {
	v, ok := PercentChange(5, 6)
	require.True(t, ok)
	assert.InDelta(t, 20.0, v, 1e-9)

	v, ok = PercentChange(-10, -5)
	require.True(t, ok)
	assert.InDelta(t, 50.0, v, 1e-9)

	_, ok = PercentChange(0, 3)
	assert.False(t, ok)
}

func TestDataTypeJSON(t *testing.T) {
	data, err := json.Marshal(NewDiscrete("x"))
	require.NoError(t, err)
	var back DataCollection
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Discrete, back.Type)
}
