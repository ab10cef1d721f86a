package sample

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityKey(t *testing.T) {
	withSubject := &Sample{Path: "/data/P01 rest.wia", Subject: "P01-LAD"}
	assert.Equal(t, "p01-lad", withSubject.IdentityKey())

	fromPath := &Sample{Path: "/data/P02_LAD.wia"}
	assert.Equal(t, "p02_lad", fromPath.IdentityKey())
	assert.Equal(t, "/data/p02_lad.wia", fromPath.Key())
}

func TestTristate(t *testing.T) {
	assert.Equal(t, False, True.Not())
	assert.Equal(t, True, False.Not())
	assert.Equal(t, Unknown, Unknown.Not())
	assert.False(t, Unknown.Known())

	var decoded struct {
		A Tristate `json:"a"`
		B Tristate `json:"b"`
		C Tristate `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":true,"b":false,"c":null}`), &decoded))
	assert.Equal(t, True, decoded.A)
	assert.Equal(t, False, decoded.B)
	assert.Equal(t, Unknown, decoded.C)
}

func TestDirectionJSON(t *testing.T) {
	var w Wave
	require.NoError(t, json.Unmarshal([]byte(`{"name":"BDW","direction":"Distal"}`), &w))
	assert.Equal(t, Distal, w.Direction)

	_, err := ParseDirection("sideways")
	assert.Error(t, err)
}

func TestPrintableFieldsOptional(t *testing.T) {
	s := &Sample{Path: "a.wia", Treatment: "Rest"}
	keys := fieldKeys(s.PrintableFields())
	assert.NotContains(t, keys, "CFR")

	s.SetFlowReserve(3)
	s.Waves = []Wave{{Name: "FCW", Direction: Proximal, CumulativeIntensity: 12.5}}
	keys = fieldKeys(s.PrintableFields())
	assert.Contains(t, keys, "CFR")
	assert.Contains(t, keys, "FCW (proximal) Cumulative Intensity")
}

func TestTotalIntensity(t *testing.T) {
	s := &Sample{Measurements: Measurements{CumulativeForward: 40, CumulativeBackward: -10}}
	assert.Equal(t, 40.0, s.TotalIntensity(Proximal))
	assert.Equal(t, 10.0, s.TotalIntensity(Distal))
}

func fieldKeys(fields []Field) []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	return keys
}
