package testkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wiastat/domain/sample"
)

func TestCohortGenerator_Basic(t *testing.T) {
	samples := GenerateCohort(7, 10)
	require.Len(t, samples, 30)

	bySubject := make(map[string][]*sample.Sample)
	seen := make(map[string]bool)
	for _, s := range samples {
		if seen[s.Key()] {
			t.Errorf("duplicate sample %s", s.Path)
		}
		seen[s.Key()] = true
		bySubject[s.IdentityKey()] = append(bySubject[s.IdentityKey()], s)

		assert.Greater(t, s.AvgFlow, 0.0, s.Path)
		assert.InDelta(t, s.CumulativeForward+s.CumulativeBackward, s.CumulativeNet, 1e-6, s.Path)
		for _, w := range s.Waves {
			assert.Less(t, w.StartTime, w.EndTime, s.Path)
			if w.Direction == sample.Distal {
				assert.LessOrEqual(t, w.CumulativeIntensity, 0.0, s.Path)
			}
		}
	}
	assert.Len(t, bySubject, 10)
	for subject, vs := range bySubject {
		assert.Len(t, vs, 3, subject)
	}
}

func TestCohortGenerator_Deterministic(t *testing.T) {
	a := GenerateCohort(42, 5)
	b := GenerateCohort(42, 5)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i], b[i])
	}

	c := GenerateCohort(43, 5)
	assert.NotEqual(t, a[0].AvgFlow, c[0].AvgFlow)
}

func TestCohortGenerator_SkipsEmptyTreatments(t *testing.T) {
	config := DefaultCohortConfig()
	config.VesselCount = 4
	config.EndothelialLabel = ""
	config.MissingWaveRate = 0

	samples := NewCohortGenerator(config).Generate()
	require.Len(t, samples, 8)
	for _, s := range samples {
		assert.NotEqual(t, "", s.Treatment)
		assert.Len(t, s.Waves, 3)
	}
}
