package comparison

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wiastat/adapters/stats/backend"
	"wiastat/domain/category"
	"wiastat/domain/core"
	"wiastat/domain/sample"
	"wiastat/internal/errors"
)

func countKinds(plan []Request) map[Kind]int {
	counts := make(map[Kind]int)
	for _, r := range plan {
		counts[r.Kind]++
	}
	return counts
}

func TestPlan_ThreeTreatmentsWithRest(t *testing.T) {
	reg := category.NewRegistry(nil)
	reg.Discover([]*sample.Sample{
		newSample("p1_rest", "Rest", 90),
		newSample("p1_ado", "Adenosine", 80),
		newSample("p1_ach", "ACh", 85),
	})

	plan := Plan(reg, nil)
	counts := countKinds(plan)

	// (3 pairs + all treatments) for the cohort and 10 strata, then 11
	// contrasts per treatment
	assert.Equal(t, 4*11+3*11, counts[KindGroups])
	assert.Equal(t, 3*11, counts[KindWaves])
	// all pairs plus 11 contrasts, for adenosine and ACh against rest
	assert.Equal(t, 2*12, counts[KindMatchedPairs])

	assert.Equal(t, "Rest vs Adenosine", plan[0].Name)
	assert.Equal(t, "Rest vs ACh", plan[1].Name)
	assert.Equal(t, "Adenosine vs ACh", plan[2].Name)
	assert.Equal(t, "All treatments", plan[3].Name)
	assert.Equal(t, "Rest vs Adenosine (No CMD)", plan[4].Name)
	assert.True(t, plan[0].IncludeDerived)

	last := plan[len(plan)-1]
	assert.Equal(t, KindMatchedPairs, last.Kind)
	assert.Equal(t, "Rest to ACh: Endothelium-independent functional vs structural", last.Name)
}

func TestPlan_SingleTreatment(t *testing.T) {
	reg := category.NewRegistry(nil)
	reg.Discover([]*sample.Sample{newSample("a", "Rest", 90), newSample("b", "Rest", 80)})

	counts := countKinds(Plan(reg, nil))
	assert.Equal(t, 11, counts[KindGroups], "only the within-treatment contrasts")
	assert.Equal(t, 11, counts[KindWaves])
	assert.Zero(t, counts[KindMatchedPairs])
}

func TestRun_SingleTreatmentProducesOnlyWaveComparison(t *testing.T) {
	samples := []*sample.Sample{
		newSample("a", "Rest", 90, wave("FCW", sample.Proximal, 10), wave("BDW", sample.Distal, -3)),
		newSample("b", "Rest", 80, wave("FCW", sample.Proximal, 12), wave("BDW", sample.Distal, -5)),
	}
	reg, b := setup(samples...)

	comparisons, err := NewRunner(b, 4, nil).Run(context.Background(), Plan(reg, nil))
	require.NoError(t, err)
	require.Len(t, comparisons, 1)
	assert.Equal(t, "Rest waves", comparisons[0].Name)
}

func cohort() []*sample.Sample {
	var samples []*sample.Sample
	profiles := []struct {
		cfr, hmr, increase float64
	}{
		{3.2, 1.5, 75}, {1.9, 2.4, 20}, {2.1, 1.4, 35}, {3.5, 2.1, 90}, {2.8, 1.6, 30}, {1.7, 1.2, 65},
	}
	for i, p := range profiles {
		subject := string(rune('A' + i))
		scale := float64(i + 1)
		for ti, tr := range []string{"Rest", "Adenosine", "ACh"} {
			s := newSample(subject+"_"+tr, tr, 80+scale+float64(ti*5),
				wave("FCW", sample.Proximal, 10+scale*2+float64(ti)*scale),
				wave("BDW", sample.Distal, -(3+scale)),
				wave("FDW", sample.Proximal, 2+scale/2))
			s.Subject = subject
			withDerived(s, p.cfr, p.hmr, p.increase)
			samples = append(samples, s)
		}
	}
	return samples
}

func TestRun_OrderIsIndependentOfParallelism(t *testing.T) {
	reg, b := setup(cohort()...)
	plan := Plan(reg, nil)

	sequential, err := NewRunner(b, 1, nil).Run(context.Background(), plan)
	require.NoError(t, err)
	parallel, err := NewRunner(b, 8, nil).Run(context.Background(), plan)
	require.NoError(t, err)

	require.NotEmpty(t, sequential)
	require.Equal(t, len(sequential), len(parallel))
	for i := range sequential {
		assert.Equal(t, sequential[i].Name, parallel[i].Name)
		assert.Equal(t, len(sequential[i].Outcomes), len(parallel[i].Outcomes))
	}
	assert.Equal(t, "Rest vs Adenosine", sequential[0].Name)

	names := make(map[string]bool)
	for _, c := range sequential {
		names[c.Name] = true
	}
	assert.True(t, names["Rest to Adenosine matched pairs"])
	assert.True(t, names["All treatments (CMD)"])
}

func TestRun_StatisticsErrorAbortsTheRun(t *testing.T) {
	samples := cohort()
	reg := category.NewRegistry(nil)
	reg.Discover(samples)
	b := NewBuilder(reg, nil, backend.New(nil), nil)

	plan := Plan(reg, nil)
	plan = append(plan[:2], append([]Request{{
		Kind:   KindGroups,
		Name:   "Lonely",
		Groups: []Group{{Label: "Rest", Samples: samples[:1]}},
	}}, plan[2:]...)...)

	comparisons, err := NewRunner(b, 2, nil).Run(context.Background(), plan)
	require.Error(t, err)
	assert.Nil(t, comparisons)
	assert.Equal(t, errors.CodeStatistics, errors.GetCode(err))
	assert.ErrorIs(t, err, core.ErrTooFewGroups)
	assert.Contains(t, err.Error(), "'Lonely'")
}

func TestRun_Cancelled(t *testing.T) {
	reg, b := setup(cohort()...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	comparisons, err := NewRunner(b, 2, nil).Run(ctx, Plan(reg, nil))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, comparisons)
}
