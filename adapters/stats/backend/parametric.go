package backend

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"wiastat/domain/comparison"
	"wiastat/domain/core"
)

const (
	TestWelch    = "Welch t-test"
	TestPairedT  = "Paired t-test"
	TestANOVA    = "One-way ANOVA"
	TestMannWhit = "Mann-Whitney U"
	TestWilcoxon = "Wilcoxon signed-rank"
	TestKruskal  = "Kruskal-Wallis H"
	TestChi      = "Chi-square"
)

// WelchTTest compares two means without assuming equal variances.
func WelchTTest(x, y []float64) (comparison.TestResult, error) {
	n1, n2 := float64(len(x)), float64(len(y))
	if n1 < 2 || n2 < 2 {
		return comparison.TestResult{}, fmt.Errorf("%s needs two values per group: %w", TestWelch, core.ErrInsufficientData)
	}
	mean1, var1 := stat.MeanVariance(x, nil)
	mean2, var2 := stat.MeanVariance(y, nil)

	se2 := var1/n1 + var2/n2
	if se2 == 0 {
		return comparison.TestResult{}, fmt.Errorf("%s: both groups are constant: %w", TestWelch, core.ErrInsufficientData)
	}
	t := (mean1 - mean2) / math.Sqrt(se2)
	df := se2 * se2 / (math.Pow(var1/n1, 2)/(n1-1) + math.Pow(var2/n2, 2)/(n2-1))

	return comparison.TestResult{
		Name:      TestWelch,
		Statistic: t,
		DF:        df,
		PValue:    twoSidedT(t, df),
	}, nil
}

// PairedTTest tests whether the mean of after-before differs from zero.
// The slices are matched by index.
func PairedTTest(before, after []float64) (comparison.TestResult, error) {
	if len(before) != len(after) {
		return comparison.TestResult{}, fmt.Errorf("%s: %d before values but %d after values", TestPairedT, len(before), len(after))
	}
	n := float64(len(before))
	if n < 2 {
		return comparison.TestResult{}, fmt.Errorf("%s needs two pairs: %w", TestPairedT, core.ErrInsufficientData)
	}
	diffs := make([]float64, len(before))
	for i := range before {
		diffs[i] = after[i] - before[i]
	}
	mean, variance := stat.MeanVariance(diffs, nil)
	if variance == 0 {
		return comparison.TestResult{}, fmt.Errorf("%s: differences are constant: %w", TestPairedT, core.ErrInsufficientData)
	}
	t := mean / math.Sqrt(variance/n)
	df := n - 1

	return comparison.TestResult{
		Name:      TestPairedT,
		Statistic: t,
		DF:        df,
		PValue:    twoSidedT(t, df),
	}, nil
}

// OneWayANOVA tests whether all group means are equal.
func OneWayANOVA(groups [][]float64) (comparison.TestResult, error) {
	k := len(groups)
	if k < 2 {
		return comparison.TestResult{}, fmt.Errorf("%s: %w", TestANOVA, core.ErrTooFewGroups)
	}

	var all []float64
	for _, g := range groups {
		if len(g) == 0 {
			return comparison.TestResult{}, fmt.Errorf("%s: empty group: %w", TestANOVA, core.ErrInsufficientData)
		}
		all = append(all, g...)
	}
	n := len(all)
	grand := stat.Mean(all, nil)

	var between, within float64
	for _, g := range groups {
		m := stat.Mean(g, nil)
		between += float64(len(g)) * (m - grand) * (m - grand)
		for _, v := range g {
			within += (v - m) * (v - m)
		}
	}

	df1, df2 := float64(k-1), float64(n-k)
	if df2 <= 0 || within == 0 {
		return comparison.TestResult{}, fmt.Errorf("%s: no within-group variance: %w", TestANOVA, core.ErrInsufficientData)
	}
	f := (between / df1) / (within / df2)

	return comparison.TestResult{
		Name:      TestANOVA,
		Statistic: f,
		DF:        df1,
		PValue:    clampP(distuv.F{D1: df1, D2: df2}.Survival(f)),
	}, nil
}

func twoSidedT(t, df float64) float64 {
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return clampP(2 * dist.Survival(math.Abs(t)))
}

func clampP(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 1
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
