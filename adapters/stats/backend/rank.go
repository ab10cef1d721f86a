package backend

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"wiastat/domain/comparison"
	"wiastat/domain/core"
)

// rank assigns 1-based average ranks to values and returns the tie term
// sum(t^3 - t) over all tie groups.
func rank(values []float64) (ranks []float64, ties float64) {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	ranks = make([]float64, len(values))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		if t := float64(j - i + 1); t > 1 {
			ties += t*t*t - t
		}
		i = j + 1
	}
	return ranks, ties
}

// MannWhitneyU compares two independent samples by rank. The statistic is U
// for x; the p-value uses the normal approximation with tie correction.
func MannWhitneyU(x, y []float64) (comparison.TestResult, error) {
	n1, n2 := float64(len(x)), float64(len(y))
	if n1 == 0 || n2 == 0 {
		return comparison.TestResult{}, fmt.Errorf("%s: empty group: %w", TestMannWhit, core.ErrInsufficientData)
	}
	combined := make([]float64, 0, len(x)+len(y))
	combined = append(combined, x...)
	combined = append(combined, y...)
	ranks, ties := rank(combined)

	var r1 float64
	for i := range x {
		r1 += ranks[i]
	}
	u := r1 - n1*(n1+1)/2

	n := n1 + n2
	variance := n1 * n2 / 12 * ((n + 1) - ties/(n*(n-1)))
	if variance <= 0 {
		return comparison.TestResult{}, fmt.Errorf("%s: all values tied: %w", TestMannWhit, core.ErrInsufficientData)
	}
	z := (u - n1*n2/2) / math.Sqrt(variance)

	return comparison.TestResult{
		Name:      TestMannWhit,
		Statistic: u,
		PValue:    clampP(2 * distuv.UnitNormal.Survival(math.Abs(z))),
	}, nil
}

// WilcoxonSignedRank tests paired samples by the ranks of their nonzero
// differences. The statistic is W+, the rank sum of positive differences.
func WilcoxonSignedRank(before, after []float64) (comparison.TestResult, error) {
	if len(before) != len(after) {
		return comparison.TestResult{}, fmt.Errorf("%s: %d before values but %d after values", TestWilcoxon, len(before), len(after))
	}
	var diffs, abs []float64
	for i := range before {
		if d := after[i] - before[i]; d != 0 {
			diffs = append(diffs, d)
			abs = append(abs, math.Abs(d))
		}
	}
	if len(diffs) == 0 {
		return comparison.TestResult{}, fmt.Errorf("%s: no nonzero differences: %w", TestWilcoxon, core.ErrInsufficientData)
	}
	ranks, ties := rank(abs)

	var wPlus float64
	for i, d := range diffs {
		if d > 0 {
			wPlus += ranks[i]
		}
	}
	n := float64(len(diffs))
	mean := n * (n + 1) / 4
	variance := n*(n+1)*(2*n+1)/24 - ties/48
	if variance <= 0 {
		return comparison.TestResult{}, fmt.Errorf("%s: %w", TestWilcoxon, core.ErrInsufficientData)
	}
	z := (wPlus - mean) / math.Sqrt(variance)

	return comparison.TestResult{
		Name:      TestWilcoxon,
		Statistic: wPlus,
		PValue:    clampP(2 * distuv.UnitNormal.Survival(math.Abs(z))),
	}, nil
}

// KruskalWallis is the rank-based analogue of one-way ANOVA.
func KruskalWallis(groups [][]float64) (comparison.TestResult, error) {
	k := len(groups)
	if k < 2 {
		return comparison.TestResult{}, fmt.Errorf("%s: %w", TestKruskal, core.ErrTooFewGroups)
	}
	var combined []float64
	for _, g := range groups {
		if len(g) == 0 {
			return comparison.TestResult{}, fmt.Errorf("%s: empty group: %w", TestKruskal, core.ErrInsufficientData)
		}
		combined = append(combined, g...)
	}
	ranks, ties := rank(combined)
	n := float64(len(combined))

	var h float64
	offset := 0
	for _, g := range groups {
		var sum float64
		for i := range g {
			sum += ranks[offset+i]
		}
		offset += len(g)
		h += sum * sum / float64(len(g))
	}
	h = 12/(n*(n+1))*h - 3*(n+1)

	correction := 1 - ties/(n*n*n-n)
	if correction <= 0 {
		return comparison.TestResult{}, fmt.Errorf("%s: all values tied: %w", TestKruskal, core.ErrInsufficientData)
	}
	h /= correction
	df := float64(k - 1)

	return comparison.TestResult{
		Name:      TestKruskal,
		Statistic: h,
		DF:        df,
		PValue:    clampP(distuv.ChiSquared{K: df}.Survival(h)),
	}, nil
}
