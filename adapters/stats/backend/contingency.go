package backend

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"

	"wiastat/domain/comparison"
	"wiastat/domain/core"
)

// ChiSquare tests independence of the true/false split from group
// membership on the 2 x k contingency table. A table in which every value is
// the same carries no association: statistic 0, p-value 1.
func ChiSquare(groups [][]bool) (comparison.TestResult, error) {
	k := len(groups)
	if k < 2 {
		return comparison.TestResult{}, fmt.Errorf("%s: %w", TestChi, core.ErrTooFewGroups)
	}

	observed := make([][2]float64, k)
	var trueTotal, falseTotal float64
	for i, g := range groups {
		if len(g) == 0 {
			return comparison.TestResult{}, fmt.Errorf("%s: empty group: %w", TestChi, core.ErrInsufficientData)
		}
		for _, f := range g {
			if f {
				observed[i][0]++
				trueTotal++
			} else {
				observed[i][1]++
				falseTotal++
			}
		}
	}
	df := float64(k - 1)
	result := comparison.TestResult{Name: TestChi, DF: df, PValue: 1}
	if trueTotal == 0 || falseTotal == 0 {
		return result, nil
	}

	n := trueTotal + falseTotal
	for _, row := range observed {
		colTotal := row[0] + row[1]
		for j, rowTotal := range [2]float64{trueTotal, falseTotal} {
			expected := rowTotal * colTotal / n
			diff := row[j] - expected
			result.Statistic += diff * diff / expected
		}
	}
	result.PValue = clampP(distuv.ChiSquared{K: df}.Survival(result.Statistic))
	return result, nil
}
