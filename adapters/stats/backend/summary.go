package backend

import (
	"math"

	"github.com/montanaflynn/stats"

	"wiastat/domain/comparison"
)

// Summarize describes a collection. Quantities that are undefined for the
// collection's size are left at zero.
func Summarize(c *comparison.DataCollection) comparison.Summary {
	s := comparison.Summary{Name: c.Name, N: c.Len()}
	if c.Type == comparison.Discrete {
		for _, f := range c.Flags {
			if f {
				s.Count++
			}
		}
		if s.N > 0 {
			s.Percent = float64(s.Count) / float64(s.N) * 100
		}
		return s
	}
	if s.N == 0 {
		return s
	}

	data := stats.Float64Data(c.Values)
	s.Mean = finite(data.Mean())
	s.Median = finite(data.Median())
	s.Q1, s.Q3 = s.Median, s.Median
	if s.N > 1 {
		s.SD = finite(data.StandardDeviationSample())
		if q, err := stats.Quartile(data); err == nil {
			s.Q1, s.Q3 = finite(q.Q1, nil), finite(q.Q3, nil)
		}
	}
	return s
}

func finite(v float64, err error) float64 {
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
