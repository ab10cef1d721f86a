package comparison

import (
	"encoding/json"
	"fmt"
	"math"

	"wiastat/domain/sample"
)

// DataType tells the statistics backend which family of tests applies.
type DataType int

const (
	Continuous DataType = iota
	Discrete
)

func (t DataType) String() string {
	if t == Discrete {
		return "discrete"
	}
	return "continuous"
}

func (t DataType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *DataType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "continuous":
		*t = Continuous
	case "discrete":
		*t = Discrete
	default:
		return fmt.Errorf("unknown data type %q", s)
	}
	return nil
}

// DataCollection holds the values of one group for one outcome.
type DataCollection struct {
	Name string   `json:"name"`
	Type DataType `json:"type"`
	// Values holds continuous data; Flags holds discrete data.
	Values []float64 `json:"values,omitempty"`
	Flags  []bool    `json:"flags,omitempty"`
	// IsPercent only affects formatting.
	IsPercent bool `json:"is_percent,omitempty"`
}

func NewContinuous(name string, isPercent bool) *DataCollection {
	return &DataCollection{Name: name, Type: Continuous, IsPercent: isPercent}
}

func NewDiscrete(name string) *DataCollection {
	return &DataCollection{Name: name, Type: Discrete}
}

// Add appends a value; NaN and infinities are dropped.
func (d *DataCollection) Add(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	d.Values = append(d.Values, v)
}

func (d *DataCollection) AddFlag(b bool) {
	d.Flags = append(d.Flags, b)
}

func (d *DataCollection) Len() int {
	if d.Type == Discrete {
		return len(d.Flags)
	}
	return len(d.Values)
}

// TestResult is one significance test over all collections of an outcome.
type TestResult struct {
	Name      string  `json:"name"`
	Statistic float64 `json:"statistic"`
	DF        float64 `json:"df,omitempty"`
	PValue    float64 `json:"p_value"`
}

// Summary describes one collection.
type Summary struct {
	Name   string  `json:"name"`
	N      int     `json:"n"`
	Mean   float64 `json:"mean,omitempty"`
	SD     float64 `json:"sd,omitempty"`
	Median float64 `json:"median,omitempty"`
	Q1     float64 `json:"q1,omitempty"`
	Q3     float64 `json:"q3,omitempty"`
	// Count and Percent describe discrete collections.
	Count   int     `json:"count,omitempty"`
	Percent float64 `json:"percent,omitempty"`
}

// Statistics is what the backend computed for an outcome.
type Statistics struct {
	Tests     []TestResult `json:"tests"`
	Summaries []Summary    `json:"summaries"`
}

// PValue is the p-value of the primary test, or NaN when there is none.
func (s *Statistics) PValue() float64 {
	if s == nil || len(s.Tests) == 0 {
		return math.NaN()
	}
	return s.Tests[0].PValue
}

// Outcome is one measured quantity compared across groups.
type Outcome struct {
	Name        string            `json:"name"`
	Paired      bool              `json:"paired,omitempty"`
	Collections []*DataCollection `json:"collections"`
	Result      *Statistics       `json:"result,omitempty"`
	// Error records a backend failure for this outcome only.
	Error string `json:"error,omitempty"`
}

// NewOutcome creates an outcome with one empty collection per label.
func NewOutcome(name string, labels []string, typ DataType, isPercent bool) *Outcome {
	o := &Outcome{Name: name, Collections: make([]*DataCollection, len(labels))}
	for i, l := range labels {
		if typ == Discrete {
			o.Collections[i] = NewDiscrete(l)
		} else {
			o.Collections[i] = NewContinuous(l, isPercent)
		}
	}
	return o
}

// Collection returns the collection with the given label.
func (o *Outcome) Collection(label string) *DataCollection {
	for _, c := range o.Collections {
		if c.Name == label {
			return c
		}
	}
	return nil
}

// Complete reports whether the outcome has at least two collections and
// none of them is empty.
func (o *Outcome) Complete() bool {
	if len(o.Collections) < 2 {
		return false
	}
	for _, c := range o.Collections {
		if c.Len() == 0 {
			return false
		}
	}
	return true
}

// DropEmpty removes empty collections.
func (o *Outcome) DropEmpty() {
	kept := o.Collections[:0]
	for _, c := range o.Collections {
		if c.Len() > 0 {
			kept = append(kept, c)
		}
	}
	o.Collections = kept
}

// TotalN sums the collection sizes.
func (o *Outcome) TotalN() int {
	n := 0
	for _, c := range o.Collections {
		n += c.Len()
	}
	return n
}

// Comparison is the result of one builder invocation.
type Comparison struct {
	Name     string     `json:"name"`
	Groups   []string   `json:"groups"`
	Outcomes []*Outcome `json:"outcomes"`
}

// Outcome looks an outcome up by name.
func (c *Comparison) Outcome(name string) *Outcome {
	for _, o := range c.Outcomes {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// Pair is the same vessel recorded under two treatments.
type Pair struct {
	Before *sample.Sample
	After  *sample.Sample
}

// PercentChange returns 100*(after-before)/|before|; ok is false when before is zero.
func PercentChange(before, after float64) (v float64, ok bool) {
	if before == 0 {
		return 0, false
	}
	return (after - before) / math.Abs(before) * 100, true
}
