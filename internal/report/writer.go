package report

import (
	"math"

	"wiastat/domain/comparison"
	"wiastat/ports"
)

// DefaultAlpha is the significance level used when none is configured.
const DefaultAlpha = 0.05

// Writer lays comparisons out as rows of a single sheet.
type Writer struct {
	alpha float64
}

// NewWriter creates a writer that highlights p-values below alpha.
func NewWriter(alpha float64) *Writer {
	if alpha <= 0 || alpha >= 1 {
		alpha = DefaultAlpha
	}
	return &Writer{alpha: alpha}
}

// WriteReport writes every comparison in order, separated by a blank row.
func (w *Writer) WriteReport(sheet ports.SheetWriter, comparisons []*comparison.Comparison) error {
	for i, c := range comparisons {
		if i > 0 {
			if err := sheet.WriteRow(); err != nil {
				return err
			}
		}
		if err := w.WriteComparison(sheet, c); err != nil {
			return err
		}
	}
	return nil
}

// WriteComparison writes one comparison: a title row, then per outcome a
// heading row of collection names, the summary rows and one row per test.
func (w *Writer) WriteComparison(sheet ports.SheetWriter, c *comparison.Comparison) error {
	if err := sheet.WriteRow(ports.Cell{Value: c.Name, Style: ports.StyleTitle}); err != nil {
		return err
	}
	for _, o := range c.Outcomes {
		if err := w.writeOutcome(sheet, o); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeOutcome(sheet ports.SheetWriter, o *comparison.Outcome) error {
	heading := []ports.Cell{{Value: o.Name, Style: ports.StyleBold}}
	for _, col := range o.Collections {
		heading = append(heading, ports.Cell{Value: col.Name, Style: ports.StyleBold})
	}
	if err := sheet.WriteRow(heading...); err != nil {
		return err
	}

	for _, row := range summaryRows(o) {
		if err := sheet.WriteRow(row...); err != nil {
			return err
		}
	}

	if o.Error != "" {
		return sheet.WriteRow(
			ports.Cell{Value: "Error"},
			ports.Cell{Value: o.Error, Style: ports.StyleNegative})
	}
	if o.Result == nil {
		return nil
	}
	for _, t := range o.Result.Tests {
		style := ports.StyleNegative
		if t.PValue < w.alpha {
			style = ports.StylePositive
		}
		row := []ports.Cell{
			{Value: t.Name},
			{Value: "statistic"},
			{Value: finiteOrNil(t.Statistic)},
		}
		if t.DF > 0 {
			row = append(row, ports.Cell{Value: "df"}, ports.Cell{Value: t.DF})
		}
		row = append(row, ports.Cell{Value: "p"}, ports.Cell{Value: t.PValue, Style: style})
		if err := sheet.WriteRow(row...); err != nil {
			return err
		}
	}
	return nil
}

func summaryRows(o *comparison.Outcome) [][]ports.Cell {
	if o.Result == nil || len(o.Result.Summaries) == 0 {
		row := []ports.Cell{{Value: "N"}}
		for _, col := range o.Collections {
			row = append(row, ports.Cell{Value: col.Len()})
		}
		return [][]ports.Cell{row}
	}

	type line struct {
		label string
		value func(comparison.Summary) interface{}
	}
	lines := []line{{"N", func(s comparison.Summary) interface{} { return s.N }}}
	if len(o.Collections) > 0 && o.Collections[0].Type == comparison.Discrete {
		lines = append(lines,
			line{"Count", func(s comparison.Summary) interface{} { return s.Count }},
			line{"Percent", func(s comparison.Summary) interface{} { return s.Percent }})
	} else {
		lines = append(lines,
			line{"Mean", func(s comparison.Summary) interface{} { return s.Mean }},
			line{"SD", func(s comparison.Summary) interface{} { return s.SD }},
			line{"Median", func(s comparison.Summary) interface{} { return s.Median }},
			line{"Q1", func(s comparison.Summary) interface{} { return s.Q1 }},
			line{"Q3", func(s comparison.Summary) interface{} { return s.Q3 }})
	}

	rows := make([][]ports.Cell, 0, len(lines))
	for _, l := range lines {
		row := []ports.Cell{{Value: l.label}}
		for _, s := range o.Result.Summaries {
			row = append(row, ports.Cell{Value: l.value(s)})
		}
		rows = append(rows, row)
	}
	return rows
}

func finiteOrNil(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
