// Package plot draws outcome distributions as PNG images.
package plot

import (
	"bytes"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"wiastat/domain/comparison"
)

const (
	imageWidth  = 600
	imageHeight = 300
	boxWidth    = 20
)

// OutcomePNG renders one outcome: a box plot per collection for continuous
// data, or a bar per collection with the percentage of true flags.
func OutcomePNG(title string, o *comparison.Outcome) ([]byte, error) {
	if len(o.Collections) == 0 {
		return nil, fmt.Errorf("outcome %s has no collections", o.Name)
	}

	p := plot.New()
	p.Title.Text = title
	p.Add(plotter.NewGrid())

	names := make([]string, len(o.Collections))
	for i, c := range o.Collections {
		names[i] = c.Name
	}

	if o.Collections[0].Type == comparison.Discrete {
		values := make(plotter.Values, len(o.Collections))
		for i, c := range o.Collections {
			values[i] = percentTrue(c.Flags)
		}
		bars, err := plotter.NewBarChart(values, vg.Points(boxWidth))
		if err != nil {
			return nil, fmt.Errorf("failed to create bar chart: %w", err)
		}
		p.Add(bars)
		p.Y.Label.Text = "% of samples"
	} else {
		for i, c := range o.Collections {
			if len(c.Values) == 0 {
				continue
			}
			box, err := plotter.NewBoxPlot(vg.Points(boxWidth), float64(i), plotter.Values(c.Values))
			if err != nil {
				return nil, fmt.Errorf("failed to create box plot for %s: %w", c.Name, err)
			}
			p.Add(box)
		}
		p.Y.Label.Text = o.Name
		if o.Collections[0].IsPercent {
			p.Y.Label.Text += " (%)"
		}
	}
	p.NominalX(names...)

	writer, err := p.WriterTo(vg.Points(imageWidth), vg.Points(imageHeight), "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create plot writer: %w", err)
	}
	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to render plot: %w", err)
	}
	return buf.Bytes(), nil
}

func percentTrue(flags []bool) float64 {
	if len(flags) == 0 {
		return 0
	}
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return 100 * float64(n) / float64(len(flags))
}

// Significant returns the outcomes of c whose primary p-value is below alpha.
func Significant(c *comparison.Comparison, alpha float64) []*comparison.Outcome {
	var out []*comparison.Outcome
	for _, o := range c.Outcomes {
		if o.Result != nil && o.Result.PValue() < alpha {
			out = append(out, o)
		}
	}
	return out
}
