package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"wiastat/domain/sample"
	"wiastat/ports"
)

// ReportSheet is the sheet name comparison reports are written to.
const ReportSheet = "Statistics"

// SheetWriter writes styled rows to one sheet of a new workbook and saves it
// to path on Close.
type SheetWriter struct {
	file   *excelize.File
	path   string
	sheet  string
	row    int
	styles map[ports.CellStyle]int
}

var _ ports.SheetCloser = (*SheetWriter)(nil)

// NewSheetWriter creates a workbook whose only sheet is named sheet. An
// empty path keeps the workbook in memory for WriteTo.
func NewSheetWriter(path, sheet string) (*SheetWriter, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	styles, err := registerStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &SheetWriter{file: f, path: path, sheet: sheet, styles: styles}, nil
}

func registerStyles(f *excelize.File) (map[ports.CellStyle]int, error) {
	defs := map[ports.CellStyle]*excelize.Style{
		ports.StyleBold:     {Font: &excelize.Font{Bold: true}},
		ports.StyleTitle:    {Font: &excelize.Font{Bold: true, Size: 14}},
		ports.StylePositive: {Font: &excelize.Font{Bold: true, Color: "006100"}, Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"C6EFCE"}}},
		ports.StyleNegative: {Font: &excelize.Font{Color: "9C0006"}, Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFC7CE"}}},
	}
	ids := make(map[ports.CellStyle]int, len(defs))
	for style, def := range defs {
		id, err := f.NewStyle(def)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s style: %w", style, err)
		}
		ids[style] = id
	}
	return ids, nil
}

// WriteRow appends one row. Empty rows are kept as blank separators.
func (w *SheetWriter) WriteRow(cells ...ports.Cell) error {
	w.row++
	for col, c := range cells {
		cell, err := excelize.CoordinatesToCellName(col+1, w.row)
		if err != nil {
			return err
		}
		if c.Value != nil {
			if err := w.file.SetCellValue(w.sheet, cell, c.Value); err != nil {
				return fmt.Errorf("failed to set %s: %w", cell, err)
			}
		}
		if id, ok := w.styles[c.Style]; ok {
			if err := w.file.SetCellStyle(w.sheet, cell, cell, id); err != nil {
				return fmt.Errorf("failed to style %s: %w", cell, err)
			}
		}
	}
	return nil
}

// WriteTo streams the workbook to out, e.g. an HTTP response.
func (w *SheetWriter) WriteTo(out io.Writer) (int64, error) {
	return w.file.WriteTo(out)
}

// Close saves the workbook when the writer has a path, then releases it.
func (w *SheetWriter) Close() error {
	defer w.file.Close()
	if w.path == "" {
		return nil
	}
	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to save %s: %w", w.path, err)
	}
	return nil
}

// WriteSamples saves samples as a workbook that SampleReader can load back.
func WriteSamples(path string, samples []*sample.Sample) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SamplesSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(WavesSheet); err != nil {
		return err
	}

	if err := writeHeader(f, SamplesSheet, SampleColumns); err != nil {
		return err
	}
	if err := writeHeader(f, WavesSheet, WaveColumns); err != nil {
		return err
	}

	waveRow := 2
	for i, s := range samples {
		if err := setRow(f, SamplesSheet, i+2, sampleRow(s)); err != nil {
			return err
		}
		for _, w := range s.Waves {
			row := []interface{}{s.Path, w.Name, w.Direction.String(), w.StartTime, w.EndTime, w.CumulativeIntensity, w.PeakIntensity}
			if err := setRow(f, WavesSheet, waveRow, row); err != nil {
				return err
			}
			waveRow++
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, columns []string) error {
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, bold)
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func sampleRow(s *sample.Sample) []interface{} {
	m := s.Measurements
	return []interface{}{
		s.Path, s.Subject, s.Treatment, m.WaveSpeed,
		m.AvgPressure, m.MaxPressure, m.MinPressure,
		m.AvgFlow, m.MaxFlow, m.MinFlow, m.Resistance,
		m.CumulativeNet, m.CumulativeForward, m.CumulativeBackward,
		m.PeakForward, m.PeakBackward,
		optional(s.VesselDiameter), optional(s.FlowReserve), optional(s.ResistanceIndex), optional(s.FlowIncrease),
		flag(s.EndoDependentFlag), flag(s.EndoIndependentFlag),
	}
}

func optional(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func flag(t sample.Tristate) string {
	switch t {
	case sample.True:
		return "yes"
	case sample.False:
		return "no"
	}
	return ""
}
