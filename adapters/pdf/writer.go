// Package pdf renders report rows as a landscape PDF table.
package pdf

import (
	"bytes"
	"fmt"
	"math"

	"github.com/jung-kurt/gofpdf"

	"wiastat/ports"
)

const (
	inchToMm          = 25.4
	pageWidth         = 11 * inchToMm // Letter landscape
	pageHeight        = 8.5 * inchToMm
	margin            = 0.5 * inchToMm
	contentWidth      = pageWidth - 2*margin
	contentBottom     = pageHeight - margin
	lineHeight        = 5.0
	labelColumnWidth  = 0.3 * contentWidth
	maxValueColumns   = 7
	valueColumnWidth  = (contentWidth - labelColumnWidth) / maxValueColumns
	imageAspectHeight = 0.5
)

// Writer is a SheetCloser that draws each row as a line of table cells.
type Writer struct {
	pdf    *gofpdf.Fpdf
	path   string
	title  string
	styles map[ports.CellStyle]func()
}

var _ ports.SheetCloser = (*Writer)(nil)

// NewWriter starts a document saved to path on Close. A non-empty title is
// printed as the first line.
func NewWriter(path, title string) *Writer {
	pdf := gofpdf.New("L", "mm", "Letter", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.AddPage()

	w := &Writer{pdf: pdf, path: path, title: title}
	w.defineStyles()
	if title != "" {
		w.styles[ports.StyleTitle]()
		pdf.CellFormat(contentWidth, 2*lineHeight, title, "", 1, "C", false, 0, "")
		pdf.Ln(lineHeight)
	}
	return w
}

func (w *Writer) defineStyles() {
	p := w.pdf
	w.styles = map[ports.CellStyle]func(){
		ports.StylePlain: func() {
			p.SetFont("Arial", "", 8)
			p.SetTextColor(0, 0, 0)
			p.SetFillColor(255, 255, 255)
		},
		ports.StyleBold: func() {
			p.SetFont("Arial", "B", 8)
			p.SetTextColor(0, 0, 0)
			p.SetFillColor(220, 220, 220)
		},
		ports.StyleTitle: func() {
			p.SetFont("Arial", "B", 12)
			p.SetTextColor(0, 0, 0)
			p.SetFillColor(255, 255, 255)
		},
		ports.StylePositive: func() {
			p.SetFont("Arial", "B", 8)
			p.SetTextColor(0, 97, 0)
			p.SetFillColor(198, 239, 206)
		},
		ports.StyleNegative: func() {
			p.SetFont("Arial", "", 8)
			p.SetTextColor(156, 0, 6)
			p.SetFillColor(255, 199, 206)
		},
	}
}

func (w *Writer) applyStyle(s ports.CellStyle) {
	if fn, ok := w.styles[s]; ok {
		fn()
		return
	}
	w.styles[ports.StylePlain]()
}

func (w *Writer) checkAddPage(needed float64) {
	if w.pdf.GetY()+needed > contentBottom {
		w.pdf.AddPage()
	}
}

// WriteRow draws one row. An empty row leaves a gap; cells past the last
// value column are dropped.
func (w *Writer) WriteRow(cells ...ports.Cell) error {
	if len(cells) == 0 {
		w.pdf.Ln(lineHeight / 2)
		return w.pdf.Error()
	}
	w.checkAddPage(lineHeight)

	x := margin
	for i, c := range cells {
		if i > maxValueColumns {
			break
		}
		width := valueColumnWidth
		align := "R"
		if i == 0 {
			width = labelColumnWidth
			align = "L"
		}
		if c.Style == ports.StyleTitle && len(cells) == 1 {
			width = contentWidth
		}
		w.applyStyle(c.Style)
		fill := c.Style != ports.StylePlain && c.Style != ports.StyleTitle
		w.pdf.SetXY(x, w.pdf.GetY())
		w.pdf.CellFormat(width, lineHeight, format(c.Value), "", 0, align, fill, 0, "")
		x += width
	}
	w.pdf.Ln(lineHeight)
	return w.pdf.Error()
}

// AddImage places a PNG across the content width, starting a new page when
// it does not fit.
func (w *Writer) AddImage(name string, png []byte, caption string) error {
	w.pdf.RegisterImageReader(name, "PNG", bytes.NewReader(png))
	width := contentWidth * 0.6
	height := width * imageAspectHeight
	needed := height
	if caption != "" {
		needed += lineHeight
	}
	w.checkAddPage(needed)

	y := w.pdf.GetY()
	w.pdf.Image(name, margin+(contentWidth-width)/2, y, width, height, false, "PNG", 0, "")
	w.pdf.SetY(y + height)
	if caption != "" {
		w.applyStyle(ports.StylePlain)
		w.pdf.CellFormat(contentWidth, lineHeight, caption, "", 1, "C", false, 0, "")
	}
	w.pdf.Ln(lineHeight / 2)
	return w.pdf.Error()
}

// Close writes the document to its path.
func (w *Writer) Close() error {
	if err := w.pdf.OutputFileAndClose(w.path); err != nil {
		return fmt.Errorf("failed to write %s: %w", w.path, err)
	}
	return nil
}

func format(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		return fmt.Sprintf("%.4g", x)
	case int:
		return fmt.Sprintf("%d", x)
	}
	return fmt.Sprint(v)
}
