// Package markdown renders report rows as Markdown tables and converts the
// result to HTML for the run viewer.
package markdown

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"wiastat/ports"
)

// Writer collects rows into a Markdown document. A title row becomes a
// heading, a bold row opens a new table and an empty row closes it. A table
// is as wide as its longest row.
type Writer struct {
	path  string
	buf   bytes.Buffer
	table [][]ports.Cell
}

var _ ports.SheetCloser = (*Writer)(nil)

// NewWriter creates a writer that saves to path on Close. An empty path
// keeps the document in memory only.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

func (w *Writer) WriteRow(cells ...ports.Cell) error {
	switch {
	case len(cells) == 0:
		w.endTable()
	case len(cells) == 1 && cells[0].Style == ports.StyleTitle:
		w.endTable()
		fmt.Fprintf(&w.buf, "## %s\n\n", escape(format(cells[0].Value)))
	case cells[0].Style == ports.StyleBold:
		w.endTable()
		w.table = append(w.table, cells)
	default:
		w.table = append(w.table, cells)
	}
	return nil
}

// endTable writes the pending rows, the first one as the header.
func (w *Writer) endTable() {
	if len(w.table) == 0 {
		return
	}
	columns := 0
	for _, row := range w.table {
		if len(row) > columns {
			columns = len(row)
		}
	}
	w.writeCells(w.table[0], columns)
	w.buf.WriteString("|" + strings.Repeat(" --- |", columns) + "\n")
	for _, row := range w.table[1:] {
		w.writeCells(row, columns)
	}
	w.buf.WriteString("\n")
	w.table = nil
}

func (w *Writer) writeCells(cells []ports.Cell, columns int) {
	w.buf.WriteString("|")
	for i := 0; i < columns; i++ {
		text := ""
		if i < len(cells) {
			text = escape(format(cells[i].Value))
			if text != "" && cells[i].Style == ports.StylePositive {
				text = "**" + text + "**"
			}
		}
		w.buf.WriteString(" " + text + " |")
	}
	w.buf.WriteString("\n")
}

// Bytes returns the document written so far.
func (w *Writer) Bytes() []byte {
	w.endTable()
	return w.buf.Bytes()
}

// Close writes the document to its path.
func (w *Writer) Close() error {
	if w.path == "" {
		return nil
	}
	if err := os.WriteFile(w.path, w.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", w.path, err)
	}
	return nil
}

// ToHTML renders a Markdown document with table support. Raw HTML in the
// document is dropped.
func ToHTML(md []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return markdown.ToHTML(md, p, renderer)
}

var escaper = strings.NewReplacer(
	"|", `\|`,
	"&", `\&`,
	"<", `\<`,
	">", `\>`,
)

// escape keeps cell text literal: pipes would split the cell and angle
// brackets would open raw HTML.
func escape(s string) string {
	return escaper.Replace(s)
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
	}
	return fmt.Sprint(v)
}
