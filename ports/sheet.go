package ports

// CellStyle is a formatting hint; writers map it onto their own styling.
type CellStyle int

const (
	StylePlain CellStyle = iota
	StyleBold
	StylePositive
	StyleNegative
	StyleTitle
)

func (s CellStyle) String() string {
	switch s {
	case StyleBold:
		return "bold"
	case StylePositive:
		return "positive"
	case StyleNegative:
		return "negative"
	case StyleTitle:
		return "title"
	}
	return "plain"
}

// Cell is one value with its style. Value is a string, a number or nil.
type Cell struct {
	Value interface{}
	Style CellStyle
}

// SheetWriter appends rows to a single sheet.
type SheetWriter interface {
	WriteRow(cells ...Cell) error
}

// SheetCloser is a SheetWriter that produces a file when closed.
type SheetCloser interface {
	SheetWriter
	// Close flushes the document to the writer's target.
	Close() error
}
