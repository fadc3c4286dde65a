// Package layout provides the table drawing primitive used by the document
// renderer.
//
// Two implementations of TableRenderer exist: Native, a full table builder
// with computed column widths, header bands and page-break handling, and
// Fallback, a hand-written cell walker kept deliberately simple so it keeps
// working when the richer path cannot. Which one is used is decided once at
// construction time via Select; both must preserve row order and cell content
// exactly and may differ only in visual layout.
package layout

import (
	gofpdf "github.com/phpdave11/gofpdf"
)

// Row is one ordered sequence of cell texts.
type Row struct {
	Cells []string
}

// Options controls a single Draw call.
type Options struct {
	Header       []string  // optional header row; empty means no header
	ColWidths    []float64 // per-column widths; 0 shares the remaining width
	StartY       float64   // starting vertical position; 0 means current cursor
	LineHeight   float64   // baseline row height; 0 means DefaultLineHeight
	BoldFirstCol bool      // render the first column bold (label column)
	FontFamily   string    // defaults to Helvetica
	FontSize     float64   // defaults to 10
}

// TableRenderer draws rows onto the given document starting at the vertical
// position selected by opts and returns the cursor position immediately below
// the last row. Implementations must not reorder, drop, or truncate rows.
type TableRenderer interface {
	Draw(pdf *gofpdf.Fpdf, rows []Row, opts Options) (endY float64, err error)
}

// Select returns the table renderer for the given capability. Callers that
// know the native table path is unavailable pass false and get the fallback
// renderer; there is no runtime probing.
func Select(native bool) TableRenderer {
	if native {
		return &Native{}
	}
	return &Fallback{}
}

// DefaultLineHeight is the row height used when Options.LineHeight is zero.
const DefaultLineHeight = 7.0

const (
	defaultFontFamily = "Helvetica"
	defaultFontSize   = 10.0
	cellPadding       = 1.5
)

// header band colors, shared by both renderers.
var (
	headerFill = [3]int{63, 81, 181}
	headerText = [3]int{255, 255, 255}
)

func (o *Options) applyDefaults() {
	if o.LineHeight <= 0 {
		o.LineHeight = DefaultLineHeight
	}
	if o.FontFamily == "" {
		o.FontFamily = defaultFontFamily
	}
	if o.FontSize <= 0 {
		o.FontSize = defaultFontSize
	}
}

// resolveWidths computes final column widths: declared widths are kept and
// zero-width columns share whatever remains of the content width.
func resolveWidths(pdf *gofpdf.Fpdf, declared []float64, numCols int) []float64 {
	pageW, _ := pdf.GetPageSize()
	lMargin, _, rMargin, _ := pdf.GetMargins()
	total := pageW - lMargin - rMargin

	widths := make([]float64, numCols)
	fixed := 0.0
	auto := 0
	for i := 0; i < numCols; i++ {
		if i < len(declared) && declared[i] > 0 {
			widths[i] = declared[i]
			fixed += declared[i]
		} else {
			auto++
		}
	}
	if auto > 0 {
		remaining := total - fixed
		if remaining < 0 {
			remaining = 0
		}
		share := remaining / float64(auto)
		for i := range widths {
			if widths[i] == 0 {
				widths[i] = share
			}
		}
	}
	return widths
}

// columnCount is the widest row, so short rows never shrink the grid.
func columnCount(rows []Row, header []string) int {
	n := len(header)
	for _, r := range rows {
		if len(r.Cells) > n {
			n = len(r.Cells)
		}
	}
	return n
}

// cellText returns the cell at index i, or "" when the row is short.
// A malformed row must never fail a draw.
func cellText(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}
