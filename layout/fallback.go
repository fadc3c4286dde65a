package layout

import (
	"fmt"

	gofpdf "github.com/phpdave11/gofpdf"
)

// Fallback is the hand-written table path used when the native builder is
// unavailable. It walks rows and columns itself, advancing a running
// horizontal cursor by each column's width, and draws one line of text per
// cell. Long text may overflow its column; content is never dropped.
type Fallback struct{}

// Draw renders rows with manual cell placement and returns the cursor
// position immediately below the last row.
func (f *Fallback) Draw(pdf *gofpdf.Fpdf, rows []Row, opts Options) (float64, error) {
	if pdf == nil {
		return 0, fmt.Errorf("layout: nil document")
	}
	if err := pdf.Error(); err != nil {
		return 0, err
	}
	opts.applyDefaults()

	numCols := columnCount(rows, opts.Header)
	if numCols == 0 {
		return pdf.GetY(), nil
	}
	widths := resolveWidths(pdf, opts.ColWidths, numCols)
	tableW := 0.0
	for _, w := range widths {
		tableW += w
	}

	lMargin, tMargin, _, bMargin := pdf.GetMargins()
	_, pageH := pdf.GetPageSize()
	lh := opts.LineHeight

	y := opts.StartY
	if y <= 0 {
		y = pdf.GetY()
	}

	if len(opts.Header) > 0 {
		y = f.drawHeader(pdf, opts, widths, lMargin, y)
	}

	for _, row := range rows {
		if y+lh > pageH-bMargin {
			pdf.AddPage()
			y = tMargin
			if len(opts.Header) > 0 {
				y = f.drawHeader(pdf, opts, widths, lMargin, y)
			}
		}

		x := lMargin
		for i := range widths {
			style := ""
			if i == 0 && opts.BoldFirstCol {
				style = "B"
			}
			pdf.SetFont(opts.FontFamily, style, opts.FontSize)
			pdf.SetXY(x, y)
			pdf.CellFormat(widths[i], lh, cellText(row.Cells, i), "", 0, "L", false, 0, "")
			x += widths[i]
		}

		pdf.SetDrawColor(200, 200, 200)
		pdf.Line(lMargin, y+lh, lMargin+tableW, y+lh)
		pdf.SetDrawColor(0, 0, 0)

		y += lh
	}

	pdf.SetFont(opts.FontFamily, "", opts.FontSize)
	pdf.SetXY(lMargin, y)
	return y, pdf.Error()
}

func (f *Fallback) drawHeader(pdf *gofpdf.Fpdf, opts Options, widths []float64, startX, y float64) float64 {
	lh := opts.LineHeight

	pdf.SetFillColor(headerFill[0], headerFill[1], headerFill[2])
	pdf.SetTextColor(headerText[0], headerText[1], headerText[2])
	pdf.SetFont(opts.FontFamily, "B", opts.FontSize)

	x := startX
	for i := range widths {
		pdf.SetXY(x, y)
		pdf.CellFormat(widths[i], lh, cellText(opts.Header, i), "", 0, "L", true, 0, "")
		x += widths[i]
	}

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont(opts.FontFamily, "", opts.FontSize)
	return y + lh
}
