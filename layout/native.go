package layout

import (
	"fmt"

	gofpdf "github.com/phpdave11/gofpdf"
)

// Native is the rich table path. It wraps long cell text onto multiple lines,
// sizes each row to its tallest cell, draws cell borders, and repeats the
// header after a page break.
type Native struct{}

// Draw renders rows as a bordered table and returns the cursor position below
// the last row.
func (n *Native) Draw(pdf *gofpdf.Fpdf, rows []Row, opts Options) (float64, error) {
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

	lMargin, _, _, bMargin := pdf.GetMargins()
	_, pageH := pdf.GetPageSize()
	if opts.StartY > 0 {
		pdf.SetY(opts.StartY)
	}

	if len(opts.Header) > 0 {
		n.drawHeader(pdf, opts, widths, lMargin)
	}

	for _, row := range rows {
		rowH := n.rowHeight(pdf, row, widths, opts)
		if pdf.GetY()+rowH > pageH-bMargin {
			pdf.AddPage()
			if len(opts.Header) > 0 {
				n.drawHeader(pdf, opts, widths, lMargin)
			}
		}
		n.drawRow(pdf, row, widths, opts, rowH, lMargin)
	}

	return pdf.GetY(), pdf.Error()
}

func (n *Native) drawHeader(pdf *gofpdf.Fpdf, opts Options, widths []float64, startX float64) {
	rowH := opts.LineHeight + 2*cellPadding
	y := pdf.GetY()
	x := startX

	pdf.SetFillColor(headerFill[0], headerFill[1], headerFill[2])
	pdf.SetTextColor(headerText[0], headerText[1], headerText[2])
	pdf.SetFont(opts.FontFamily, "B", opts.FontSize)

	for i := range widths {
		pdf.SetXY(x, y)
		pdf.CellFormat(widths[i], rowH, cellText(opts.Header, i), "1", 0, "L", true, 0, "")
		x += widths[i]
	}

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont(opts.FontFamily, "", opts.FontSize)
	pdf.SetXY(startX, y+rowH)
}

// rowHeight sizes the row to its tallest wrapped cell.
func (n *Native) rowHeight(pdf *gofpdf.Fpdf, row Row, widths []float64, opts Options) float64 {
	maxH := opts.LineHeight + 2*cellPadding
	for i := range widths {
		contentW := widths[i] - 2*cellPadding
		if contentW < 1 {
			contentW = 1
		}
		lines := pdf.SplitLines([]byte(cellText(row.Cells, i)), contentW)
		h := float64(len(lines))*opts.LineHeight + 2*cellPadding
		if h > maxH {
			maxH = h
		}
	}
	return maxH
}

func (n *Native) drawRow(pdf *gofpdf.Fpdf, row Row, widths []float64, opts Options, rowH float64, startX float64) {
	y := pdf.GetY()
	x := startX

	for i := range widths {
		style := ""
		if i == 0 && opts.BoldFirstCol {
			style = "B"
		}
		pdf.SetFont(opts.FontFamily, style, opts.FontSize)

		pdf.Rect(x, y, widths[i], rowH, "D")

		pdf.SetXY(x+cellPadding, y+cellPadding)
		pdf.MultiCell(widths[i]-2*cellPadding, opts.LineHeight, cellText(row.Cells, i), "", "L", false)

		x += widths[i]
	}

	pdf.SetFont(opts.FontFamily, "", opts.FontSize)
	pdf.SetXY(startX, y+rowH)
}
