// Package render builds the reimbursement form PDF from a validated
// submission.
//
// RenderForm is total: every table section recovers locally by degrading to
// plain text lines, and a failure of the page surface itself produces a
// minimal placeholder document instead of an error. Degradations are reported
// as Warnings on the Result so the caller decides what to surface.
package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/boombuler/barcode/code128"
	gofpdf "github.com/phpdave11/gofpdf"
	pdfbarcode "github.com/phpdave11/gofpdf/contrib/barcode"

	"github.com/finportal/reimbursedoc/layout"
	"github.com/finportal/reimbursedoc/submission"
)

const (
	fontFamily = "Helvetica"

	pageLeftMargin   = 15.0
	pageTopMargin    = 15.0
	pageBottomMargin = 20.0

	labelColWidth = 55.0
	sectionGap    = 8.0
	lineHeight    = layout.DefaultLineHeight

	dateLayout = "02/01/2006"
)

// Warning records one recovered degradation during rendering.
type Warning struct {
	Section string
	Message string
}

// Result is the outcome of RenderForm. Bytes is always a non-empty PDF.
type Result struct {
	Bytes    []byte
	Warnings []Warning
}

// Renderer builds reimbursement form documents using the given table
// renderer. The zero value is not usable; construct with New.
type Renderer struct {
	tables layout.TableRenderer
}

// New returns a Renderer drawing tables with the given renderer.
// A nil renderer selects the native table path.
func New(tables layout.TableRenderer) *Renderer {
	if tables == nil {
		tables = layout.Select(true)
	}
	return &Renderer{tables: tables}
}

// RenderForm renders the form for sub under the given protocol ID.
// It always returns a Result carrying a valid PDF: on an unrecoverable
// rendering failure the bytes are a placeholder document stating the
// protocol ID and the error.
func (r *Renderer) RenderForm(sub *submission.Submission, protocolID string) *Result {
	res := &Result{}
	b, err := func() (b []byte, err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("render: %v", p)
			}
		}()
		return r.renderForm(sub, protocolID, res)
	}()
	if err != nil {
		res.Warnings = append(res.Warnings, Warning{Section: "document", Message: err.Error()})
		res.Bytes = renderFailed(protocolID, err)
		return res
	}
	res.Bytes = b
	return res
}

func (r *Renderer) renderForm(sub *submission.Submission, protocolID string, res *Result) ([]byte, error) {
	if sub == nil {
		return nil, fmt.Errorf("render: nil submission")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Reimbursement "+protocolID, true)
	pdf.SetMargins(pageLeftMargin, pageTopMargin, pageLeftMargin)
	pdf.SetAutoPageBreak(true, pageBottomMargin)
	pdf.AliasNbPages("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(fontFamily, "", 8)
		pdf.SetTextColor(128, 128, 128)
		text := fmt.Sprintf("Protocol %s - Page %d of {nb}", protocolID, pdf.PageNo())
		pdf.CellFormat(contentWidth(pdf), 10, text, "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	pdf.AddPage()
	pdf.SetFont(fontFamily, "", 10)

	r.drawTitle(pdf, protocolID, res)

	y := pdf.GetY() + sectionGap
	y = r.section(pdf, res, "Solicitant", solicitantRows(sub), layout.Options{
		ColWidths:    []float64{labelColWidth, 0},
		StartY:       y,
		BoldFirstCol: true,
	})

	y = r.section(pdf, res, "Reimbursement", requestRows(sub), layout.Options{
		ColWidths:    []float64{labelColWidth, 0},
		StartY:       y + sectionGap,
		BoldFirstCol: true,
	})

	r.drawManifest(pdf, res, sub.Attachments, y+sectionGap)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render: writing output: %w", err)
	}
	return buf.Bytes(), nil
}

// drawTitle paints the title band, the protocol barcode, and the protocol
// and generation-date line. Barcode failures degrade to the text line alone.
func (r *Renderer) drawTitle(pdf *gofpdf.Fpdf, protocolID string, res *Result) {
	w := contentWidth(pdf)
	y := pdf.GetY()

	pdf.SetFillColor(63, 81, 181)
	pdf.Rect(pageLeftMargin, y, w, 14, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont(fontFamily, "B", 16)
	pdf.SetXY(pageLeftMargin+3, y)
	pdf.CellFormat(w-6, 14, "Expense Reimbursement Request", "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	y += 14 + 4
	pdf.SetFont(fontFamily, "B", 10)
	pdf.SetXY(pageLeftMargin, y)
	pdf.CellFormat(labelColWidth, lineHeight, "Protocol: "+protocolID, "", 0, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	pdf.CellFormat(0, lineHeight, "Generated: "+time.Now().Format(dateLayout), "", 0, "L", false, 0, "")

	if err := drawBarcode(pdf, protocolID, pageLeftMargin+w-45, y, 45, lineHeight); err != nil {
		res.Warnings = append(res.Warnings, Warning{Section: "barcode", Message: err.Error()})
	}

	pdf.SetXY(pageLeftMargin, y+lineHeight)
}

// drawBarcode stamps a Code-128 barcode of the protocol ID.
func drawBarcode(pdf *gofpdf.Fpdf, protocolID string, x, y, w, h float64) error {
	bc, err := code128.Encode(protocolID)
	if err != nil {
		return fmt.Errorf("render: encoding protocol barcode: %w", err)
	}
	key := pdfbarcode.Register(bc)
	pdfbarcode.Barcode(pdf, key, x, y, w, h, false)
	return pdf.Error()
}

// section draws a heading and a table of label/value rows. If the table
// renderer fails for any reason, the same rows are emitted as plain text
// lines from the same starting position so the document still completes.
// Returns the cursor position below the section.
func (r *Renderer) section(pdf *gofpdf.Fpdf, res *Result, name string, rows []layout.Row, opts layout.Options) float64 {
	opts.StartY = r.heading(pdf, name, opts.StartY)

	endY, err := func() (y float64, err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("table renderer panicked: %v", p)
			}
		}()
		return r.tables.Draw(pdf, rows, opts)
	}()
	if err == nil {
		return endY
	}

	res.Warnings = append(res.Warnings, Warning{Section: name, Message: err.Error()})
	return plainRows(pdf, rows, opts.StartY)
}

// heading writes a bold section title and returns the y below it.
func (r *Renderer) heading(pdf *gofpdf.Fpdf, text string, y float64) float64 {
	if y <= 0 {
		y = pdf.GetY()
	}
	pdf.SetFont(fontFamily, "B", 12)
	pdf.SetXY(pageLeftMargin, y)
	pdf.CellFormat(contentWidth(pdf), lineHeight, text, "", 0, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	y += lineHeight + 1
	pdf.SetXY(pageLeftMargin, y)
	return y
}

// plainRows is the text-only degradation: each row becomes one left-aligned
// line, cursor advanced by a fixed line height.
func plainRows(pdf *gofpdf.Fpdf, rows []layout.Row, startY float64) float64 {
	y := startY
	if y <= 0 {
		y = pdf.GetY()
	}
	pdf.SetFont(fontFamily, "", 10)
	for _, row := range rows {
		text := ""
		for i, cell := range row.Cells {
			if i > 0 {
				text += "  "
			}
			text += cell
		}
		pdf.SetXY(pageLeftMargin, y)
		pdf.CellFormat(contentWidth(pdf), lineHeight, text, "", 0, "L", false, 0, "")
		y += lineHeight
	}
	pdf.SetXY(pageLeftMargin, y)
	return y
}

func solicitantRows(sub *submission.Submission) []layout.Row {
	return []layout.Row{
		{Cells: []string{"Name", sub.FullName}},
		{Cells: []string{"Email", sub.Email}},
		{Cells: []string{"Phone", sub.Phone}},
		{Cells: []string{"Tax ID", sub.TaxID}},
		{Cells: []string{"Job title", sub.JobTitle}},
		{Cells: []string{"Cost center", sub.CostCenter}},
	}
}

func requestRows(sub *submission.Submission) []layout.Row {
	date := ""
	if !sub.ExpenseDate.IsZero() {
		date = sub.ExpenseDate.Format(dateLayout)
	}
	rows := []layout.Row{
		{Cells: []string{"Type", sub.Category}},
		{Cells: []string{"Expense date", date}},
		{Cells: []string{"Description", sub.Description}},
		{Cells: []string{"Total", sub.Amount + " " + sub.Currency}},
		{Cells: []string{"Payment method", sub.Method.Label()}},
	}

	switch sub.Method {
	case submission.MethodBankTransfer:
		if sub.Bank != nil {
			rows = append(rows,
				layout.Row{Cells: []string{"Bank", sub.Bank.BankName}},
				layout.Row{Cells: []string{"Branch", sub.Bank.BranchCode}},
				layout.Row{Cells: []string{"Account", sub.Bank.AccountNumber}},
			)
		}
	case submission.MethodInstantKey:
		if sub.Key != nil {
			rows = append(rows,
				layout.Row{Cells: []string{"Key type", sub.Key.Type.Label()}},
				layout.Row{Cells: []string{"Key value", sub.Key.Value}},
			)
		}
	}

	if sub.Notes != "" {
		rows = append(rows, layout.Row{Cells: []string{"Notes", sub.Notes}})
	}
	return rows
}

// drawManifest renders the attachment summary table, or a single
// "no attachment" line when the list is empty.
func (r *Renderer) drawManifest(pdf *gofpdf.Fpdf, res *Result, atts []submission.Attachment, startY float64) {
	startY = r.heading(pdf, "Attachments", startY)

	if len(atts) == 0 {
		pdf.SetXY(pageLeftMargin, startY)
		pdf.CellFormat(contentWidth(pdf), lineHeight, "No attachment.", "", 0, "L", false, 0, "")
		pdf.SetXY(pageLeftMargin, startY+lineHeight)
		return
	}

	rows := make([]layout.Row, 0, len(atts))
	for i, a := range atts {
		rows = append(rows, layout.Row{Cells: manifestRow(i, a)})
	}

	endY, err := func() (y float64, err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("table renderer panicked: %v", p)
			}
		}()
		return r.tables.Draw(pdf, rows, layout.Options{
			Header:    []string{"#", "File", "Type", "Size (KB)"},
			ColWidths: []float64{12, 0, 55, 28},
			StartY:    startY,
		})
	}()
	if err != nil {
		res.Warnings = append(res.Warnings, Warning{Section: "Attachments", Message: err.Error()})
		endY = plainRows(pdf, rows, startY)
	}
	pdf.SetXY(pageLeftMargin, endY)
}

func contentWidth(pdf *gofpdf.Fpdf) float64 {
	pageW, _ := pdf.GetPageSize()
	l, _, r, _ := pdf.GetMargins()
	return pageW - l - r
}

// renderFailed produces the minimal placeholder document used when the form
// itself cannot be rendered, so downstream reviewers still get a traceable
// artifact.
func renderFailed(protocolID string, cause error) []byte {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont(fontFamily, "B", 14)
	pdf.CellFormat(0, 10, "Reimbursement form rendering failed", "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	pdf.CellFormat(0, 8, "Protocol: "+protocolID, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, "Date: "+time.Now().Format(dateLayout), "", 1, "L", false, 0, "")
	pdf.MultiCell(0, 6, "Error: "+cause.Error(), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil
	}
	return buf.Bytes()
}
