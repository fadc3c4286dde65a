// Package merge combines independently produced PDF byte buffers into a
// single page-ordered document.
//
// Inputs that fail to parse as PDFs are skipped, never fatal: the common
// real-world case is a corrupted or mislabeled "attachment" sneaking through
// upstream filtering, and losing the rest of the merge over it is worse than
// dropping the one file.
package merge

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	gofpdf "github.com/phpdave11/gofpdf"
	"github.com/phpdave11/gofpdf/contrib/gofpdi"
)

var (
	// ErrEmptyInput is returned when the input list is empty or every
	// buffer is zero-length. It indicates a caller-side contract violation.
	ErrEmptyInput = errors.New("merge: no input buffers provided")

	// ErrNoPagesMerged is returned when none of the inputs contributed a
	// single page.
	ErrNoPagesMerged = errors.New("merge: no pages could be merged from any input")
)

// Result is the outcome of a successful merge.
type Result struct {
	Bytes   []byte
	Pages   int   // pages copied into the output
	Skipped []int // indices into the input list that failed to parse
}

// Merge concatenates the pages of all parseable input buffers, in input
// order, into one PDF. Exactly one non-empty input is returned unchanged.
func Merge(buffers [][]byte) (*Result, error) {
	var valid []int
	for i, b := range buffers {
		if len(b) > 0 {
			valid = append(valid, i)
		}
	}
	if len(valid) == 0 {
		return nil, ErrEmptyInput
	}
	if len(valid) == 1 {
		b := buffers[valid[0]]
		n, _ := pageCount(b)
		return &Result{Bytes: b, Pages: n}, nil
	}

	out := gofpdf.New("P", "pt", "A4", "")
	out.SetAutoPageBreak(false, 0)

	pages := 0
	var skipped []int
	for _, idx := range valid {
		n, err := appendBuffer(out, buffers[idx])
		if err != nil {
			skipped = append(skipped, idx)
			continue
		}
		pages += n
	}
	if pages == 0 {
		return nil, ErrNoPagesMerged
	}

	var buf bytes.Buffer
	if err := out.Output(&buf); err != nil {
		return nil, fmt.Errorf("merge: writing output: %w", err)
	}
	return &Result{Bytes: buf.Bytes(), Pages: pages, Skipped: skipped}, nil
}

// appendBuffer imports every page of data, in order, into pdf. The page
// importer panics on some malformed inputs; that is confined here and
// reported as an error so a hostile buffer costs only itself.
func appendBuffer(pdf *gofpdf.Fpdf, data []byte) (pages int, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("merge: importing pages: %v", p)
		}
	}()

	n, err := pageCount(data)
	if err != nil {
		return 0, fmt.Errorf("merge: parsing input: %w", err)
	}

	imp := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(data))
	for i := 1; i <= n; i++ {
		tplID := imp.ImportPageFromStream(pdf, &rs, i, "/MediaBox")
		w, h := pageDims(imp, i)
		if w == 0 || h == 0 {
			w, h = 595.28, 841.89 // A4 in points
		}
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})
		imp.UseImportedTemplate(pdf, tplID, 0, 0, w, h)
	}
	if err := pdf.Error(); err != nil {
		return 0, err
	}
	return n, nil
}

// pageDims reads the imported page's media box dimensions.
func pageDims(imp *gofpdi.Importer, pageNum int) (w, h float64) {
	sizes := imp.GetPageSizes()
	if dims, ok := sizes[pageNum]; ok {
		if mb, ok := dims["/MediaBox"]; ok {
			w = mb["w"]
			h = mb["h"]
		}
	}
	return
}

// pageCount parses data as a PDF and returns its page count. Validation is
// relaxed: a technically sloppy but readable file still merges.
func pageCount(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.PageCount(bytes.NewReader(data), conf)
}
