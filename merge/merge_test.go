package merge_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	gofpdf "github.com/phpdave11/gofpdf"

	"github.com/finportal/reimbursedoc/merge"
)

// makePDF builds an in-memory PDF with the given number of labeled pages.
func makePDF(t *testing.T, label string, numPages int) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 14)
	for i := 1; i <= numPages; i++ {
		pdf.AddPage()
		pdf.Text(20, 30, fmt.Sprintf("%s page %d", label, i))
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("creating test PDF: %v", err)
	}
	return buf.Bytes()
}

func pageCount(t *testing.T, data []byte) int {
	t.Helper()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		t.Fatalf("counting pages: %v", err)
	}
	return n
}

func TestMergeOrderAndResilience(t *testing.T) {
	a := makePDF(t, "A", 2)
	corrupt := []byte("this is not a pdf at all")
	b := makePDF(t, "B", 3)

	res, err := merge.Merge([][]byte{a, corrupt, b})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if res.Pages != 5 {
		t.Errorf("Pages = %d, want 5", res.Pages)
	}
	if n := pageCount(t, res.Bytes); n != 5 {
		t.Errorf("output page count = %d, want 5", n)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != 1 {
		t.Errorf("Skipped = %v, want [1]", res.Skipped)
	}
	t.Logf("merged PDF: %d pages, %d bytes", res.Pages, len(res.Bytes))
}

func TestMergeSingleBufferPassthrough(t *testing.T) {
	a := makePDF(t, "Solo", 2)

	res, err := merge.Merge([][]byte{a})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !bytes.Equal(res.Bytes, a) {
		t.Error("single-input merge must return the buffer unchanged")
	}
	if res.Pages != 2 {
		t.Errorf("Pages = %d, want 2", res.Pages)
	}
}

func TestMergeIgnoresEmptyBuffers(t *testing.T) {
	a := makePDF(t, "A", 1)
	b := makePDF(t, "B", 1)

	res, err := merge.Merge([][]byte{nil, a, {}, b})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if res.Pages != 2 {
		t.Errorf("Pages = %d, want 2", res.Pages)
	}
	if len(res.Skipped) != 0 {
		t.Errorf("Skipped = %v, want none", res.Skipped)
	}
}

func TestMergeEmptyInput(t *testing.T) {
	for _, buffers := range [][][]byte{
		nil,
		{},
		{nil, {}},
	} {
		if _, err := merge.Merge(buffers); !errors.Is(err, merge.ErrEmptyInput) {
			t.Errorf("Merge(%v) error = %v, want ErrEmptyInput", buffers, err)
		}
	}
}

func TestMergeNoPagesMerged(t *testing.T) {
	junk1 := []byte("junk one")
	junk2 := []byte("junk two")

	_, err := merge.Merge([][]byte{junk1, junk2})
	if !errors.Is(err, merge.ErrNoPagesMerged) {
		t.Errorf("error = %v, want ErrNoPagesMerged", err)
	}
}

func TestMergeManyInputsKeepOrder(t *testing.T) {
	var buffers [][]byte
	want := 0
	for i := 1; i <= 4; i++ {
		buffers = append(buffers, makePDF(t, fmt.Sprintf("doc%d", i), i))
		want += i
	}

	res, err := merge.Merge(buffers)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if res.Pages != want {
		t.Errorf("Pages = %d, want %d", res.Pages, want)
	}
	if n := pageCount(t, res.Bytes); n != want {
		t.Errorf("output page count = %d, want %d", n, want)
	}
}
