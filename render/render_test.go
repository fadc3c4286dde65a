package render_test

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	gofpdf "github.com/phpdave11/gofpdf"

	"github.com/finportal/reimbursedoc/layout"
	"github.com/finportal/reimbursedoc/render"
	"github.com/finportal/reimbursedoc/submission"
)

const protocolID = "REQ-2026-000123"

func sampleSubmission(t *testing.T) *submission.Submission {
	t.Helper()
	return &submission.Submission{
		FullName:    "Ana Souza",
		Email:       "ana.souza@example.com",
		Phone:       "11987654321",
		TaxID:       "52998224725",
		JobTitle:    "Engineer",
		CostCenter:  "CC-104",
		Category:    "Travel",
		ExpenseDate: time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC),
		Description: "Taxi from the airport to the client site",
		Amount:      "125,50",
		Currency:    "BRL",
		Method:      submission.MethodInstantKey,
		Key: &submission.InstantKey{
			Type:  submission.KeyEmail,
			Value: "ana.souza@example.com",
		},
		Attachments: []submission.Attachment{
			{Filename: "receipt.pdf", ContentType: "application/pdf", Size: 48_230},
			{Filename: "notes.txt", Size: 512},
		},
	}
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

// extractStreams inflates every content stream so tests can assert on the
// text operators of a compressed document.
func extractStreams(t *testing.T, data []byte) string {
	t.Helper()
	var out strings.Builder
	for {
		i := bytes.Index(data, []byte("stream"))
		if i < 0 {
			break
		}
		rest := bytes.TrimPrefix(data[i+len("stream"):], []byte("\r\n"))
		rest = bytes.TrimPrefix(rest, []byte("\n"))
		end := bytes.Index(rest, []byte("endstream"))
		if end < 0 {
			break
		}
		if r, err := zlib.NewReader(bytes.NewReader(rest[:end])); err == nil {
			if b, err := io.ReadAll(r); err == nil {
				out.Write(b)
			}
			r.Close()
		} else {
			out.Write(rest[:end])
		}
		data = rest[end+len("endstream"):]
	}
	return out.String()
}

// failingRenderer always refuses to draw, forcing the plain-text fallback.
type failingRenderer struct{}

func (failingRenderer) Draw(*gofpdf.Fpdf, []layout.Row, layout.Options) (float64, error) {
	return 0, fmt.Errorf("table layout unavailable")
}

func TestRenderFormProducesValidPDF(t *testing.T) {
	res := render.New(nil).RenderForm(sampleSubmission(t), protocolID)

	if !bytes.HasPrefix(res.Bytes, []byte("%PDF")) {
		t.Fatal("output does not start with a PDF header")
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
	if n := pageCount(t, res.Bytes); n < 1 {
		t.Errorf("expected at least 1 page, got %d", n)
	}
	t.Logf("form PDF: %d bytes", len(res.Bytes))
}

func TestRenderFormSectionContent(t *testing.T) {
	res := render.New(nil).RenderForm(sampleSubmission(t), protocolID)
	text := extractStreams(t, res.Bytes)

	for _, want := range []string{
		protocolID,
		"Ana Souza",
		"52998224725",
		"CC-104",
		"12/08/2026",
		"125,50 BRL",
		"Payment method",
		"Instant payment key",
		"Key type",
		"Email",
		"receipt.pdf",
		"notes.txt",
		"text/plain", // inferred from the .txt extension
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered form is missing %q", want)
		}
	}
}

func TestRenderFormFallbackRendererSameContent(t *testing.T) {
	res := render.New(layout.Select(false)).RenderForm(sampleSubmission(t), protocolID)

	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
	text := extractStreams(t, res.Bytes)
	for _, want := range []string{"Ana Souza", "Payment method", "receipt.pdf"} {
		if !strings.Contains(text, want) {
			t.Errorf("fallback-rendered form is missing %q", want)
		}
	}
}

func TestRenderFormBankTransferRows(t *testing.T) {
	sub := sampleSubmission(t)
	sub.Method = submission.MethodBankTransfer
	sub.Key = nil
	sub.Bank = &submission.BankDetails{
		BankName:      "Banco Azul",
		BranchCode:    "0421",
		AccountNumber: "55310-8",
	}

	text := extractStreams(t, render.New(nil).RenderForm(sub, protocolID).Bytes)
	for _, want := range []string{"Bank transfer", "Banco Azul", "0421", "55310-8"} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered form is missing %q", want)
		}
	}
}

func TestRenderFormNoAttachments(t *testing.T) {
	sub := sampleSubmission(t)
	sub.Attachments = nil

	res := render.New(nil).RenderForm(sub, protocolID)
	if !strings.Contains(extractStreams(t, res.Bytes), "No attachment.") {
		t.Error("expected a \"no attachment\" line when the manifest is empty")
	}
}

func TestRenderFormUnnamedAttachment(t *testing.T) {
	sub := sampleSubmission(t)
	sub.Attachments = []submission.Attachment{{Size: 1024}}

	text := extractStreams(t, render.New(nil).RenderForm(sub, protocolID).Bytes)
	if !strings.Contains(text, "Attachment 1") {
		t.Error("expected a generated name for an unnamed attachment")
	}
	if !strings.Contains(text, "unknown") {
		t.Error("expected type \"unknown\" without declared type or extension")
	}
}

func TestRenderFormTableFailureDegradesToText(t *testing.T) {
	res := render.New(failingRenderer{}).RenderForm(sampleSubmission(t), protocolID)

	if len(res.Warnings) == 0 {
		t.Fatal("expected warnings from the failing table renderer")
	}
	if !bytes.HasPrefix(res.Bytes, []byte("%PDF")) {
		t.Fatal("degraded output is not a PDF")
	}
	// Same content, plain-text layout.
	text := extractStreams(t, res.Bytes)
	for _, want := range []string{"Ana Souza", "Payment method", "receipt.pdf"} {
		if !strings.Contains(text, want) {
			t.Errorf("degraded form is missing %q", want)
		}
	}
}

func TestRenderFormNilSubmission(t *testing.T) {
	res := render.New(nil).RenderForm(nil, protocolID)

	if !bytes.HasPrefix(res.Bytes, []byte("%PDF")) {
		t.Fatal("placeholder output is not a PDF")
	}
	if len(res.Warnings) == 0 {
		t.Error("expected a warning on the placeholder document")
	}
	if !strings.Contains(extractStreams(t, res.Bytes), protocolID) {
		t.Error("placeholder document must carry the protocol ID")
	}
}

func TestInferContentType(t *testing.T) {
	cases := []struct {
		declared, filename, want string
	}{
		{"application/pdf", "whatever.txt", "application/pdf"},
		{"", "receipt.PDF", "application/pdf"},
		{"", "photo.jpeg", "image/jpeg"},
		{"", "noextension", "unknown"},
		{"", "archive.zip", "unknown"},
		{"  ", "notes.txt", "text/plain"},
	}
	for _, c := range cases {
		if got := render.InferContentType(c.declared, c.filename); got != c.want {
			t.Errorf("InferContentType(%q, %q) = %q, want %q", c.declared, c.filename, got, c.want)
		}
	}
}
