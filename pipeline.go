// Package reimbursedoc turns a validated expense-reimbursement submission
// and its proof attachments into one printable, auditable PDF.
//
// The only entry point external collaborators call is
// Pipeline.GenerateCombined. Its contract is total: callers always receive a
// non-empty byte buffer holding some valid PDF, with the best fidelity the
// encountered failures allowed, and never a panic. Degradations are returned
// as Warnings and logged through the configured logger.
package reimbursedoc

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	gofpdf "github.com/phpdave11/gofpdf"

	"github.com/finportal/reimbursedoc/merge"
	"github.com/finportal/reimbursedoc/render"
	"github.com/finportal/reimbursedoc/submission"
)

// Descriptor describes one attachment handed to the pipeline. Bytes may be
// nil when the upload failed upstream; such attachments still appear in the
// form's manifest but cannot be merged.
type Descriptor struct {
	Filename    string
	ContentType string
	Bytes       []byte
}

// IsPDF reports whether the attachment's declared or inferred type is PDF.
// Only PDF attachments are merged into the combined document; other proofs
// remain listed in the manifest.
func (d Descriptor) IsPDF() bool {
	ct := render.InferContentType(d.ContentType, d.Filename)
	return strings.HasPrefix(strings.ToLower(ct), "application/pdf")
}

// Warning records one degradation encountered while generating a document.
type Warning struct {
	Stage  string
	Detail string
}

// Pipeline generates combined reimbursement documents. Construct with New;
// a Pipeline is safe for concurrent use, one call per submission.
type Pipeline struct {
	cfg      config
	renderer *render.Renderer

	// renderForm indirects the renderer call so a defensive retry path
	// stays testable.
	renderForm func(*submission.Submission, string) *render.Result
}

// New returns a Pipeline configured by the given options.
func New(opts ...Option) *Pipeline {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	r := render.New(cfg.tables)
	p := &Pipeline{cfg: cfg, renderer: r}
	p.renderForm = r.RenderForm
	return p
}

// GenerateCombined renders the form for sub, merges in every attachment that
// is itself a parseable PDF, and returns the combined document.
//
// Failures degrade step by step instead of propagating: a failed merge
// returns the form alone, and a renderer that fails twice in a row yields a
// minimal document stating that generation failed.
func (p *Pipeline) GenerateCombined(sub *submission.Submission, protocolID string, attachments []Descriptor) ([]byte, []Warning) {
	var warnings []Warning

	form := p.renderSafely(sub, protocolID, &warnings)

	candidates := [][]byte{form}
	names := []string{"form"}
	for _, att := range attachments {
		if !att.IsPDF() || len(att.Bytes) == 0 {
			continue
		}
		candidates = append(candidates, att.Bytes)
		names = append(names, att.Filename)
	}
	if len(candidates) == 1 {
		return form, warnings
	}

	res, err := merge.Merge(candidates)
	if err != nil {
		p.cfg.log.Warn().Err(err).Str("protocol", protocolID).
			Msg("merge failed, returning form only")
		warnings = append(warnings, Warning{Stage: "merge", Detail: err.Error()})
		return form, warnings
	}
	for _, idx := range res.Skipped {
		detail := fmt.Sprintf("%s skipped: not a parseable PDF", names[idx])
		p.cfg.log.Warn().Str("protocol", protocolID).Str("attachment", names[idx]).
			Msg("attachment skipped during merge")
		warnings = append(warnings, Warning{Stage: "merge", Detail: detail})
	}
	return res.Bytes, warnings
}

// renderSafely calls the form renderer, retrying once if it panics or yields
// no bytes despite its contract, and synthesizing a failure document when the
// retry fails too.
func (p *Pipeline) renderSafely(sub *submission.Submission, protocolID string, warnings *[]Warning) []byte {
	for attempt := 1; attempt <= 2; attempt++ {
		b, ok := p.tryRender(sub, protocolID, warnings)
		if ok {
			return b
		}
		p.cfg.log.Warn().Str("protocol", protocolID).Int("attempt", attempt).
			Msg("form renderer failed")
	}
	*warnings = append(*warnings, Warning{Stage: "render", Detail: "document generation failed"})
	return failureDocument(protocolID)
}

func (p *Pipeline) tryRender(sub *submission.Submission, protocolID string, warnings *[]Warning) (b []byte, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			*warnings = append(*warnings, Warning{
				Stage:  "render",
				Detail: fmt.Sprintf("renderer panicked: %v", r),
			})
			b, ok = nil, false
		}
	}()

	res := p.renderForm(sub, protocolID)
	for _, w := range res.Warnings {
		p.cfg.log.Warn().Str("protocol", protocolID).Str("section", w.Section).
			Msg(w.Message)
		*warnings = append(*warnings, Warning{Stage: "render/" + w.Section, Detail: w.Message})
	}
	if len(res.Bytes) == 0 {
		return nil, false
	}
	return res.Bytes, true
}

// failureDocument is the terminal artifact: a tiny PDF stating that
// generation failed, so a reviewer finds a traceable file instead of nothing.
func failureDocument(protocolID string) []byte {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, "Document generation failed", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 8, "Protocol: "+protocolID, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, "Date: "+time.Now().Format("02/01/2006"), "", 1, "L", false, 0, "")
	pdf.MultiCell(0, 6, "The reimbursement form could not be generated. "+
		"Contact support with the protocol number above.", "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil
	}
	return buf.Bytes()
}
