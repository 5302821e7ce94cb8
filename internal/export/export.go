// Package export renders résumé content in its current layout to HTML, DOCX
// and PDF. Exports are one-way; nothing here reads them back.
package export

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"cvforge/internal/config"
	"cvforge/internal/content"
	"cvforge/internal/errors"
	"cvforge/internal/layout"

	"golang.org/x/sync/errgroup"
)

// Format is an export file format.
type Format string

const (
	FormatHTML Format = "html"
	FormatDOCX Format = "docx"
	FormatPDF  Format = "pdf"
)

// Formats lists every format in the order All produces them.
var Formats = []Format{FormatHTML, FormatDOCX, FormatPDF}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported export format: %s (use html, docx or pdf)", s), nil).
		WithContext("format", s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Artifact is one rendered export.
type Artifact struct {
	Format      Format `json:"format"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
	Key         string `json:"key,omitempty"`
}

// PDFRenderer prints an HTML document to PDF.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html []byte) ([]byte, error)
}

// Exporter renders artifacts with the configured paper size and PDF backend.
type Exporter struct {
	paper  Paper
	pdf    PDFRenderer
	logger *errors.Logger
}

// New builds an Exporter. PDFs are printed by headless Chrome.
func New(cfg config.ExportConfig, logger *errors.Logger) *Exporter {
	paper := PaperFor(cfg.PaperFormat)
	return &Exporter{
		paper:  paper,
		pdf:    NewChromeRenderer(cfg.ChromePath, cfg.PDFTimeout, paper),
		logger: logger,
	}
}

// WithPDFRenderer replaces the PDF backend.
func (e *Exporter) WithPDFRenderer(r PDFRenderer) *Exporter {
	e.pdf = r
	return e
}

// Render produces one artifact. The registry is normalized on a copy first,
// so a stale or hand-edited layout still renders well formed.
func (e *Exporter) Render(ctx context.Context, format Format, c *content.Content, r *layout.Registry) (*Artifact, error) {
	reg := r.Clone()
	reg.Normalize()

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatHTML:
		data, err = HTML(c, reg)
	case FormatDOCX:
		data, err = renderDOCX(c, reg, e.paper)
	case FormatPDF:
		data, err = e.PDF(ctx, c, reg)
	default:
		_, err = ParseFormat(string(format))
	}
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Rendered export", "format", format, "bytes", len(data))
	return &Artifact{
		Format:      format,
		Filename:    Filename(c, format),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

// PDF prints the HTML export to PDF.
func (e *Exporter) PDF(ctx context.Context, c *content.Content, r *layout.Registry) ([]byte, error) {
	html, err := HTML(c, r)
	if err != nil {
		return nil, err
	}
	data, err := e.pdf.RenderPDF(ctx, html)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewIOError(errors.ErrCodeExportFailed, "failed to render PDF", err)
	}
	return data, nil
}

// All renders every format concurrently. It fails if any format fails.
func (e *Exporter) All(ctx context.Context, c *content.Content, r *layout.Registry) ([]Artifact, error) {
	g, gCtx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	results := make(map[Format]*Artifact, len(Formats))
	for _, f := range Formats {
		g.Go(func() error {
			a, err := e.Render(gCtx, f, c, r)
			if err != nil {
				return err
			}
			mu.Lock()
			results[f] = a
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Artifact, 0, len(Formats))
	for _, f := range Formats {
		out = append(out, *results[f])
	}
	return out, nil
}

// Filename derives a file name from the résumé owner's name.
func Filename(c *content.Content, format Format) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, strings.TrimSpace(c.Name))
	base = strings.Join(strings.FieldsFunc(base, func(r rune) bool { return r == '-' }), "-")
	if base == "" {
		base = "cv"
	} else {
		base += "-cv"
	}
	return base + "." + string(format)
}
