package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"cvforge/internal/content"
	"cvforge/internal/errors"
	"cvforge/internal/layout"
)

// Paper is a page size in inches.
type Paper struct {
	Name   string
	Width  float64
	Height float64
}

var (
	PaperA4     = Paper{Name: "a4", Width: 8.27, Height: 11.69}
	PaperLetter = Paper{Name: "letter", Width: 8.5, Height: 11}
)

// PaperFor maps a configured paper format to a size, defaulting to A4.
func PaperFor(name string) Paper {
	if strings.EqualFold(name, PaperLetter.Name) {
		return PaperLetter
	}
	return PaperA4
}

// twips converts inches to the 1/1440 inch unit used by WordprocessingML.
func (p Paper) twips() (int, int) {
	return int(p.Width*1440 + 0.5), int(p.Height*1440 + 0.5)
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const packageRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
</Relationships>`

// DOCX renders a WordprocessingML package on A4 paper. Rows of two become a
// borderless two-column table.
func DOCX(c *content.Content, r *layout.Registry) ([]byte, error) {
	return renderDOCX(c, r, PaperA4)
}

func renderDOCX(c *content.Content, r *layout.Registry, paper Paper) ([]byte, error) {
	var body bytes.Buffer
	w := &docxWriter{buf: &body}

	for _, row := range r.Rows() {
		if len(row) == 2 {
			w.twoColumns(c, row[0], row[1])
		} else {
			for _, s := range row {
				w.section(c, s)
			}
		}
	}

	width, height := paper.twips()
	document := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>%s<w:sectPr><w:pgSz w:w="%d" w:h="%d"/><w:pgMar w:top="1000" w:right="1000" w:bottom="1000" w:left="1000" w:header="0" w:footer="0" w:gutter="0"/></w:sectPr></w:body></w:document>`,
		body.String(), width, height)

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	parts := []struct{ name, data string }{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", packageRelsXML},
		{"word/document.xml", document},
		{"word/_rels/document.xml.rels", documentRelsXML},
	}
	for _, part := range parts {
		f, err := zw.Create(part.name)
		if err != nil {
			return nil, errors.NewInternalError(errors.ErrCodeExportFailed, "failed to write DOCX", err)
		}
		if _, err := f.Write([]byte(part.data)); err != nil {
			return nil, errors.NewInternalError(errors.ErrCodeExportFailed, "failed to write DOCX", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeExportFailed, "failed to write DOCX", err)
	}
	return out.Bytes(), nil
}

type docxWriter struct {
	buf *bytes.Buffer
}

type runStyle struct {
	bold   bool
	size   int // half-points
	italic bool
}

func (w *docxWriter) paragraph(text string, style runStyle) {
	w.buf.WriteString("<w:p>")
	lines := strings.Split(text, "\n")
	w.buf.WriteString("<w:r>")
	if style.bold || style.italic || style.size > 0 {
		w.buf.WriteString("<w:rPr>")
		if style.bold {
			w.buf.WriteString("<w:b/>")
		}
		if style.italic {
			w.buf.WriteString("<w:i/>")
		}
		if style.size > 0 {
			fmt.Fprintf(w.buf, `<w:sz w:val="%d"/>`, style.size)
		}
		w.buf.WriteString("</w:rPr>")
	}
	for i, line := range lines {
		if i > 0 {
			w.buf.WriteString("<w:br/>")
		}
		w.buf.WriteString(`<w:t xml:space="preserve">`)
		_ = xml.EscapeText(w.buf, []byte(line))
		w.buf.WriteString("</w:t>")
	}
	w.buf.WriteString("</w:r></w:p>")
}

func (w *docxWriter) heading(text string) {
	w.paragraph(strings.ToUpper(text), runStyle{bold: true, size: 24})
}

// section writes one section as paragraphs. It always writes at least one
// paragraph so table cells stay valid.
func (w *docxWriter) section(c *content.Content, s layout.Section) {
	switch s.ID {
	case layout.SectionName:
		w.paragraph(c.Name, runStyle{bold: true, size: 40})
		if c.Headline != "" {
			w.paragraph(c.Headline, runStyle{italic: true})
		}
		return
	}

	w.heading(Heading(c, s))
	switch s.ID {
	case layout.SectionContact:
		w.textIfAny(c.Contact)
	case layout.SectionProfile:
		w.textIfAny(c.Profile)
	case layout.SectionExperience:
		for _, e := range c.Experience {
			w.entry(joinNonEmpty(", ", e.Role, e.Company), period(e.Start, e.End), e.Description)
		}
	case layout.SectionEducation:
		for _, e := range c.Education {
			w.entry(joinNonEmpty(", ", e.Degree, e.School), period(e.Start, e.End), e.Description)
		}
	case layout.SectionSkills:
		names := make([]string, len(c.Skills))
		for i, sk := range c.Skills {
			names[i] = sk.Name
		}
		w.textIfAny(strings.Join(names, ", "))
	case layout.SectionLanguages:
		for _, l := range c.Languages {
			if l.Level != "" {
				w.paragraph(l.Language+" ("+l.Level+")", runStyle{})
			} else {
				w.paragraph(l.Language, runStyle{})
			}
		}
	}
}

func (w *docxWriter) textIfAny(text string) {
	if strings.TrimSpace(text) != "" {
		w.paragraph(text, runStyle{})
	}
}

func (w *docxWriter) entry(title, when, description string) {
	w.paragraph(title, runStyle{bold: true})
	if when != "" {
		w.paragraph(when, runStyle{italic: true, size: 18})
	}
	w.textIfAny(description)
}

func (w *docxWriter) twoColumns(c *content.Content, left, right layout.Section) {
	w.buf.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="5000" w:type="pct"/><w:tblBorders>` +
		`<w:top w:val="nil"/><w:left w:val="nil"/><w:bottom w:val="nil"/><w:right w:val="nil"/>` +
		`<w:insideH w:val="nil"/><w:insideV w:val="nil"/></w:tblBorders></w:tblPr>` +
		`<w:tblGrid><w:gridCol w:w="4800"/><w:gridCol w:w="4800"/></w:tblGrid><w:tr>`)
	for _, s := range []layout.Section{left, right} {
		w.buf.WriteString(`<w:tc><w:tcPr><w:tcW w:w="2500" w:type="pct"/></w:tcPr>`)
		w.section(c, s)
		w.buf.WriteString("</w:tc>")
	}
	w.buf.WriteString("</w:tr></w:tbl><w:p/>")
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
