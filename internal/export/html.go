package export

import (
	"bytes"
	_ "embed"
	"html/template"
	"strings"

	"cvforge/internal/content"
	"cvforge/internal/errors"
	"cvforge/internal/layout"
)

//go:embed cv.html.tmpl
var htmlSource string

//go:embed style.css
var stylesheet string

var htmlTemplate = template.Must(template.New("cv").Funcs(template.FuncMap{
	"period": period,
}).Parse(htmlSource))

type htmlSection struct {
	ID      layout.SectionID
	Width   layout.Width
	Heading string
	Photo   template.URL
	Content *content.Content
}

type htmlDocument struct {
	Title string
	CSS   template.CSS
	Rows  [][]htmlSection
}

// HTML renders a standalone HTML document. Each row shows one section full
// width or two side by side.
func HTML(c *content.Content, r *layout.Registry) ([]byte, error) {
	doc := htmlDocument{
		Title: documentTitle(c),
		CSS:   template.CSS(stylesheet),
	}
	for _, row := range r.Rows() {
		views := make([]htmlSection, 0, len(row))
		for _, s := range row {
			view := htmlSection{ID: s.ID, Width: s.Width, Heading: Heading(c, s), Content: c}
			if s.ID == layout.SectionName && strings.HasPrefix(c.Photo, "data:image/") {
				// The photo editor only stores base64 image data URLs
				view.Photo = template.URL(c.Photo)
			}
			views = append(views, view)
		}
		doc.Rows = append(doc.Rows, views)
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, doc); err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeExportFailed, "failed to render HTML", err)
	}
	return buf.Bytes(), nil
}

// Heading returns the printed heading of a section: the content's title for
// it, or the registry label when no title is set.
func Heading(c *content.Content, s layout.Section) string {
	var title string
	switch s.ID {
	case layout.SectionProfile:
		title = c.Titles.Profile
	case layout.SectionContact:
		title = c.Titles.Contact
	case layout.SectionExperience:
		title = c.Titles.Experience
	case layout.SectionEducation:
		title = c.Titles.Education
	case layout.SectionSkills:
		title = c.Titles.Skills
	case layout.SectionLanguages:
		title = c.Titles.Languages
	}
	if strings.TrimSpace(title) == "" {
		return s.Name
	}
	return title
}

func documentTitle(c *content.Content) string {
	if c.Name == "" {
		return "Curriculum Vitae"
	}
	return c.Name + " - Curriculum Vitae"
}

func period(start, end string) string {
	switch {
	case start == "" && end == "":
		return ""
	case end == "":
		return start + " - present"
	default:
		return start + " - " + end
	}
}
