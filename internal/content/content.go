// Package content models the text of a résumé and the per-section editors
// that change it.
package content

import (
	"fmt"
	"strings"
)

// Titles holds the heading label of each section.
type Titles struct {
	Profile    string `json:"profile"`
	Contact    string `json:"contact"`
	Experience string `json:"experience"`
	Education  string `json:"education"`
	Skills     string `json:"skills"`
	Languages  string `json:"languages"`
}

// Experience is one job entry.
type Experience struct {
	ID          int    `json:"id"`
	Role        string `json:"role"`
	Company     string `json:"company"`
	Start       string `json:"start,omitempty"`
	End         string `json:"end,omitempty"`
	Description string `json:"description,omitempty"`
}

// Education is one school entry.
type Education struct {
	ID          int    `json:"id"`
	Degree      string `json:"degree"`
	School      string `json:"school"`
	Start       string `json:"start,omitempty"`
	End         string `json:"end,omitempty"`
	Description string `json:"description,omitempty"`
}

// Skill is one skill tag.
type Skill struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Language is a language and the level spoken.
type Language struct {
	ID       int    `json:"id"`
	Language string `json:"language"`
	Level    string `json:"level"`
}

// Content is everything shown inside the sections of one résumé.
type Content struct {
	Name       string       `json:"name"`
	Headline   string       `json:"headline,omitempty"`
	Contact    string       `json:"contact"`
	Profile    string       `json:"profile"`
	Photo      string       `json:"photo,omitempty"`
	Titles     Titles       `json:"titles"`
	Experience []Experience `json:"experience"`
	Education  []Education  `json:"education"`
	Skills     []Skill      `json:"skills"`
	Languages  []Language   `json:"languages"`
}

// DefaultContent returns empty content with the default headings.
func DefaultContent() *Content {
	return &Content{
		Titles: Titles{
			Profile:    "Profile",
			Contact:    "Contact",
			Experience: "Experience",
			Education:  "Education",
			Skills:     "Skills",
			Languages:  "Languages",
		},
		Experience: []Experience{},
		Education:  []Education{},
		Skills:     []Skill{},
		Languages:  []Language{},
	}
}

// IsEmpty reports whether nothing has been written yet.
func (c *Content) IsEmpty() bool {
	return c.Name == "" && c.Contact == "" && c.Profile == "" &&
		len(c.Experience) == 0 && len(c.Education) == 0 &&
		len(c.Skills) == 0 && len(c.Languages) == 0
}

// Profile is the subset of a remote user profile used to prefill content.
type Profile struct {
	FullName string
	Headline string
	Email    string
	Phone    string
	City     string
	Summary  string
}

// PrefillFromProfile fills empty fields from p. Fields the user already
// typed are never overwritten.
func PrefillFromProfile(c *Content, p Profile) bool {
	changed := false
	if c.Name == "" && p.FullName != "" {
		c.Name = p.FullName
		changed = true
	}
	if c.Headline == "" && p.Headline != "" {
		c.Headline = p.Headline
		changed = true
	}
	if c.Contact == "" {
		if line := joinNonEmpty(" | ", p.Email, p.Phone, p.City); line != "" {
			c.Contact = line
			changed = true
		}
	}
	if c.Profile == "" && p.Summary != "" {
		c.Profile = p.Summary
		changed = true
	}
	return changed
}

// Plaintext renders the content as the text sent for analysis.
func (c *Content) Plaintext() string {
	var b strings.Builder
	line := func(s string) {
		if s != "" {
			b.WriteString(s)
			b.WriteByte('\n')
		}
	}

	line(c.Name)
	line(c.Headline)
	line(c.Contact)
	if c.Profile != "" {
		b.WriteString("\n" + strings.ToUpper(c.Titles.Profile) + "\n")
		line(c.Profile)
	}
	if len(c.Experience) > 0 {
		b.WriteString("\n" + strings.ToUpper(c.Titles.Experience) + "\n")
		for _, e := range c.Experience {
			line(joinNonEmpty(", ", e.Role, e.Company) + period(e.Start, e.End))
			line(e.Description)
		}
	}
	if len(c.Education) > 0 {
		b.WriteString("\n" + strings.ToUpper(c.Titles.Education) + "\n")
		for _, e := range c.Education {
			line(joinNonEmpty(", ", e.Degree, e.School) + period(e.Start, e.End))
			line(e.Description)
		}
	}
	if len(c.Skills) > 0 {
		names := make([]string, len(c.Skills))
		for i, s := range c.Skills {
			names[i] = s.Name
		}
		b.WriteString("\n" + strings.ToUpper(c.Titles.Skills) + "\n")
		line(strings.Join(names, ", "))
	}
	if len(c.Languages) > 0 {
		b.WriteString("\n" + strings.ToUpper(c.Titles.Languages) + "\n")
		for _, l := range c.Languages {
			line(joinNonEmpty(" - ", l.Language, l.Level))
		}
	}
	return strings.TrimSpace(b.String())
}

func period(start, end string) string {
	switch {
	case start == "" && end == "":
		return ""
	case end == "":
		return fmt.Sprintf(" (%s - present)", start)
	default:
		return fmt.Sprintf(" (%s - %s)", start, end)
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
