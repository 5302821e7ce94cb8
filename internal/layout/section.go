// Package layout holds the section registry of a résumé and the rules that
// keep its rows well formed.
package layout

import (
	"fmt"

	"cvforge/internal/errors"
)

// SectionID identifies one résumé block.
type SectionID string

const (
	SectionName       SectionID = "name"
	SectionProfile    SectionID = "profile"
	SectionContact    SectionID = "contact"
	SectionExperience SectionID = "experience"
	SectionEducation  SectionID = "education"
	SectionSkills     SectionID = "skills"
	SectionLanguages  SectionID = "languages"
)

// AllSections lists the closed set of section ids in default order.
var AllSections = []SectionID{
	SectionName,
	SectionContact,
	SectionProfile,
	SectionExperience,
	SectionEducation,
	SectionSkills,
	SectionLanguages,
}

// IsKnown reports whether id belongs to the closed set.
func (id SectionID) IsKnown() bool {
	for _, known := range AllSections {
		if id == known {
			return true
		}
	}
	return false
}

// Width is the share of a row a section occupies.
type Width string

const (
	WidthFull Width = "full"
	WidthHalf Width = "half"
)

// Section is one displayable résumé block.
type Section struct {
	ID      SectionID `json:"id" yaml:"id"`
	Name    string    `json:"name" yaml:"name"`
	Visible bool      `json:"visible" yaml:"visible"`
	Layer   int       `json:"layer" yaml:"layer"`
	Width   Width     `json:"width" yaml:"width"`
}

// Registry is the ordered list of sections. Order matters: it breaks ties
// between sections sharing a layer.
type Registry struct {
	Sections []Section `json:"sections"`
}

// DefaultRegistry returns the seed arrangement used on first run and on reset.
func DefaultRegistry() *Registry {
	return &Registry{Sections: []Section{
		{ID: SectionName, Name: "Name", Visible: true, Layer: 1, Width: WidthHalf},
		{ID: SectionContact, Name: "Contact", Visible: true, Layer: 1, Width: WidthHalf},
		{ID: SectionProfile, Name: "Profile", Visible: true, Layer: 2, Width: WidthFull},
		{ID: SectionExperience, Name: "Experience", Visible: true, Layer: 3, Width: WidthFull},
		{ID: SectionEducation, Name: "Education", Visible: true, Layer: 4, Width: WidthFull},
		{ID: SectionSkills, Name: "Skills", Visible: true, Layer: 5, Width: WidthHalf},
		{ID: SectionLanguages, Name: "Languages", Visible: true, Layer: 5, Width: WidthHalf},
	}}
}

// NewRegistry builds a normalized registry from arbitrary sections.
func NewRegistry(sections []Section) *Registry {
	return &Registry{Sections: Normalize(sections)}
}

// Clone returns a deep copy.
func (r *Registry) Clone() *Registry {
	out := &Registry{Sections: make([]Section, len(r.Sections))}
	copy(out.Sections, r.Sections)
	return out
}

// Normalize rewrites the registry into canonical form.
func (r *Registry) Normalize() {
	r.Sections = Normalize(r.Sections)
}

// Reset restores the default arrangement.
func (r *Registry) Reset() {
	r.Sections = DefaultRegistry().Sections
}

// Find returns the index of id, or -1.
func (r *Registry) Find(id SectionID) int {
	for i, s := range r.Sections {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Get returns the section with the given id.
func (r *Registry) Get(id SectionID) (Section, bool) {
	if i := r.Find(id); i >= 0 {
		return r.Sections[i], true
	}
	return Section{}, false
}

// SetVisible shows or hides a section. A section that becomes visible is
// placed on a new trailing row.
func (r *Registry) SetVisible(id SectionID, visible bool) bool {
	i := r.Find(id)
	if i < 0 || r.Sections[i].Visible == visible {
		return false
	}
	if visible {
		r.Sections[i].Layer = r.LayerCount() + 1
	}
	r.Sections[i].Visible = visible
	r.Normalize()
	return true
}

// Rename changes the display label of a section.
func (r *Registry) Rename(id SectionID, name string) bool {
	i := r.Find(id)
	if i < 0 || name == "" {
		return false
	}
	r.Sections[i].Name = name
	return true
}

// LayerCount returns the number of visible rows.
func (r *Registry) LayerCount() int {
	highest := 0
	for _, s := range r.Sections {
		if s.Visible && s.Layer > highest {
			highest = s.Layer
		}
	}
	return highest
}

// Members returns the visible sections of one layer in registry order.
func (r *Registry) Members(layer int) []Section {
	var out []Section
	for _, s := range r.Sections {
		if s.Visible && s.Layer == layer {
			out = append(out, s)
		}
	}
	return out
}

// Rows groups visible sections by layer, first row first. A row of one
// renders as a single column, a row of two side by side.
func (r *Registry) Rows() [][]Section {
	n := r.LayerCount()
	rows := make([][]Section, 0, n)
	for layer := 1; layer <= n; layer++ {
		if members := r.Members(layer); len(members) > 0 {
			rows = append(rows, members)
		}
	}
	return rows
}

// Validate reports the first broken invariant, or nil. Unknown ids are
// rejected so that persisted data from elsewhere cannot smuggle them in.
func (r *Registry) Validate() error {
	for _, s := range r.Sections {
		if !s.ID.IsKnown() {
			return errors.NewValidationError(errors.ErrCodeInvalidLayout,
				fmt.Sprintf("unknown section id %q", s.ID), nil)
		}
	}
	if err := Verify(r.Sections); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidLayout, err.Error(), nil)
	}
	return nil
}

// Verify checks the four registry invariants on sections.
func Verify(sections []Section) error {
	seen := make(map[SectionID]bool, len(sections))
	counts := make(map[int][]Section)
	highest := 0
	for _, s := range sections {
		if seen[s.ID] {
			return fmt.Errorf("section %q appears more than once", s.ID)
		}
		seen[s.ID] = true
		if !s.Visible {
			continue
		}
		if s.Layer < 1 {
			return fmt.Errorf("section %q has non-positive layer %d", s.ID, s.Layer)
		}
		counts[s.Layer] = append(counts[s.Layer], s)
		if s.Layer > highest {
			highest = s.Layer
		}
	}
	for layer := 1; layer <= highest; layer++ {
		members := counts[layer]
		switch len(members) {
		case 0:
			return fmt.Errorf("layer %d is empty", layer)
		case 1:
			if members[0].Width != WidthFull {
				return fmt.Errorf("layer %d holds one section with width %q", layer, members[0].Width)
			}
		case 2:
			for _, m := range members {
				if m.Width != WidthHalf {
					return fmt.Errorf("layer %d holds two sections but %q has width %q", layer, m.ID, m.Width)
				}
			}
		default:
			return fmt.Errorf("layer %d holds %d sections", layer, len(members))
		}
	}
	return nil
}
