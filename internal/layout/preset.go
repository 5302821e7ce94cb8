package layout

// Preset is a template's candidate arrangement. Its layers and widths are
// suggestions; applying it always runs them through Normalize.
type Preset struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description"`
	Sections    []Section `json:"sections" yaml:"sections"`
}

// ApplyPreset replaces the registry with the preset arrangement. Entries with
// unknown ids are ignored. Known sections the preset leaves out are kept but
// hidden, so the registry always carries the full set.
func (r *Registry) ApplyPreset(p Preset) {
	listed := make(map[SectionID]bool, len(p.Sections))
	next := make([]Section, 0, len(AllSections))
	for _, s := range p.Sections {
		if !s.ID.IsKnown() || listed[s.ID] {
			continue
		}
		listed[s.ID] = true
		if s.Name == "" {
			if cur, ok := r.Get(s.ID); ok {
				s.Name = cur.Name
			}
		}
		next = append(next, s)
	}

	for _, id := range AllSections {
		if listed[id] {
			continue
		}
		s, ok := r.Get(id)
		if !ok {
			s, _ = DefaultRegistry().Get(id)
		}
		s.Visible = false
		next = append(next, s)
	}

	r.Sections = Normalize(next)
}
