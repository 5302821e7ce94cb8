package layout

import "sort"

// Normalize returns a copy of sections in canonical form: visible layers run
// 1..N without gaps, no layer holds more than two sections, singletons are
// full width and pairs are half width.
//
// Sections past the second in a layer are not dropped. Each moves to its own
// full-width row after all renumbered rows, in original order. Hidden sections
// follow the visible ones untouched. Duplicate ids keep their first occurrence.
func Normalize(sections []Section) []Section {
	if len(sections) == 0 {
		return []Section{}
	}

	type entry struct {
		section Section
		index   int
	}

	seen := make(map[SectionID]bool, len(sections))
	buckets := make(map[int][]entry)
	var keys []int
	var hidden []Section

	for i, s := range sections {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		if !s.Visible {
			hidden = append(hidden, s)
			continue
		}
		if _, ok := buckets[s.Layer]; !ok {
			keys = append(keys, s.Layer)
		}
		buckets[s.Layer] = append(buckets[s.Layer], entry{section: s, index: i})
	}
	sort.Ints(keys)

	out := make([]Section, 0, len(sections))
	var overflow []entry
	layer := 0
	for _, key := range keys {
		bucket := buckets[key]
		kept := bucket
		if len(kept) > 2 {
			kept = bucket[:2]
			overflow = append(overflow, bucket[2:]...)
		}
		layer++
		width := WidthFull
		if len(kept) == 2 {
			width = WidthHalf
		}
		for _, e := range kept {
			s := e.section
			s.Layer = layer
			s.Width = width
			out = append(out, s)
		}
	}

	sort.SliceStable(overflow, func(i, j int) bool { return overflow[i].index < overflow[j].index })
	for _, e := range overflow {
		layer++
		s := e.section
		s.Layer = layer
		s.Width = WidthFull
		out = append(out, s)
	}

	return append(out, hidden...)
}
