package layout

import (
	"strconv"
	"strings"
)

// TargetKind classifies a drop target.
type TargetKind int

const (
	TargetUnknown TargetKind = iota
	TargetSection
	TargetGap
	TargetLeft
	TargetRight
	TargetMiddle
)

// Target is a resolved drop target. Layer is meaningful for gap and zone
// targets, Section for section targets.
type Target struct {
	Kind    TargetKind
	Section SectionID
	Layer   int
}

// DropEvent is the end of one drag gesture.
type DropEvent struct {
	Source SectionID `json:"source"`
	Target string    `json:"target"`
}

// ParseTarget resolves a drop-target id. Recognized forms are a section id,
// "gap-K" for the gap below row K ("gap-0" is above the first row) and
// "layer-K-left", "layer-K-right" or "layer-K-middle" for the zones of row K.
func ParseTarget(raw string) Target {
	raw = strings.TrimSpace(raw)
	if id := SectionID(raw); id.IsKnown() {
		return Target{Kind: TargetSection, Section: id}
	}

	if rest, ok := strings.CutPrefix(raw, "gap-"); ok {
		k, err := strconv.Atoi(rest)
		if err != nil || k < 0 {
			return Target{}
		}
		return Target{Kind: TargetGap, Layer: k}
	}

	if rest, ok := strings.CutPrefix(raw, "layer-"); ok {
		num, zone, found := strings.Cut(rest, "-")
		if !found {
			return Target{}
		}
		k, err := strconv.Atoi(num)
		if err != nil || k < 1 {
			return Target{}
		}
		switch zone {
		case "left":
			return Target{Kind: TargetLeft, Layer: k}
		case "right":
			return Target{Kind: TargetRight, Layer: k}
		case "middle":
			return Target{Kind: TargetMiddle, Layer: k}
		}
	}

	return Target{}
}

// Drop applies one drag-end event and normalizes the result. It reports
// whether the arrangement changed. Drops onto the dragged section itself,
// onto targets that resolve to nothing, and drops naming unknown or hidden
// sections leave the registry untouched.
func (r *Registry) Drop(ev DropEvent) bool {
	work := Normalize(r.Sections)
	src := indexOf(work, ev.Source)
	if src < 0 || !work[src].Visible {
		return false
	}

	target := ParseTarget(ev.Target)
	var applied bool
	switch target.Kind {
	case TargetSection:
		work, applied = dropOnSection(work, src, target.Section)
	case TargetGap, TargetMiddle:
		if target.Layer <= layerCount(work) {
			work, applied = insertRowAfter(work, src, target.Layer)
		}
	case TargetLeft, TargetRight:
		work, applied = joinZone(work, src, target.Layer, target.Kind == TargetLeft)
	}
	if !applied {
		return false
	}

	next := Normalize(work)
	changed := !sameSections(r.Sections, next)
	r.Sections = next
	return changed
}

func dropOnSection(work []Section, src int, id SectionID) ([]Section, bool) {
	if work[src].ID == id {
		return work, false
	}
	dst := indexOf(work, id)
	if dst < 0 || !work[dst].Visible {
		return work, false
	}
	if work[src].Layer == work[dst].Layer {
		work[src], work[dst] = work[dst], work[src]
		return work, true
	}
	return join(work, src, work[dst].Layer, false), true
}

func joinZone(work []Section, src, layer int, left bool) ([]Section, bool) {
	if layer < 1 || layer > layerCount(work) {
		return work, false
	}
	if work[src].Layer != layer {
		return join(work, src, layer, left), true
	}

	// Already in the row: a zone only reorders a pair.
	var other = -1
	for i, s := range work {
		if i != src && s.Visible && s.Layer == layer {
			other = i
		}
	}
	if other < 0 {
		return work, false
	}
	if (left && src > other) || (!left && src < other) {
		work[src], work[other] = work[other], work[src]
	}
	return work, true
}

// join moves src into layer. With first set and room in the row, the section
// goes in front of the existing member. Otherwise it goes after the last
// member, so a full row pushes it into the normalizer's overflow.
func join(work []Section, src, layer int, first bool) []Section {
	moved := work[src]
	rest := append(work[:src:src], work[src+1:]...)
	moved.Layer = layer

	var members []int
	for i, s := range rest {
		if s.Visible && s.Layer == layer {
			members = append(members, i)
		}
	}
	if len(members) == 0 {
		return append(rest, moved)
	}

	pos := members[len(members)-1] + 1
	if first && len(members) < 2 {
		pos = members[0]
	}
	return insertAt(rest, pos, moved)
}

// insertRowAfter places src on a new singleton row directly below row k.
func insertRowAfter(work []Section, src, k int) ([]Section, bool) {
	moved := work[src]
	rest := append(work[:src:src], work[src+1:]...)
	for i := range rest {
		if rest[i].Visible && rest[i].Layer > k {
			rest[i].Layer++
		}
	}
	moved.Layer = k + 1
	moved.Width = WidthFull
	return append(rest, moved), true
}

func insertAt(sections []Section, pos int, s Section) []Section {
	out := make([]Section, 0, len(sections)+1)
	out = append(out, sections[:pos]...)
	out = append(out, s)
	return append(out, sections[pos:]...)
}

func indexOf(sections []Section, id SectionID) int {
	for i, s := range sections {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func layerCount(sections []Section) int {
	highest := 0
	for _, s := range sections {
		if s.Visible && s.Layer > highest {
			highest = s.Layer
		}
	}
	return highest
}

func sameSections(a, b []Section) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
