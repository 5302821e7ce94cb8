package content

import (
	"fmt"
	"sort"
	"strings"

	"cvforge/internal/errors"
)

// Op is an editing operation.
type Op string

const (
	OpSet    Op = "set"
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpRemove Op = "remove"
)

// Edit is one change requested by an editor. ID addresses a list entry for
// update and remove.
type Edit struct {
	Op     Op                `json:"op"`
	ID     int               `json:"id,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Editor applies edits to one section of the content. On error the content
// is left unchanged.
type Editor interface {
	Section() string
	Fields() []string
	Apply(c *Content, e Edit) error
}

// Editors returns the editor of every section, keyed by section id.
func Editors() map[string]Editor {
	all := []Editor{
		scalarEditor{section: "name", setters: map[string]func(*Content, string){
			"name":     func(c *Content, v string) { c.Name = v },
			"headline": func(c *Content, v string) { c.Headline = v },
		}},
		scalarEditor{section: "profile", setters: map[string]func(*Content, string){
			"text":  func(c *Content, v string) { c.Profile = v },
			"title": func(c *Content, v string) { c.Titles.Profile = v },
		}},
		scalarEditor{section: "contact", setters: map[string]func(*Content, string){
			"text":  func(c *Content, v string) { c.Contact = v },
			"title": func(c *Content, v string) { c.Titles.Contact = v },
		}},
		photoEditor{},
		listEditor[Experience]{
			section: "experience",
			list:    func(c *Content) *[]Experience { return &c.Experience },
			id:      func(e *Experience) *int { return &e.ID },
			title:   func(t *Titles) *string { return &t.Experience },
			setters: map[string]func(*Experience, string){
				"role":        func(e *Experience, v string) { e.Role = v },
				"company":     func(e *Experience, v string) { e.Company = v },
				"start":       func(e *Experience, v string) { e.Start = v },
				"end":         func(e *Experience, v string) { e.End = v },
				"description": func(e *Experience, v string) { e.Description = v },
			},
		},
		listEditor[Education]{
			section: "education",
			list:    func(c *Content) *[]Education { return &c.Education },
			id:      func(e *Education) *int { return &e.ID },
			title:   func(t *Titles) *string { return &t.Education },
			setters: map[string]func(*Education, string){
				"degree":      func(e *Education, v string) { e.Degree = v },
				"school":      func(e *Education, v string) { e.School = v },
				"start":       func(e *Education, v string) { e.Start = v },
				"end":         func(e *Education, v string) { e.End = v },
				"description": func(e *Education, v string) { e.Description = v },
			},
		},
		listEditor[Skill]{
			section: "skills",
			list:    func(c *Content) *[]Skill { return &c.Skills },
			id:      func(s *Skill) *int { return &s.ID },
			title:   func(t *Titles) *string { return &t.Skills },
			setters: map[string]func(*Skill, string){
				"name": func(s *Skill, v string) { s.Name = v },
			},
		},
		listEditor[Language]{
			section: "languages",
			list:    func(c *Content) *[]Language { return &c.Languages },
			id:      func(l *Language) *int { return &l.ID },
			title:   func(t *Titles) *string { return &t.Languages },
			setters: map[string]func(*Language, string){
				"language": func(l *Language, v string) { l.Language = v },
				"level":    func(l *Language, v string) { l.Level = v },
			},
		},
	}

	out := make(map[string]Editor, len(all))
	for _, e := range all {
		out[e.Section()] = e
	}
	return out
}

// Apply routes e to the editor of section.
func Apply(c *Content, section string, e Edit) error {
	editor, ok := Editors()[section]
	if !ok {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("no editor for section %q", section), nil).WithContext("section", section)
	}
	return editor.Apply(c, e)
}

type scalarEditor struct {
	section string
	setters map[string]func(*Content, string)
}

func (e scalarEditor) Section() string  { return e.section }
func (e scalarEditor) Fields() []string { return keys(e.setters) }

func (e scalarEditor) Apply(c *Content, ed Edit) error {
	if ed.Op != OpSet {
		return unsupportedOp(e.section, ed.Op)
	}
	if err := checkFields(e.section, ed.Fields, e.setters); err != nil {
		return err
	}
	for k, v := range ed.Fields {
		e.setters[k](c, strings.TrimSpace(v))
	}
	return nil
}

type listEditor[T any] struct {
	section string
	list    func(*Content) *[]T
	id      func(*T) *int
	title   func(*Titles) *string
	setters map[string]func(*T, string)
}

func (e listEditor[T]) Section() string { return e.section }

func (e listEditor[T]) Fields() []string {
	return append(keys(e.setters), "title")
}

func (e listEditor[T]) Apply(c *Content, ed Edit) error {
	items := e.list(c)

	switch ed.Op {
	case OpSet:
		title, ok := ed.Fields["title"]
		if !ok || len(ed.Fields) != 1 {
			return errors.NewValidationError(errors.ErrCodeInvalidField,
				fmt.Sprintf("%s only supports setting its title", e.section), nil)
		}
		*e.title(&c.Titles) = strings.TrimSpace(title)
		return nil

	case OpAdd:
		if err := checkFields(e.section, ed.Fields, e.setters); err != nil {
			return err
		}
		var item T
		for k, v := range ed.Fields {
			e.setters[k](&item, strings.TrimSpace(v))
		}
		*e.id(&item) = e.nextID(*items)
		*items = append(*items, item)
		return nil

	case OpUpdate:
		if err := checkFields(e.section, ed.Fields, e.setters); err != nil {
			return err
		}
		i := e.indexOf(*items, ed.ID)
		if i < 0 {
			return unknownEntry(e.section, ed.ID)
		}
		for k, v := range ed.Fields {
			e.setters[k](&(*items)[i], strings.TrimSpace(v))
		}
		return nil

	case OpRemove:
		i := e.indexOf(*items, ed.ID)
		if i < 0 {
			return unknownEntry(e.section, ed.ID)
		}
		*items = append((*items)[:i], (*items)[i+1:]...)
		return nil
	}

	return unsupportedOp(e.section, ed.Op)
}

// nextID is one past the largest id in use, so removed ids are not reused
// while a larger one exists.
func (e listEditor[T]) nextID(items []T) int {
	highest := 0
	for i := range items {
		if id := *e.id(&items[i]); id > highest {
			highest = id
		}
	}
	return highest + 1
}

func (e listEditor[T]) indexOf(items []T, id int) int {
	for i := range items {
		if *e.id(&items[i]) == id {
			return i
		}
	}
	return -1
}

func checkFields[S any](section string, fields map[string]string, setters map[string]S) error {
	if len(fields) == 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidField,
			fmt.Sprintf("no fields given for %s", section), nil)
	}
	for k := range fields {
		if _, ok := setters[k]; !ok {
			return errors.NewValidationError(errors.ErrCodeInvalidField,
				fmt.Sprintf("unknown field %q for %s", k, section), nil).
				WithContext("field", k).
				WithContext("allowed", strings.Join(keys(setters), ","))
		}
	}
	return nil
}

func unsupportedOp(section string, op Op) error {
	return errors.NewValidationError(errors.ErrCodeInvalidRequest,
		fmt.Sprintf("operation %q is not supported by %s", op, section), nil)
}

func unknownEntry(section string, id int) error {
	return errors.NewValidationError(errors.ErrCodeUnknownEntry,
		fmt.Sprintf("%s has no entry with id %d", section, id), nil).WithContext("id", id)
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
