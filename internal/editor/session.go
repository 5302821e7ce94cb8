// Package editor owns the state of one editing session: the résumé content and
// its section layout, loaded at start and autosaved as they change.
package editor

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"cvforge/internal/content"
	"cvforge/internal/errors"
	"cvforge/internal/layout"
	"cvforge/internal/store/local"
	"cvforge/internal/types"
)

// StateStore is the persistence the session loads from and saves to.
type StateStore interface {
	Load(ctx context.Context, key string, v any) (bool, error)
	Save(ctx context.Context, key string, v any) error
}

// Observer is told about layout gestures and template use.
type Observer interface {
	RecordDrop(ctx context.Context, changed bool)
	RecordTemplateApplied(ctx context.Context, templateID string)
}

// Session is single-writer: callers serialize access to it. Only the autosave
// timers run concurrently.
type Session struct {
	Content *content.Content
	Layout  *layout.Registry

	store    StateStore
	autosave *local.Debouncer
	observer Observer
	logger   *errors.Logger
}

// Open mounts a session: content and layout are read from store, falling back
// to the defaults when nothing usable is saved.
func Open(ctx context.Context, store StateStore, debounce time.Duration, logger *errors.Logger) (*Session, error) {
	s := &Session{
		Content:  content.DefaultContent(),
		Layout:   layout.DefaultRegistry(),
		store:    store,
		autosave: local.NewDebouncer(store, debounce, logger),
		logger:   logger,
	}

	saved := &content.Content{}
	ok, err := store.Load(ctx, local.KeyEditorState, saved)
	if err != nil {
		return nil, err
	}
	if ok {
		s.Content = withDefaults(saved)
	}

	var sections []layout.Section
	ok, err = store.Load(ctx, local.KeySectionOrder, &sections)
	if err != nil {
		return nil, err
	}
	if ok {
		s.Layout = restoreLayout(sections)
	}

	logger.Debug("Editor session opened", "layers", s.Layout.LayerCount())
	return s, nil
}

// SetObserver sets where gestures are reported.
func (s *Session) SetObserver(o Observer) {
	s.observer = o
}

// Edit applies one content edit and schedules a save.
func (s *Session) Edit(section string, e content.Edit) error {
	if err := content.Apply(s.Content, section, e); err != nil {
		return err
	}
	s.saveContent()
	return nil
}

// Prefill fills empty content fields from a backend profile.
func (s *Session) Prefill(p types.Profile) bool {
	changed := content.PrefillFromProfile(s.Content, content.Profile{
		FullName: p.FullName,
		Headline: p.Headline,
		Email:    p.Email,
		Phone:    p.Phone,
		City:     p.City,
		Summary:  p.Summary,
	})
	if changed {
		s.saveContent()
	}
	return changed
}

// Drop runs one drag gesture.
func (s *Session) Drop(ctx context.Context, ev layout.DropEvent) bool {
	changed := s.Layout.Drop(ev)
	if s.observer != nil {
		s.observer.RecordDrop(ctx, changed)
	}
	if changed {
		s.saveLayout()
	}
	return changed
}

// ApplyTemplate replaces the layout with a preset arrangement.
func (s *Session) ApplyTemplate(ctx context.Context, p layout.Preset) {
	s.Layout.ApplyPreset(p)
	if s.observer != nil {
		s.observer.RecordTemplateApplied(ctx, p.ID)
	}
	s.saveLayout()
}

// ResetLayout restores the default arrangement.
func (s *Session) ResetLayout() {
	s.Layout.Reset()
	s.saveLayout()
}

// SetVisible shows or hides a section.
func (s *Session) SetVisible(id layout.SectionID, visible bool) bool {
	changed := s.Layout.SetVisible(id, visible)
	if changed {
		s.saveLayout()
	}
	return changed
}

// Rename changes a section's label.
func (s *Session) Rename(id layout.SectionID, name string) bool {
	changed := s.Layout.Rename(id, name)
	if changed {
		s.saveLayout()
	}
	return changed
}

// NormalizeLayout rewrites the layout into canonical form.
func (s *Session) NormalizeLayout() {
	s.Layout.Normalize()
	s.saveLayout()
}

// Flush writes pending changes now.
func (s *Session) Flush(ctx context.Context) error {
	return s.autosave.Flush(ctx)
}

// Close flushes pending changes and stops autosave.
func (s *Session) Close(ctx context.Context) error {
	return s.autosave.Close(ctx)
}

// Values are encoded when scheduled so the autosave goroutine never reads
// state the caller keeps mutating.
func (s *Session) saveContent() {
	s.schedule(local.KeyEditorState, s.Content)
}

func (s *Session) saveLayout() {
	s.schedule(local.KeySectionOrder, s.Layout.Sections)
}

func (s *Session) schedule(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.LogError(err, "Failed to encode editor state", "key", key)
		return
	}
	s.autosave.Schedule(key, json.RawMessage(data))
}

// restoreLayout rebuilds a registry from saved sections. Unknown ids are
// dropped, known ids missing from the save come back hidden.
func restoreLayout(saved []layout.Section) *layout.Registry {
	defaults := layout.DefaultRegistry()
	seen := make(map[layout.SectionID]bool, len(saved))
	sections := make([]layout.Section, 0, len(layout.AllSections))
	for _, sec := range saved {
		if !sec.ID.IsKnown() || seen[sec.ID] {
			continue
		}
		seen[sec.ID] = true
		if sec.Name == "" {
			def, _ := defaults.Get(sec.ID)
			sec.Name = def.Name
		}
		sections = append(sections, sec)
	}
	for _, id := range layout.AllSections {
		if !seen[id] {
			def, _ := defaults.Get(id)
			def.Visible = false
			sections = append(sections, def)
		}
	}
	return layout.NewRegistry(sections)
}

// withDefaults fills nil lists and empty titles of loaded content.
func withDefaults(c *content.Content) *content.Content {
	def := content.DefaultContent()
	if c.Experience == nil {
		c.Experience = def.Experience
	}
	if c.Education == nil {
		c.Education = def.Education
	}
	if c.Skills == nil {
		c.Skills = def.Skills
	}
	if c.Languages == nil {
		c.Languages = def.Languages
	}

	for _, t := range []struct {
		got *string
		def string
	}{
		{&c.Titles.Profile, def.Titles.Profile},
		{&c.Titles.Contact, def.Titles.Contact},
		{&c.Titles.Experience, def.Titles.Experience},
		{&c.Titles.Education, def.Titles.Education},
		{&c.Titles.Skills, def.Titles.Skills},
		{&c.Titles.Languages, def.Titles.Languages},
	} {
		if strings.TrimSpace(*t.got) == "" {
			*t.got = t.def
		}
	}
	return c
}

// LoadAuthSession returns the saved backend session, if any.
func LoadAuthSession(ctx context.Context, store StateStore) (*types.Session, error) {
	var sess types.Session
	ok, err := store.Load(ctx, local.KeySession, &sess)
	if err != nil || !ok {
		return nil, err
	}
	return &sess, nil
}

// SaveAuthSession remembers the backend session for later commands.
func SaveAuthSession(ctx context.Context, store StateStore, sess *types.Session) error {
	return store.Save(ctx, local.KeySession, sess)
}
