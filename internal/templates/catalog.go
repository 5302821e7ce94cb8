// Package templates is the catalog of layout presets: built-in presets, an
// optional presets file and the backend template table.
package templates

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"cvforge/internal/errors"
	"cvforge/internal/layout"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var builtinPresets []byte

// Source is a remote template catalog.
type Source interface {
	ListTemplates(ctx context.Context) ([]layout.Preset, error)
	GetTemplate(ctx context.Context, id string) (*layout.Preset, error)
}

type presetFile struct {
	Presets []layout.Preset `yaml:"presets"`
}

// ParsePresets decodes a presets document. Every preset needs a unique id and
// a name.
func ParsePresets(data []byte) ([]layout.Preset, error) {
	var doc presetFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewParseError(errors.ErrCodeInvalidFormat, "failed to parse presets", err)
	}

	seen := make(map[string]bool, len(doc.Presets))
	for i, p := range doc.Presets {
		if p.ID == "" || p.Name == "" {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
				fmt.Sprintf("preset %d needs an id and a name", i+1), nil)
		}
		if seen[p.ID] {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
				fmt.Sprintf("preset %q is defined twice", p.ID), nil)
		}
		seen[p.ID] = true
	}
	return doc.Presets, nil
}

// Builtin returns the presets compiled into the binary.
func Builtin() []layout.Preset {
	presets, err := ParsePresets(builtinPresets)
	if err != nil {
		panic(fmt.Sprintf("embedded presets are invalid: %v", err))
	}
	return presets
}

// Catalog merges the preset sources. On id clashes the backend wins over the
// presets file, which wins over the built-ins.
type Catalog struct {
	mu       sync.RWMutex
	builtin  []layout.Preset
	file     []layout.Preset
	filePath string

	remote Source
	logger *errors.Logger
}

// NewCatalog returns a catalog holding the built-in presets.
func NewCatalog(logger *errors.Logger) *Catalog {
	return &Catalog{builtin: Builtin(), logger: logger}
}

// SetRemote makes the backend template table part of the catalog.
func (c *Catalog) SetRemote(src Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remote = src
}

// LoadFile reads presets from path, replacing any previously loaded file.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read presets file", err).
			WithContext("path", path)
	}
	presets, err := ParsePresets(data)
	if err != nil {
		if appErr, ok := errors.As(err); ok {
			appErr.WithContext("path", path)
		}
		return err
	}

	c.mu.Lock()
	c.file = presets
	c.filePath = path
	c.mu.Unlock()

	c.logger.Info("Loaded presets file", "path", path, "presets", len(presets))
	return nil
}

func (c *Catalog) local() []layout.Preset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return merge(c.builtin, c.file)
}

func (c *Catalog) source() Source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.remote
}

// List returns every preset, sorted by name. When the backend cannot be
// reached the local presets are returned on their own.
func (c *Catalog) List(ctx context.Context) ([]layout.Preset, error) {
	presets := c.local()
	if remote := c.source(); remote != nil {
		fromRemote, err := remote.ListTemplates(ctx)
		if err != nil {
			c.logger.LogError(err, "Template backend unavailable, using local presets")
		} else {
			presets = merge(presets, fromRemote)
		}
	}

	sort.SliceStable(presets, func(i, j int) bool { return presets[i].Name < presets[j].Name })
	return presets, nil
}

// Get returns one preset by id.
func (c *Catalog) Get(ctx context.Context, id string) (*layout.Preset, error) {
	if remote := c.source(); remote != nil {
		p, err := remote.GetTemplate(ctx, id)
		if err == nil {
			return p, nil
		}
		if appErr, ok := errors.As(err); !ok || appErr.Code != errors.ErrCodeNotFound {
			c.logger.LogError(err, "Template backend unavailable, using local presets", "template", id)
		}
	}

	for _, p := range c.local() {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, errors.NewValidationError(errors.ErrCodeNotFound, fmt.Sprintf("template %q not found", id), nil).
		WithContext("template", id)
}

// merge overlays later presets on earlier ones by id, keeping first-seen order.
func merge(base, overlay []layout.Preset) []layout.Preset {
	out := make([]layout.Preset, 0, len(base)+len(overlay))
	index := make(map[string]int, len(base)+len(overlay))
	for _, set := range [][]layout.Preset{base, overlay} {
		for _, p := range set {
			if i, ok := index[p.ID]; ok {
				out[i] = p
				continue
			}
			index[p.ID] = len(out)
			out = append(out, p)
		}
	}
	return out
}
