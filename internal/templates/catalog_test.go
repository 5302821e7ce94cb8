package templates

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cvforge/internal/errors"
	"cvforge/internal/layout"
)

func discardLogger() *errors.Logger {
	return errors.NewLoggerWithWriter(io.Discard, slog.LevelDebug)
}

type fakeSource struct {
	presets []layout.Preset
	err     error
}

func (f *fakeSource) ListTemplates(context.Context) ([]layout.Preset, error) {
	return f.presets, f.err
}

func (f *fakeSource) GetTemplate(_ context.Context, id string) (*layout.Preset, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, p := range f.presets {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, errors.NewValidationError(errors.ErrCodeNotFound, "not found", nil)
}

func TestBuiltinPresetsProduceValidLayouts(t *testing.T) {
	presets := Builtin()
	if len(presets) < 3 {
		t.Fatalf("Expected several built-in presets, got %d", len(presets))
	}
	for _, p := range presets {
		r := layout.DefaultRegistry()
		r.ApplyPreset(p)
		if err := r.Validate(); err != nil {
			t.Errorf("Expected preset %s to yield a valid layout, got %v", p.ID, err)
		}
		if len(r.Sections) != len(layout.AllSections) {
			t.Errorf("Expected preset %s to keep every section, got %d", p.ID, len(r.Sections))
		}
	}
}

func TestParsePresetsErrors(t *testing.T) {
	tests := map[string]string{
		"bad yaml":     "presets: [",
		"missing id":   "presets:\n  - name: No id\n",
		"missing name": "presets:\n  - id: x\n",
		"duplicate":    "presets:\n  - {id: a, name: A}\n  - {id: a, name: B}\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParsePresets([]byte(doc)); err == nil {
				t.Errorf("Expected an error")
			}
		})
	}
}

func writePresets(t *testing.T, path, name string) {
	t.Helper()
	doc := fmt.Sprintf("presets:\n  - id: classic\n    name: %s\n    sections:\n      - {id: name, visible: true, layer: 1}\n  - id: custom\n    name: Custom\n    sections: []\n", name)
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		t.Fatalf("Failed to write presets: %v", err)
	}
}

func TestLoadFileOverridesBuiltins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	writePresets(t, path, "Classic (house style)")

	c := NewCatalog(discardLogger())
	if err := c.LoadFile(path); err != nil {
		t.Fatalf("Expected presets file to load, got %v", err)
	}

	classic, err := c.Get(context.Background(), "classic")
	if err != nil {
		t.Fatalf("Expected classic preset, got %v", err)
	}
	if classic.Name != "Classic (house style)" {
		t.Errorf("Expected file preset to win, got %q", classic.Name)
	}

	all, _ := c.List(context.Background())
	if len(all) != len(Builtin())+1 {
		t.Errorf("Expected builtins plus one custom preset, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Name > all[i].Name {
			t.Errorf("Expected presets sorted by name, got %q before %q", all[i-1].Name, all[i].Name)
		}
	}
}

func TestLoadFileErrors(t *testing.T) {
	c := NewCatalog(discardLogger())
	if err := c.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); !errors.IsType(err, errors.ErrorTypeIO) {
		t.Errorf("Expected io error for missing file, got %v", err)
	}
}

func TestRemoteSourcePrecedenceAndFallback(t *testing.T) {
	ctx := context.Background()
	remote := &fakeSource{presets: []layout.Preset{{ID: "classic", Name: "Remote classic"}, {ID: "remote-only", Name: "Remote only"}}}

	c := NewCatalog(discardLogger())
	c.SetRemote(remote)

	p, err := c.Get(ctx, "classic")
	if err != nil || p.Name != "Remote classic" {
		t.Errorf("Expected remote classic, got %v %v", p, err)
	}
	p, err = c.Get(ctx, "minimal")
	if err != nil || p.ID != "minimal" {
		t.Errorf("Expected local fallback for minimal, got %v %v", p, err)
	}

	all, _ := c.List(ctx)
	if len(all) != len(Builtin())+1 {
		t.Errorf("Expected merged catalog, got %d presets", len(all))
	}

	remote.err = fmt.Errorf("connection refused")
	all, err = c.List(ctx)
	if err != nil {
		t.Fatalf("Expected local presets when backend is down, got %v", err)
	}
	if len(all) != len(Builtin()) {
		t.Errorf("Expected only builtins, got %d", len(all))
	}
	if p, err := c.Get(ctx, "classic"); err != nil || p.Name != "Classic" {
		t.Errorf("Expected builtin classic when backend is down, got %v %v", p, err)
	}
}

func TestGetUnknownTemplate(t *testing.T) {
	_, err := NewCatalog(discardLogger()).Get(context.Background(), "nope")
	appErr, ok := errors.As(err)
	if !ok || appErr.Code != errors.ErrCodeNotFound {
		t.Errorf("Expected NOT_FOUND, got %v", err)
	}
}

func TestWatcherReloadsPresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	writePresets(t, path, "Version one")

	c := NewCatalog(discardLogger())
	if err := c.LoadFile(path); err != nil {
		t.Fatalf("Expected presets file to load, got %v", err)
	}

	w := NewWatcher(path, c, 20*time.Millisecond, discardLogger())
	if err := w.Start(); err != nil {
		t.Fatalf("Expected watcher to start, got %v", err)
	}
	defer w.Stop()

	if err := w.Start(); err == nil {
		t.Errorf("Expected second start to fail")
	}

	// Ensure the new write gets a distinct modification time
	time.Sleep(20 * time.Millisecond)
	writePresets(t, path, "Version two")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if p, err := c.Get(context.Background(), "classic"); err == nil && p.Name == "Version two" {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if p, _ := c.Get(context.Background(), "classic"); p.Name != "Version two" {
		t.Errorf("Expected reloaded preset name, got %q", p.Name)
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Expected stop to succeed, got %v", err)
	}
	if w.IsRunning() {
		t.Errorf("Expected watcher to be stopped")
	}
}
