package formatters

import (
	"fmt"
	"strings"

	"cvforge/internal/content"
	"cvforge/internal/layout"
)

// PresetTextFormatter lists template presets with their rows
type PresetTextFormatter struct{}

func (ptf *PresetTextFormatter) Format(data any) (string, error) {
	presets, ok := data.([]layout.Preset)
	if !ok {
		return "", fmt.Errorf("expected []Preset, got %T", data)
	}
	if len(presets) == 0 {
		return "No templates available.\n", nil
	}

	var output strings.Builder
	for _, p := range presets {
		output.WriteString(fmt.Sprintf("%s (%s)\n", p.Name, p.ID))
		if p.Description != "" {
			output.WriteString("  " + p.Description + "\n")
		}
		for i, row := range layout.NewRegistry(p.Sections).Rows() {
			ids := make([]string, len(row))
			for j, s := range row {
				ids[j] = string(s.ID)
			}
			output.WriteString(fmt.Sprintf("  row %d: %s\n", i+1, strings.Join(ids, " | ")))
		}
	}
	return output.String(), nil
}

func (ptf *PresetTextFormatter) SupportedType() string {
	return "PresetList"
}

// PresetMarkdownFormatter renders template presets as a table
type PresetMarkdownFormatter struct{}

func (pmf *PresetMarkdownFormatter) Format(data any) (string, error) {
	presets, ok := data.([]layout.Preset)
	if !ok {
		return "", fmt.Errorf("expected []Preset, got %T", data)
	}

	var output strings.Builder
	output.WriteString("| ID | Name | Rows | Description |\n|---|---|---|---|\n")
	for _, p := range presets {
		output.WriteString(fmt.Sprintf("| %s | %s | %d | %s |\n",
			escapeCell(p.ID), escapeCell(p.Name), layout.NewRegistry(p.Sections).LayerCount(), escapeCell(p.Description)))
	}
	return output.String(), nil
}

func (pmf *PresetMarkdownFormatter) SupportedType() string {
	return "PresetList"
}

// ContentTextFormatter prints CV content as plain text
type ContentTextFormatter struct{}

func (ctf *ContentTextFormatter) Format(data any) (string, error) {
	c, ok := data.(*content.Content)
	if !ok {
		return "", fmt.Errorf("expected *Content, got %T", data)
	}
	if c.IsEmpty() {
		return "The CV is empty.\n", nil
	}
	return c.Plaintext(), nil
}

func (ctf *ContentTextFormatter) SupportedType() string {
	return "Content"
}
