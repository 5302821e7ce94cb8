package formatters

import (
	"fmt"
	"strings"

	"cvforge/internal/layout"

	"github.com/charmbracelet/lipgloss"
)

// cellWidth is the inner width of a half-row box in the text layout view.
const cellWidth = 26

var (
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	hiddenStyle = lipgloss.NewStyle().Faint(true)
)

// LayoutTextFormatter draws the visible rows as a grid of boxes and lists the
// hidden sections underneath.
type LayoutTextFormatter struct{}

func (ltf *LayoutTextFormatter) Format(data any) (string, error) {
	r, ok := data.(*layout.Registry)
	if !ok || r == nil {
		return "", fmt.Errorf("expected Layout, got %T", data)
	}

	var output strings.Builder
	for i, row := range r.Rows() {
		boxes := make([]string, 0, len(row))
		for _, s := range row {
			width := cellWidth
			if len(row) == 1 {
				// A full row spans both half boxes including their inner borders.
				width = 2*cellWidth + boxStyle.GetHorizontalBorderSize()
			}
			boxes = append(boxes, boxStyle.Width(width).Render(s.Name+"\n"+string(s.ID)))
		}
		output.WriteString(fmt.Sprintf("row %d\n", i+1))
		output.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
		output.WriteString("\n")
	}

	var hidden []string
	for _, s := range r.Sections {
		if !s.Visible {
			hidden = append(hidden, fmt.Sprintf("%s (%s)", s.Name, s.ID))
		}
	}
	if len(hidden) > 0 {
		output.WriteString(hiddenStyle.Render("hidden: " + strings.Join(hidden, ", ")))
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (ltf *LayoutTextFormatter) SupportedType() string {
	return "Layout"
}

// LayoutMarkdownFormatter renders the arrangement as a table.
type LayoutMarkdownFormatter struct{}

func (lmf *LayoutMarkdownFormatter) Format(data any) (string, error) {
	r, ok := data.(*layout.Registry)
	if !ok || r == nil {
		return "", fmt.Errorf("expected Layout, got %T", data)
	}

	var output strings.Builder
	output.WriteString("| Row | Section | Label | Width | Visible |\n|---|---|---|---|---|\n")
	for _, s := range r.Sections {
		row := "-"
		if s.Visible {
			row = fmt.Sprintf("%d", s.Layer)
		}
		output.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %t |\n", row, s.ID, escapeCell(s.Name), s.Width, s.Visible))
	}
	return output.String(), nil
}

func (lmf *LayoutMarkdownFormatter) SupportedType() string {
	return "Layout"
}
