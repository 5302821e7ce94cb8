package formatters

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"cvforge/internal/content"
	"cvforge/internal/layout"
	"cvforge/internal/types"
)

func sampleAnalysis() *types.AnalysisOutput {
	return &types.AnalysisOutput{
		Shape: "canonical",
		Model: "gemini-2.0-flash",
		Usage: &types.TokenUsage{TotalTokens: 1234},
		Result: &types.AnalysisResult{
			OverallScore: 72,
			Scores: types.CategoryScores{
				ATSCompatibility:    80,
				KeywordOptimization: 65,
				ContentQuality:      70,
				Formatting:          75,
			},
			Strengths:       []string{"Clear structure"},
			Weaknesses:      []string{"Few metrics"},
			Recommendations: []string{"Quantify results"},
			Keywords: types.KeywordAnalysis{
				Found:   []string{"Go", "SQL"},
				Missing: []string{"Kubernetes"},
			},
			Improvements: []types.Improvement{
				{Section: "Experience", Priority: types.PriorityHigh, Suggestion: "Add numbers"},
			},
		},
	}
}

func TestFormatAnalysis(t *testing.T) {
	registry := NewFormatterRegistry()

	tests := []struct {
		format string
		want   []string
	}{
		{"text", []string{"Overall Score: 72/100", "ATS Compatibility:", "- Clear structure", "Missing:   Kubernetes", "Suggested: none", "1. [HIGH] Experience: Add numbers", "tokens: 1234"}},
		{"markdown", []string{"**Overall Score:** 72/100", "| Keyword Optimization | 65 |", "## Weaknesses", "### 1. Experience (high priority)"}},
		{"json", []string{`"overallScore": 72`, `"shape": "canonical"`}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out, err := registry.Format(sampleAnalysis(), tt.format)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("Expected output to contain %q, got:\n%s", want, out)
				}
			}
		})
	}
}

func TestFormatAnalysisRejectsMissingResult(t *testing.T) {
	f := &AnalysisTextFormatter{}
	if _, err := f.Format(&types.AnalysisOutput{}); err == nil {
		t.Errorf("Expected error for output without result")
	}
}

func TestFormatLayoutText(t *testing.T) {
	r := layout.DefaultRegistry()
	r.SetVisible(layout.SectionLanguages, false)

	out, err := NewFormatterRegistry().Format(r, "text")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for _, want := range []string{"row 1", "Name", "Contact", "Experience", "hidden: Languages (languages)"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected layout to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Count(out, "row ") != r.LayerCount() {
		t.Errorf("Expected %d rows, got:\n%s", r.LayerCount(), out)
	}
}

func TestFormatLayoutMarkdown(t *testing.T) {
	r := layout.DefaultRegistry()
	r.SetVisible(layout.SectionEducation, false)

	out, err := NewFormatterRegistry().Format(r, "markdown")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(out, "| 1 | name | Name | half | true |") {
		t.Errorf("Expected first row entry, got:\n%s", out)
	}
	if !strings.Contains(out, "| - | education | Education |") {
		t.Errorf("Expected hidden section without row, got:\n%s", out)
	}
}

func TestFormatActivity(t *testing.T) {
	entries := []types.Activity{
		{ID: 2, Action: "export", Detail: "pdf", CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		{ID: 1, Action: "signin", CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
	}
	registry := NewFormatterRegistry()

	text, err := registry.Format(entries, "text")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(text), "\n"); len(lines) != 2 {
		t.Errorf("Expected one line per entry, got:\n%s", text)
	}

	md, err := registry.Format([]types.Activity{{Action: "edit", Detail: "a|b"}}, "markdown")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(md, `a\|b`) {
		t.Errorf("Expected pipe escaped, got:\n%s", md)
	}

	empty, _ := registry.Format([]types.Activity{}, "text")
	if empty != "No activity yet.\n" {
		t.Errorf("Expected empty message, got %q", empty)
	}
}

func TestFormatFallsBackToJSON(t *testing.T) {
	registry := NewFormatterRegistry()

	out, err := registry.Format(map[string]int{"count": 3}, "text")
	if err != nil {
		t.Fatalf("Expected JSON fallback, got %v", err)
	}
	var decoded map[string]int
	if err := json.Unmarshal([]byte(out), &decoded); err != nil || decoded["count"] != 3 {
		t.Errorf("Expected JSON output, got %q", out)
	}

	if _, err := registry.Format(sampleAnalysis(), "yaml"); err == nil {
		t.Errorf("Expected unknown format to fail")
	}
}

func TestSupportedFormats(t *testing.T) {
	got := NewFormatterRegistry().GetSupportedFormats()
	want := []string{"json", "markdown", "text"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestFormatPresets(t *testing.T) {
	presets := []layout.Preset{{
		ID:          "duo",
		Name:        "Duo",
		Description: "Two rows",
		Sections: []layout.Section{
			{ID: layout.SectionName, Name: "Name", Visible: true, Layer: 1, Width: layout.WidthHalf},
			{ID: layout.SectionContact, Name: "Contact", Visible: true, Layer: 1, Width: layout.WidthHalf},
			{ID: layout.SectionProfile, Name: "Profile", Visible: true, Layer: 2, Width: layout.WidthFull},
		},
	}}

	text, err := GlobalRegistry.Format(presets, "text")
	if err != nil {
		t.Fatalf("Expected text, got %v", err)
	}
	for _, want := range []string{"Duo (duo)", "row 1: name | contact", "row 2: profile"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in:\n%s", want, text)
		}
	}

	md, err := GlobalRegistry.Format(presets, "markdown")
	if err != nil {
		t.Fatalf("Expected markdown, got %v", err)
	}
	if !strings.Contains(md, "| duo | Duo | 2 | Two rows |") {
		t.Errorf("Expected preset row, got:\n%s", md)
	}
}

func TestFormatContentText(t *testing.T) {
	empty, err := GlobalRegistry.Format(&content.Content{}, "text")
	if err != nil || empty != "The CV is empty.\n" {
		t.Errorf("Expected empty message, got %q (%v)", empty, err)
	}

	c := content.DefaultContent()
	c.Name = "Ada Lovelace"
	out, err := GlobalRegistry.Format(c, "text")
	if err != nil || !strings.Contains(out, "Ada Lovelace") {
		t.Errorf("Expected plaintext with the name, got %q (%v)", out, err)
	}
}
