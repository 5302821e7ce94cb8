package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"cvforge/internal/content"
	"cvforge/internal/layout"
	"cvforge/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// GlobalRegistry is the shared formatter registry
var GlobalRegistry = NewFormatterRegistry()

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "AnalysisOutput", &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", "AnalysisOutput", &AnalysisMarkdownFormatter{})
	registry.RegisterFormatter("text", "Layout", &LayoutTextFormatter{})
	registry.RegisterFormatter("markdown", "Layout", &LayoutMarkdownFormatter{})
	registry.RegisterFormatter("text", "ActivityList", &ActivityTextFormatter{})
	registry.RegisterFormatter("markdown", "ActivityList", &ActivityMarkdownFormatter{})
	registry.RegisterFormatter("text", "PresetList", &PresetTextFormatter{})
	registry.RegisterFormatter("markdown", "PresetList", &PresetMarkdownFormatter{})
	registry.RegisterFormatter("text", "Content", &ContentTextFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter, then to JSON
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := fr.formatters["json"]["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case *types.AnalysisOutput:
		return "AnalysisOutput"
	case *layout.Registry:
		return "Layout"
	case []types.Activity:
		return "ActivityList"
	case []layout.Preset:
		return "PresetList"
	case *content.Content:
		return "Content"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// AnalysisTextFormatter handles text formatting for analysis results
type AnalysisTextFormatter struct{}

func (atf *AnalysisTextFormatter) Format(data any) (string, error) {
	out, ok := data.(*types.AnalysisOutput)
	if !ok || out == nil || out.Result == nil {
		return "", fmt.Errorf("expected AnalysisOutput, got %T", data)
	}
	result := out.Result

	var output strings.Builder

	output.WriteString("=== RÉSUMÉ ANALYSIS ===\n")
	output.WriteString(fmt.Sprintf("Overall Score: %d/100\n\n", result.OverallScore))

	output.WriteString("=== SCORES ===\n")
	for _, s := range scoreLines(result.Scores) {
		output.WriteString(fmt.Sprintf("%-22s %3d/100\n", s.label+":", s.value))
	}
	output.WriteString("\n")

	writeTextList(&output, "STRENGTHS", result.Strengths)
	writeTextList(&output, "WEAKNESSES", result.Weaknesses)
	writeTextList(&output, "RECOMMENDATIONS", result.Recommendations)

	output.WriteString("=== KEYWORDS ===\n")
	output.WriteString(fmt.Sprintf("Found:     %s\n", joinOrNone(result.Keywords.Found)))
	output.WriteString(fmt.Sprintf("Missing:   %s\n", joinOrNone(result.Keywords.Missing)))
	output.WriteString(fmt.Sprintf("Suggested: %s\n", joinOrNone(result.Keywords.Suggested)))

	if len(result.Improvements) > 0 {
		output.WriteString("\n=== IMPROVEMENTS ===\n")
		for i, imp := range result.Improvements {
			output.WriteString(fmt.Sprintf("%d. [%s] %s: %s\n", i+1, strings.ToUpper(string(imp.Priority)), imp.Section, imp.Suggestion))
		}
	}

	if out.Usage != nil {
		output.WriteString(fmt.Sprintf("\nModel: %s, tokens: %d\n", out.Model, out.Usage.TotalTokens))
	}

	return output.String(), nil
}

func (atf *AnalysisTextFormatter) SupportedType() string {
	return "AnalysisOutput"
}

// AnalysisMarkdownFormatter handles markdown formatting for analysis results
type AnalysisMarkdownFormatter struct{}

func (amf *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	out, ok := data.(*types.AnalysisOutput)
	if !ok || out == nil || out.Result == nil {
		return "", fmt.Errorf("expected AnalysisOutput, got %T", data)
	}
	result := out.Result

	var output strings.Builder

	output.WriteString("# Résumé Analysis\n\n")
	output.WriteString(fmt.Sprintf("**Overall Score:** %d/100\n\n", result.OverallScore))

	output.WriteString("## Scores\n\n")
	output.WriteString("| Category | Score |\n|---|---|\n")
	for _, s := range scoreLines(result.Scores) {
		output.WriteString(fmt.Sprintf("| %s | %d |\n", s.label, s.value))
	}
	output.WriteString("\n")

	writeMarkdownList(&output, "Strengths", result.Strengths)
	writeMarkdownList(&output, "Weaknesses", result.Weaknesses)
	writeMarkdownList(&output, "Recommendations", result.Recommendations)

	output.WriteString("## Keywords\n\n")
	output.WriteString(fmt.Sprintf("- **Found:** %s\n", joinOrNone(result.Keywords.Found)))
	output.WriteString(fmt.Sprintf("- **Missing:** %s\n", joinOrNone(result.Keywords.Missing)))
	output.WriteString(fmt.Sprintf("- **Suggested:** %s\n\n", joinOrNone(result.Keywords.Suggested)))

	if len(result.Improvements) > 0 {
		output.WriteString("## Improvements\n\n")
		for i, imp := range result.Improvements {
			output.WriteString(fmt.Sprintf("### %d. %s (%s priority)\n\n%s\n\n", i+1, imp.Section, imp.Priority, imp.Suggestion))
		}
	}

	return output.String(), nil
}

func (amf *AnalysisMarkdownFormatter) SupportedType() string {
	return "AnalysisOutput"
}

// ActivityTextFormatter lists activity entries one per line
type ActivityTextFormatter struct{}

func (atf *ActivityTextFormatter) Format(data any) (string, error) {
	entries, ok := data.([]types.Activity)
	if !ok {
		return "", fmt.Errorf("expected []Activity, got %T", data)
	}
	if len(entries) == 0 {
		return "No activity yet.\n", nil
	}

	var output strings.Builder
	for _, a := range entries {
		line := fmt.Sprintf("%s  %s", a.CreatedAt.Local().Format("2006-01-02 15:04"), a.Action)
		if a.Detail != "" {
			line += "  " + a.Detail
		}
		output.WriteString(line + "\n")
	}
	return output.String(), nil
}

func (atf *ActivityTextFormatter) SupportedType() string {
	return "ActivityList"
}

// ActivityMarkdownFormatter renders activity entries as a table
type ActivityMarkdownFormatter struct{}

func (amf *ActivityMarkdownFormatter) Format(data any) (string, error) {
	entries, ok := data.([]types.Activity)
	if !ok {
		return "", fmt.Errorf("expected []Activity, got %T", data)
	}

	var output strings.Builder
	output.WriteString("| When | Action | Detail |\n|---|---|---|\n")
	for _, a := range entries {
		output.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
			a.CreatedAt.UTC().Format("2006-01-02 15:04"), escapeCell(a.Action), escapeCell(a.Detail)))
	}
	return output.String(), nil
}

func (amf *ActivityMarkdownFormatter) SupportedType() string {
	return "ActivityList"
}

type scoreLine struct {
	label string
	value int
}

func scoreLines(s types.CategoryScores) []scoreLine {
	return []scoreLine{
		{"ATS Compatibility", s.ATSCompatibility},
		{"Keyword Optimization", s.KeywordOptimization},
		{"Content Quality", s.ContentQuality},
		{"Formatting", s.Formatting},
	}
}

func writeTextList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("=== " + title + " ===\n")
	for _, item := range items {
		b.WriteString("- " + item + "\n")
	}
	b.WriteString("\n")
}

func writeMarkdownList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("## " + title + "\n\n")
	for _, item := range items {
		b.WriteString("- " + item + "\n")
	}
	b.WriteString("\n")
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
