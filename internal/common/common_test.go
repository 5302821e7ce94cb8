package common

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cvforge/internal/errors"
	"cvforge/internal/types"
)

func testLogger() *errors.Logger {
	return errors.NewLoggerWithWriter(io.Discard, slog.LevelDebug)
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestReadText(t *testing.T) {
	fp := NewFileProcessor(64, testLogger())

	t.Run("plain text", func(t *testing.T) {
		path := writeTemp(t, "resume.txt", "  Ada Lovelace\nAnalyst  \n")
		text, err := fp.ReadText(path)
		if err != nil {
			t.Fatalf("Expected text, got %v", err)
		}
		if text != "Ada Lovelace\nAnalyst" {
			t.Errorf("Expected trimmed text, got %q", text)
		}
	})

	tests := []struct {
		name     string
		path     func(t *testing.T) string
		wantType errors.ErrorType
	}{
		{
			name:     "missing file",
			path:     func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.txt") },
			wantType: errors.ErrorTypeValidation,
		},
		{
			name:     "too large",
			path:     func(t *testing.T) string { return writeTemp(t, "big.txt", strings.Repeat("x", 65)) },
			wantType: errors.ErrorTypeValidation,
		},
		{
			name:     "empty text",
			path:     func(t *testing.T) string { return writeTemp(t, "blank.txt", " \n\t") },
			wantType: errors.ErrorTypeValidation,
		},
		{
			name:     "directory",
			path:     func(t *testing.T) string { return t.TempDir() },
			wantType: errors.ErrorTypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fp.ReadText(tt.path(t))
			if !errors.IsType(err, tt.wantType) {
				t.Errorf("Expected %s error, got %v", tt.wantType, err)
			}
		})
	}
}

func TestReadFileNotFoundIsIOError(t *testing.T) {
	fp := NewFileProcessor(0, testLogger())
	_, err := fp.ReadFile(filepath.Join(t.TempDir(), "missing.pdf"))
	appErr, ok := errors.As(err)
	if !ok || appErr.Code != errors.ErrCodeFileNotFound {
		t.Errorf("Expected %s, got %v", errors.ErrCodeFileNotFound, err)
	}
}

func TestHandleOutput(t *testing.T) {
	output := &types.AnalysisOutput{
		Shape:  "canonical",
		Result: &types.AnalysisResult{OverallScore: 77},
	}

	t.Run("stdout", func(t *testing.T) {
		var buf bytes.Buffer
		oh := NewOutputHandler(&buf, testLogger())
		if err := oh.HandleOutput(output, CommandConfig{OutputFormat: "json"}); err != nil {
			t.Fatalf("Expected output, got %v", err)
		}
		if !strings.Contains(buf.String(), `"overallScore": 77`) {
			t.Errorf("Expected indented JSON with the score, got %s", buf.String())
		}
	})

	t.Run("file", func(t *testing.T) {
		var buf bytes.Buffer
		path := filepath.Join(t.TempDir(), "out", "analysis.md")
		oh := NewOutputHandler(&buf, testLogger())
		if err := oh.HandleOutput(output, CommandConfig{OutputFile: path, OutputFormat: "markdown"}); err != nil {
			t.Fatalf("Expected output, got %v", err)
		}
		if buf.Len() != 0 {
			t.Errorf("Expected nothing on stdout, got %q", buf.String())
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("Expected file, got %v", err)
		}
		if !strings.Contains(string(data), "77") {
			t.Errorf("Expected score in markdown, got %s", data)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		oh := NewOutputHandler(io.Discard, testLogger())
		err := oh.HandleOutput(output, CommandConfig{OutputFormat: "xml"})
		if !errors.IsType(err, errors.ErrorTypeValidation) {
			t.Errorf("Expected validation error, got %v", err)
		}
	})
}

func TestRunFileCommand(t *testing.T) {
	path := writeTemp(t, "resume.md", "# Ada\nAnalyst")
	var buf bytes.Buffer
	fc := FileCommand{
		Files:  NewFileProcessor(0, testLogger()),
		Output: NewOutputHandler(&buf, testLogger()),
		Config: CommandConfig{OutputFormat: "text"},
		Logger: testLogger(),
	}

	var got types.AnalyzeResumeInput
	err := RunFileCommand(context.Background(), fc, []string{path},
		func(texts []string) (types.AnalyzeResumeInput, error) {
			return types.AnalyzeResumeInput{ResumeText: texts[0], TargetRole: "Engineer"}, nil
		},
		func(_ context.Context, in types.AnalyzeResumeInput) (*types.AnalysisOutput, error) {
			got = in
			return &types.AnalysisOutput{Shape: "canonical", Result: &types.AnalysisResult{OverallScore: 64}}, nil
		},
		nil,
	)
	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if got.ResumeText != "# Ada\nAnalyst" {
		t.Errorf("Expected file text as input, got %q", got.ResumeText)
	}
	if !strings.Contains(buf.String(), "64") {
		t.Errorf("Expected formatted score, got %s", buf.String())
	}
}
