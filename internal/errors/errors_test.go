package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "parse failure is generic",
			err:      NewParseError(ErrCodeAIResponseParse, "no recognizer matched", nil),
			expected: "analysis failed, please retry",
		},
		{
			name:     "auth failure asks to sign in",
			err:      SignInRequired(),
			expected: "please sign in",
		},
		{
			name:     "wrapped remote error keeps message",
			err:      fmt.Errorf("analyze: %w", NewRemoteError(ErrCodeAIServiceFailed, "analysis service unavailable", nil)),
			expected: "analysis service unavailable",
		},
		{
			name:     "plain error",
			err:      fmt.Errorf("boom"),
			expected: "something went wrong, please retry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestIsType(t *testing.T) {
	err := fmt.Errorf("save: %w", SignInRequired())
	if !IsType(err, ErrorTypeAuth) {
		t.Errorf("Expected wrapped error to be auth type")
	}
	if IsType(err, ErrorTypeValidation) {
		t.Errorf("Expected wrapped error not to be validation type")
	}
	if IsType(nil, ErrorTypeAuth) {
		t.Errorf("Expected nil not to match any type")
	}
}

func TestLogErrorIncludesContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelDebug)

	err := NewValidationError(ErrCodeInvalidField, "invalid profile", nil).
		WithContext("field", "email")
	logger.LogError(err, "profile rejected")

	var entry map[string]any
	if decodeErr := json.Unmarshal(buf.Bytes(), &entry); decodeErr != nil {
		t.Fatalf("Expected JSON log line, got error: %v", decodeErr)
	}
	if entry["error_type"] != "validation" {
		t.Errorf("Expected error_type validation, got %v", entry["error_type"])
	}
	if entry["field"] != "email" {
		t.Errorf("Expected field context email, got %v", entry["field"])
	}
}

func TestNewInvalidLevel(t *testing.T) {
	if _, err := New("loud"); err == nil {
		t.Errorf("Expected error for invalid level")
	}
}
