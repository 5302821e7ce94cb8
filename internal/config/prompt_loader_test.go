package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPromptsFromFiles(t *testing.T) {
	tempDir := t.TempDir()

	systemPromptContent := "Test system prompt for analysis"
	userPromptContent := "Analyze: {{resume}} for role {{role}}"

	systemPromptFile := filepath.Join(tempDir, "system.analyze.md")
	userPromptFile := filepath.Join(tempDir, "user.analyze.md")

	if err := os.WriteFile(systemPromptFile, []byte(systemPromptContent), 0600); err != nil {
		t.Fatalf("Failed to create test system prompt file: %v", err)
	}
	if err := os.WriteFile(userPromptFile, []byte("\n"+userPromptContent+"\n"), 0600); err != nil {
		t.Fatalf("Failed to create test user prompt file: %v", err)
	}

	config := &Config{
		AI: AIConfig{
			Prompts: PromptConfig{
				System:     "inline system prompt",
				SystemFile: systemPromptFile,
				UserFile:   userPromptFile,
			},
		},
	}

	if err := config.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Failed to load prompts from files: %v", err)
	}

	if config.AI.Prompts.LoadedSystem != systemPromptContent {
		t.Errorf("Expected file system prompt to win over inline, got '%s'", config.AI.Prompts.LoadedSystem)
	}
	if config.AI.Prompts.LoadedUser != userPromptContent {
		t.Errorf("Expected trimmed user prompt '%s', got '%s'", userPromptContent, config.AI.Prompts.LoadedUser)
	}
	if config.AI.Prompts.SystemFile != systemPromptFile {
		t.Error("Expected system prompt file path to be preserved")
	}
}

func TestLoadPromptsInlineOnly(t *testing.T) {
	config := &Config{AI: AIConfig{Prompts: PromptConfig{System: "  be strict  "}}}

	if err := config.loadPromptsFromFiles(); err != nil {
		t.Fatalf("Expected inline prompts to load, got %v", err)
	}
	if config.AI.Prompts.LoadedSystem != "be strict" {
		t.Errorf("Expected trimmed inline prompt, got '%s'", config.AI.Prompts.LoadedSystem)
	}
	if config.AI.Prompts.LoadedUser != "" {
		t.Errorf("Expected empty user prompt, got '%s'", config.AI.Prompts.LoadedUser)
	}
}

func TestLoadPromptsPlaceholders(t *testing.T) {
	tests := []struct {
		name    string
		user    string
		wantErr bool
	}{
		{"resume and role", "CV: {{resume}} for {{role}}", false},
		{"resume only", "Review {{resume}}", false},
		{"literal percent", "Score {{resume}} from 0-100%", false},
		{"printf verbs", "Review %s for %s", true},
		{"no placeholder", "Review my CV", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{AI: AIConfig{Prompts: PromptConfig{User: tt.user}}}
			err := config.loadPromptsFromFiles()
			if tt.wantErr && err == nil {
				t.Errorf("Expected error for user prompt %q", tt.user)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected user prompt %q to load, got %v", tt.user, err)
			}
		})
	}
}

func TestLoadPromptFromFile(t *testing.T) {
	tempDir := t.TempDir()

	content := "Test prompt content"
	testFile := filepath.Join(tempDir, "test.md")
	if err := os.WriteFile(testFile, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	loadedContent, err := loadPromptFromFile(testFile, "system")
	if err != nil {
		t.Fatalf("Failed to load prompt from file: %v", err)
	}
	if loadedContent != content {
		t.Errorf("Expected content '%s', got '%s'", content, loadedContent)
	}

	emptyFile := filepath.Join(tempDir, "empty.md")
	if err := os.WriteFile(emptyFile, []byte("  \n"), 0600); err != nil {
		t.Fatalf("Failed to create empty test file: %v", err)
	}
	if _, err := loadPromptFromFile(emptyFile, "system"); err == nil {
		t.Error("Expected error for empty file")
	}

	if _, err := loadPromptFromFile(filepath.Join(tempDir, "nonexistent.md"), "system"); err == nil {
		t.Error("Expected error for non-existent file")
	}
}
