package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// loadPromptsFromFiles reads the prompt files named in the AI config.
// Inline prompts are used when no file is set.
func (c *Config) loadPromptsFromFiles() error {
	p := &c.AI.Prompts

	p.LoadedSystem = strings.TrimSpace(p.System)
	if p.SystemFile != "" {
		content, err := loadPromptFromFile(p.SystemFile, "system")
		if err != nil {
			return err
		}
		p.LoadedSystem = content
	}

	p.LoadedUser = strings.TrimSpace(p.User)
	if p.UserFile != "" {
		content, err := loadPromptFromFile(p.UserFile, "user")
		if err != nil {
			return err
		}
		p.LoadedUser = content
	}

	if p.LoadedUser != "" && !strings.Contains(p.LoadedUser, "{{resume}}") {
		return fmt.Errorf("user prompt must contain the {{resume}} placeholder ({{role}} is optional)")
	}

	return nil
}

// loadPromptFromFile loads a prompt from a file
func loadPromptFromFile(filePath, promptType string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s prompt file '%s': %w", promptType, filePath, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s prompt file not found: %s", promptType, absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s prompt file '%s': %w", promptType, absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s prompt file '%s' is empty", promptType, absPath)
	}

	log.Printf("[CONFIG] Loaded %s prompt from file: %s (%d characters)", promptType, absPath, len(trimmed))
	return trimmed, nil
}
