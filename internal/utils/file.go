// Package utils holds file helpers shared by the CLI commands.
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	uploadExtensions = []string{".txt", ".text", ".md", ".markdown", ".pdf", ".docx"}
	photoExtensions  = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}
)

// StatInputFile checks that filename names a regular file that can be opened
// and returns its size.
func StatInputFile(filename string) (int64, error) {
	if filename == "" {
		return 0, fmt.Errorf("filename cannot be empty")
	}

	info, err := os.Stat(filename)
	switch {
	case os.IsNotExist(err):
		return 0, fmt.Errorf("file does not exist: %s", filename)
	case err != nil:
		return 0, fmt.Errorf("cannot access file %s: %w", filename, err)
	case !info.Mode().IsRegular():
		return 0, fmt.Errorf("not a regular file: %s", filename)
	}

	f, err := os.Open(filename)
	if err != nil {
		return 0, fmt.Errorf("cannot read file %s: %w", filename, err)
	}
	_ = f.Close()

	return info.Size(), nil
}

// EnsureParentDir creates the directory that will hold filename. An empty
// name means stdout and needs nothing.
func EnsureParentDir(filename string) error {
	if filename == "" {
		return nil
	}
	dir := filepath.Dir(filename)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("cannot create directory %s: %w", dir, err)
	}
	return nil
}

// Extension returns the lowercased extension of filename, dot included.
func Extension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// IsSupportedUpload reports whether the résumé extractor knows the extension.
func IsSupportedUpload(filename string) bool {
	return slices.Contains(uploadExtensions, Extension(filename))
}

// IsPhoto reports whether filename looks like a profile photo.
func IsPhoto(filename string) bool {
	return slices.Contains(photoExtensions, Extension(filename))
}

// HumanSize formats a byte count with binary units, e.g. "1.5 MB".
func HumanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for q := n / unit; q >= unit; q /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
