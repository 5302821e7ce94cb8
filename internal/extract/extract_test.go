package extract

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"cvforge/internal/errors"
)

const testDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Ada Lovelace</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Analyst</w:t><w:tab/><w:t>1842</w:t></w:r></w:p>
</w:body>
</w:document>`

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml":          `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/document.xml":            documentXML,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	}
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Failed to create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func TestDetectMIME(t *testing.T) {
	docx := buildDocx(t, testDocumentXML)
	tests := []struct {
		name     string
		filename string
		data     []byte
		expected string
	}{
		{"text by extension", "cv.md", []byte("# CV"), MIMEText},
		{"pdf by extension", "CV.PDF", []byte("%PDF-1.4"), MIMEPDF},
		{"docx by extension", "cv.docx", nil, MIMEDocx},
		{"sniffed pdf", "upload", []byte("%PDF-1.7\n"), MIMEPDF},
		{"sniffed zip", "upload", docx, MIMEDocx},
		{"sniffed text", "upload", []byte("plain words"), MIMEText},
		{"sniffed image", "upload", []byte("\x89PNG\r\n\x1a\n"), "image/png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectMIME(tt.filename, tt.data); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestExtractPlainText(t *testing.T) {
	text, err := ExtractText(MIMEText, []byte("  Ada Lovelace\nAnalyst \n"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if text != "Ada Lovelace\nAnalyst" {
		t.Errorf("Expected trimmed text, got %q", text)
	}
}

func TestExtractDocxText(t *testing.T) {
	text, err := ExtractText(MIMEDocx, buildDocx(t, testDocumentXML))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	lines := strings.Split(text, "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 paragraphs, got %q", text)
	}
	if lines[0] != "Ada Lovelace" || lines[1] != "Analyst\t1842" {
		t.Errorf("Expected paragraph text, got %q", lines)
	}
}

func TestExtractTextErrors(t *testing.T) {
	tests := []struct {
		name string
		mime string
		data []byte
		code string
	}{
		{"unsupported type", "image/png", []byte("\x89PNG"), errors.ErrCodeUnsupportedFile},
		{"broken pdf", MIMEPDF, []byte("%PDF-1.4 not really"), errors.ErrCodeInvalidFormat},
		{"broken docx", MIMEDocx, []byte("PK not a zip"), errors.ErrCodeInvalidFormat},
		{"empty text", MIMEText, []byte(" \n\t "), errors.ErrCodeInvalidFormat},
		{"empty docx body", MIMEDocx, buildDocx(t, `<w:document xmlns:w="w"><w:body/></w:document>`), errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractText(tt.mime, tt.data)
			appErr, ok := errors.As(err)
			if !ok {
				t.Fatalf("Expected AppError, got %v", err)
			}
			if appErr.Type != errors.ErrorTypeValidation {
				t.Errorf("Expected validation error, got %s", appErr.Type)
			}
			if appErr.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, appErr.Code)
			}
		})
	}
}
