package content

import (
	"strings"
	"testing"

	"cvforge/internal/errors"
)

func TestListEditorAssignsIncreasingIDs(t *testing.T) {
	c := DefaultContent()

	for _, name := range []string{"Go", "SQL", "Kubernetes"} {
		if err := Apply(c, "skills", Edit{Op: OpAdd, Fields: map[string]string{"name": name}}); err != nil {
			t.Fatalf("Expected add to succeed, got %v", err)
		}
	}
	if err := Apply(c, "skills", Edit{Op: OpRemove, ID: 2}); err != nil {
		t.Fatalf("Expected remove to succeed, got %v", err)
	}
	if err := Apply(c, "skills", Edit{Op: OpAdd, Fields: map[string]string{"name": "Terraform"}}); err != nil {
		t.Fatalf("Expected add to succeed, got %v", err)
	}

	ids := []int{}
	for _, s := range c.Skills {
		ids = append(ids, s.ID)
	}
	expected := []int{1, 3, 4}
	if len(ids) != len(expected) {
		t.Fatalf("Expected ids %v, got %v", expected, ids)
	}
	for i := range expected {
		if ids[i] != expected[i] {
			t.Errorf("Expected ids %v, got %v", expected, ids)
			break
		}
	}
}

func TestEditorErrors(t *testing.T) {
	tests := []struct {
		name    string
		section string
		edit    Edit
		code    string
	}{
		{"unknown section", "hobbies", Edit{Op: OpSet}, errors.ErrCodeInvalidRequest},
		{"update missing id", "experience", Edit{Op: OpUpdate, ID: 9, Fields: map[string]string{"role": "x"}}, errors.ErrCodeUnknownEntry},
		{"remove missing id", "languages", Edit{Op: OpRemove, ID: 1}, errors.ErrCodeUnknownEntry},
		{"unknown field", "education", Edit{Op: OpAdd, Fields: map[string]string{"gpa": "4"}}, errors.ErrCodeInvalidField},
		{"add on scalar", "profile", Edit{Op: OpAdd, Fields: map[string]string{"text": "x"}}, errors.ErrCodeInvalidRequest},
		{"set on list without title", "skills", Edit{Op: OpSet, Fields: map[string]string{"name": "x"}}, errors.ErrCodeInvalidField},
		{"bad photo", "photo", Edit{Op: OpSet, Fields: map[string]string{"photo": "http://x/y.png"}}, errors.ErrCodeInvalidField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Apply(DefaultContent(), tt.section, tt.edit)
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

func TestScalarAndTitleEdits(t *testing.T) {
	c := DefaultContent()
	edits := []struct {
		section string
		edit    Edit
	}{
		{"name", Edit{Op: OpSet, Fields: map[string]string{"name": "  Ada Lovelace ", "headline": "Engineer"}}},
		{"contact", Edit{Op: OpSet, Fields: map[string]string{"text": "ada@example.com"}}},
		{"profile", Edit{Op: OpSet, Fields: map[string]string{"text": "Analytical.", "title": "About"}}},
		{"experience", Edit{Op: OpSet, Fields: map[string]string{"title": "Work"}}},
		{"experience", Edit{Op: OpAdd, Fields: map[string]string{"role": "Analyst", "company": "Engines Ltd", "start": "1842"}}},
		{"experience", Edit{Op: OpUpdate, ID: 1, Fields: map[string]string{"end": "1843"}}},
	}
	for _, e := range edits {
		if err := Apply(c, e.section, e.edit); err != nil {
			t.Fatalf("Expected %s edit to succeed, got %v", e.section, err)
		}
	}

	if c.Name != "Ada Lovelace" {
		t.Errorf("Expected trimmed name, got %q", c.Name)
	}
	if c.Titles.Profile != "About" || c.Titles.Experience != "Work" {
		t.Errorf("Expected titles About/Work, got %q/%q", c.Titles.Profile, c.Titles.Experience)
	}
	if c.Experience[0].End != "1843" || c.Experience[0].Role != "Analyst" {
		t.Errorf("Expected updated experience, got %+v", c.Experience[0])
	}
}

func TestPrefillFromProfileKeepsTypedFields(t *testing.T) {
	c := DefaultContent()
	c.Name = "Typed Name"

	changed := PrefillFromProfile(c, Profile{
		FullName: "Remote Name",
		Email:    "ada@example.com",
		City:     "London",
		Summary:  "Remote summary",
	})

	if !changed {
		t.Errorf("Expected prefill to report changes")
	}
	if c.Name != "Typed Name" {
		t.Errorf("Expected typed name kept, got %q", c.Name)
	}
	if c.Contact != "ada@example.com | London" {
		t.Errorf("Expected joined contact line, got %q", c.Contact)
	}
	if c.Profile != "Remote summary" {
		t.Errorf("Expected profile prefilled, got %q", c.Profile)
	}
	if PrefillFromProfile(c, Profile{FullName: "Other"}) {
		t.Errorf("Expected second prefill to change nothing")
	}
}

func TestPlaintext(t *testing.T) {
	c := DefaultContent()
	c.Name = "Ada Lovelace"
	c.Profile = "Mathematician."
	c.Experience = []Experience{{ID: 1, Role: "Analyst", Company: "Engines Ltd", Start: "1842"}}
	c.Skills = []Skill{{ID: 1, Name: "Math"}, {ID: 2, Name: "Poetry"}}

	text := c.Plaintext()
	for _, want := range []string{"Ada Lovelace", "PROFILE", "Analyst, Engines Ltd (1842 - present)", "Math, Poetry"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected plaintext to contain %q, got:\n%s", want, text)
		}
	}
	if strings.Contains(text, "EDUCATION") {
		t.Errorf("Expected empty sections to be omitted")
	}
}

func TestPhotoDataURL(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	url, err := PhotoDataURL(png)
	if err != nil {
		t.Fatalf("Expected png to be accepted, got %v", err)
	}
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("Expected png data URL, got %q", url[:30])
	}

	c := DefaultContent()
	if err := Apply(c, "photo", Edit{Op: OpSet, Fields: map[string]string{"photo": url}}); err != nil {
		t.Fatalf("Expected photo edit to succeed, got %v", err)
	}
	if c.Photo != url {
		t.Errorf("Expected photo stored")
	}

	if _, err := PhotoDataURL([]byte("plain text")); err == nil {
		t.Errorf("Expected text to be rejected")
	}
}
