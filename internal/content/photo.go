package content

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"cvforge/internal/errors"
)

// MaxPhotoBytes bounds the size of an embedded photo.
const MaxPhotoBytes = 2 << 20

type photoEditor struct{}

func (photoEditor) Section() string  { return "photo" }
func (photoEditor) Fields() []string { return []string{"photo"} }

// Apply accepts a data URL in the "photo" field. An empty value removes the photo.
func (photoEditor) Apply(c *Content, ed Edit) error {
	switch ed.Op {
	case OpRemove:
		c.Photo = ""
		return nil
	case OpSet:
	default:
		return unsupportedOp("photo", ed.Op)
	}

	value, ok := ed.Fields["photo"]
	if !ok || len(ed.Fields) != 1 {
		return errors.NewValidationError(errors.ErrCodeInvalidField, "photo expects a single photo field", nil)
	}
	if value == "" {
		c.Photo = ""
		return nil
	}
	if !strings.HasPrefix(value, "data:image/") || !strings.Contains(value, ";base64,") {
		return errors.NewValidationError(errors.ErrCodeInvalidField, "photo must be a base64 image data URL", nil).
			WithContext("field", "photo")
	}
	c.Photo = value
	return nil
}

// PhotoDataURL turns raw image bytes into a data URL suitable for the photo
// editor.
func PhotoDataURL(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.NewValidationError(errors.ErrCodeInvalidFormat, "photo is empty", nil)
	}
	if len(data) > MaxPhotoBytes {
		return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("photo is larger than %d bytes", MaxPhotoBytes), nil)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedFile,
			fmt.Sprintf("photo has unsupported type %s", mime), nil)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
