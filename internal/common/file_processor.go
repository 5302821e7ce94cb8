package common

import (
	"fmt"
	"io"
	"os"

	"cvforge/internal/errors"
	"cvforge/internal/extract"
	"cvforge/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	maxSize int64
	logger  *errors.Logger
}

// NewFileProcessor creates a new file processor. maxSize caps the bytes read
// from any one input; zero means no limit.
func NewFileProcessor(maxSize int64, logger *errors.Logger) *FileProcessor {
	return &FileProcessor{maxSize: maxSize, logger: logger}
}

// ReadFile reads a file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			// Log the error but don't override the main operation result
			if fp.logger != nil {
				fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
			}
		}
	}()

	var r io.Reader = file
	if fp.maxSize > 0 {
		r = io.LimitReader(file, fp.maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}
	if fp.maxSize > 0 && int64(len(data)) > fp.maxSize {
		return nil, errors.NewValidationError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("File %s is larger than %s", filename, utils.HumanSize(fp.maxSize)), nil)
	}

	return data, nil
}

// ReadText validates a résumé file and returns its extracted text. Plain text,
// PDF and DOCX are accepted.
func (fp *FileProcessor) ReadText(filename string) (string, error) {
	size, err := utils.StatInputFile(filename)
	if err != nil {
		return "", errors.NewValidationError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Invalid file %s", filename), err)
	}
	if fp.maxSize > 0 && size > fp.maxSize {
		return "", errors.NewValidationError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("File %s is larger than %s", filename, utils.HumanSize(fp.maxSize)), nil).
			WithContext("size", utils.HumanSize(size))
	}

	if !utils.IsSupportedUpload(filename) && fp.logger != nil {
		fp.logger.Warn("File extension is not a known résumé type, sniffing content",
			"filename", filename)
	}

	data, err := fp.ReadFile(filename)
	if err != nil {
		return "", err
	}

	mimeType := extract.DetectMIME(filename, data)
	text, err := extract.ExtractText(mimeType, data)
	if err != nil {
		return "", err
	}

	if fp.logger != nil {
		fp.logger.Debug("Extracted résumé text",
			"filename", filename, "mime", mimeType, "chars", len(text))
	}
	return text, nil
}

// WriteFile writes data to a file, creating its directory
func (fp *FileProcessor) WriteFile(filename string, data []byte) error {
	if err := utils.EnsureParentDir(filename); err != nil {
		return errors.NewIOError(errors.ErrCodeStorageFailed,
			fmt.Sprintf("Cannot prepare output for: %s", filename), err)
	}

	err := os.WriteFile(filename, data, 0600)
	if err != nil {
		return errors.NewIOError(errors.ErrCodeStorageFailed,
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.EnsureParentDir(filename); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
