// Package upload checks message attachments before they are stored.
package upload

import (
	"fmt"
	"strings"

	"college/internal/apperr"
)

// MaxSize is the largest attachment accepted, in bytes.
const MaxSize = 1 << 20

// ValidatePDF rejects attachments larger than MaxSize or not named *.pdf.
func ValidatePDF(filename string, size int64) error {
	if size > MaxSize {
		return fmt.Errorf("file size cannot exceed 1 MB: %w", apperr.ErrInvalidField)
	}
	if !strings.HasSuffix(filename, ".pdf") {
		return fmt.Errorf("only PDF files are allowed: %w", apperr.ErrInvalidField)
	}
	return nil
}
