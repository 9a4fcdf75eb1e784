package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/markdave123-py/contexta-ingest/internal/models"
)

// SupportedExtensions lists the upload extensions accepted, in the order reported to clients.
var SupportedExtensions = []string{".pdf", ".csv", ".docx", ".txt"}

// DocumentExtractor turns raw document bytes into text and embedded images.
type DocumentExtractor interface {
	Extract(ctx context.Context, data []byte, format models.Format) (*models.ExtractedContent, error)
}

// FormatFromFilename maps a file name to a supported format by its extension.
// The comparison ignores case.
func FormatFromFilename(name string) (models.Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	for _, s := range SupportedExtensions {
		if ext == s {
			return models.Format(strings.TrimPrefix(ext, ".")), nil
		}
	}
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, name)
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
}
