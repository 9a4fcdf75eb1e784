package ingestion_engine

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"

	"github.com/markdave123-py/contexta-ingest/internal/core"
	"github.com/markdave123-py/contexta-ingest/internal/models"
)

// Extract dispatches on the declared format. Only PDFs produce images.
func (e *Extractor) Extract(ctx context.Context, data []byte, format models.Format) (*models.ExtractedContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch format {
	case models.FormatTXT:
		text, err := extractPlainText(data)
		if err != nil {
			return nil, err
		}
		return &models.ExtractedContent{Text: text}, nil

	case models.FormatCSV:
		text, err := e.extractCSV(data)
		if err != nil {
			return nil, err
		}
		return &models.ExtractedContent{Text: text}, nil

	case models.FormatDOCX:
		text, err := extractDocx(data)
		if err != nil {
			return nil, err
		}
		return &models.ExtractedContent{Text: text}, nil

	case models.FormatPDF:
		return e.extractPDF(ctx, data)

	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedFormat, format)
	}
}

func extractPlainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: text file is not valid UTF-8", core.ErrDecoding)
	}
	return string(data), nil
}

// extractCSV flattens the rows into text. The reader is lenient about quoting and
// field counts; a row it still rejects ends the pass and whatever was read is kept.
func (e *Extractor) extractCSV(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: csv file is not valid UTF-8", core.ErrDecoding)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	var rows []string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			e.log.WithError(err).WithField("rows_read", len(rows)).Warn("csv parse stopped early")
			break
		}
		rows = append(rows, strings.Join(record, ", "))
	}
	return strings.Join(rows, "\n"), nil
}

func extractDocx(data []byte) (string, error) {
	text, _, err := docconv.ConvertDocx(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: docx: %v", core.ErrDecoding, err)
	}
	return strings.TrimRight(text, "\n"), nil
}
