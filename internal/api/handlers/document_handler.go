package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/markdave123-py/contexta-ingest/internal/core"
	"github.com/markdave123-py/contexta-ingest/internal/core/ingestion_engine"
	"github.com/markdave123-py/contexta-ingest/internal/models"
)

type DocumentHandler struct {
	ingestor    ingestion_engine.Ingestor
	maxUploadMB int
	log         logrus.FieldLogger
}

func NewDocumentHandler(ing ingestion_engine.Ingestor, maxUploadMB int, log logrus.FieldLogger) *DocumentHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 52
	}
	return &DocumentHandler{ingestor: ing, maxUploadMB: maxUploadMB, log: log.WithField("component", "document_handler")}
}

// UploadDocument reads the multipart "file" field and ingests it synchronously.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(h.maxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{
				"error":  "File too large",
				"detail": fmt.Sprintf("uploads are limited to %d MB", h.maxUploadMB),
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "No file uploaded"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	format, err := core.FormatFromFilename(filename)
	if err != nil {
		writeUnsupported(w)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.log.WithError(err).WithField("filename", filename).Warn("failed to read upload")
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Could not read file", "detail": err.Error()})
		return
	}

	summary, err := h.ingestor.Ingest(r.Context(), models.Document{FileName: filename, Format: format, Data: data})
	if err != nil {
		h.logIngestFailure(filename, err)
		switch {
		case errors.Is(err, core.ErrUnsupportedFormat):
			writeUnsupported(w)
		case core.IsClientError(err):
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid document", "detail": err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Something went wrong", "detail": err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": fmt.Sprintf("Successfully added documents (%d) and images description (%d)", summary.Chunks, summary.Descriptions),
	})
}

// logIngestFailure logs a failed ingestion once; bad input is a warning, not a server error.
func (h *DocumentHandler) logIngestFailure(filename string, err error) {
	entry := h.log.WithError(err).WithField("filename", filename)
	var se *ingestion_engine.StageError
	if errors.As(err, &se) {
		entry = entry.WithField("stage", se.Stage.String())
	}
	if core.IsClientError(err) {
		entry.Warn("document rejected")
		return
	}
	entry.Error("ingestion failed")
}

func writeUnsupported(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":           "File type is not supported",
		"supported_files": core.SupportedExtensions,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
