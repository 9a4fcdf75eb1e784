package models

// Format is a supported upload format, named by its file extension without the dot.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatCSV  Format = "csv"
	FormatTXT  Format = "txt"
)

// EmbeddingType tags every item written to a collection.
type EmbeddingType string

const (
	EmbeddingText  EmbeddingType = "text"
	EmbeddingImage EmbeddingType = "image"
)

// Document is one uploaded file. It only lives for the duration of a request.
type Document struct {
	FileName string
	Format   Format
	Data     []byte
}

// ExtractedContent is what the extractor produces for a document.
type ExtractedContent struct {
	Text   string
	Images []RawImage
}

// RawImage is an embedded picture as extracted, before it gets an identity.
type RawImage struct {
	Data  []byte
	Index int
}

// ImageRecord tracks one extracted picture through storage and description.
// StoragePath and Description stay empty until the matching stage succeeds.
type ImageRecord struct {
	ImageID     string `json:"image_id"`
	FileName    string `json:"filename"`
	Data        []byte `json:"-"`
	Format      string `json:"format"`
	StoragePath string `json:"storage_path,omitempty"`
	Description string `json:"description,omitempty"`
}

// Stored reports whether the image bytes were persisted.
func (r *ImageRecord) Stored() bool { return r.StoragePath != "" }

// Described reports whether a description was generated.
func (r *ImageRecord) Described() bool { return r.Description != "" }

// CollectionItem is one row written to a vector store collection.
type CollectionItem struct {
	ID        string         `json:"id"`
	Embedding []float32      `json:"embedding"`
	Document  string         `json:"document"`
	Metadata  map[string]any `json:"metadata"`
}

// IngestSummary is returned by a successful pipeline run.
type IngestSummary struct {
	Chunks       int `json:"chunks"`
	Descriptions int `json:"descriptions"`
	Images       int `json:"images"`
	ImagesStored int `json:"images_stored"`
}
