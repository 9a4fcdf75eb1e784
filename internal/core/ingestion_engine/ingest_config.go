package ingestion_engine

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/markdave123-py/contexta-ingest/internal/core"
)

// StoreFailurePolicy decides what happens to an image whose bytes could not be persisted.
type StoreFailurePolicy string

const (
	// StoreFailureSkip drops the image and keeps the rest of the request going.
	StoreFailureSkip StoreFailurePolicy = "skip"
	// StoreFailureAbort fails the whole request.
	StoreFailureAbort StoreFailurePolicy = "abort"
)

// IngestConfig tunes the pipeline.
//
// ChunkSize:       max chunk length in characters.
// ChunkOverlap:    characters of the previous chunk carried into the next.
// DescribeWorkers: concurrent description requests per document.
// LLMTimeout:      deadline for a single description request.
// StoreTimeout:    deadline for persisting a single image.
// StorePolicy:     behaviour when an image cannot be persisted.
type IngestConfig struct {
	ChunkSize       int
	ChunkOverlap    int
	DescribeWorkers int
	LLMTimeout      time.Duration
	StoreTimeout    time.Duration
	StorePolicy     StoreFailurePolicy
}

// Collection names written by the pipeline.
const (
	DocumentsCollection = "documents"
	ImagesCollection    = "images"
)

// Extractor implements core.DocumentExtractor. PDFs go through the layout-aware
// text reader plus the picture pass; the other formats are text only.
type Extractor struct {
	imageScale float64
	log        logrus.FieldLogger
}

var _ core.DocumentExtractor = (*Extractor)(nil)

// NewExtractor builds an extractor. A non-positive scale leaves pictures at their native size.
func NewExtractor(imageScale float64, log logrus.FieldLogger) *Extractor {
	if imageScale <= 0 {
		imageScale = 1
	}
	return &Extractor{imageScale: imageScale, log: log.WithField("component", "extractor")}
}
