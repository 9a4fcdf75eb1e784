package ingestion_engine

import (
	"context"

	"github.com/markdave123-py/contexta-ingest/internal/models"
)

// Ingestor runs one uploaded document through the whole pipeline.
type Ingestor interface {
	Ingest(ctx context.Context, doc models.Document) (*models.IngestSummary, error)
}

var _ Ingestor = (*Pipeline)(nil)
