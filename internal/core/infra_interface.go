package core

import (
	"context"

	"github.com/markdave123-py/contexta-ingest/internal/models"
)

// ObjectClient persists blobs (extracted images) and returns a handle to them.
// It's abstract so the local bucket directory can be swapped for S3, MinIO, etc.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
}

// VectorStore resolves named collections of an external vector database.
// Implementations must return an error wrapping ErrCollectionNotFound for unknown names
// and must never create collections on lookup.
type VectorStore interface {
	GetCollection(ctx context.Context, name string) (Collection, error)
}

// Collection is a named partition of a vector store.
type Collection interface {
	Name() string
	// Add writes all items in one call; a failure means none of them can be assumed written.
	Add(ctx context.Context, items []models.CollectionItem) error
}
