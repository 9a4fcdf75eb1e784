package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/contexta-ingest/internal/core"
	"github.com/markdave123-py/contexta-ingest/internal/models"
)

// IngestRequest is one batch of texts headed for a single collection.
//
// Metadata:   how per-item metadata is built (nil means NoMetadata).
// ImageURLs:  when non-nil, one url per text, stored under "image_url".
// Embeddings: when non-nil, one precomputed vector per text; the embedder is skipped.
type IngestRequest struct {
	Texts         []string
	Collection    string
	Metadata      Metadata
	EmbeddingType models.EmbeddingType
	ImageURLs     []string
	Embeddings    [][]float32
}

// Client embeds texts and writes them to collections of a vector store.
type Client struct {
	store     core.VectorStore
	embedder  core.EmbeddingProvider
	batchSize int
	workers   int
	log       logrus.FieldLogger
}

func NewClient(store core.VectorStore, embedder core.EmbeddingProvider, batchSize, workers int, log logrus.FieldLogger) *Client {
	if batchSize <= 0 {
		batchSize = 16
	}
	if workers <= 0 {
		workers = 1
	}
	return &Client{
		store:     store,
		embedder:  embedder,
		batchSize: batchSize,
		workers:   workers,
		log:       log.WithField("component", "vector_client"),
	}
}

// Ingest writes every text of req to req.Collection and returns how many were written.
// All validation happens before the store or the embedder is contacted. The collection
// must already exist.
func (c *Client) Ingest(ctx context.Context, req IngestRequest) (int, error) {
	n := len(req.Texts)
	if req.EmbeddingType == "" {
		req.EmbeddingType = models.EmbeddingText
	}

	metadatas, err := resolveMetadata(req.Metadata, n, req.EmbeddingType, req.ImageURLs)
	if err != nil {
		return 0, err
	}
	if req.Embeddings != nil && len(req.Embeddings) != n {
		return 0, fmt.Errorf("%w: %d embeddings for %d texts", core.ErrValidation, len(req.Embeddings), n)
	}
	if n == 0 {
		return 0, nil
	}

	log := c.log.WithField("collection", req.Collection)
	log.WithField("count", n).Info("getting collection")

	coll, err := c.store.GetCollection(ctx, req.Collection)
	if err != nil {
		return 0, fmt.Errorf("get collection %q: %w", req.Collection, err)
	}

	vectors := req.Embeddings
	if vectors == nil {
		vectors, err = c.embed(ctx, req.Texts)
		if err != nil {
			return 0, err
		}
	}

	items := make([]models.CollectionItem, n)
	for i, text := range req.Texts {
		items[i] = models.CollectionItem{
			ID:        uuid.NewString(),
			Embedding: vectors[i],
			Document:  text,
			Metadata:  metadatas[i],
		}
	}

	log.WithField("count", n).Info("adding documents")
	if err := coll.Add(ctx, items); err != nil {
		if errors.Is(err, core.ErrExternalService) || errors.Is(err, core.ErrStorage) || errors.Is(err, core.ErrValidation) {
			return 0, fmt.Errorf("add to %q: %w", req.Collection, err)
		}
		return 0, fmt.Errorf("%w: add to %q: %v", core.ErrExternalService, req.Collection, err)
	}

	log.WithField("count", n).Info("documents added")
	return n, nil
}

// embed sends the texts in batches over a bounded pool and puts the vectors back in order.
func (c *Client) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if c.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured", core.ErrConfig)
	}

	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for start := 0; start < len(texts); start += c.batchSize {
		end := min(start+c.batchSize, len(texts))
		g.Go(func() error {
			vecs, err := c.embedder.EmbedTexts(gctx, texts[start:end])
			if err != nil {
				return fmt.Errorf("%w: embed texts %d-%d: %v", core.ErrExternalService, start, end-1, err)
			}
			if len(vecs) != end-start {
				return fmt.Errorf("%w: embedder returned %d vectors for %d texts", core.ErrExternalService, len(vecs), end-start)
			}
			copy(out[start:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
