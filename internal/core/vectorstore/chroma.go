package vectorstore

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"github.com/markdave123-py/contexta-ingest/internal/core"
	"github.com/markdave123-py/contexta-ingest/internal/models"
)

// ChromaStore looks collections up on a Chroma server. It never creates them.
type ChromaStore struct {
	client chroma.Client
}

type ChromaConfig struct {
	Host     string
	Port     int
	Tenant   string
	Database string
	Timeout  time.Duration
}

var _ core.VectorStore = (*ChromaStore)(nil)

func NewChromaStore(cfg ChromaConfig) (*ChromaStore, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: CHROMA_HOST not set", core.ErrConfig)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	opts := []chroma.ClientOption{
		chroma.WithBaseURL(chromaBaseURL(cfg)),
		chroma.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if cfg.Tenant != "" && cfg.Database != "" {
		opts = append(opts, chroma.WithDatabaseAndTenant(cfg.Database, cfg.Tenant))
	}
	client, err := chroma.NewHTTPClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: chroma client: %v", core.ErrConfig, err)
	}
	return &ChromaStore{client: client}, nil
}

// chromaBaseURL accepts a bare host or a full URL in CHROMA_HOST.
func chromaBaseURL(cfg ChromaConfig) string {
	base := cfg.Host
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	base = strings.TrimRight(base, "/")
	if cfg.Port > 0 {
		base = fmt.Sprintf("%s:%d", base, cfg.Port)
	}
	return base
}

func (s *ChromaStore) Close() error { return s.client.Close() }

// GetCollection resolves a collection by name.
func (s *ChromaStore) GetCollection(ctx context.Context, name string) (core.Collection, error) {
	coll, err := s.client.GetCollection(ctx, name)
	if err != nil {
		if isChromaNotFound(err) {
			return nil, fmt.Errorf("%w: %s", core.ErrCollectionNotFound, name)
		}
		return nil, fmt.Errorf("%w: chroma collection %s: %v", core.ErrExternalService, name, err)
	}
	return &chromaCollection{coll: coll, name: name}, nil
}

// isChromaNotFound recognises the 404 Chroma answers for an unknown collection.
func isChromaNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "404") ||
		strings.Contains(msg, "NotFound") ||
		strings.Contains(msg, "does not exist")
}

type chromaCollection struct {
	coll chroma.Collection
	name string
}

func (c *chromaCollection) Name() string { return c.name }

func (c *chromaCollection) Add(ctx context.Context, items []models.CollectionItem) error {
	ids := make([]chroma.DocumentID, len(items))
	texts := make([]string, len(items))
	embs := make([]embeddings.Embedding, len(items))
	metas := make([]chroma.DocumentMetadata, len(items))
	for i, it := range items {
		md, err := chromaMetadata(it.Metadata)
		if err != nil {
			return err
		}
		ids[i] = chroma.DocumentID(it.ID)
		texts[i] = it.Document
		embs[i] = embeddings.NewEmbeddingFromFloat32(it.Embedding)
		metas[i] = md
	}

	err := c.coll.Add(ctx,
		chroma.WithIDs(ids...),
		chroma.WithTexts(texts...),
		chroma.WithEmbeddings(embs...),
		chroma.WithMetadatas(metas...),
	)
	if err != nil {
		return fmt.Errorf("%w: chroma add to %s: %v", core.ErrExternalService, c.name, err)
	}
	return nil
}

// chromaMetadata keeps the scalar types Chroma stores; anything else is rejected.
func chromaMetadata(md map[string]any) (chroma.DocumentMetadata, error) {
	attrs := make([]*chroma.MetaAttribute, 0, len(md))
	for k, v := range md {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, chroma.NewStringAttribute(k, val))
		case bool:
			attrs = append(attrs, chroma.NewBoolAttribute(k, val))
		case int:
			attrs = append(attrs, chroma.NewIntAttribute(k, int64(val)))
		case int32:
			attrs = append(attrs, chroma.NewIntAttribute(k, int64(val)))
		case int64:
			attrs = append(attrs, chroma.NewIntAttribute(k, val))
		case float32:
			attrs = append(attrs, chroma.NewFloatAttribute(k, float64(val)))
		case float64:
			attrs = append(attrs, chroma.NewFloatAttribute(k, val))
		default:
			return nil, fmt.Errorf("%w: metadata %q has unsupported type %T", core.ErrValidation, k, v)
		}
	}
	return chroma.NewDocumentMetadata(attrs...), nil
}
