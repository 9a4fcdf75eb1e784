package vectorstore

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/markdave123-py/contexta-ingest/internal/core"
	"github.com/markdave123-py/contexta-ingest/internal/models"
)

// PayloadDocument is the payload key holding the item text in Qdrant points.
const PayloadDocument = "document"

type QdrantConfig struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool
}

// QdrantStore writes collection items as Qdrant points over gRPC.
type QdrantStore struct {
	client *qdrant.Client
}

var _ core.VectorStore = (*QdrantStore)(nil)

func NewQdrantStore(cfg QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" || cfg.Port <= 0 {
		return nil, fmt.Errorf("%w: QDRANT_HOST/QDRANT_PORT not set", core.ErrConfig)
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: qdrant client: %v", core.ErrExternalService, err)
	}
	return &QdrantStore{client: client}, nil
}

func (s *QdrantStore) Close() error { return s.client.Close() }

func (s *QdrantStore) GetCollection(ctx context.Context, name string) (core.Collection, error) {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: qdrant collection %s: %v", core.ErrExternalService, name, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrCollectionNotFound, name)
	}
	return &qdrantCollection{client: s.client, name: name}, nil
}

type qdrantCollection struct {
	client *qdrant.Client
	name   string
}

func (c *qdrantCollection) Name() string { return c.name }

// Add upserts every item in one request and waits for it to be applied.
func (c *qdrantCollection) Add(ctx context.Context, items []models.CollectionItem) error {
	points, err := qdrantPoints(items)
	if err != nil {
		return err
	}
	wait := true
	_, err = c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.name,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("%w: qdrant upsert into %s: %v", core.ErrExternalService, c.name, err)
	}
	return nil
}

// qdrantPoints maps items to points; the text goes into the payload next to the metadata.
func qdrantPoints(items []models.CollectionItem) ([]*qdrant.PointStruct, error) {
	points := make([]*qdrant.PointStruct, len(items))
	for i, it := range items {
		payload := make(map[string]any, len(it.Metadata)+1)
		for k, v := range it.Metadata {
			payload[k] = v
		}
		payload[PayloadDocument] = it.Document

		values, err := qdrant.TryValueMap(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: payload for %s: %v", core.ErrValidation, it.ID, err)
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(it.ID),
			Vectors: qdrant.NewVectors(it.Embedding...),
			Payload: values,
		}
	}
	return points, nil
}
