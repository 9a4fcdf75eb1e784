package vectorstore

import (
	"fmt"
	"maps"

	"github.com/markdave123-py/contexta-ingest/internal/core"
	"github.com/markdave123-py/contexta-ingest/internal/models"
)

// Reserved metadata keys set by the client.
const (
	KeyEmbeddingType = "embedding_type"
	KeyImageURL      = "image_url"
)

// Metadata says how per-item metadata is derived for an ingest call.
// Build one with NoMetadata, Broadcast or PerItem.
type Metadata interface {
	resolve(n int) ([]map[string]any, error)
}

type noMetadata struct{}

type broadcast struct{ values map[string]any }

type perItem struct{ items []map[string]any }

// NoMetadata gives every item only the keys the client sets itself.
func NoMetadata() Metadata { return noMetadata{} }

// Broadcast copies the same map onto every item.
func Broadcast(values map[string]any) Metadata { return broadcast{values: values} }

// PerItem assigns items[i] to the i-th text. Its length must match the texts.
func PerItem(items []map[string]any) Metadata { return perItem{items: items} }

func (noMetadata) resolve(n int) ([]map[string]any, error) {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = map[string]any{}
	}
	return out, nil
}

func (b broadcast) resolve(n int) ([]map[string]any, error) {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = maps.Clone(b.values)
		if out[i] == nil {
			out[i] = map[string]any{}
		}
	}
	return out, nil
}

func (p perItem) resolve(n int) ([]map[string]any, error) {
	if len(p.items) != n {
		return nil, fmt.Errorf("%w: %d metadata entries for %d texts", core.ErrValidation, len(p.items), n)
	}
	out := make([]map[string]any, n)
	for i, m := range p.items {
		out[i] = maps.Clone(m)
		if out[i] == nil {
			out[i] = map[string]any{}
		}
	}
	return out, nil
}

// resolveMetadata builds one fresh map per text, with embedding_type always set and
// image_url set when urls are given. Caller maps are never modified.
func resolveMetadata(md Metadata, n int, embeddingType models.EmbeddingType, imageURLs []string) ([]map[string]any, error) {
	if md == nil {
		md = NoMetadata()
	}
	if imageURLs != nil && len(imageURLs) != n {
		return nil, fmt.Errorf("%w: %d image urls for %d texts", core.ErrValidation, len(imageURLs), n)
	}

	out, err := md.resolve(n)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i][KeyEmbeddingType] = string(embeddingType)
		if imageURLs != nil {
			out[i][KeyImageURL] = imageURLs[i]
		}
	}
	return out, nil
}
