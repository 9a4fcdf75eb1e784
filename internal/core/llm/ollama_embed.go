package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/markdave123-py/contexta-ingest/internal/core"
)

// OllamaEmbedder computes embeddings with an Ollama server's /api/embed endpoint.
type OllamaEmbedder struct {
	client    *api.Client
	modelName string
}

func NewOllamaEmbedder(host, modelName string, httpClient *http.Client) (*OllamaEmbedder, error) {
	base, err := url.Parse(strings.TrimRight(host, "/"))
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid ollama url %q", core.ErrConfig, host)
	}
	if modelName == "" {
		return nil, fmt.Errorf("%w: ollama embedding model is empty", core.ErrConfig)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OllamaEmbedder{client: api.NewClient(base, httpClient), modelName: modelName}, nil
}

func (o *OllamaEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := o.client.Embed(ctx, &api.EmbedRequest{Model: o.modelName, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("%w: ollama embed: %v", core.ErrExternalService, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: ollama returned %d embeddings for %d texts", core.ErrExternalService, len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}

var _ core.EmbeddingProvider = (*OllamaEmbedder)(nil)
