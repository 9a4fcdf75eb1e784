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

// OllamaLLM generates text with a local Ollama server.
type OllamaLLM struct {
	client    *api.Client
	modelName string
}

func NewOllamaLLM(host, modelName string, httpClient *http.Client) (*OllamaLLM, error) {
	base, err := url.Parse(strings.TrimRight(host, "/"))
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid ollama host %q", core.ErrConfig, host)
	}
	if modelName == "" {
		return nil, fmt.Errorf("%w: ollama model is empty", core.ErrConfig)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OllamaLLM{client: api.NewClient(base, httpClient), modelName: modelName}, nil
}

// Generate runs a single non-streaming generation. With a schema set the reply is
// constrained to a JSON object of that shape.
func (o *OllamaLLM) Generate(ctx context.Context, req core.GenerateRequest) (string, error) {
	model := o.modelName
	if req.Model != "" {
		model = req.Model
	}

	stream := false
	greq := &api.GenerateRequest{
		Model:   model,
		Prompt:  req.Prompt,
		System:  req.System,
		Stream:  &stream,
		Options: mergeOptions(req.Options),
	}
	if req.Schema != nil {
		greq.Format = req.Schema.JSONSchema()
	}
	for _, img := range req.Images {
		greq.Images = append(greq.Images, api.ImageData(img))
	}

	var out strings.Builder
	err := o.client.Generate(ctx, greq, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: ollama generation failed: %v", core.ErrExternalService, err)
	}
	return out.String(), nil
}

var _ core.LLMProvider = (*OllamaLLM)(nil)
