package core

import (
	"context"
	"encoding/json"
)

type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

type LLMProvider interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// GenerateRequest is a single prompt sent to a generative model.
//
// Model:   overrides the provider's default model when set.
// Options: sampling options (temperature, top_p...), merged over provider defaults.
// Schema:  when set, the model is asked for a JSON object of this shape.
// Images:  raw image bytes attached to the prompt.
type GenerateRequest struct {
	Prompt  string
	System  string
	Model   string
	Options map[string]any
	Schema  *ObjectSchema
	Images  [][]byte
}

// ObjectSchema describes a flat JSON object whose fields are all required.
type ObjectSchema struct {
	Fields []SchemaField
}

type SchemaField struct {
	Name        string
	Type        string // "string", "number", "integer" or "boolean"
	Description string
}

// JSONSchema renders the schema as a JSON Schema document.
func (s *ObjectSchema) JSONSchema() json.RawMessage {
	props := make(map[string]any, len(s.Fields))
	required := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		p := map[string]any{"type": f.Type}
		if f.Description != "" {
			p["description"] = f.Description
		}
		props[f.Name] = p
		required = append(required, f.Name)
	}
	out, _ := json.Marshal(map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	})
	return out
}
