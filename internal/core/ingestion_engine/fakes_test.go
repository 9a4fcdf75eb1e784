package ingestion_engine

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/markdave123-py/contexta-ingest/internal/core"
	"github.com/markdave123-py/contexta-ingest/internal/models"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeLLM answers with reply unless the first image byte is listed in failOn.
type fakeLLM struct {
	mu     sync.Mutex
	reply  string
	failOn map[byte]bool
	calls  []core.GenerateRequest
}

func (f *fakeLLM) Generate(_ context.Context, req core.GenerateRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if len(req.Images) > 0 && len(req.Images[0]) > 0 && f.failOn[req.Images[0][0]] {
		return "", errors.New("model unavailable")
	}
	return f.reply, nil
}

// memObjectClient keeps uploads in memory; keys listed in fail are rejected.
type memObjectClient struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    map[string]bool
}

func newMemObjectClient() *memObjectClient {
	return &memObjectClient{objects: map[string][]byte{}, fail: map[string]bool{}}
}

func (m *memObjectClient) UploadFile(_ context.Context, key string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[key] {
		return "", errors.New("disk full")
	}
	m.objects[key] = data
	return "mem://" + key, nil
}

type fakeExtractor struct {
	content *models.ExtractedContent
	err     error
	calls   int
}

func (f *fakeExtractor) Extract(context.Context, []byte, models.Format) (*models.ExtractedContent, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.content, nil
}

// memStore is an in-memory core.VectorStore with pre-provisioned collections.
type memStore struct {
	mu          sync.Mutex
	collections map[string]*memCollection
}

func newMemStore(names ...string) *memStore {
	s := &memStore{collections: map[string]*memCollection{}}
	for _, n := range names {
		s.collections[n] = &memCollection{name: n}
	}
	return s
}

func (s *memStore) GetCollection(_ context.Context, name string) (core.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, core.ErrCollectionNotFound
	}
	return c, nil
}

type memCollection struct {
	name    string
	items   []models.CollectionItem
	failAdd error
}

func (c *memCollection) Name() string { return c.name }

func (c *memCollection) Add(_ context.Context, items []models.CollectionItem) error {
	if c.failAdd != nil {
		return c.failAdd
	}
	c.items = append(c.items, items...)
	return nil
}

type constEmbedder struct{}

func (constEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}
