package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/contexta-ingest/internal/core"
	"github.com/markdave123-py/contexta-ingest/internal/models"
)

type chromaAddBody struct {
	IDs        []string         `json:"ids"`
	Embeddings [][]float32      `json:"embeddings"`
	Documents  []string         `json:"documents"`
	Metadatas  []map[string]any `json:"metadatas"`
}

// fakeChroma serves the Chroma v2 endpoints the client touches for a single existing collection.
func fakeChroma(t *testing.T, name, id string) (*httptest.Server, *[]chromaAddBody) {
	t.Helper()
	var (
		mu   sync.Mutex
		adds []chromaAddBody
	)
	base := "/api/v2/tenants/default_tenant/databases/default_database/collections/"
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v2/pre-flight-checks", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"max_batch_size":1000,"supports_base64_encoding":false}`))
	})
	mux.HandleFunc("GET /api/v2/heartbeat", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"nanosecond heartbeat":1}`))
	})
	mux.HandleFunc("GET /api/v2/auth/identity", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"user_id":"","tenant":"default_tenant","databases":["default_database"]}`))
	})
	mux.HandleFunc("GET "+base+"{name}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.PathValue("name") != name {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"NotFoundError","message":"Collection [` + r.PathValue("name") + `] does not exists"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":       id,
			"name":     name,
			"tenant":   "default_tenant",
			"database": "default_database",
			"metadata": map[string]any{},
		})
	})
	mux.HandleFunc("POST "+base+"{id}/add", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != id {
			http.Error(w, "unknown collection", http.StatusNotFound)
			return
		}
		var body chromaAddBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		adds = append(adds, body)
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("{}"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &adds
}

func newTestChroma(t *testing.T, url string) *ChromaStore {
	t.Helper()
	store, err := NewChromaStore(ChromaConfig{Host: url, Tenant: "default_tenant", Database: "default_database"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestChromaGetCollectionAndAdd(t *testing.T) {
	srv, adds := fakeChroma(t, "documents", "5f0c7a1e-6b2d-4c1a-9e57-0d3b8f2a9c01")
	store := newTestChroma(t, srv.URL)

	coll, err := store.GetCollection(context.Background(), "documents")
	require.NoError(t, err)
	assert.Equal(t, "documents", coll.Name())

	err = coll.Add(context.Background(), []models.CollectionItem{
		{ID: "id-1", Embedding: []float32{0.5, 1}, Document: "first chunk", Metadata: map[string]any{"source": "a.txt"}},
		{ID: "id-2", Embedding: []float32{0.25, 2}, Document: "second chunk", Metadata: map[string]any{"source": "a.txt", "page": 2, "ocr": false}},
	})
	require.NoError(t, err)

	require.Len(t, *adds, 1)
	got := (*adds)[0]
	assert.Equal(t, []string{"id-1", "id-2"}, got.IDs)
	assert.Equal(t, []string{"first chunk", "second chunk"}, got.Documents)
	assert.Equal(t, [][]float32{{0.5, 1}, {0.25, 2}}, got.Embeddings)
	assert.Equal(t, "a.txt", got.Metadatas[1]["source"])
	assert.Equal(t, float64(2), got.Metadatas[1]["page"])
	assert.Equal(t, false, got.Metadatas[1]["ocr"])
}

func TestChromaMissingCollection(t *testing.T) {
	srv, _ := fakeChroma(t, "documents", "0c9d3e4f-1a2b-4c5d-8e6f-7a8b9c0d1e2f")
	store := newTestChroma(t, srv.URL)

	_, err := store.GetCollection(context.Background(), "images")
	require.ErrorIs(t, err, core.ErrCollectionNotFound)
}

func TestChromaServerErrorIsExternal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	_, err := newTestChroma(t, srv.URL).GetCollection(context.Background(), "documents")
	require.ErrorIs(t, err, core.ErrExternalService)
	assert.NotErrorIs(t, err, core.ErrCollectionNotFound)
}

func TestChromaThroughClient(t *testing.T) {
	srv, adds := fakeChroma(t, "images", "b7e1c2d3-4f5a-4b6c-9d7e-8f9a0b1c2d3e")
	client := NewClient(newTestChroma(t, srv.URL), &indexEmbedder{}, 16, 1, quietLogger())

	n, err := client.Ingest(context.Background(), IngestRequest{
		Texts:         []string{"a diagram"},
		Collection:    "images",
		EmbeddingType: models.EmbeddingImage,
		ImageURLs:     []string{"/bucket/deck_img_000_abcdef12.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, *adds, 1)
	md := (*adds)[0].Metadatas[0]
	assert.Equal(t, "image", md[KeyEmbeddingType])
	assert.Equal(t, "/bucket/deck_img_000_abcdef12.png", md[KeyImageURL])
}

func TestChromaRejectsUnsupportedMetadata(t *testing.T) {
	srv, adds := fakeChroma(t, "documents", "5f0c7a1e-6b2d-4c1a-9e57-0d3b8f2a9c01")
	coll, err := newTestChroma(t, srv.URL).GetCollection(context.Background(), "documents")
	require.NoError(t, err)

	err = coll.Add(context.Background(), []models.CollectionItem{
		{ID: "id-1", Embedding: []float32{1}, Document: "chunk", Metadata: map[string]any{"tags": []string{"a"}}},
	})
	require.ErrorIs(t, err, core.ErrValidation)
	assert.Empty(t, *adds)
}

func TestChromaBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8000", chromaBaseURL(ChromaConfig{Host: "localhost", Port: 8000}))
	assert.Equal(t, "https://chroma.internal", chromaBaseURL(ChromaConfig{Host: "https://chroma.internal/"}))

	_, err := NewChromaStore(ChromaConfig{Port: 8000})
	require.ErrorIs(t, err, core.ErrConfig)
}
