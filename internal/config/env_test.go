package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/contexta-ingest/internal/core"
)

var configKeys = []string{
	"PORT", "MAX_UPLOAD_MB", "CHUNK_SIZE", "CHUNK_OVERLAP", "BUCKET_DIR", "IMAGE_SCALE",
	"IMAGE_STORE", "STORE_FAILURE_POLICY", "AWS_ACCESS_KEY", "AWS_SECRET_KEY", "AWS_REGION",
	"BUCKET_NAME", "S3_ENDPOINT", "MINIO_ENDPOINT", "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "MINIO_BUCKET",
	"MINIO_USE_SSL", "QDRANT_HOST", "QDRANT_PORT", "QDRANT_API_KEY", "QDRANT_USE_TLS",
	"VECTOR_STORE", "CHROMA_HOST", "CHROMA_PORT", "CHROMA_TENANT",
	"CHROMA_DATABASE", "DATABASE_URL", "LLM_PROVIDER", "OLLAMA_URL", "OLLAMA_HOST",
	"OLLAMA_MODEL", "OLLAMA_LLM_MODEL", "GEMINI_API_KEY", "EMBED_MODEL", "GEN_MODEL",
	"DESCRIBE_WORKERS", "EMBED_WORKERS", "EMBED_BATCH_SIZE", "LLM_TIMEOUT", "STORE_TIMEOUT",
	"REQUEST_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv unsets every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "5000", c.Port)
	assert.Equal(t, 800, c.ChunkSize)
	assert.Equal(t, 100, c.ChunkOverlap)
	assert.Equal(t, "bucket", c.BucketDir)
	assert.Equal(t, 2.0, c.ImageScale)
	assert.Equal(t, ImageStoreLocal, c.ImageStore)
	assert.Equal(t, StoreFailureSkip, c.StoreFailurePolicy)
	assert.Equal(t, VectorStoreChroma, c.VectorStore)
	assert.Equal(t, 8000, c.ChromaPort)
	assert.Equal(t, ProviderOllama, c.LLMProvider)
	assert.Equal(t, 2*time.Minute, c.LLMTimeout)
}

func TestLoadConfigOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHUNK_SIZE", "400")
	t.Setenv("CHUNK_OVERLAP", "40")
	t.Setenv("IMAGE_SCALE", "1.5")
	t.Setenv("LLM_TIMEOUT", "45s")
	t.Setenv("VECTOR_STORE", VectorStorePgvector)
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/contexta")
	t.Setenv("EMBED_WORKERS", "not-a-number")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("QDRANT_USE_TLS", "true")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 400, c.ChunkSize)
	assert.Equal(t, 40, c.ChunkOverlap)
	assert.Equal(t, 1.5, c.ImageScale)
	assert.Equal(t, 45*time.Second, c.LLMTimeout)
	assert.Equal(t, VectorStorePgvector, c.VectorStore)
	assert.Equal(t, 2, c.EmbedWorkers, "malformed values fall back to the default")
	assert.True(t, c.MinioUseSSL)
	assert.True(t, c.QdrantUseTLS)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			MaxUploadMB: 52, ChunkSize: 800, ChunkOverlap: 100,
			ImageStore: ImageStoreLocal, BucketDir: "bucket", StoreFailurePolicy: StoreFailureSkip,
			VectorStore: VectorStoreChroma, ChromaHost: "localhost", ChromaPort: 8000,
			LLMProvider: ProviderOllama, OllamaModel: "embed", OllamaLLMModel: "llava",
			DescribeWorkers: 1, EmbedWorkers: 1, EmbedBatchSize: 1, LogLevel: "info",
		}
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(c *Config){
		"overlap not below size": func(c *Config) { c.ChunkOverlap = 800 },
		"zero chunk size":        func(c *Config) { c.ChunkSize = 0 },
		"negative overlap":       func(c *Config) { c.ChunkOverlap = -1 },
		"unknown image store":    func(c *Config) { c.ImageStore = "ftp" },
		"s3 without credentials": func(c *Config) { c.ImageStore = ImageStoreS3 },
		"unknown store policy":   func(c *Config) { c.StoreFailurePolicy = "retry" },
		"pgvector without url":   func(c *Config) { c.VectorStore = VectorStorePgvector },
		"unknown vector store":   func(c *Config) { c.VectorStore = "faiss" },
		"qdrant without port":    func(c *Config) { c.VectorStore = VectorStoreQdrant },
		"minio without bucket":   func(c *Config) { c.ImageStore = ImageStoreMinio },
		"gemini without key":     func(c *Config) { c.LLMProvider = ProviderGemini },
		"unknown provider":       func(c *Config) { c.LLMProvider = "openai" },
		"bad log level":          func(c *Config) { c.LogLevel = "chatty" },
		"zero workers":           func(c *Config) { c.DescribeWorkers = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			require.ErrorIs(t, c.Validate(), core.ErrConfig)
		})
	}
}
