package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/markdave123-py/contexta-ingest/internal/core"
)

const (
	VectorStoreChroma   = "chroma"
	VectorStorePgvector = "pgvector"
	VectorStoreQdrant   = "qdrant"

	ImageStoreLocal = "local"
	ImageStoreS3    = "s3"
	ImageStoreMinio = "minio"

	ProviderOllama = "ollama"
	ProviderGemini = "gemini"

	StoreFailureSkip  = "skip"
	StoreFailureAbort = "abort"
)

type Config struct {
	Port        string
	MaxUploadMB int

	ChunkSize    int
	ChunkOverlap int

	BucketDir          string
	ImageScale         float64
	ImageStore         string
	StoreFailurePolicy string
	AwsAccessKey       string
	AwsSecretKey       string
	AwsRegion          string
	BucketName         string
	S3Endpoint         string
	MinioEndpoint      string
	MinioAccessKey     string
	MinioSecretKey     string
	MinioBucket        string
	MinioUseSSL        bool

	VectorStore    string
	ChromaHost     string
	ChromaPort     int
	ChromaTenant   string
	ChromaDatabase string
	DatabaseURL    string
	QdrantHost     string
	QdrantPort     int
	QdrantAPIKey   string
	QdrantUseTLS   bool

	LLMProvider    string
	OllamaURL      string
	OllamaHost     string
	OllamaModel    string
	OllamaLLMModel string
	AIAPIKey       string
	EmbedModel     string
	GenModel       string

	DescribeWorkers int
	EmbedWorkers    int
	EmbedBatchSize  int

	LLMTimeout     time.Duration
	StoreTimeout   time.Duration
	RequestTimeout time.Duration

	LogLevel  string
	LogFormat string
}

// LoadConfig loads the environment variables (and an optional .env file) and returns
// a validated config.
func LoadConfig() (*Config, error) {

	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "5000"),
		MaxUploadMB: getEnvInt("MAX_UPLOAD_MB", 52),

		ChunkSize:    getEnvInt("CHUNK_SIZE", 800),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 100),

		BucketDir:          getEnv("BUCKET_DIR", "bucket"),
		ImageScale:         getEnvFloat("IMAGE_SCALE", 2.0),
		ImageStore:         getEnv("IMAGE_STORE", ImageStoreLocal),
		StoreFailurePolicy: getEnv("STORE_FAILURE_POLICY", StoreFailureSkip),
		AwsAccessKey:       getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:       getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:          getEnv("AWS_REGION", "us-east-2"),
		BucketName:         getEnv("BUCKET_NAME", "contexta-images"),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		MinioEndpoint:      getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:     getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:        getEnv("MINIO_BUCKET", "contexta-images"),
		MinioUseSSL:        getEnvBool("MINIO_USE_SSL", false),

		VectorStore:    getEnv("VECTOR_STORE", VectorStoreChroma),
		ChromaHost:     getEnv("CHROMA_HOST", "localhost"),
		ChromaPort:     getEnvInt("CHROMA_PORT", 8000),
		ChromaTenant:   getEnv("CHROMA_TENANT", "default_tenant"),
		ChromaDatabase: getEnv("CHROMA_DATABASE", "default_database"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		QdrantHost:     getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:     getEnvInt("QDRANT_PORT", 6334),
		QdrantAPIKey:   getEnv("QDRANT_API_KEY", ""),
		QdrantUseTLS:   getEnvBool("QDRANT_USE_TLS", false),

		LLMProvider:    getEnv("LLM_PROVIDER", ProviderOllama),
		OllamaURL:      getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaHost:     getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:    getEnv("OLLAMA_MODEL", "jina/jina-embeddings-v2-base-en:latest"),
		OllamaLLMModel: getEnv("OLLAMA_LLM_MODEL", "llava"),
		AIAPIKey:       getEnv("GEMINI_API_KEY", ""),
		EmbedModel:     getEnv("EMBED_MODEL", "text-embedding-004"),
		GenModel:       getEnv("GEN_MODEL", "gemini-1.5-flash"),

		DescribeWorkers: getEnvInt("DESCRIBE_WORKERS", 4),
		EmbedWorkers:    getEnvInt("EMBED_WORKERS", 2),
		EmbedBatchSize:  getEnvInt("EMBED_BATCH_SIZE", 16),

		LLMTimeout:     getEnvDuration("LLM_TIMEOUT", 2*time.Minute),
		StoreTimeout:   getEnvDuration("STORE_TIMEOUT", time.Minute),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 10*time.Minute),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no component could run with.
func (c *Config) Validate() error {
	switch {
	case c.ChunkSize <= 0:
		return fmt.Errorf("%w: CHUNK_SIZE must be positive, got %d", core.ErrConfig, c.ChunkSize)
	case c.ChunkOverlap < 0:
		return fmt.Errorf("%w: CHUNK_OVERLAP must not be negative, got %d", core.ErrConfig, c.ChunkOverlap)
	case c.ChunkOverlap >= c.ChunkSize:
		return fmt.Errorf("%w: CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", core.ErrConfig, c.ChunkOverlap, c.ChunkSize)
	case c.MaxUploadMB <= 0:
		return fmt.Errorf("%w: MAX_UPLOAD_MB must be positive", core.ErrConfig)
	case c.DescribeWorkers <= 0 || c.EmbedWorkers <= 0 || c.EmbedBatchSize <= 0:
		return fmt.Errorf("%w: worker counts and EMBED_BATCH_SIZE must be positive", core.ErrConfig)
	}

	switch c.ImageStore {
	case ImageStoreLocal:
		if c.BucketDir == "" {
			return fmt.Errorf("%w: BUCKET_DIR is empty", core.ErrConfig)
		}
	case ImageStoreS3:
		if c.AwsAccessKey == "" || c.AwsSecretKey == "" {
			return fmt.Errorf("%w: AWS credentials not set", core.ErrConfig)
		}
		if c.BucketName == "" {
			return fmt.Errorf("%w: BUCKET_NAME not set", core.ErrConfig)
		}
	case ImageStoreMinio:
		if c.MinioEndpoint == "" || c.MinioBucket == "" {
			return fmt.Errorf("%w: MINIO_ENDPOINT and MINIO_BUCKET must be set", core.ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown IMAGE_STORE %q", core.ErrConfig, c.ImageStore)
	}

	if c.StoreFailurePolicy != StoreFailureSkip && c.StoreFailurePolicy != StoreFailureAbort {
		return fmt.Errorf("%w: unknown STORE_FAILURE_POLICY %q", core.ErrConfig, c.StoreFailurePolicy)
	}

	switch c.VectorStore {
	case VectorStoreChroma:
		if c.ChromaHost == "" || c.ChromaPort <= 0 {
			return fmt.Errorf("%w: CHROMA_HOST/CHROMA_PORT not set", core.ErrConfig)
		}
	case VectorStorePgvector:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL not set", core.ErrConfig)
		}
	case VectorStoreQdrant:
		if c.QdrantHost == "" || c.QdrantPort <= 0 {
			return fmt.Errorf("%w: QDRANT_HOST/QDRANT_PORT not set", core.ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown VECTOR_STORE %q", core.ErrConfig, c.VectorStore)
	}

	switch c.LLMProvider {
	case ProviderOllama:
		if c.OllamaLLMModel == "" || c.OllamaModel == "" {
			return fmt.Errorf("%w: OLLAMA_MODEL and OLLAMA_LLM_MODEL must be set", core.ErrConfig)
		}
	case ProviderGemini:
		if c.AIAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY not set", core.ErrConfig)
		}
	default:
		return fmt.Errorf("%w: unknown LLM_PROVIDER %q", core.ErrConfig, c.LLMProvider)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", core.ErrConfig, err)
	}
	return nil
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.Warnf("%s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logrus.Warnf("%s=%q not a bool, using default %t", key, v, def)
		return def
	}
	return b
}

func getEnvFloat(key string, def float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logrus.Warnf("%s=%q not a number, using default %g", key, v, def)
		return def
	}
	return f
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logrus.Warnf("%s=%q not a duration, using default %s", key, v, def)
		return def
	}
	return d
}
