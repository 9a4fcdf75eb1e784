package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/markdave123-py/contexta-ingest/internal/config"
	"github.com/markdave123-py/contexta-ingest/internal/core"
	db "github.com/markdave123-py/contexta-ingest/internal/core/database"
	"github.com/markdave123-py/contexta-ingest/internal/core/ingestion_engine"
	"github.com/markdave123-py/contexta-ingest/internal/core/llm"
	objectclient "github.com/markdave123-py/contexta-ingest/internal/core/object-client"
	"github.com/markdave123-py/contexta-ingest/internal/core/vectorstore"
)

type App struct {
	VectorStore  core.VectorStore
	ObjectClient core.ObjectClient
	Pipeline     *ingestion_engine.Pipeline
	Server       *Server

	closers []io.Closer
	log     logrus.FieldLogger
}

// NewApp builds every collaborator once and wires them together.
func NewApp(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	a := &App{log: log}

	store, err := a.newVectorStore(appCtx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.VectorStore = store
	log.WithField("backend", cfg.VectorStore).Info("Vector store initialized and ready.")

	objClient, err := objectclient.New(appCtx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.ObjectClient = objClient
	log.Info("Object client initialized and ready.")

	embedder, generator, err := a.newProviders(appCtx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	log.WithField("provider", cfg.LLMProvider).Info("Model providers initialized.")

	vectors := vectorstore.NewClient(store, embedder, cfg.EmbedBatchSize, cfg.EmbedWorkers, log)

	ingCfg := &ingestion_engine.IngestConfig{
		ChunkSize:       cfg.ChunkSize,
		ChunkOverlap:    cfg.ChunkOverlap,
		DescribeWorkers: cfg.DescribeWorkers,
		LLMTimeout:      cfg.LLMTimeout,
		StoreTimeout:    cfg.StoreTimeout,
		StorePolicy:     ingestion_engine.StoreFailurePolicy(cfg.StoreFailurePolicy),
	}

	extractor := ingestion_engine.NewExtractor(cfg.ImageScale, log)
	pipeline, err := ingestion_engine.NewPipeline(extractor, objClient, generator, vectors, ingCfg, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("couldn't initialize the pipeline: %w", err)
	}
	a.Pipeline = pipeline
	a.Server = NewServer(cfg, pipeline, log)

	return a, nil
}

func (a *App) newVectorStore(ctx context.Context, cfg *config.Config) (core.VectorStore, error) {
	switch cfg.VectorStore {
	case config.VectorStorePgvector:
		store, err := db.NewPgvectorStore(ctx, cfg.DatabaseURL, a.log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store)
		return store, nil
	case config.VectorStoreQdrant:
		store, err := vectorstore.NewQdrantStore(vectorstore.QdrantConfig{
			Host:   cfg.QdrantHost,
			Port:   cfg.QdrantPort,
			APIKey: cfg.QdrantAPIKey,
			UseTLS: cfg.QdrantUseTLS,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store)
		return store, nil
	case config.VectorStoreChroma:
		store, err := vectorstore.NewChromaStore(vectorstore.ChromaConfig{
			Host:     cfg.ChromaHost,
			Port:     cfg.ChromaPort,
			Tenant:   cfg.ChromaTenant,
			Database: cfg.ChromaDatabase,
			Timeout:  cfg.StoreTimeout,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store)
		return store, nil
	}
	return nil, fmt.Errorf("%w: unknown vector store %q", core.ErrConfig, cfg.VectorStore)
}

func (a *App) newProviders(ctx context.Context, cfg *config.Config) (core.EmbeddingProvider, core.LLMProvider, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		embedder, err := llm.NewGeminiEmbedder(ctx, cfg.AIAPIKey, cfg.EmbedModel)
		if err != nil {
			return nil, nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
		}
		a.closers = append(a.closers, embedder)

		generator, err := llm.NewGeminiLLM(ctx, cfg.AIAPIKey, cfg.GenModel)
		if err != nil {
			return nil, nil, fmt.Errorf("couldn't initialize the llm, %w", err)
		}
		a.closers = append(a.closers, generator)
		return embedder, generator, nil

	case config.ProviderOllama:
		httpClient := &http.Client{Timeout: cfg.LLMTimeout}
		embedder, err := llm.NewOllamaEmbedder(cfg.OllamaURL, cfg.OllamaModel, httpClient)
		if err != nil {
			return nil, nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
		}
		generator, err := llm.NewOllamaLLM(cfg.OllamaHost, cfg.OllamaLLMModel, httpClient)
		if err != nil {
			return nil, nil, fmt.Errorf("couldn't initialize the llm, %w", err)
		}
		return embedder, generator, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown llm provider %q", core.ErrConfig, cfg.LLMProvider)
}

// Close releases every client that holds a connection, in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.WithError(err).Warn("close failed")
		}
	}
	a.closers = nil
}
