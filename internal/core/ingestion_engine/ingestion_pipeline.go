package ingestion_engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/markdave123-py/contexta-ingest/internal/core"
	"github.com/markdave123-py/contexta-ingest/internal/core/vectorstore"
	"github.com/markdave123-py/contexta-ingest/internal/models"
)

// Stage is a step of the pipeline. Stages always run in declaration order.
type Stage int

const (
	StageReceived Stage = iota
	StageExtracted
	StageImagesStored
	StageImagesDescribed
	StageChunked
	StageDocumentsIngested
	StageImagesIngested
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "received"
	case StageExtracted:
		return "extracted"
	case StageImagesStored:
		return "images_stored"
	case StageImagesDescribed:
		return "images_described"
	case StageChunked:
		return "chunked"
	case StageDocumentsIngested:
		return "documents_ingested"
	case StageImagesIngested:
		return "images_ingested"
	case StageDone:
		return "done"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// StageError records the stage a document failed to reach.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// VectorIngester writes texts to a vector store collection.
type VectorIngester interface {
	Ingest(ctx context.Context, req vectorstore.IngestRequest) (int, error)
}

// Pipeline runs a document through extraction, image storage and description,
// chunking and the two collection writes.
type Pipeline struct {
	extractor core.DocumentExtractor
	images    *ImageStore
	describer *ImageDescriber
	chunker   *TextChunker
	vectors   VectorIngester
	log       logrus.FieldLogger
}

// NewPipeline wires the stages. It fails only if the chunk sizes are invalid.
func NewPipeline(
	extractor core.DocumentExtractor,
	obj core.ObjectClient,
	llm core.LLMProvider,
	vectors VectorIngester,
	cfg *IngestConfig,
	log logrus.FieldLogger,
) (*Pipeline, error) {
	chunker, err := NewTextChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		extractor: extractor,
		images:    NewImageStore(obj, cfg.StoreTimeout, cfg.StorePolicy, log),
		describer: NewImageDescriber(llm, cfg.DescribeWorkers, cfg.LLMTimeout, log),
		chunker:   chunker,
		vectors:   vectors,
		log:       log.WithField("component", "pipeline"),
	}, nil
}

// Ingest processes one document synchronously. Chunks are written before image
// descriptions, so a failure while writing images leaves the chunks in place.
func (p *Pipeline) Ingest(ctx context.Context, doc models.Document) (*models.IngestSummary, error) {
	log := p.log.WithField("filename", doc.FileName)
	fail := func(stage Stage, err error) (*models.IngestSummary, error) {
		return nil, &StageError{Stage: stage, Err: err}
	}

	format, err := resolveFormat(doc)
	if err != nil {
		return fail(StageReceived, err)
	}
	log.WithField("format", format).Info("starting document processing")

	// Extracted
	if err := ctx.Err(); err != nil {
		return fail(StageExtracted, err)
	}
	content, err := p.extractor.Extract(ctx, doc.Data, format)
	if err != nil {
		return fail(StageExtracted, fmt.Errorf("extract %s: %w", doc.FileName, err))
	}
	records := NewImageRecords(doc.FileName, content.Images)
	log.WithField("images", len(records)).WithField("chars", len(content.Text)).Info("content extracted")

	// ImagesStored
	if err := ctx.Err(); err != nil {
		return fail(StageImagesStored, err)
	}
	stored, err := p.images.StoreImages(ctx, records)
	if err != nil {
		return fail(StageImagesStored, err)
	}

	// ImagesDescribed
	if err := ctx.Err(); err != nil {
		return fail(StageImagesDescribed, err)
	}
	described := p.describer.DescribeImages(ctx, stored)

	// Chunked
	if err := ctx.Err(); err != nil {
		return fail(StageChunked, err)
	}
	chunks := p.chunker.Chunk(content.Text)
	log.WithField("chunks", len(chunks)).Info("text chunked")

	// DocumentsIngested
	if err := ctx.Err(); err != nil {
		return fail(StageDocumentsIngested, err)
	}
	nChunks, err := p.vectors.Ingest(ctx, vectorstore.IngestRequest{
		Texts:         chunks,
		Collection:    DocumentsCollection,
		Metadata:      vectorstore.Broadcast(map[string]any{"source": doc.FileName}),
		EmbeddingType: models.EmbeddingText,
	})
	if err != nil {
		return fail(StageDocumentsIngested, err)
	}
	log.WithField("count", nChunks).Infof("added document chunks to '%s' collection", DocumentsCollection)

	// ImagesIngested
	if err := ctx.Err(); err != nil {
		return fail(StageImagesIngested, err)
	}
	descriptions, urls := describedImages(described)
	nDesc, err := p.vectors.Ingest(ctx, vectorstore.IngestRequest{
		Texts:         descriptions,
		Collection:    ImagesCollection,
		Metadata:      vectorstore.NoMetadata(),
		EmbeddingType: models.EmbeddingImage,
		ImageURLs:     urls,
	})
	if err != nil {
		return fail(StageImagesIngested, err)
	}
	log.WithField("count", nDesc).Infof("added descriptions to '%s' collection", ImagesCollection)

	summary := &models.IngestSummary{
		Chunks:       nChunks,
		Descriptions: nDesc,
		Images:       len(records),
		ImagesStored: len(stored),
	}
	log.WithField("stage", StageDone.String()).WithField("summary", *summary).Info("document ingested")
	return summary, nil
}

func resolveFormat(doc models.Document) (models.Format, error) {
	if doc.Format == "" {
		return core.FormatFromFilename(doc.FileName)
	}
	if !slices.Contains(core.SupportedExtensions, "."+string(doc.Format)) {
		return "", fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, doc.Format)
	}
	return doc.Format, nil
}

// describedImages keeps only images that got a description, in input order.
func describedImages(images []models.ImageRecord) (descriptions, urls []string) {
	descriptions = []string{}
	urls = []string{}
	for _, img := range images {
		if !img.Described() {
			continue
		}
		descriptions = append(descriptions, img.Description)
		urls = append(urls, img.StoragePath)
	}
	return descriptions, urls
}
