package ingestion_engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/contexta-ingest/internal/core"
	"github.com/markdave123-py/contexta-ingest/internal/models"
)

var descriptionSchema = &core.ObjectSchema{
	Fields: []core.SchemaField{
		{Name: "description", Type: "string", Description: "one objective sentence describing the image"},
	},
}

// ImageDescriber asks a generative model for a one-sentence description of each image.
type ImageDescriber struct {
	llm     core.LLMProvider
	workers int
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewImageDescriber(llm core.LLMProvider, workers int, timeout time.Duration, log logrus.FieldLogger) *ImageDescriber {
	if workers <= 0 {
		workers = 1
	}
	return &ImageDescriber{llm: llm, workers: workers, timeout: timeout, log: log.WithField("component", "describer")}
}

// DescribeImages returns a copy of images, in the same order, with Description set
// wherever the model produced one. A failure for one image never affects the others.
func (d *ImageDescriber) DescribeImages(ctx context.Context, images []models.ImageRecord) []models.ImageRecord {
	out := make([]models.ImageRecord, len(images))
	copy(out, images)
	if len(out) == 0 {
		return out
	}

	d.log.WithField("count", len(out)).Info("generating image descriptions")

	var g errgroup.Group
	g.SetLimit(d.workers)
	for i := range out {
		g.Go(func() error {
			desc, err := d.describe(ctx, out[i].Data)
			if err != nil {
				d.log.WithError(err).WithField("image_id", out[i].ImageID).Error("failed to generate description")
				return nil
			}
			out[i].Description = desc
			return nil
		})
	}
	_ = g.Wait()

	described := 0
	for _, img := range out {
		if img.Described() {
			described++
		}
	}
	d.log.WithField("described", described).WithField("total", len(out)).Info("image descriptions generated")
	return out
}

func (d *ImageDescriber) describe(ctx context.Context, data []byte) (string, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	raw, err := d.llm.Generate(ctx, core.GenerateRequest{
		Prompt: describeImagePrompt,
		System: describeImageSystem,
		Schema: descriptionSchema,
		Images: [][]byte{data},
	})
	if err != nil {
		return "", err
	}
	return parseDescription(raw)
}

// parseDescription reads {"description": "..."} out of a model reply, tolerating a
// surrounding markdown code fence.
func parseDescription(raw string) (string, error) {
	body := strings.TrimSpace(raw)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	}

	var reply struct {
		Description *string `json:"description"`
	}
	if err := json.Unmarshal([]byte(body), &reply); err != nil {
		return "", fmt.Errorf("%w: parse description: %v", core.ErrExternalService, err)
	}
	if reply.Description == nil {
		return "", fmt.Errorf("%w: reply has no description field", core.ErrExternalService)
	}
	desc := strings.TrimSpace(*reply.Description)
	if desc == "" {
		return "", errors.New("model returned an empty description")
	}
	return desc, nil
}
