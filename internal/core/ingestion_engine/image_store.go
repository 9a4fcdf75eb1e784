package ingestion_engine

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/markdave123-py/contexta-ingest/internal/core"
	"github.com/markdave123-py/contexta-ingest/internal/models"
)

const imageFormat = "png"

// GenerateImageID names an image after its source file, its position and its bytes:
// "{stem}_img_{index:03d}_{first 8 hex chars of md5(data)}".
func GenerateImageID(filename string, index int, data []byte) string {
	sum := md5.Sum(data)
	return fmt.Sprintf("%s_img_%03d_%s", fileStem(filename), index, hex.EncodeToString(sum[:])[:8])
}

func fileStem(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// NewImageRecords gives every extracted picture its identity.
func NewImageRecords(filename string, raws []models.RawImage) []models.ImageRecord {
	records := make([]models.ImageRecord, 0, len(raws))
	for _, raw := range raws {
		id := GenerateImageID(filename, raw.Index, raw.Data)
		records = append(records, models.ImageRecord{
			ImageID:  id,
			FileName: id + "." + imageFormat,
			Data:     raw.Data,
			Format:   imageFormat,
		})
	}
	return records
}

// ImageStore persists image bytes through an object client.
type ImageStore struct {
	obj     core.ObjectClient
	timeout time.Duration
	policy  StoreFailurePolicy
	log     logrus.FieldLogger
}

func NewImageStore(obj core.ObjectClient, timeout time.Duration, policy StoreFailurePolicy, log logrus.FieldLogger) *ImageStore {
	if policy == "" {
		policy = StoreFailureSkip
	}
	return &ImageStore{obj: obj, timeout: timeout, policy: policy, log: log.WithField("component", "image_store")}
}

// StoreImages writes each image as "{image_id}.png" and returns the records with their
// storage path set. Under the skip policy failed images are left out of the result;
// under the abort policy the first failure is returned.
func (s *ImageStore) StoreImages(ctx context.Context, images []models.ImageRecord) ([]models.ImageRecord, error) {
	if len(images) == 0 {
		return images, nil
	}
	s.log.WithField("count", len(images)).Info("storing images")

	stored := make([]models.ImageRecord, 0, len(images))
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path, err := s.upload(ctx, img)
		if err != nil {
			err = fmt.Errorf("%w: store image %s: %v", core.ErrStorage, img.ImageID, err)
			if s.policy == StoreFailureAbort {
				return nil, err
			}
			s.log.WithError(err).WithField("image_id", img.ImageID).Warn("dropping image that could not be stored")
			continue
		}
		img.StoragePath = path
		stored = append(stored, img)
	}

	s.log.WithField("stored", len(stored)).WithField("total", len(images)).Info("images stored")
	return stored, nil
}

func (s *ImageStore) upload(ctx context.Context, img models.ImageRecord) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.obj.UploadFile(ctx, img.FileName, img.Data, "image/"+img.Format)
}
