package objectclient

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	cfg "github.com/markdave123-py/contexta-ingest/internal/config"
	"github.com/markdave123-py/contexta-ingest/internal/core"
)

// New returns the object client selected by IMAGE_STORE.
func New(ctx context.Context, c *cfg.Config, log logrus.FieldLogger) (core.ObjectClient, error) {
	switch c.ImageStore {
	case cfg.ImageStoreS3:
		return NewS3Client(ctx, S3Config{
			AccessKey: c.AwsAccessKey,
			SecretKey: c.AwsSecretKey,
			Region:    c.AwsRegion,
			Bucket:    c.BucketName,
			Endpoint:  c.S3Endpoint,
		}, log)
	case cfg.ImageStoreMinio:
		return NewMinioClient(ctx, MinioConfig{
			Endpoint:  c.MinioEndpoint,
			AccessKey: c.MinioAccessKey,
			SecretKey: c.MinioSecretKey,
			Bucket:    c.MinioBucket,
			UseSSL:    c.MinioUseSSL,
		}, log)
	case cfg.ImageStoreLocal, "":
		log.WithField("dir", c.BucketDir).Info("image store: local directory")
		return NewLocalObjectClient(c.BucketDir), nil
	}
	return nil, fmt.Errorf("%w: unknown image store %q", core.ErrConfig, c.ImageStore)
}
