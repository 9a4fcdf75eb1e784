package objectclient

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"

	"github.com/markdave123-py/contexta-ingest/internal/core"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioClient stores objects in an S3 compatible MinIO bucket.
type MinioClient struct {
	client *minio.Client
	bucket string
}

var _ core.ObjectClient = (*MinioClient)(nil)

// NewMinioClient connects and makes sure the bucket exists.
func NewMinioClient(ctx context.Context, cfg MinioConfig, log logrus.FieldLogger) (*MinioClient, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: MINIO_ENDPOINT and MINIO_BUCKET must be set", core.ErrConfig)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: check minio bucket %s: %v", core.ErrStorage, cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("%w: create minio bucket %s: %v", core.ErrStorage, cfg.Bucket, err)
		}
		log.WithField("bucket", cfg.Bucket).Info("created minio bucket")
	}
	log.WithField("endpoint", cfg.Endpoint).WithField("bucket", cfg.Bucket).Info("image store: minio")

	return &MinioClient{client: client, bucket: cfg.Bucket}, nil
}

func (c *MinioClient) UploadFile(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := c.client.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("minio upload failed: %w", err)
	}
	return minioObjectURL(c.client.EndpointURL(), c.bucket, key), nil
}

// minioObjectURL is the path style URL MinIO serves objects under.
func minioObjectURL(endpoint *url.URL, bucket, key string) string {
	u := *endpoint
	u.Path = "/" + bucket + "/" + key
	return u.String()
}
