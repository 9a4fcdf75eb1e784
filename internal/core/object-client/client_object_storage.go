package objectclient

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/markdave123-py/contexta-ingest/internal/core"
)

type S3Config struct {
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	// Endpoint points the client at an S3 compatible gateway instead of AWS.
	Endpoint string
}

type S3Client struct {
	uploader *manager.Uploader
	region   string
	bucket   string
	endpoint *url.URL
}

var _ core.ObjectClient = (*S3Client)(nil)

func NewS3Client(ctx context.Context, cfg S3Config, log logrus.FieldLogger) (*S3Client, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: AWS credentials not set", core.ErrConfig)
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("%w: AWS_REGION not set", core.ErrConfig)
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: S3 bucket name not set", core.ErrConfig)
	}

	awsCfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var endpoint *url.URL
	if cfg.Endpoint != "" {
		endpoint, err = url.Parse(cfg.Endpoint)
		if err != nil || endpoint.Host == "" {
			return nil, fmt.Errorf("%w: invalid S3 endpoint %q", core.ErrConfig, cfg.Endpoint)
		}
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != nil {
			o.BaseEndpoint = aws.String(endpoint.String())
			o.UsePathStyle = true
		}
	})
	log.WithField("bucket", cfg.Bucket).WithField("endpoint", cfg.Endpoint).Info("image store: aws s3")

	return &S3Client{
		uploader: manager.NewUploader(client),
		region:   cfg.Region,
		bucket:   cfg.Bucket,
		endpoint: endpoint,
	}, nil
}

// UploadFile uploads the image to the configured bucket and returns its URL.
func (c *S3Client) UploadFile(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}

	if _, err := c.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}

	if c.endpoint != nil {
		return minioObjectURL(c.endpoint, c.bucket, key), nil
	}
	return ObjectURL(c.bucket, c.region, key), nil
}

// ObjectURL is the virtual-hosted style URL of an object.
func ObjectURL(bucket, region, key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}
