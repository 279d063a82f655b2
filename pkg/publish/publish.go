// Package publish uploads rendered images to S3-compatible object storage.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/df07/go-pathtracer/pkg/config"
	"github.com/df07/go-pathtracer/pkg/core"
	"github.com/df07/go-pathtracer/pkg/imageio"
)

// UploadTimeout bounds a single upload
const UploadTimeout = 30 * time.Second

// ErrNoBucket is returned when publishing is requested without a configured bucket
var ErrNoBucket = errors.New("no S3 bucket configured")

// Publisher uploads PNG renders under a key prefix
type Publisher struct {
	client s3iface.S3API
	bucket string
	prefix string
	logger core.Logger
}

// NewPublisher creates a publisher around an existing S3 client
func NewPublisher(client s3iface.S3API, bucket, prefix string, logger core.Logger) *Publisher {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Publisher{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

// NewS3Publisher creates a publisher from configuration. Static credentials are used
// when both keys are set; otherwise the SDK's default credential chain applies.
func NewS3Publisher(cfg config.S3Config, logger core.Logger) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, ErrNoBucket
	}

	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}
	return NewPublisher(s3.New(sess), cfg.Bucket, cfg.Prefix, logger), nil
}

// Key returns the object key for a file name
func (p *Publisher) Key(name string) string {
	return path.Join(p.prefix, name)
}

// PublishImage encodes img as PNG and uploads it as name, returning the object key
func (p *Publisher) PublishImage(ctx context.Context, name string, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imageio.EncodePNG(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", name, err)
	}

	key := p.Key(name)
	if err := p.upload(ctx, buf.Bytes(), key, "image/png"); err != nil {
		return "", err
	}
	return key, nil
}

func (p *Publisher) upload(ctx context.Context, data []byte, key, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	size := int64(len(data))
	_, err := p.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	p.logger.Printf("Uploaded s3://%s/%s (%d bytes)\n", p.bucket, key, size)
	return nil
}
