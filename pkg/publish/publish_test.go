package publish

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/df07/go-pathtracer/pkg/config"
)

// fakeS3 records PutObject calls
type fakeS3 struct {
	s3iface.S3API
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, input)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func TestPublishImage(t *testing.T) {
	fake := &fakeS3{}
	publisher := NewPublisher(fake, "bucket", "renders/", nil)

	key, err := publisher.PublishImage(context.Background(), "random.png", image.NewRGBA(image.Rect(0, 0, 3, 2)))
	if err != nil {
		t.Fatalf("PublishImage failed: %v", err)
	}
	if key != "renders/random.png" {
		t.Errorf("Expected key renders/random.png, got %q", key)
	}

	if len(fake.inputs) != 1 {
		t.Fatalf("Expected one upload, got %d", len(fake.inputs))
	}
	input := fake.inputs[0]
	if aws.StringValue(input.Bucket) != "bucket" || aws.StringValue(input.Key) != key {
		t.Errorf("Unexpected destination s3://%s/%s", aws.StringValue(input.Bucket), aws.StringValue(input.Key))
	}
	if aws.StringValue(input.ContentType) != "image/png" {
		t.Errorf("Expected image/png, got %q", aws.StringValue(input.ContentType))
	}
	if aws.Int64Value(input.ContentLength) != int64(len(fake.bodies[0])) {
		t.Errorf("Content length %d does not match body size %d", aws.Int64Value(input.ContentLength), len(fake.bodies[0]))
	}

	img, err := png.Decode(bytes.NewReader(fake.bodies[0]))
	if err != nil {
		t.Fatalf("Uploaded body is not a PNG: %v", err)
	}
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Errorf("Expected 3x2 image, got %v", img.Bounds())
	}
}

func TestPublishImage_UploadError(t *testing.T) {
	uploadErr := errors.New("access denied")
	publisher := NewPublisher(&fakeS3{err: uploadErr}, "bucket", "", nil)

	_, err := publisher.PublishImage(context.Background(), "x.png", image.NewRGBA(image.Rect(0, 0, 1, 1)))
	if !errors.Is(err, uploadErr) {
		t.Errorf("Expected wrapped upload error, got %v", err)
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		prefix, name, expected string
	}{
		{"", "a.png", "a.png"},
		{"renders", "a.png", "renders/a.png"},
		{"renders/", "a.png", "renders/a.png"},
		{"renders/2026", "scene/a.png", "renders/2026/scene/a.png"},
	}
	for _, tt := range tests {
		p := NewPublisher(&fakeS3{}, "bucket", tt.prefix, nil)
		if got := p.Key(tt.name); got != tt.expected {
			t.Errorf("Key(%q) with prefix %q = %q, want %q", tt.name, tt.prefix, got, tt.expected)
		}
	}
}

func TestNewS3Publisher_RequiresBucket(t *testing.T) {
	if _, err := NewS3Publisher(config.S3Config{Region: "us-east-1"}, nil); !errors.Is(err, ErrNoBucket) {
		t.Errorf("Expected ErrNoBucket, got %v", err)
	}
}

func TestNewS3Publisher_StaticCredentials(t *testing.T) {
	p, err := NewS3Publisher(config.S3Config{
		Bucket:    "bucket",
		Region:    "us-east-1",
		Endpoint:  "http://localhost:9000",
		AccessKey: "key",
		SecretKey: "secret",
		Prefix:    "renders",
	}, nil)
	if err != nil {
		t.Fatalf("NewS3Publisher failed: %v", err)
	}
	if p.Key("a.png") != "renders/a.png" {
		t.Errorf("Unexpected key %q", p.Key("a.png"))
	}
}
