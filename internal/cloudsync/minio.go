package cloudsync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig holds connection settings for an S3-compatible provider.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool

	// User namespaces the backup slot inside the bucket.
	User string
}

// MinioProvider implements Provider against any S3-compatible object
// store. Each user owns one well-known backup object; uploads replace it.
type MinioProvider struct {
	mc     *minio.Client
	bucket string
	object string
}

// NewMinioProvider creates a provider client. No network calls happen
// until Authenticate.
func NewMinioProvider(cfg MinioConfig) (*MinioProvider, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	user := cfg.User
	if user == "" {
		user = "default"
	}

	return &MinioProvider{
		mc:     mc,
		bucket: cfg.Bucket,
		object: user + "/backup.skbk",
	}, nil
}

// Authenticate verifies credentials and ensures the bucket exists.
func (p *MinioProvider) Authenticate(ctx context.Context) error {
	exists, err := p.mc.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", p.bucket, err)
	}
	if !exists {
		if err := p.mc.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", p.bucket, err)
		}
	}
	return nil
}

// Upload replaces the user's backup object with the given blob.
func (p *MinioProvider) Upload(ctx context.Context, data []byte) error {
	_, err := p.mc.PutObject(ctx, p.bucket, p.object,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return fmt.Errorf("upload %s/%s: %w", p.bucket, p.object, err)
	}
	return nil
}

// Download fetches the user's backup object, or (nil, nil) when none has
// ever been uploaded.
func (p *MinioProvider) Download(ctx context.Context) ([]byte, error) {
	obj, err := p.mc.GetObject(ctx, p.bucket, p.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", p.bucket, p.object, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		// GetObject is lazy; a missing key surfaces here.
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s/%s: %w", p.bucket, p.object, err)
	}
	return data, nil
}
