package minio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/tendant/simple-image/pkg/simpleimage"
)

// Config options for the MinIO backend
type Config struct {
	Endpoint        string // host:port, no scheme
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Region          string

	CreateBucketIfNotExist bool
}

// Backend stores image originals in a MinIO bucket
type Backend struct {
	client *minio.Client
	bucket string
}

// New creates a MinIO storage backend
func New(config Config) (*Backend, error) {
	if config.Endpoint == "" {
		return nil, errors.New("endpoint is required")
	}
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
		Region: config.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	backend := &Backend{client: client, bucket: config.Bucket}

	if config.CreateBucketIfNotExist {
		if err := backend.ensureBucketExists(context.Background(), config.Region); err != nil {
			return nil, err
		}
	}

	return backend, nil
}

func (b *Backend) ensureBucketExists(ctx context.Context, region string) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", b.bucket, err)
	}
	return nil
}

// UploadWithParams uploads an object. A size of -1 makes the client buffer
// and stream multipart.
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params simpleimage.UploadParams) error {
	size := params.Size
	if size <= 0 {
		size = -1
	}
	_, err := b.client.PutObject(ctx, b.bucket, params.ObjectKey, reader, size, minio.PutObjectOptions{
		ContentType: params.MimeType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", params.ObjectKey, err)
	}
	return nil
}

func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*simpleimage.ObjectMeta, error) {
	info, err := b.client.StatObject(ctx, b.bucket, objectKey, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", simpleimage.ErrObjectNotFound, objectKey)
		}
		return nil, fmt.Errorf("failed to stat object %s: %w", objectKey, err)
	}

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &simpleimage.ObjectMeta{
		Key:         objectKey,
		Size:        info.Size,
		ContentType: contentType,
		UpdatedAt:   info.LastModified,
		ETag:        info.ETag,
	}, nil
}

func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	if err := b.client.RemoveObject(ctx, b.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", simpleimage.ErrObjectNotFound, objectKey)
		}
		return fmt.Errorf("failed to delete object %s: %w", objectKey, err)
	}
	return nil
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return true
	}
	return resp.StatusCode == http.StatusNotFound
}
