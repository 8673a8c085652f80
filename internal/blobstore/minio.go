package blobstore

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dbelovs/syncbox/internal/common"
)

var tracer = otel.Tracer("syncbox-blobstore")

// MinioStore implements Store on a MinIO (or any S3-compatible) bucket.
// Object keys are file ids.
type MinioStore struct {
	client     *minio.Client
	bucketName string
}

// NewMinioStore connects to the endpoint and ensures the bucket exists.
func NewMinioStore(ctx context.Context, endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucketName, err)
		}
	}

	return &MinioStore{client: client, bucketName: bucketName}, nil
}

func (s *MinioStore) Write(ctx context.Context, id string, r io.Reader, size int64, contentType string) error {
	ctx, span := tracer.Start(ctx, "blobstore.write",
		trace.WithAttributes(
			attribute.String("blob_id", id),
			attribute.Int64("size_bytes", size),
		),
	)
	defer span.End()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucketName, id, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

func (s *MinioStore) Read(ctx context.Context, id string) (io.ReadCloser, error) {
	ctx, span := tracer.Start(ctx, "blobstore.read",
		trace.WithAttributes(attribute.String("blob_id", id)),
	)
	defer span.End()

	// GetObject defers the request, so stat first to surface missing keys
	// as ErrNotFound instead of a read-time failure.
	if _, err := s.client.StatObject(ctx, s.bucketName, id, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, common.ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("stat object: %w", err)
	}

	obj, err := s.client.GetObject(ctx, s.bucketName, id, minio.GetObjectOptions{})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("get object: %w", err)
	}
	return obj, nil
}

func (s *MinioStore) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucketName, id, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("stat object: %w", err)
	}
	return true, nil
}

func (s *MinioStore) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "blobstore.delete",
		trace.WithAttributes(attribute.String("blob_id", id)),
	)
	defer span.End()

	if err := s.client.RemoveObject(ctx, s.bucketName, id, minio.RemoveObjectOptions{}); err != nil {
		span.RecordError(err)
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}
