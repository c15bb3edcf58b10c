package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kumemura-df/struct-project/pkg/config"
)

// MinIOClient wraps object storage operations for transcript blobs
type MinIOClient struct {
	client *minio.Client
	bucket string
}

// NewMinIOClient creates a new MinIO client and ensures the bucket exists
func NewMinIOClient(cfg *config.StorageConfig) (*MinIOClient, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	client := &MinIOClient{
		client: minioClient,
		bucket: cfg.BucketName,
	}

	ctx := context.Background()
	if err := client.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return client, nil
}

func (m *MinIOClient) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// StatSize returns the size in bytes of the referenced object
func (m *MinIOClient) StatSize(ctx context.Context, ref string) (int64, error) {
	objectName := m.objectName(ref)
	info, err := m.client.StatObject(ctx, m.bucket, objectName, minio.StatObjectOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to stat object %s: %w", objectName, err)
	}
	return info.Size, nil
}

// FetchObject downloads the referenced object in full
func (m *MinIOClient) FetchObject(ctx context.Context, ref string) ([]byte, error) {
	objectName := m.objectName(ref)
	obj, err := m.client.GetObject(ctx, m.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", objectName, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", objectName, err)
	}
	return data, nil
}

// UploadText uploads text content, used by the upload collaborator and tests
func (m *MinIOClient) UploadText(ctx context.Context, objectName, content string) error {
	reader := bytes.NewReader([]byte(content))
	_, err := m.client.PutObject(ctx, m.bucket, objectName, reader, int64(len(content)), minio.PutObjectOptions{
		ContentType: "text/plain",
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", objectName, err)
	}
	return nil
}

// objectName strips scheme and bucket prefixes from a source reference.
// Accepts bare object keys, "minio://bucket/key" and "gs://bucket/key".
func (m *MinIOClient) objectName(ref string) string {
	for _, scheme := range []string{"minio://", "gs://", "s3://"} {
		if strings.HasPrefix(ref, scheme) {
			rest := strings.TrimPrefix(ref, scheme)
			if idx := strings.IndexByte(rest, '/'); idx >= 0 {
				return rest[idx+1:]
			}
			return rest
		}
	}
	return strings.TrimPrefix(ref, "/")
}
