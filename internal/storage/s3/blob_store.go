// Package s3 reads objects through any S3-compatible endpoint, including the
// Cloud Storage XML interoperability API at storage.googleapis.com.
package s3

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/JakeFAU/pdfingest/internal/pipeline"
)

// Config captures the connection parameters for an S3-compatible endpoint.
type Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	UseSSL          bool
}

// BlobStore reads objects via a minio client.
type BlobStore struct {
	client *minio.Client
}

// New builds a minio client from cfg. Endpoint may include a scheme, which
// then overrides UseSSL.
func New(cfg Config) (*BlobStore, error) {
	endpoint, secure := splitEndpoint(cfg.Endpoint, cfg.UseSSL)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client init: %w", err)
	}
	return &BlobStore{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *minio.Client) (*BlobStore, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 client is required")
	}
	return &BlobStore{client: client}, nil
}

// Get downloads the full object body.
func (s *BlobStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, wrapError(bucket, key, err)
	}
	defer obj.Close() //nolint:errcheck // read-only

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, wrapError(bucket, key, err)
	}
	return data, nil
}

func wrapError(bucket, key string, err error) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey", resp.Code == "NoSuchBucket", resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("s3://%s/%s: %w", bucket, key, pipeline.ErrObjectNotFound)
	default:
		return fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
}

func splitEndpoint(raw string, useSSL bool) (string, bool) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(raw, "https://"), "/"), true
	case strings.HasPrefix(raw, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(raw, "http://"), "/"), false
	default:
		return strings.TrimSuffix(raw, "/"), useSSL
	}
}
