package fetch

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/minio/minio-go/v7"
)

// MinIO fetches content from an S3-compatible object store. URLs use the
// s3://bucket/key form; a configured default bucket makes the bucket part
// optional.
type MinIO struct {
	client *minio.Client
	bucket string
}

// NewMinIO creates a fetcher backed by client. bucket is the default bucket
// for URLs that carry only a key.
func NewMinIO(client *minio.Client, bucket string) *MinIO {
	return &MinIO{client: client, bucket: bucket}
}

// Fetch downloads the whole object.
func (m *MinIO) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	bucket, key, err := m.locate(rawURL)
	if err != nil {
		return nil, err
	}

	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, rawURL)
		}
		return nil, err
	}
	return data, nil
}

func (m *MinIO) locate(rawURL string) (bucket, key string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parse object url %s: %w", rawURL, err)
	}
	if u.Scheme == "s3" {
		bucket = u.Host
		key = u.Path
	} else {
		bucket = m.bucket
		key = u.Path
		if key == "" {
			key = rawURL
		}
	}
	if len(key) > 0 && key[0] == '/' {
		key = key[1:]
	}
	if bucket == "" {
		bucket = m.bucket
	}
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("object url %s names no bucket/key", rawURL)
	}
	return bucket, key, nil
}
