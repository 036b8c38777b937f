package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCSSnapshotStore archives page snapshots in a Google Cloud Storage bucket.
type GCSSnapshotStore struct {
	client *storage.Client
	bucket string
}

// NewGCSSnapshotStore wraps an existing GCS client.
func NewGCSSnapshotStore(client *storage.Client, bucket string) (*GCSSnapshotStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &GCSSnapshotStore{client: client, bucket: bucket}, nil
}

// Save uploads data under objectName with an HTML content type.
func (s *GCSSnapshotStore) Save(ctx context.Context, objectName string, data []byte) error {
	if objectName == "" {
		return fmt.Errorf("object name is required")
	}
	writer := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	writer.ContentType = "text/html; charset=utf-8"
	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return fmt.Errorf("copy object: %w (close writer: %v)", err, closeErr)
		}
		return fmt.Errorf("copy object: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	return nil
}
