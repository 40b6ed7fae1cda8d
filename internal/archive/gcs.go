package archive

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
)

const uploadTimeout = 2 * time.Minute

// GCSArchiver archives uploads into one bucket.
// It assumes Application Default Credentials are configured.
type GCSArchiver struct {
	client *storage.Client
	bucket string
}

// NewGCSArchiver creates a storage client for bucket.
func NewGCSArchiver(ctx context.Context, bucket string) (*GCSArchiver, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSArchiver: creating storage client: %w", err)
	}
	return &GCSArchiver{client: client, bucket: bucket}, nil
}

// Archive implements Archiver.
func (a *GCSArchiver) Archive(ctx context.Context, sessionID, filename string, content []byte) (string, error) {
	object := ObjectName(sessionID, filename)

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := a.client.Bucket(a.bucket).Object(object).NewWriter(ctx)
	w.ContentType = ContentType(filename)
	w.Metadata = map[string]string{"session_id": sessionID, "filename": filename}

	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("Archive: writing %s: %w", object, err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Archive: finalizing %s: %w", object, err)
	}

	return URI(a.bucket, object), nil
}

// Fetch implements Archiver. The URI may name any bucket the credentials can read.
func (a *GCSArchiver) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return nil, fmt.Errorf("Fetch: %w", err)
	}

	rc, err := a.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading bytes: %w", err)
	}

	return data, nil
}

// Close releases the storage client.
func (a *GCSArchiver) Close() error {
	return a.client.Close()
}

var _ Archiver = (*GCSArchiver)(nil)
