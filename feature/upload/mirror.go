package upload

import (
	"context"
	"fmt"
	"path"
	"strings"

	"stub-server/core/storage"

	"github.com/minio/minio-go/v7"
)

// Sink receives every upload after it has been written to disk.
type Sink interface {
	Name() string
	Record(ctx context.Context, rec Record) error
}

// Mirror copies uploads into an object storage bucket under the same subfolder.
type Mirror struct {
	client storage.Client
	bucket string
}

// NewMirror creates a bucket mirror.
func NewMirror(client storage.Client, bucket string) *Mirror {
	return &Mirror{client: client, bucket: bucket}
}

// Name implements Sink.
func (m *Mirror) Name() string {
	return "mirror"
}

// ObjectName is the key an upload is stored under.
func ObjectName(rec Record) string {
	return path.Join(Subfolder, rec.Filename)
}

// Record implements Sink.
func (m *Mirror) Record(ctx context.Context, rec Record) error {
	_, err := m.client.PutObject(ctx, m.bucket, ObjectName(rec),
		strings.NewReader(rec.Body), int64(len(rec.Body)),
		minio.PutObjectOptions{ContentType: "application/json; charset=utf-8"})
	if err != nil {
		return fmt.Errorf("failed to mirror %s to bucket %s: %w", rec.Filename, m.bucket, err)
	}
	return nil
}
