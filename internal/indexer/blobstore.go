// Raw source-file retention, grounded on
// unified-rag-service/main.go's uploadDocumentHandler (MinIO PutObject
// with a date-prefixed unique path). This is optional and orthogonal to
// the validate→chunk→embed→store pipeline: it lets an operator keep the
// original JSON/PDF a document was indexed from for audit/reprocessing,
// matching the original system's file-plus-vector-record duality.
package indexer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

// BlobStore retains raw source files alongside their indexed,
// chunked-and-embedded representation.
type BlobStore struct {
	client *minio.Client
	bucket string
}

func NewBlobStore(client *minio.Client, bucket string) *BlobStore {
	return &BlobStore{client: client, bucket: bucket}
}

// EnsureBucket creates the bucket if it does not already exist.
func (b *BlobStore) EnsureBucket(ctx context.Context) error {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Put uploads a raw document under a date-prefixed unique key and
// returns the storage path.
func (b *BlobStore) Put(ctx context.Context, filename string, size int64, contentType string, r io.Reader) (string, error) {
	datePrefix := time.Now().Format("2006/01/02")
	path := fmt.Sprintf("%s/%d_%s", datePrefix, time.Now().UnixNano(), strings.ReplaceAll(filename, " ", "_"))
	if _, err := b.client.PutObject(ctx, b.bucket, path, r, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("blob upload failed: %w", err)
	}
	return path, nil
}

// Get retrieves a previously stored raw document by its storage path.
func (b *BlobStore) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("blob fetch failed: %w", err)
	}
	return obj, nil
}
