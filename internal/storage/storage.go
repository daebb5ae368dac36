package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by StatObject when the key does not exist in the
// bucket. Any other error (permissions, missing bucket, network) is a real
// failure and must not be treated as absence.
var ErrNotFound = errors.New("object does not exist")

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// ObjectStorage captures the minimal S3-compatible operations the processor needs.
type ObjectStorage interface {
	StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error)
	DownloadObject(ctx context.Context, bucket, key, destPath string) error
	UploadObject(ctx context.Context, bucket, key, srcPath, contentType string) error
	PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}
