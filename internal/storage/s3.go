package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andresuchdata/draftq-processor/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Client implements ObjectStorage for AWS S3 and S3-compatible services.
type S3Client struct {
	client *minio.Client
}

// NewS3Client builds an S3Client. An endpoint with an explicit scheme
// overrides UseSSL. Without static credentials the client falls back to the
// standard AWS environment variables and then the instance metadata service.
func NewS3Client(cfg config.StorageConfig) (*S3Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket must be provided")
	}

	endpoint, secure, err := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	var creds *credentials.Credentials
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		creds = credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	} else {
		creds = credentials.NewChainCredentials([]credentials.Provider{
			&credentials.EnvAWS{},
			&credentials.IAM{Client: &http.Client{Transport: http.DefaultTransport}},
		})
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: secure,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client init failed: %w", err)
	}

	return &S3Client{client: client}, nil
}

// EnsureBucket fails unless bucket exists and is reachable. A HEAD on an
// object in a missing bucket is indistinguishable from a missing key, so the
// bucket has to be confirmed before any polling relies on StatObject.
func (c *S3Client) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := c.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("s3 bucket check failed for %q: %w", bucket, err)
	}
	if !exists {
		return fmt.Errorf("s3 bucket %q does not exist", bucket)
	}
	return nil
}

// StatObject returns ErrNotFound for a 404 on the object. Callers must have
// confirmed the bucket with EnsureBucket; denied access and transport
// failures are reported as-is.
func (c *S3Client) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	info, err := c.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ObjectInfo{}, ErrNotFound
		}
		return ObjectInfo{}, fmt.Errorf("s3 stat failed: %w", err)
	}
	return ObjectInfo{
		Key:          info.Key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
	}, nil
}

// DownloadObject downloads an object to the provided destination path.
func (c *S3Client) DownloadObject(ctx context.Context, bucket, key, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed creating directory for %s: %w", destPath, err)
	}
	if err := c.client.FGetObject(ctx, bucket, key, destPath, minio.GetObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ErrNotFound
		}
		return fmt.Errorf("s3 download failed: %w", err)
	}
	return nil
}

// UploadObject uploads the file at srcPath under key.
func (c *S3Client) UploadObject(ctx context.Context, bucket, key, srcPath, contentType string) error {
	_, err := c.client.FPutObject(ctx, bucket, key, srcPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("s3 upload failed: %w", err)
	}
	return nil
}

// PresignGetObject returns a pre-authorized GET URL valid for expiry.
func (c *S3Client) PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	u, err := c.client.PresignedGetObject(ctx, bucket, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("s3 presign failed: %w", err)
	}
	return u.String(), nil
}

var _ ObjectStorage = (*S3Client)(nil)

// normalizeEndpoint strips any scheme from endpoint, since minio expects a
// bare host[:port], and derives TLS from the scheme when one was given.
func normalizeEndpoint(endpoint string, useSSL bool) (string, bool, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", false, fmt.Errorf("s3 endpoint must be provided")
	}

	switch {
	case strings.HasPrefix(endpoint, "https://"):
		useSSL = true
	case strings.HasPrefix(endpoint, "http://"):
		useSSL = false
	default:
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "//"), "/"), useSSL, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("invalid s3 endpoint %q: %w", endpoint, err)
	}
	return u.Host, useSSL, nil
}
