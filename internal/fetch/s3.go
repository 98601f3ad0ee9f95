package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
)

// S3Fetcher reads objects from S3-compatible storage.
// URIs take the form s3://bucket/key.
type S3Fetcher struct {
	client *minio.Client
	logger *slog.Logger
}

// NewS3Fetcher creates an S3Fetcher using client.
func NewS3Fetcher(client *minio.Client, logger *slog.Logger) *S3Fetcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &S3Fetcher{client: client, logger: logger}
}

// Fetch retrieves the object. Missing objects and transport failures yield no
// result.
func (f *S3Fetcher) Fetch(ctx context.Context, uri string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}
	if f.client == nil {
		return nil, fmt.Errorf("no S3 client configured for %q", uri)
	}

	obj, err := f.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		f.logger.Debug("get object failed", "uri", uri, "error", err)
		return nil, nil
	}

	// GetObject is lazy; Stat issues the request and surfaces missing keys.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		f.logger.Debug("stat object failed", "uri", uri, "code", minio.ToErrorResponse(err).Code, "error", err)
		return nil, nil
	}

	return &Result{URI: uri, Body: obj}, nil
}

// ParseS3URI splits s3://bucket/key into its bucket and key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("invalid S3 URI %q: %w", uri, err)
	}
	if !strings.EqualFold(u.Scheme, "s3") {
		return "", "", fmt.Errorf("not an S3 URI: %q", uri)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("S3 URI %q must name a bucket and key", uri)
	}
	return bucket, key, nil
}
