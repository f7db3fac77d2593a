package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"libraryhub/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore keeps avatars in an S3 compatible bucket.
// It satisfies services.AvatarStore.
type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

// NewObjectStore creates a new object store. The endpoint may be a bare
// host:port or a URL, in which case its scheme decides TLS.
func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint, useSSL, err := parseEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	cfg.Endpoint = endpoint
	cfg.UseSSL = useSSL
	return &ObjectStore{client: client, cfg: cfg}, nil
}

func parseEndpoint(endpoint string, useSSL bool) (string, bool, error) {
	if !strings.HasPrefix(endpoint, "http") {
		return endpoint, useSSL, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("parse endpoint: %w", err)
	}
	return u.Host, u.Scheme == "https", nil
}

// EnsureBucket creates the avatar bucket when missing
func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.Bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.cfg.Bucket, err)
		}
	}
	return nil
}

// Put uploads an object and returns its public URL
func (s *ObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if _, err := s.client.PutObject(ctx, s.cfg.Bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// PublicURL returns where key can be read. PublicURL from config wins over
// the storage endpoint, e.g. when a CDN fronts the bucket.
func (s *ObjectStore) PublicURL(key string) string {
	base := strings.TrimRight(s.cfg.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if s.cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + s.cfg.Endpoint + "/" + s.cfg.Bucket
	}
	return base + "/" + strings.TrimLeft(key, "/")
}
