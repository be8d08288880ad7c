package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"go.uber.org/zap"
)

const publicStorageHost = "storage.googleapis.com"

// Compile-time check to ensure gcsImageStore implements ImageStore
var _ ImageStore = (*gcsImageStore)(nil)

// GCSConfig configures the bucket-backed image store.
type GCSConfig struct {
	Bucket    string
	ProjectID string
	// CDNDomain, when set, is used for public URLs instead of the direct
	// storage endpoint.
	CDNDomain string
}

type gcsImageStore struct {
	client *gcs.Client
	cfg    GCSConfig
	logger *zap.Logger
}

// NewGCSImageStore creates the storage client and makes sure the bucket
// exists. Creating the bucket needs ProjectID; with an empty ProjectID an
// already existing bucket is assumed.
func NewGCSImageStore(ctx context.Context, cfg GCSConfig, logger *zap.Logger) (ImageStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("image store bucket name is empty")
	}

	client, err := gcs.NewClient(ctx, option.WithScopes(gcs.ScopeReadWrite))
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	store := &gcsImageStore{
		client: client,
		cfg:    cfg,
		logger: logger.Named("GCSImageStore"),
	}
	if err := store.ensureBucket(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return store, nil
}

func (s *gcsImageStore) ensureBucket(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	bucket := s.client.Bucket(s.cfg.Bucket)
	_, err := bucket.Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gcs.ErrBucketNotExist) {
		return fmt.Errorf("failed to check bucket %q: %w", s.cfg.Bucket, err)
	}
	if s.cfg.ProjectID == "" {
		return fmt.Errorf("bucket %q does not exist and no project id is configured to create it", s.cfg.Bucket)
	}

	s.logger.Info("Creating image bucket", zap.String("bucket", s.cfg.Bucket))
	if err := bucket.Create(ctx, s.cfg.ProjectID, &gcs.BucketAttrs{
		PredefinedACL: "publicRead",
	}); err != nil {
		return fmt.Errorf("failed to create bucket %q: %w", s.cfg.Bucket, err)
	}
	return nil
}

// Upload stores the object with an if-not-exists precondition so repeated
// webhook deliveries never rewrite an already migrated image.
func (s *gcsImageStore) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	obj := s.client.Bucket(s.cfg.Bucket).Object(key).If(gcs.Conditions{DoesNotExist: true})
	w := obj.NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	w.CacheControl = "public, max-age=31536000, immutable"

	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		if isPreconditionFailed(err) {
			s.logger.Debug("Object already exists, keeping stored copy", zap.String("key", key))
			return s.PublicURL(key), nil
		}
		return "", fmt.Errorf("failed to finalize object %q: %w", key, err)
	}

	s.logger.Info("Uploaded image", zap.String("key", key), zap.String("bucket", s.cfg.Bucket))
	return s.PublicURL(key), nil
}

func (s *gcsImageStore) PublicURL(key string) string {
	escaped := url.PathEscape(key)
	if s.cfg.CDNDomain != "" {
		return fmt.Sprintf("https://%s/%s", s.cfg.CDNDomain, escaped)
	}
	return fmt.Sprintf("https://%s/%s/%s", publicStorageHost, s.cfg.Bucket, escaped)
}

func (s *gcsImageStore) Host() string {
	if s.cfg.CDNDomain != "" {
		return strings.ToLower(s.cfg.CDNDomain)
	}
	return publicStorageHost
}

func isPreconditionFailed(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == 412
}
