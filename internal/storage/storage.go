package storage

import (
	"context"
	"io"
)

// ImageStore persists story cover images in durable object storage and
// serves them from a stable public URL.
type ImageStore interface {
	// Upload writes the object under the given key and returns its public
	// URL. Existing objects with the same key are not overwritten.
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	// PublicURL returns the stable URL of a stored object.
	PublicURL(key string) string
	// Host returns the hostname public URLs are served from. Image-url
	// columns containing this host are considered already migrated.
	Host() string
}
