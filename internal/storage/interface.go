package storage

import (
	"context"
	"io"
)

// ObjectStorage defines the interface for artifact storage operations
type ObjectStorage interface {
	// Upload uploads an object to storage
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download downloads an object from storage
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// GetURL returns the URL for accessing an object
	GetURL(key string) string

	// Delete deletes an object from storage
	Delete(ctx context.Context, key string) error

	// DeleteByPrefix deletes all objects under a key prefix and returns
	// the number of objects removed
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)

	// Exists checks if an object exists
	Exists(ctx context.Context, key string) (bool, error)
}
