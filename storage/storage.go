package storage

import (
	"context"
	"io"
)

// Storage abstracts where uploaded papers are kept. The default backend is the
// local upload directory; an S3-compatible backend is available for
// deployments without a persistent disk.
type Storage interface {
	// Put stores an object under the given key
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Get retrieves an object's content as a streaming reader
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes an object by key
	Delete(ctx context.Context, key string) error
	// List returns the keys under a prefix
	List(ctx context.Context, prefix string) ([]string, error)
}
