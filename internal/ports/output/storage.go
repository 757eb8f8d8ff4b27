package output

import (
	"context"
	"io"
)

// ObjectStorage defines the secondary port for object storage operations.
// Inputs (vector files) are read through it and result artifacts are
// written back through it.
type ObjectStorage interface {
	// List returns all vector files in the storage.
	List(ctx context.Context) ([]StorageObject, error)

	// Download downloads an object to the local filesystem.
	Download(ctx context.Context, key string, dest string) error

	// GetReader returns a reader for the given object.
	GetReader(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists checks if an object exists.
	Exists(ctx context.Context, key string) (bool, error)

	// Upload writes an artifact under the given key. Read-only backends
	// return domain.ErrReadOnlyStorage.
	Upload(ctx context.Context, key string, body io.Reader) error
}

// StorageObject represents a file in object storage.
type StorageObject struct {
	Key          string // Object key/path
	Size         int64  // Size in bytes
	LastModified int64  // Unix timestamp
	ETag         string // Content hash
}

// StorageType represents the type of storage backend.
type StorageType string

const (
	StorageTypeS3    StorageType = "s3"
	StorageTypeAzure StorageType = "azure"
	StorageTypeHTTP  StorageType = "http"
	StorageTypeLocal StorageType = "local"
)
