package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"dixon3d-backend/config"
)

// ErrObjectNotFound is returned when no object exists under the given key.
var ErrObjectNotFound = errors.New("object not found")

// ErrPresignUnsupported is returned by backends that cannot mint pre-signed
// URLs; callers fall back to streaming the object directly.
var ErrPresignUnsupported = errors.New("presigned URLs not supported")

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Size        int64
	ContentType string
}

// Storage is the durable blob store holding uploaded design files. Keys
// follow "{ref}/{filename}".
type Storage interface {
	// Put writes the object under key with the declared content type.
	Put(ctx context.Context, key string, contentType string, data io.Reader) error

	// Head returns object metadata, or ErrObjectNotFound.
	Head(ctx context.Context, key string) (*ObjectInfo, error)

	// Get opens the object for reading, or returns ErrObjectNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// PresignGet returns a time-limited GET URL for the object, or
	// ErrPresignUnsupported.
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Key builds the storage key for a file attached to a ticket.
func Key(ref, filename string) string {
	return ref + "/" + filename
}

// NewStorage creates the storage backend selected by configuration.
func NewStorage(cfg *config.Config) (Storage, error) {
	switch cfg.StorageType {
	case "local":
		return NewLocalStorage(cfg.StorageLocalPath)
	case "s3":
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.StorageType)
	}
}
