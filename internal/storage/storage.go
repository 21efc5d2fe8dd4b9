package storage

import (
	"context"
	"io"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// FileStorage defines the interface for object storage operations.
// Used for uploaded player playbook documents.
type FileStorage interface {
	// Upload stores an object under the given key.
	Upload(ctx context.Context, objectKey string, contentType string, body io.Reader) error

	// PublicURL returns the stable public URL of an object. The object is
	// not checked for existence.
	PublicURL(objectKey string) string

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET
	// requests for downloading an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}
