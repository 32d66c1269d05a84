package filestorage

import (
	"errors"
	"mime/multipart"
	"time"
)

var (
	// ErrInvalidKey is returned for keys that escape the storage root
	ErrInvalidKey = errors.New("invalid storage key")
	// ErrInvalidSignature is returned when a download link was tampered with
	ErrInvalidSignature = errors.New("invalid download signature")
	// ErrLinkExpired is returned when a download link is past its expiry
	ErrLinkExpired = errors.New("download link expired")
)

// FileStorage defines the interface for document blob storage.
// Keys are slash-separated paths relative to the storage root.
type FileStorage interface {
	// Save stores the upload under subPath and returns its key
	Save(fileHeader *multipart.FileHeader, subPath string) (string, error)

	// Delete removes a stored blob; missing blobs are not an error
	Delete(key string) error

	// FullPath returns the filesystem path for key
	FullPath(key string) (string, error)

	// SignedURL returns a time-limited download link for key
	SignedURL(key string, ttl time.Duration) (string, time.Time, error)

	// Verify checks a download link's expiry and signature
	Verify(key string, expires int64, signature string) error
}
