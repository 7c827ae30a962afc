// Package storage holds the blob stores behind the image-hosting endpoint.
package storage

import (
	"context"
	"errors"
	"io"
	"regexp"
)

var (
	// ErrNotFound indicates the requested key does not exist in storage.
	ErrNotFound = errors.New("storage: key not found")

	// ErrInvalidKey indicates an empty key or one with path characters.
	ErrInvalidKey = errors.New("storage: invalid key")
)

// Storage defines the interface for image blob storage.
type Storage interface {
	// Store writes image data and returns the number of bytes written.
	Store(ctx context.Context, key, contentType string, data io.Reader) (int64, error)

	// Retrieve returns a ReadCloser for the stored image data.
	Retrieve(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the stored image data.
	Delete(ctx context.Context, key string) error

	// PublicURL returns a directly fetchable URL for key, or "" when the
	// blob has to be served through this process.
	PublicURL(key string) string
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateKey rejects keys that could escape the store's namespace.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return ErrInvalidKey
	}
	return nil
}
