package database

import (
	"context"
	"errors"

	"github.com/leca/image-gallery/internal/model"
)

var (
	// ErrInvalidCursor is returned when an "after" cursor cannot be decoded.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrNotFound is returned by GetImage for an unknown id.
	ErrNotFound = errors.New("image not found")
)

// Database defines the persistence interface for gallery images.
type Database interface {
	CreateImage(ctx context.Context, img *model.Image) error
	GetImage(ctx context.Context, id string) (*model.Image, error)
	// ListImages returns up to limit images in insertion order that were
	// inserted after the cursor. The returned page carries the cursor of its last
	// item only when more images exist.
	ListImages(ctx context.Context, after string, limit int) (model.Page, error)
	CountImages(ctx context.Context) (int, error)

	Close() error
}
