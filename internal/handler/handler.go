// Package handler implements the reference images API and the
// image-hosting endpoint served next to the gallery.
package handler

import (
	"log/slog"
	"time"

	"github.com/leca/image-gallery/internal/config"
	"github.com/leca/image-gallery/internal/database"
	"github.com/leca/image-gallery/internal/storage"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	DB     database.Database
	Store  storage.Storage
	Config *config.Config
	Logger *slog.Logger

	// Now stamps new images. Defaults to time.Now.
	Now func() time.Time
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
