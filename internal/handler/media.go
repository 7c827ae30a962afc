package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/leca/image-gallery/internal/api"
	"github.com/leca/image-gallery/internal/client"
	"github.com/leca/image-gallery/internal/imageproc"
	"github.com/leca/image-gallery/internal/storage"
)

var extensions = map[string]string{
	"jpeg": ".jpg",
	"png":  ".png",
	"gif":  ".gif",
}

// UploadBlob handles POST /hosting/upload -- stores the multipart file
// field "image" and returns its public URL.
func (h *Handler) UploadBlob(w http.ResponseWriter, r *http.Request) {
	maxSize := h.Config.Storage.MaxUploadSizeBytes()
	// multipart framing needs some room on top of the file itself
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+64<<10)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.TooLarge(w, "upload exceeds the maximum size")
			return
		}
		api.BadRequest(w, "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(client.UploadField)
	if err != nil {
		api.BadRequest(w, "missing required field: "+client.UploadField)
		return
	}
	defer file.Close()

	if header.Size > maxSize {
		api.TooLarge(w, "upload exceeds the maximum size")
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		api.BadRequest(w, "failed to read upload")
		return
	}

	format := imageproc.DetectFormat(data)
	ext, ok := extensions[format]
	if !ok {
		api.UnsupportedMediaType(w, "only PNG, JPEG and GIF images are accepted")
		return
	}

	key := uuid.NewString() + ext
	n, err := h.Store.Store(r.Context(), key, imageproc.ContentType(format), bytes.NewReader(data))
	if err != nil {
		h.logger().Error("storing upload", "key", key, "error", err)
		api.InternalError(w, "failed to store image")
		return
	}
	if n != int64(len(data)) {
		h.logger().Error("short write storing upload", "key", key, "bytes", n, "want", len(data))
		h.discardBlob(r.Context(), key)
		api.InternalError(w, "failed to store image")
		return
	}
	// Nobody will ever learn the URL of a blob stored for a vanished client.
	if err := r.Context().Err(); err != nil {
		h.logger().Warn("client gone after upload", "key", key, "error", err)
		h.discardBlob(r.Context(), key)
		return
	}

	url := h.Store.PublicURL(key)
	if url == "" {
		url = h.Config.Server.BaseURL + "/media/" + key
	}

	h.logger().Info("image hosted", "key", key, "bytes", n, "filename", header.Filename)
	api.WriteJSON(w, http.StatusOK, api.Data(map[string]string{"url": url}))
}

// discardBlob removes a blob no response will point at.
func (h *Handler) discardBlob(ctx context.Context, key string) {
	if err := h.Store.Delete(context.WithoutCancel(ctx), key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		h.logger().Warn("discarding orphaned blob", "key", key, "error", err)
	}
}

// GetMedia handles GET /media/{key} -- streams a stored blob.
func (h *Handler) GetMedia(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := storage.ValidateKey(key); err != nil {
		api.NotFound(w, "media not found")
		return
	}

	rc, err := h.Store.Retrieve(r.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		api.NotFound(w, "media not found")
		return
	}
	if err != nil {
		h.logger().Error("retrieving media", "key", key, "error", err)
		api.InternalError(w, "failed to read media")
		return
	}
	defer rc.Close()

	// Read up to 512 bytes for content-type detection.
	buf := make([]byte, 512)
	n, err := io.ReadAtLeast(rc, buf, 1)
	if err != nil {
		api.InternalError(w, "failed to read media")
		return
	}
	buf = buf[:n]

	contentType := imageproc.ContentType(imageproc.DetectFormat(buf))
	if contentType == "application/octet-stream" {
		contentType = http.DetectContentType(buf)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)

	// Write the already-read bytes first, then stream the rest.
	if _, err := w.Write(buf); err != nil {
		h.logger().Debug("writing media", "key", key, "error", err)
		return
	}
	if _, err := io.Copy(w, rc); err != nil {
		h.logger().Debug("streaming media", "key", key, "error", err)
	}
}
