package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/leca/image-gallery/internal/api"
	"github.com/leca/image-gallery/internal/database"
	"github.com/leca/image-gallery/internal/model"
	"github.com/leca/image-gallery/internal/upload"
)

const maxJSONBody = 64 << 10

// ListImages handles GET /api/images?after=<cursor>.
func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	after := r.URL.Query().Get("after")

	page, err := h.DB.ListImages(r.Context(), after, h.Config.API.PageSize)
	if errors.Is(err, database.ErrInvalidCursor) {
		api.BadRequest(w, "invalid cursor")
		return
	}
	if err != nil {
		h.logger().Error("listing images", "error", err)
		api.InternalError(w, "failed to list images")
		return
	}

	api.WriteJSON(w, http.StatusOK, page)
}

// CreateImage handles POST /api/images.
func (h *Handler) CreateImage(w http.ResponseWriter, r *http.Request) {
	var in model.CreateImageInput
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(&in); err != nil {
		api.BadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	if fields := validateInput(in); len(fields) > 0 {
		api.UnprocessableEntity(w, fields)
		return
	}

	img := &model.Image{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		URL:         in.URL,
		TS:          h.now().UnixMilli(),
	}
	if err := h.DB.CreateImage(r.Context(), img); err != nil {
		h.logger().Error("creating image", "error", err)
		api.InternalError(w, "failed to create image record")
		return
	}

	h.logger().Info("image created", "id", img.ID)
	api.WriteJSON(w, http.StatusCreated, img)
}

// GetImage handles GET /api/images/{image_id}.
func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	img, err := h.DB.GetImage(r.Context(), chi.URLParam(r, "image_id"))
	if errors.Is(err, database.ErrNotFound) {
		api.NotFound(w, "image not found")
		return
	}
	if err != nil {
		h.logger().Error("getting image", "error", err)
		api.InternalError(w, "failed to get image")
		return
	}
	api.WriteJSON(w, http.StatusOK, img)
}

// GetStats handles GET /api/images/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	count, err := h.DB.CountImages(r.Context())
	if err != nil {
		h.logger().Error("counting images", "error", err)
		api.InternalError(w, "failed to count images")
		return
	}

	result := map[string]interface{}{
		"count":     count,
		"page_size": h.Config.API.PageSize,
	}
	api.WriteJSON(w, http.StatusOK, api.Data(result))
}

func validateInput(in model.CreateImageInput) map[string]string {
	fields := map[string]string{}
	for f, msg := range upload.ValidateText(in.Title, in.Description) {
		fields[string(f)] = msg
	}
	if msg := urlMessage(in.URL); msg != "" {
		fields["url"] = msg
	}
	return fields
}

func urlMessage(raw string) string {
	if raw == "" {
		return "URL is required"
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "URL must be an absolute http(s) URL"
	}
	return ""
}
