// Package client talks to the images REST API and the image-hosting
// endpoint on behalf of the gallery front-end.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/leca/image-gallery/internal/model"
)

// ErrUpload wraps every failure of the image-hosting upload.
var ErrUpload = errors.New("image upload failed")

// StatusError is returned when a collaborator answers with a non-2xx status.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Message)
}

// API is a client for GET/POST /api/images.
type API struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewAPI returns a client for the API rooted at baseURL. A nil httpClient
// means http.DefaultClient.
func NewAPI(baseURL, token string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

// ListImages fetches the page that follows cursor after ("" for the first page).
func (c *API) ListImages(ctx context.Context, after string) (model.Page, error) {
	u := c.baseURL + "/api/images"
	if after != "" {
		u += "?" + url.Values{"after": {after}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.Page{}, fmt.Errorf("build list request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var page model.Page
	if err := c.do(req, "list images", &page); err != nil {
		return model.Page{}, err
	}
	return page, nil
}

// CreateImage posts a new image record.
func (c *API) CreateImage(ctx context.Context, in model.CreateImageInput) (model.Image, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return model.Image{}, fmt.Errorf("encode image: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/images", bytes.NewReader(body))
	if err != nil {
		return model.Image{}, fmt.Errorf("build create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	var img model.Image
	if err := c.do(req, "create image", &img); err != nil {
		return model.Image{}, err
	}
	return img, nil
}

func (c *API) do(req *http.Request, op string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// errorMessage pulls the first message out of an error envelope, if any.
func errorMessage(r io.Reader) string {
	var env struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	data, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || json.Unmarshal(data, &env) != nil {
		return ""
	}
	if len(env.Errors) > 0 {
		return env.Errors[0].Message
	}
	return env.Error.Message
}
