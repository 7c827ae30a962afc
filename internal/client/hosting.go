package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

// UploadField is the multipart field carrying the image.
const UploadField = "image"

// Hosting uploads image blobs to an external hosting service and returns
// their public URL.
type Hosting struct {
	uploadURL string
	http      *http.Client
}

// NewHosting returns an uploader for uploadURL. A nil httpClient means
// http.DefaultClient.
func NewHosting(uploadURL string, httpClient *http.Client) *Hosting {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Hosting{uploadURL: uploadURL, http: httpClient}
}

// UploadResponse is the body returned by the hosting endpoint.
type UploadResponse struct {
	Data struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Upload sends body as a multipart file and returns the hosted URL. Every
// error wraps ErrUpload.
func (h *Hosting) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, UploadField, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("%w: build form: %v", ErrUpload, err)
	}
	if _, err := io.Copy(part, body); err != nil {
		return "", fmt.Errorf("%w: copy file: %v", ErrUpload, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%w: close form: %v", ErrUpload, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.uploadURL, &buf)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrUpload, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := h.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %w", ErrUpload, &StatusError{
			Op:         "upload image",
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body),
		})
	}

	var out UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUpload, err)
	}
	if out.Data.URL == "" {
		return "", fmt.Errorf("%w: response has no url", ErrUpload)
	}
	return out.Data.URL, nil
}
