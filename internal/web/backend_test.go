package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/leca/image-gallery/internal/model"
)

// backend fakes the images API and the image host. Cursors are the index
// of the next image.
type backend struct {
	mu       sync.Mutex
	images   []model.Image
	size     int
	listErr  error
	lists    int
	uploaded []string
	gate     chan struct{}
}

func newBackend(n, size int) *backend {
	b := &backend{size: size}
	for i := 0; i < n; i++ {
		b.images = append(b.images, model.Image{
			ID:          fmt.Sprintf("img-%02d", i),
			Title:       fmt.Sprintf("Image %d", i),
			Description: fmt.Sprintf("Description %d", i),
			URL:         fmt.Sprintf("https://cdn.example/%d.png", i),
			TS:          int64(i),
		})
	}
	return b
}

func (b *backend) setListErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listErr = err
}

func (b *backend) ListImages(_ context.Context, after string) (model.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lists++
	if b.listErr != nil {
		return model.Page{}, b.listErr
	}

	start := 0
	if after != "" {
		var err error
		if start, err = strconv.Atoi(after); err != nil {
			return model.Page{}, errors.New("bad cursor")
		}
	}
	end := min(start+b.size, len(b.images))
	page := model.Page{Data: append([]model.Image(nil), b.images[start:end]...)}
	if end < len(b.images) {
		page.After = strconv.Itoa(end)
	}
	return page, nil
}

func (b *backend) CreateImage(_ context.Context, in model.CreateImageInput) (model.Image, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	img := model.Image{
		ID:          fmt.Sprintf("img-%02d", len(b.images)),
		Title:       in.Title,
		Description: in.Description,
		URL:         in.URL,
		TS:          int64(len(b.images)),
	}
	b.images = append(b.images, img)
	return img, nil
}

func (b *backend) Upload(_ context.Context, filename, _ string, body io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	b.mu.Lock()
	gate := b.gate
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploaded = append(b.uploaded, filename)
	return "https://cdn.example/uploads/" + filename, nil
}
