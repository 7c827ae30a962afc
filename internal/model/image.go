package model

import (
	"encoding/json"
)

// Image is a gallery entry as served by the images API.
type Image struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	TS          int64  `json:"ts"`
}

// Page is one slice of the image listing. An empty After marks the last page.
type Page struct {
	Data  []Image `json:"data"`
	After string  `json:"-"`
}

// HasMore reports whether another page can be requested after this one.
func (p Page) HasMore() bool {
	return p.After != ""
}

type pageJSON struct {
	Data  []Image `json:"data"`
	After *string `json:"after"`
}

// MarshalJSON encodes an empty cursor as null.
func (p Page) MarshalJSON() ([]byte, error) {
	out := pageJSON{Data: p.Data}
	if out.Data == nil {
		out.Data = []Image{}
	}
	if p.After != "" {
		after := p.After
		out.After = &after
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts a null, absent or string cursor.
func (p *Page) UnmarshalJSON(data []byte) error {
	var in pageJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	p.Data = in.Data
	p.After = ""
	if in.After != nil {
		p.After = *in.After
	}
	return nil
}

// CreateImageInput is the body of a create-image request.
type CreateImageInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}
