package gallery

import "github.com/leca/image-gallery/internal/model"

// State is a snapshot of the gallery aggregate.
type State struct {
	// Pages in fetch order. Their concatenation is the image list.
	Pages              []model.Page
	IsLoading          bool
	IsFetchingNextPage bool
	IsError            bool
	Err                error
}

// Items flattens the pages into the insertion-ordered image list.
func (s State) Items() []model.Image {
	n := 0
	for _, p := range s.Pages {
		n += len(p.Data)
	}
	items := make([]model.Image, 0, n)
	for _, p := range s.Pages {
		items = append(items, p.Data...)
	}
	return items
}

// HasNextPage reports whether the last known page carries a cursor.
func (s State) HasNextPage() bool {
	if len(s.Pages) == 0 {
		return false
	}
	return s.Pages[len(s.Pages)-1].HasMore()
}

// HasData reports whether at least one page has been fetched.
func (s State) HasData() bool {
	return len(s.Pages) > 0
}
