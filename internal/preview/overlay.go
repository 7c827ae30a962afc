// Package preview holds the full-size image overlay state.
package preview

import "sync"

// Overlay is either Closed or Open(url). The url of the last Open is kept
// after closing.
type Overlay struct {
	mu   sync.Mutex
	open bool
	url  string
}

// Open shows the overlay for url.
func (o *Overlay) Open(url string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.url = url
	o.open = true
}

// Close hides the overlay.
func (o *Overlay) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.open = false
}

// IsOpen reports whether the overlay is shown.
func (o *Overlay) IsOpen() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.open
}

// URL returns the url of the most recent Open.
func (o *Overlay) URL() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.url
}
