// Package gallery holds the paginated image cache behind the gallery page.
//
// A Gallery owns the ordered list of fetched pages. Fetches are strictly
// sequential: the next page is requested with the cursor of the last page,
// and concurrent requests for the same page collapse into one call.
package gallery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leca/image-gallery/internal/model"
	"golang.org/x/sync/singleflight"
)

// QueryKey is the cache key the gallery is registered under.
const QueryKey = "images"

// Fetcher retrieves one page of images following the cursor after.
type Fetcher interface {
	ListImages(ctx context.Context, after string) (model.Page, error)
}

// Gallery is the paginated image cache.
type Gallery struct {
	fetcher Fetcher
	logger  *slog.Logger
	group   singleflight.Group

	mu           sync.Mutex
	pages        []model.Page
	fetched      bool // at least one successful fetch since the last invalidate
	attempted    bool
	stale        bool
	loading      bool
	fetchingNext bool
	err          error
	pending      string // singleflight key of the in-flight fetch
	gen          uint64 // bumped by Invalidate; older results are dropped

	listeners []listener
	nextID    int
	emitting  bool // a goroutine is delivering snapshots
	dirty     bool // state changed during the current delivery
}

type listener struct {
	id int
	fn func(State)
}

// New returns an empty Gallery reading from fetcher. A nil logger means
// slog.Default().
func New(fetcher Fetcher, logger *slog.Logger) *Gallery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gallery{fetcher: fetcher, logger: logger}
}

// State returns a snapshot of the current state.
func (g *Gallery) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot()
}

// Read returns the current state, fetching the first page when nothing has
// been requested yet or the cache was invalidated.
func (g *Gallery) Read(ctx context.Context) (State, error) {
	g.mu.Lock()
	needed := (!g.attempted || g.stale) && g.pending == ""
	g.mu.Unlock()

	if !needed {
		return g.State(), nil
	}
	return g.FetchFirstPage(ctx)
}

// FetchFirstPage requests the page with no cursor and replaces the cached
// pages with it. On failure IsError is set and prior pages are kept. It is
// a no-op while a next-page fetch is in flight.
func (g *Gallery) FetchFirstPage(ctx context.Context) (State, error) {
	g.mu.Lock()
	key := fmt.Sprintf("%d:first", g.gen)
	if g.pending != "" && g.pending != key {
		s := g.snapshot()
		g.mu.Unlock()
		return s, nil
	}
	started := g.pending == ""
	if started {
		g.pending = key
		g.loading = true
		g.attempted = true
	}
	g.mu.Unlock()
	if started {
		g.emit()
	}

	_, err, _ := g.group.Do(key, func() (any, error) {
		g.mu.Lock()
		if g.pending != key {
			// Finished before this caller got here, or invalidated.
			g.mu.Unlock()
			return nil, nil
		}
		gen := g.gen
		g.mu.Unlock()

		page, err := g.fetcher.ListImages(ctx, "")

		g.mu.Lock()
		if gen != g.gen {
			g.mu.Unlock()
			return nil, err
		}
		if g.pending == key {
			g.pending = ""
		}
		g.loading = false
		g.stale = false
		if err != nil {
			g.err = err
		} else {
			g.pages = []model.Page{page}
			g.fetched = true
			g.err = nil
		}
		pages := len(g.pages)
		g.mu.Unlock()

		g.logFetch("first", page, pages, err)
		g.emit()
		return nil, err
	})
	return g.State(), err
}

// FetchNextPage requests the page after the last cached one and appends it.
// It does not touch the network when nothing has been fetched yet, when
// another fetch is in flight, or when the last page has no cursor. Callers
// arriving while the same page is being fetched share that call's result.
func (g *Gallery) FetchNextPage(ctx context.Context) (State, error) {
	g.mu.Lock()
	if !g.fetched || len(g.pages) == 0 {
		s := g.snapshot()
		g.mu.Unlock()
		return s, nil
	}
	after := g.pages[len(g.pages)-1].After
	if after == "" {
		s := g.snapshot()
		g.mu.Unlock()
		return s, nil
	}
	key := fmt.Sprintf("%d:next:%s", g.gen, after)
	if g.pending != "" && g.pending != key {
		s := g.snapshot()
		g.mu.Unlock()
		return s, nil
	}
	started := g.pending == ""
	if started {
		g.pending = key
		g.fetchingNext = true
	}
	g.mu.Unlock()
	if started {
		g.emit()
	}

	_, err, _ := g.group.Do(key, func() (any, error) {
		g.mu.Lock()
		// A caller that lost the race with the previous call for this
		// cursor finds the page already appended.
		if g.pending != key || len(g.pages) == 0 || g.pages[len(g.pages)-1].After != after {
			g.mu.Unlock()
			return nil, nil
		}
		gen := g.gen
		g.mu.Unlock()

		page, err := g.fetcher.ListImages(ctx, after)

		g.mu.Lock()
		if gen != g.gen {
			g.mu.Unlock()
			return nil, err
		}
		if g.pending == key {
			g.pending = ""
		}
		g.fetchingNext = false
		if err != nil {
			g.err = err
		} else {
			g.pages = append(g.pages, page)
			g.err = nil
		}
		pages := len(g.pages)
		g.mu.Unlock()

		g.logFetch("next", page, pages, err)
		g.emit()
		return nil, err
	})
	return g.State(), err
}

// Invalidate drops the cached pages and marks the cache stale so the next
// Read starts again from the first page. Results of fetches already in
// flight are discarded.
func (g *Gallery) Invalidate() {
	g.mu.Lock()
	g.gen++
	g.pages = nil
	g.fetched = false
	g.stale = true
	g.loading = false
	g.fetchingNext = false
	g.err = nil
	g.pending = ""
	g.mu.Unlock()

	g.logger.Debug("gallery invalidated")
	g.emit()
}

// Subscribe registers fn to receive a snapshot after every state change.
// The returned function removes the subscription.
func (g *Gallery) Subscribe(fn func(State)) func() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nextID++
	id := g.nextID
	g.listeners = append(g.listeners, listener{id: id, fn: fn})

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		for i, l := range g.listeners {
			if l.id == id {
				g.listeners = append(g.listeners[:i:i], g.listeners[i+1:]...)
				return
			}
		}
	}
}

// OnChange adapts Subscribe for callers that only need a change signal.
func (g *Gallery) OnChange(fn func()) func() {
	return g.Subscribe(func(State) { fn() })
}

// emit delivers the current state to every listener. Deliveries never
// overlap: an emit that arrives while another goroutine is delivering marks
// the state dirty and returns, and the delivering goroutine sends a fresh
// snapshot before it stops. The last snapshot a listener sees is therefore
// always the newest state.
func (g *Gallery) emit() {
	g.mu.Lock()
	if g.emitting {
		g.dirty = true
		g.mu.Unlock()
		return
	}
	g.emitting = true
	for {
		g.dirty = false
		s := g.snapshot()
		fns := make([]func(State), len(g.listeners))
		for i, l := range g.listeners {
			fns[i] = l.fn
		}
		g.mu.Unlock()

		for _, fn := range fns {
			fn(s)
		}

		g.mu.Lock()
		if !g.dirty {
			g.emitting = false
			g.mu.Unlock()
			return
		}
	}
}

func (g *Gallery) snapshot() State {
	pages := make([]model.Page, len(g.pages))
	copy(pages, g.pages)
	return State{
		Pages:              pages,
		IsLoading:          g.loading,
		IsFetchingNextPage: g.fetchingNext,
		IsError:            g.err != nil,
		Err:                g.err,
	}
}

func (g *Gallery) logFetch(which string, page model.Page, pages int, err error) {
	if err != nil {
		g.logger.Warn("gallery fetch failed", "page", which, "error", err)
		return
	}
	g.logger.Debug("gallery page fetched",
		"page", which,
		"items", len(page.Data),
		"has_more", page.HasMore(),
		"pages", pages,
	)
}
