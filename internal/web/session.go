package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leca/image-gallery/internal/gallery"
	"github.com/leca/image-gallery/internal/notice"
	"github.com/leca/image-gallery/internal/preview"
	"github.com/leca/image-gallery/internal/querycache"
	"github.com/leca/image-gallery/internal/upload"
)

// Deps are the collaborators shared by every session.
type Deps struct {
	Fetcher       gallery.Fetcher
	Creator       upload.Creator
	Uploader      upload.Uploader
	Logger        *slog.Logger
	UploadTimeout time.Duration
}

// Session is the page composition of one browser: its own query cache,
// gallery, upload form, preview overlay and notice queue.
type Session struct {
	ID      string
	Cache   *querycache.Cache
	Gallery *gallery.Gallery
	Form    *upload.Form
	Overlay *preview.Overlay
	Notices *notice.Queue

	mu           sync.Mutex
	galleryState gallery.State
	unsubscribe  func()
}

// NewSession wires a fresh composition for id.
func NewSession(id string, deps Deps) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session", id)

	cache := querycache.New()
	notices := &notice.Queue{}
	g := gallery.New(deps.Fetcher, logger)
	cache.Register(gallery.QueryKey, g)

	s := &Session{
		ID:      id,
		Cache:   cache,
		Gallery: g,
		Overlay: &preview.Overlay{},
		Notices: notices,
		Form: upload.NewForm(upload.Options{
			Uploader:      deps.Uploader,
			Creator:       deps.Creator,
			Cache:         cache,
			Notices:       notices,
			Logger:        logger,
			UploadTimeout: deps.UploadTimeout,
		}),
		galleryState: g.State(),
	}
	s.unsubscribe = g.Subscribe(func(st gallery.State) {
		s.mu.Lock()
		s.galleryState = st
		s.mu.Unlock()
	})
	return s
}

// View composes the page. Pending notices are drained.
func (s *Session) View() View {
	s.mu.Lock()
	st := s.galleryState
	s.mu.Unlock()

	pv := PreviewView{Open: s.Overlay.IsOpen(), URL: s.Overlay.URL()}
	return Project(st, pv, s.Form.View(), s.Notices.Drain())
}

// OpenPreview opens the overlay on url when it belongs to an image in the
// gallery grid. It reports whether the overlay was opened.
func (s *Session) OpenPreview(url string) bool {
	for _, img := range s.Gallery.State().Items() {
		if img.URL == url {
			s.Overlay.Open(url)
			return true
		}
	}
	return false
}

// Close detaches the session from its gallery and discards the draft.
func (s *Session) Close() {
	s.unsubscribe()
	s.Form.Close()
}

// Sessions maps session cookies to live sessions and evicts idle ones.
type Sessions struct {
	cookieName string
	ttl        time.Duration
	create     func(id string) *Session
	now        func() time.Time

	mu    sync.Mutex
	items map[string]*entry
}

type entry struct {
	session  *Session
	lastSeen time.Time
}

// NewSessions returns an empty store. create builds the session for a
// newly minted id.
func NewSessions(cookieName string, ttl time.Duration, create func(id string) *Session) *Sessions {
	return &Sessions{
		cookieName: cookieName,
		ttl:        ttl,
		create:     create,
		now:        time.Now,
		items:      make(map[string]*entry),
	}
}

// Resolve returns the session named by the request cookie, or starts a new
// one and sets its cookie on w.
func (ss *Sessions) Resolve(w http.ResponseWriter, r *http.Request) *Session {
	if c, err := r.Cookie(ss.cookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			ss.mu.Lock()
			e, ok := ss.items[c.Value]
			if ok {
				e.lastSeen = ss.now()
			}
			ss.mu.Unlock()
			if ok {
				return e.session
			}
		}
	}

	id := uuid.NewString()
	s := ss.create(id)
	ss.mu.Lock()
	ss.items[id] = &entry{session: s, lastSeen: ss.now()}
	ss.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     ss.cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s
}

// Sweep closes and removes sessions idle for longer than the TTL. It
// returns how many were evicted.
func (ss *Sessions) Sweep() int {
	cutoff := ss.now().Add(-ss.ttl)

	var evicted []*Session
	ss.mu.Lock()
	for id, e := range ss.items {
		if e.lastSeen.Before(cutoff) {
			evicted = append(evicted, e.session)
			delete(ss.items, id)
		}
	}
	ss.mu.Unlock()

	for _, s := range evicted {
		s.Close()
	}
	return len(evicted)
}

// Len returns the number of live sessions.
func (ss *Sessions) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.items)
}

// Run sweeps every interval until ctx is done.
func (ss *Sessions) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := ss.Sweep(); n > 0 {
				slog.Debug("sessions evicted", "count", n)
			}
		}
	}
}
