package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/docker/go-units"
	"github.com/go-chi/chi/v5"
	"github.com/leca/image-gallery/internal/client"
	"github.com/leca/image-gallery/internal/upload"
)

// maxFormFile caps the file read by /upload/file. Anything the validator
// would reject for size is still read far enough to report that error.
const maxFormFile = 2 * upload.MaxFileMiB * units.MiB

// Server renders the gallery page and handles its form posts.
type Server struct {
	templates  *TemplateSet
	sessions   *Sessions
	logger     *slog.Logger
	renderWait time.Duration
}

// Options configures a Server.
type Options struct {
	Sessions *Sessions
	Logger   *slog.Logger
	// RenderWait bounds how long GET / waits for the first page before
	// rendering the loading state.
	RenderWait time.Duration
}

// NewServer parses the embedded templates and returns a Server.
func NewServer(opts Options) (*Server, error) {
	ts, err := newDefaultTemplateSet()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	wait := opts.RenderWait
	if wait <= 0 {
		wait = 2 * time.Second
	}
	return &Server{templates: ts, sessions: opts.Sessions, logger: logger, renderWait: wait}, nil
}

// Routes mounts the page and its form endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.index)
	r.Post("/gallery/more", s.loadMore)
	r.Post("/gallery/retry", s.retry)
	r.Post("/preview/open", s.openPreview)
	r.Post("/preview/close", s.closePreview)
	r.Post("/upload/open", s.openUpload)
	r.Post("/upload/close", s.closeUpload)
	r.Post("/upload/file", s.selectFile)
	r.Post("/upload", s.submit)
}

// NotFound renders the 404 page.
func (s *Server) NotFound() http.HandlerFunc {
	return s.templates.ErrorHandler(notFoundPage, http.StatusNotFound)
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Resolve(w, r)
	s.awaitFirstPage(r.Context(), sess)

	data := PageData{Title: galleryPage.Title, Data: sess.View()}
	if err := s.templates.Render(w, galleryPage, data); err != nil {
		s.logger.Error("rendering gallery", "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

// awaitFirstPage starts the gallery read and waits for it, up to renderWait.
func (s *Server) awaitFirstPage(ctx context.Context, sess *Session) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := sess.Gallery.Read(context.WithoutCancel(ctx)); err != nil {
			s.logger.Debug("gallery read failed", "session", sess.ID, "error", err)
		}
	}()

	timer := time.NewTimer(s.renderWait)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
	case <-ctx.Done():
	}
}

func (s *Server) loadMore(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Resolve(w, r)
	if _, err := sess.Gallery.FetchNextPage(context.WithoutCancel(r.Context())); err != nil {
		s.logger.Debug("next page failed", "session", sess.ID, "error", err)
	}
	redirectHome(w, r)
}

func (s *Server) retry(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Resolve(w, r)
	if _, err := sess.Gallery.FetchFirstPage(context.WithoutCancel(r.Context())); err != nil {
		s.logger.Debug("retry failed", "session", sess.ID, "error", err)
	}
	redirectHome(w, r)
}

func (s *Server) openPreview(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Resolve(w, r)
	if url := r.PostFormValue("url"); url != "" && !sess.OpenPreview(url) {
		s.logger.Debug("preview of unknown image refused", "session", sess.ID, "url", url)
	}
	redirectHome(w, r)
}

func (s *Server) closePreview(w http.ResponseWriter, r *http.Request) {
	s.sessions.Resolve(w, r).Overlay.Close()
	redirectHome(w, r)
}

func (s *Server) openUpload(w http.ResponseWriter, r *http.Request) {
	s.sessions.Resolve(w, r).Form.Open()
	redirectHome(w, r)
}

func (s *Server) closeUpload(w http.ResponseWriter, r *http.Request) {
	s.sessions.Resolve(w, r).Form.Close()
	redirectHome(w, r)
}

func (s *Server) selectFile(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Resolve(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, maxFormFile+64<<10)

	file, header, err := r.FormFile(client.UploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sess.Form.SelectFile(r.Context(), upload.File{Size: tooLarge.Limit}, nil)
		} else {
			sess.Form.ClearFile()
		}
		redirectHome(w, r)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.logger.Warn("reading selected file", "session", sess.ID, "error", err)
		sess.Form.ClearFile()
		redirectHome(w, r)
		return
	}

	sess.Form.SelectFile(r.Context(), upload.File{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	}, content)
	redirectHome(w, r)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Resolve(w, r)
	res := sess.Form.Submit(context.WithoutCancel(r.Context()), r.PostFormValue("title"), r.PostFormValue("description"))
	s.logger.Debug("upload submitted", "session", sess.ID, "outcome", res.Outcome)
	redirectHome(w, r)
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
