package upload

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/leca/image-gallery/internal/gallery"
	"github.com/leca/image-gallery/internal/imageproc"
	"github.com/leca/image-gallery/internal/model"
	"github.com/leca/image-gallery/internal/notice"
)

// PreviewSide bounds the local thumbnail shown while the upload runs.
const PreviewSide = 320

// Uploader sends a file to the image host and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
}

// Creator registers an image with the images API.
type Creator interface {
	CreateImage(ctx context.Context, in model.CreateImageInput) (model.Image, error)
}

// Invalidator marks a cached query stale.
type Invalidator interface {
	Invalidate(key string) bool
}

var (
	NoticeImageMissing = notice.Notice{
		Title:       "Image not added",
		Description: "Add an image and wait for the upload to finish before registering.",
		Status:      notice.StatusInfo,
	}
	NoticeRegistered = notice.Notice{
		Title:       "Image registered",
		Description: "Your image was registered successfully.",
		Status:      notice.StatusSuccess,
	}
	NoticeRegisterFailed = notice.Notice{
		Title:       "Registration failed",
		Description: "An error occurred while trying to register your image.",
		Status:      notice.StatusError,
	}
	NoticeUploadFailed = notice.Notice{
		Title:       "Upload failed",
		Description: "The image could not be uploaded. Try selecting it again.",
		Status:      notice.StatusError,
	}
)

// Outcome is the result class of a Submit.
type Outcome int

const (
	OutcomeInvalid Outcome = iota
	OutcomeBusy
	OutcomeMissingImage
	OutcomeFailed
	OutcomeCreated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInvalid:
		return "invalid"
	case OutcomeBusy:
		return "busy"
	case OutcomeMissingImage:
		return "missing_image"
	case OutcomeFailed:
		return "failed"
	case OutcomeCreated:
		return "created"
	}
	return "unknown"
}

// Result reports what Submit did.
type Result struct {
	Outcome Outcome
	Errors  Errors
	Image   model.Image
	Err     error
}

// View is a snapshot of the form for rendering.
type View struct {
	Open          bool
	Title         string
	Description   string
	FileName      string
	LocalImageURL string
	ImageURL      string
	Uploading     bool
	Submitting    bool
	Errors        Errors
}

// Options configures a Form.
type Options struct {
	Uploader      Uploader
	Creator       Creator
	Cache         Invalidator
	Notices       notice.Sink
	Logger        *slog.Logger
	UploadTimeout time.Duration
}

// Form is the "add image" modal: its open state, the draft, the local
// preview and the remote URL returned by the image host.
type Form struct {
	uploader      Uploader
	creator       Creator
	cache         Invalidator
	notices       notice.Sink
	logger        *slog.Logger
	uploadTimeout time.Duration

	mu            sync.Mutex
	open          bool
	draft         Draft
	errors        Errors
	localImageURL string
	imageURL      string
	uploading     bool
	submitting    bool
	seq           uint64 // bumped on every new upload and on reset

	wg sync.WaitGroup
}

// NewForm returns a closed, empty form.
func NewForm(opts Options) *Form {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.UploadTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Form{
		uploader:      opts.Uploader,
		creator:       opts.Creator,
		cache:         opts.Cache,
		notices:       opts.Notices,
		logger:        logger,
		uploadTimeout: timeout,
	}
}

func (f *Form) Open() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = true
}

// Close hides the modal and discards the draft.
func (f *Form) Close() {
	f.reset()
}

func (f *Form) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

// View returns a snapshot of the form.
func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := View{
		Open:          f.open,
		Title:         f.draft.Title,
		Description:   f.draft.Description,
		LocalImageURL: f.localImageURL,
		ImageURL:      f.imageURL,
		Uploading:     f.uploading,
		Submitting:    f.submitting,
	}
	if f.draft.File != nil {
		v.FileName = f.draft.File.Name
	}
	if len(f.errors) > 0 {
		v.Errors = make(Errors, len(f.errors))
		for k, msg := range f.errors {
			v.Errors[k] = msg
		}
	}
	return v
}

// SelectFile stores file as the draft's image. A valid file gets a local
// preview and is uploaded to the image host in the background; the remote
// URL is set when the upload succeeds. The returned errors are those of the
// file field only.
func (f *Form) SelectFile(ctx context.Context, file File, content []byte) Errors {
	sel := file
	errs := ValidateFile(&sel)

	f.mu.Lock()
	f.draft.File = &sel
	f.imageURL = ""
	f.localImageURL = ""
	f.seq++
	if f.errors == nil {
		f.errors = Errors{}
	}
	if errs != nil {
		f.errors[FieldFile] = errs[FieldFile]
		f.uploading = false
		f.mu.Unlock()
		return errs
	}
	delete(f.errors, FieldFile)
	seq := f.seq
	f.uploading = true
	f.mu.Unlock()

	if preview, err := imageproc.PreviewDataURL(content, PreviewSide); err != nil {
		f.logger.Warn("building local preview", "file", sel.Name, "error", err)
	} else {
		f.mu.Lock()
		if f.seq == seq {
			f.localImageURL = preview
		}
		f.mu.Unlock()
	}

	// The upload outlives the request that selected the file.
	uploadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.uploadTimeout)
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer cancel()
		f.upload(uploadCtx, seq, sel, content)
	}()
	return nil
}

// ClearFile drops the selected file and any upload in progress.
func (f *Form) ClearFile() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.File = nil
	f.localImageURL = ""
	f.imageURL = ""
	f.uploading = false
	f.seq++
	delete(f.errors, FieldFile)
}

func (f *Form) upload(ctx context.Context, seq uint64, file File, content []byte) {
	url, err := f.uploader.Upload(ctx, file.Name, file.ContentType, bytes.NewReader(content))

	f.mu.Lock()
	if f.seq != seq {
		f.mu.Unlock()
		return
	}
	f.uploading = false
	if err == nil {
		f.imageURL = url
	}
	f.mu.Unlock()

	if err != nil {
		f.logger.Warn("uploading image", "file", file.Name, "error", err)
		f.notices.Push(NoticeUploadFailed)
		return
	}
	f.logger.Debug("image uploaded", "file", file.Name, "url", url)
}

// Wait blocks until every started upload has settled.
func (f *Form) Wait() {
	f.wg.Wait()
}

// Submit validates the draft and registers the image. Field errors keep
// the draft; any other outcome resets the form and closes the modal.
func (f *Form) Submit(ctx context.Context, title, description string) Result {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return Result{Outcome: OutcomeBusy}
	}
	f.draft.Title = title
	f.draft.Description = description
	if errs := Validate(f.draft); errs != nil {
		f.errors = errs
		f.mu.Unlock()
		return Result{Outcome: OutcomeInvalid, Errors: errs}
	}
	f.errors = nil
	f.submitting = true
	url := f.imageURL
	f.mu.Unlock()

	defer f.reset()

	if url == "" {
		f.notices.Push(NoticeImageMissing)
		return Result{Outcome: OutcomeMissingImage}
	}

	img, err := f.creator.CreateImage(ctx, model.CreateImageInput{
		Title:       title,
		Description: description,
		URL:         url,
	})
	if err != nil {
		f.logger.Warn("registering image", "error", err)
		f.notices.Push(NoticeRegisterFailed)
		return Result{Outcome: OutcomeFailed, Err: err}
	}

	f.notices.Push(NoticeRegistered)
	f.cache.Invalidate(gallery.QueryKey)
	return Result{Outcome: OutcomeCreated, Image: img}
}

func (f *Form) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	f.draft = Draft{}
	f.errors = nil
	f.localImageURL = ""
	f.imageURL = ""
	f.uploading = false
	f.submitting = false
	f.seq++
}
