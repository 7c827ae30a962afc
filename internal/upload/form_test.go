package upload

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/leca/image-gallery/internal/gallery"
	"github.com/leca/image-gallery/internal/model"
	"github.com/leca/image-gallery/internal/notice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	mu    sync.Mutex
	url   string
	err   error
	gates map[string]chan struct{}
	calls []string
	body  []byte
}

func (u *fakeUploader) Upload(_ context.Context, filename, _ string, body io.Reader) (string, error) {
	data, _ := io.ReadAll(body)
	u.mu.Lock()
	u.calls = append(u.calls, filename)
	u.body = data
	gate := u.gates[filename]
	url, err := u.url, u.err
	u.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return "", err
	}
	if url == "" {
		url = "https://cdn.example/" + filename
	}
	return url, nil
}

func (u *fakeUploader) gate(filename string) chan struct{} {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.gates == nil {
		u.gates = map[string]chan struct{}{}
	}
	ch := make(chan struct{})
	u.gates[filename] = ch
	return ch
}

type fakeCreator struct {
	mu    sync.Mutex
	err   error
	calls []model.CreateImageInput
}

func (c *fakeCreator) CreateImage(_ context.Context, in model.CreateImageInput) (model.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, in)
	if c.err != nil {
		return model.Image{}, c.err
	}
	return model.Image{ID: "new", Title: in.Title, Description: in.Description, URL: in.URL, TS: 1}, nil
}

type fakeCache struct {
	keys []string
}

func (c *fakeCache) Invalidate(key string) bool {
	c.keys = append(c.keys, key)
	return true
}

type fixture struct {
	form     *Form
	uploader *fakeUploader
	creator  *fakeCreator
	cache    *fakeCache
	notices  *notice.Queue
}

func newFixture() *fixture {
	fx := &fixture{
		uploader: &fakeUploader{},
		creator:  &fakeCreator{},
		cache:    &fakeCache{},
		notices:  &notice.Queue{},
	}
	fx.form = NewForm(Options{
		Uploader: fx.uploader,
		Creator:  fx.creator,
		Cache:    fx.cache,
		Notices:  fx.notices,
	})
	return fx
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func selectPNG(t *testing.T, fx *fixture) {
	t.Helper()
	selectNamed(t, fx, "cat.png")
}

func selectNamed(t *testing.T, fx *fixture, name string) {
	t.Helper()
	data := pngBytes(t, 8, 8)
	errs := fx.form.SelectFile(context.Background(), File{Name: name, Size: int64(len(data)), ContentType: "image/png"}, data)
	require.Nil(t, errs)
}

func TestOpenClose(t *testing.T) {
	fx := newFixture()
	assert.False(t, fx.form.IsOpen())
	fx.form.Open()
	assert.True(t, fx.form.IsOpen())
	fx.form.Close()
	assert.False(t, fx.form.IsOpen())
}

func TestSelectFileUploadsAndSetsTrackers(t *testing.T) {
	fx := newFixture()
	fx.form.Open()
	selectPNG(t, fx)
	fx.form.Wait()

	v := fx.form.View()
	assert.Equal(t, "cat.png", v.FileName)
	assert.True(t, strings.HasPrefix(v.LocalImageURL, "data:image/png;base64,"))
	assert.Equal(t, "https://cdn.example/cat.png", v.ImageURL)
	assert.False(t, v.Uploading)
	assert.Equal(t, []string{"cat.png"}, fx.uploader.calls)
	assert.NotEmpty(t, fx.uploader.body)
}

func TestSelectFileUploadPending(t *testing.T) {
	fx := newFixture()
	gate := fx.uploader.gate("cat.png")
	selectPNG(t, fx)

	v := fx.form.View()
	assert.True(t, v.Uploading)
	assert.Empty(t, v.ImageURL)

	close(gate)
	fx.form.Wait()
	assert.Equal(t, "https://cdn.example/cat.png", fx.form.View().ImageURL)
}

func TestSelectFileRejectsInvalidFile(t *testing.T) {
	fx := newFixture()
	errs := fx.form.SelectFile(context.Background(), File{Name: "doc.txt", Size: 10, ContentType: "text/plain"}, []byte("hello"))
	fx.form.Wait()

	assert.Equal(t, "Only PNG, JPEG and GIF files are accepted", errs[FieldFile])
	assert.Empty(t, fx.uploader.calls)
	v := fx.form.View()
	assert.Empty(t, v.LocalImageURL)
	assert.Equal(t, "Only PNG, JPEG and GIF files are accepted", v.Errors[FieldFile])
}

func TestSelectFileUploadFailureRaisesNotice(t *testing.T) {
	fx := newFixture()
	fx.uploader.err = errors.New("host down")
	selectPNG(t, fx)
	fx.form.Wait()

	assert.Empty(t, fx.form.View().ImageURL)
	assert.Equal(t, []notice.Notice{NoticeUploadFailed}, fx.notices.Drain())
}

func TestSubmitValidationKeepsDraft(t *testing.T) {
	fx := newFixture()
	fx.form.Open()
	selectPNG(t, fx)
	fx.form.Wait()

	res := fx.form.Submit(context.Background(), "a", "")
	assert.Equal(t, OutcomeInvalid, res.Outcome)
	assert.Equal(t, Errors{
		FieldTitle:       "Minimum of 2 characters",
		FieldDescription: "Description is required",
	}, res.Errors)

	v := fx.form.View()
	assert.True(t, v.Open)
	assert.Equal(t, "a", v.Title)
	assert.Equal(t, "https://cdn.example/cat.png", v.ImageURL)
	assert.Empty(t, fx.creator.calls)
	assert.Zero(t, fx.notices.Len())
}

func TestSubmitWithoutFileIsInvalid(t *testing.T) {
	fx := newFixture()
	res := fx.form.Submit(context.Background(), "Cat", "A cat")
	assert.Equal(t, OutcomeInvalid, res.Outcome)
	assert.Equal(t, Errors{FieldFile: "File is required"}, res.Errors)
}

func TestSubmitWithoutRemoteURLIsBlocked(t *testing.T) {
	fx := newFixture()
	gate := fx.uploader.gate("cat.png")
	fx.form.Open()
	selectPNG(t, fx)

	res := fx.form.Submit(context.Background(), "Cat", "A cat")
	assert.Equal(t, OutcomeMissingImage, res.Outcome)
	assert.Empty(t, fx.creator.calls)
	assert.Equal(t, []notice.Notice{NoticeImageMissing}, fx.notices.Drain())

	// the late upload result must not leak into the reset form
	close(gate)
	fx.form.Wait()
	assert.Equal(t, View{}, fx.form.View())
}

func TestSubmitCreatesAndInvalidates(t *testing.T) {
	fx := newFixture()
	fx.form.Open()
	selectPNG(t, fx)
	fx.form.Wait()

	res := fx.form.Submit(context.Background(), "Cat", "A cat")
	require.Equal(t, OutcomeCreated, res.Outcome)
	assert.Equal(t, "new", res.Image.ID)
	assert.Equal(t, []model.CreateImageInput{{
		Title:       "Cat",
		Description: "A cat",
		URL:         "https://cdn.example/cat.png",
	}}, fx.creator.calls)
	assert.Equal(t, []string{gallery.QueryKey}, fx.cache.keys)
	assert.Equal(t, []notice.Notice{NoticeRegistered}, fx.notices.Drain())
	assert.Equal(t, View{}, fx.form.View())
}

func TestSubmitFailureResets(t *testing.T) {
	fx := newFixture()
	fx.creator.err = errors.New("boom")
	fx.form.Open()
	selectPNG(t, fx)
	fx.form.Wait()

	res := fx.form.Submit(context.Background(), "Cat", "A cat")
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Error(t, res.Err)
	assert.Empty(t, fx.cache.keys)
	assert.Equal(t, []notice.Notice{NoticeRegisterFailed}, fx.notices.Drain())
	assert.Equal(t, View{}, fx.form.View())
}

func TestReselectDiscardsEarlierUpload(t *testing.T) {
	fx := newFixture()
	gate := fx.uploader.gate("first.png")
	selectNamed(t, fx, "first.png")
	selectNamed(t, fx, "second.png")

	close(gate)
	fx.form.Wait()

	v := fx.form.View()
	assert.Equal(t, "second.png", v.FileName)
	assert.Equal(t, "https://cdn.example/second.png", v.ImageURL)
	assert.False(t, v.Uploading)
}

func TestClearFile(t *testing.T) {
	fx := newFixture()
	fx.form.Open()
	selectPNG(t, fx)
	fx.form.Wait()

	fx.form.ClearFile()
	v := fx.form.View()
	assert.True(t, v.Open)
	assert.Empty(t, v.FileName)
	assert.Empty(t, v.ImageURL)
	assert.Empty(t, v.LocalImageURL)

	res := fx.form.Submit(context.Background(), "Cat", "A cat")
	assert.Equal(t, Errors{FieldFile: "File is required"}, res.Errors)
}
