// Package web serves the server-rendered gallery page.
package web

import (
	"html/template"
	"strings"

	"github.com/leca/image-gallery/internal/gallery"
	"github.com/leca/image-gallery/internal/notice"
	"github.com/leca/image-gallery/internal/upload"
)

// View is everything the gallery page renders.
type View struct {
	Gallery GalleryView
	Upload  UploadView
	Preview PreviewView
	Notices []notice.Notice
}

// GalleryView is the projection of the paginated gallery.
type GalleryView struct {
	// Loading is the full-page state shown until the first page arrives.
	Loading bool
	// Failed is the full-page error state: the fetch failed and there is
	// nothing to show.
	Failed    bool
	ErrorText string

	Cards       []Card
	Empty       bool
	HasMore     bool
	LoadingMore bool
	MoreError   string
}

// Card is one image in the grid.
type Card struct {
	ID          string
	Title       string
	Description string
	URL         string
}

// UploadView is the projection of the upload form.
type UploadView struct {
	Open             bool
	Title            string
	Description      string
	FileName         string
	LocalImageURL    template.URL
	Uploading        bool
	Uploaded         bool
	Submitting       bool
	FileError        string
	TitleError       string
	DescriptionError string
}

type PreviewView struct {
	Open bool
	URL  string
}

// Project builds the page view. It has no side effects.
func Project(st gallery.State, pv PreviewView, form upload.View, notices []notice.Notice) View {
	return View{
		Gallery: ProjectGallery(st),
		Upload:  ProjectUpload(form),
		Preview: pv,
		Notices: notices,
	}
}

// ProjectGallery maps the gallery state onto the grid and its loading,
// error and load-more states.
func ProjectGallery(st gallery.State) GalleryView {
	if !st.HasData() {
		if st.IsError && !st.IsLoading {
			return GalleryView{Failed: true, ErrorText: errorText(st.Err)}
		}
		return GalleryView{Loading: true}
	}

	items := st.Items()
	gv := GalleryView{
		Cards:       make([]Card, 0, len(items)),
		Empty:       len(items) == 0,
		HasMore:     st.HasNextPage(),
		LoadingMore: st.IsFetchingNextPage,
	}
	for _, img := range items {
		gv.Cards = append(gv.Cards, Card{
			ID:          img.ID,
			Title:       img.Title,
			Description: img.Description,
			URL:         img.URL,
		})
	}
	if st.IsError {
		gv.MoreError = errorText(st.Err)
	}
	return gv
}

// ProjectUpload maps the form snapshot onto the modal.
func ProjectUpload(v upload.View) UploadView {
	uv := UploadView{
		Open:             v.Open,
		Title:            v.Title,
		Description:      v.Description,
		FileName:         v.FileName,
		Uploading:        v.Uploading,
		Uploaded:         v.ImageURL != "",
		Submitting:       v.Submitting,
		FileError:        v.Errors[upload.FieldFile],
		TitleError:       v.Errors[upload.FieldTitle],
		DescriptionError: v.Errors[upload.FieldDescription],
	}
	// The local preview is a data URL built from the decoded upload.
	if strings.HasPrefix(v.LocalImageURL, "data:image/") {
		uv.LocalImageURL = template.URL(v.LocalImageURL)
	}
	return uv
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
