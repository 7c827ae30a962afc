package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates/layouts/*.html
var layoutFS embed.FS

//go:embed templates/views/*.html
var viewFS embed.FS

const layout = "app.html"

// PageDef defines a page with its template file and title.
type PageDef struct {
	Template string
	Title    string
}

var (
	galleryPage  = PageDef{Template: "gallery.html", Title: "Gallery"}
	notFoundPage = PageDef{Template: "404.html", Title: "Not Found"}
)

// PageData contains the data passed to page templates during rendering.
type PageData struct {
	Title string
	Data  any
}

// TemplateSet holds one pre-parsed template per page, each a clone of the
// shared layouts.
type TemplateSet struct {
	pages map[string]*template.Template
}

// NewTemplateSet parses the layouts matched by layoutGlob and clones them
// for each page found under pageSubdir.
func NewTemplateSet(layoutFS, pageFS fs.FS, layoutGlob, pageSubdir string, pages []PageDef) (*TemplateSet, error) {
	layouts, err := template.ParseFS(layoutFS, layoutGlob)
	if err != nil {
		return nil, err
	}

	pageSub, err := fs.Sub(pageFS, pageSubdir)
	if err != nil {
		return nil, err
	}

	pageTemplates := make(map[string]*template.Template, len(pages))
	for _, p := range pages {
		t, err := layouts.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layouts for %s: %w", p.Template, err)
		}
		_, err = t.ParseFS(pageSub, p.Template)
		if err != nil {
			return nil, fmt.Errorf("parse template: %s: %w", p.Template, err)
		}
		pageTemplates[p.Template] = t
	}

	return &TemplateSet{pages: pageTemplates}, nil
}

func newDefaultTemplateSet() (*TemplateSet, error) {
	return NewTemplateSet(layoutFS, viewFS, "templates/layouts/*.html", "templates/views",
		[]PageDef{galleryPage, notFoundPage})
}

// ErrorHandler returns an HTTP handler that renders page with the given
// status code.
func (ts *TemplateSet) ErrorHandler(page PageDef, status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		data := PageData{Title: page.Title}
		if err := ts.execute(w, page.Template, data); err != nil {
			http.Error(w, http.StatusText(status), status)
		}
	}
}

// Render executes the layout with the given page data. It sets the
// Content-Type header to text/html.
func (ts *TemplateSet) Render(w http.ResponseWriter, page PageDef, data PageData) error {
	if _, ok := ts.pages[page.Template]; !ok {
		return fmt.Errorf("template not found: %s", page.Template)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return ts.execute(w, page.Template, data)
}

func (ts *TemplateSet) execute(w http.ResponseWriter, pagePath string, data PageData) error {
	t, ok := ts.pages[pagePath]
	if !ok {
		return fmt.Errorf("template not found: %s", pagePath)
	}
	return t.ExecuteTemplate(w, layout, data)
}
