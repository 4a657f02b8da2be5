package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"path"
	"strings"

	"github.com/a-h/templ"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// page is the only value templates see.
type page struct {
	Title   string
	Session Session
	// Private pages carry noindex and no-referrer meta tags.
	Private bool
	Notice  string
	Error   string
	Data    any
}

type renderer struct {
	pages  map[string]*template.Template
	logger *log.Logger
}

func newRenderer(f Formatter, logger *log.Logger) (*renderer, error) {
	funcs := template.FuncMap{
		"money":    f.Money,
		"count":    f.Count,
		"date":     f.Date,
		"datetime": f.DateTime,
	}
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("web: list templates: %w", err)
	}

	rd := &renderer{pages: make(map[string]*template.Template, len(files)), logger: logger}
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(file), ".html")
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("web: parse %s: %w", file, err)
		}
		rd.pages[name] = t
	}
	return rd, nil
}

func (rd *renderer) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	t, ok := rd.pages[name]
	if !ok {
		rd.logger.Printf("web: unknown template %q", name)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	p.Session = SessionFrom(r.Context())
	c := templ.FromGoHTML(t.Lookup("layout"), p)
	templ.Handler(c, templ.WithStatus(status)).ServeHTTP(w, r)
}

func (rd *renderer) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	rd.render(w, r, status, "error", page{Title: http.StatusText(status), Error: message})
}
