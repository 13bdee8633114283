package main

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/TarekGIS4/bns-agriculture-project/logging"
)

//go:embed web/templates/*.html
var templateFS embed.FS

var pageNames = []string{"home.html", "ndvi.html", "bands.html"}

// parsePages pairs each page with the shared layout.
func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.ParseFS(templateFS, "web/templates/layout.html", "web/templates/"+name)
		if err != nil {
			return nil, err
		}
		pages[name] = t
	}
	return pages, nil
}

// render executes a page into a buffer first so a template error never leaves
// a half-written response.
func (a *App) render(w http.ResponseWriter, status int, page string, data pageData) {
	t, ok := a.pages[page]
	if !ok {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		logging.Errorw("render page", "page", page, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
