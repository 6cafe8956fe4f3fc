package web

import (
	"embed"
	"html/template"
	"io/fs"
	"strings"
	"sync"
)

//go:embed *.html app.css
var content embed.FS

var (
	tmpl *template.Template
	once sync.Once
)

// Templates returns the parsed HTML templates for the UI, embedded at
// build time. layout.html dispatches to the per-page templates defined
// in pages.html via the PageTemplate field.
func Templates() *template.Template {
	once.Do(func() {
		funcs := template.FuncMap{
			// Page names are stored with underscores; the nav shows them
			// with spaces.
			"pretty": func(s string) string { return strings.ReplaceAll(s, "_", " ") },
		}
		tmpl = template.Must(template.New("").Funcs(funcs).ParseFS(content, "*.html"))
	})
	return tmpl
}

// StaticFS exposes embedded static assets such as CSS.
func StaticFS() fs.FS {
	return content
}
