// Package web holds the storefront's HTML templates and static assets.
package web

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"github.com/pkg/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// PlaceholderImage is shown for products without an image.
const PlaceholderImage = "https://via.placeholder.com/300"

// Renderer executes the page layout with the storefront's helper funcs.
type Renderer struct {
	t *template.Template
}

// NewRenderer parses the embedded templates. funcs must provide every helper
// the templates call (price, amount, subtotal).
func NewRenderer(funcs template.FuncMap) (*Renderer, error) {
	all := template.FuncMap{
		"image": func(s string) string {
			if s == "" {
				return PlaceholderImage
			}
			return s
		},
	}
	for k, v := range funcs {
		all[k] = v
	}
	t, err := template.New("layout.html").Funcs(all).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse templates")
	}
	return &Renderer{t: t}, nil
}

// Render writes the full page for data.
func (r *Renderer) Render(w io.Writer, data any) error {
	return r.t.ExecuteTemplate(w, "layout.html", data)
}

// Static serves the embedded stylesheet and friends.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
