// Package web serves the browser pages: the chat, the full-adder demo and
// the circuit format documentation.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/circuitchat/internal/circuit"
	"github.com/ziadkadry99/circuitchat/internal/markdown"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed docs/circuit-format.md
var circuitFormatDoc []byte

// DefaultDigitalJSURL is where pages load the simulator from when no URL
// is configured.
const DefaultDigitalJSURL = "/static/digital.js"

// Options configures the pages.
type Options struct {
	// DigitalJSURL is the script URL of the browser simulator bundle.
	DigitalJSURL string
	// StaticDir, when set, is served under /static/.
	StaticDir string
}

// Site renders the pages.
type Site struct {
	opts  Options
	tmpl  *template.Template
	docs  template.HTML
	title string
}

type pageData struct {
	Title        string
	DigitalJSURL string
	Circuit      template.JS
	Docs         template.HTML
}

// New parses the templates and renders the documentation once.
func New(opts Options) (*Site, error) {
	if opts.DigitalJSURL == "" {
		opts.DigitalJSURL = DefaultDigitalJSURL
	}
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing page templates: %w", err)
	}

	src := append(append([]byte{}, circuitFormatDoc...), deviceReference()...)
	html, err := markdown.NewDocs().Render(src)
	if err != nil {
		return nil, fmt.Errorf("rendering docs: %w", err)
	}

	return &Site{
		opts:  opts,
		tmpl:  tmpl,
		docs:  template.HTML(html),
		title: markdown.Title(circuitFormatDoc, "Circuit format"),
	}, nil
}

// RegisterRoutes mounts the pages.
func (s *Site) RegisterRoutes(r chi.Router) {
	r.Get("/", s.page("chat", "circuitchat", ""))
	r.Get("/full-adder", s.page("fulladder", "Full adder", template.JS(circuit.FullAdder())))
	r.Get("/docs", s.page("docs", s.title, ""))
	if s.opts.StaticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(s.opts.StaticDir)))
		r.Get("/static/*", fs.ServeHTTP)
	}
}

func (s *Site) page(name, title string, circuitJSON template.JS) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		err := s.tmpl.ExecuteTemplate(&buf, name, pageData{
			Title:        title,
			DigitalJSURL: s.opts.DigitalJSURL,
			Circuit:      circuitJSON,
			Docs:         s.docs,
		})
		if err != nil {
			http.Error(w, "rendering page: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		buf.WriteTo(w)
	}
}

// deviceReference renders the device catalog as a markdown section.
func deviceReference() []byte {
	var b strings.Builder
	b.WriteString("\n## Device reference\n")
	var current circuit.Category
	for _, d := range circuit.DeviceTypes() {
		if d.Category != current {
			current = d.Category
			fmt.Fprintf(&b, "\n### %s\n\n| Type | Inputs | Outputs | Attributes |\n|---|---|---|---|\n", current)
		}
		fmt.Fprintf(&b, "| `%s` | %s | %s | %s |\n", d.Name, cell(d.Inputs), cell(d.Outputs), cell(d.Attributes))
	}
	return []byte(b.String())
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}
