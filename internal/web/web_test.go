package web

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newRouter(t *testing.T, opts Options) http.Handler {
	t.Helper()
	site, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r := chi.NewRouter()
	site.RegisterRoutes(r)
	return r
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestChatPage(t *testing.T) {
	h := newRouter(t, Options{DigitalJSURL: "https://cdn.example.com/digitaljs.js"})
	w := get(t, h, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{`src="https://cdn.example.com/digitaljs.js"`, "/ws/chat", "voice-in"} {
		if !strings.Contains(body, want) {
			t.Errorf("chat page missing %q", want)
		}
	}
}

func TestFullAdderPageEmbedsCircuit(t *testing.T) {
	w := get(t, newRouter(t, Options{}), "/full-adder")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"celltype"`) || !strings.Contains(body, "halfadder") {
		t.Error("full adder circuit not embedded")
	}
	if !strings.Contains(body, DefaultDigitalJSURL) {
		t.Error("default digitaljs URL not used")
	}
}

func TestDocsPage(t *testing.T) {
	w := get(t, newRouter(t, Options{}), "/docs")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"<title>Circuit format</title>", `id="device-reference"`, "<code>Subcircuit</code>", "<table>"} {
		if !strings.Contains(body, want) {
			t.Errorf("docs page missing %q", want)
		}
	}
}

func TestStaticDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "digital.js"), []byte("window.digitaljs = {};"), 0o644); err != nil {
		t.Fatal(err)
	}
	h := newRouter(t, Options{StaticDir: dir})
	w := get(t, h, "/static/digital.js")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "window.digitaljs") {
		t.Errorf("static file: %d %q", w.Code, w.Body.String())
	}
}
