package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ziadkadry99/circuitchat/internal/llm"
)

func noKeys(string) string { return "" }

func TestNewDisabled(t *testing.T) {
	for _, p := range []string{"", "none"} {
		e, err := New(p, "", noKeys)
		if err != nil || e != nil {
			t.Errorf("New(%q) = %v, %v; want nil, nil", p, e, err)
		}
	}
}

func TestNewMissingKey(t *testing.T) {
	_, err := New("openai", "", noKeys)
	if !errors.Is(err, llm.ErrMissingAPIKey) {
		t.Errorf("err = %v, want ErrMissingAPIKey", err)
	}
	if _, err := New("bogus", "", noKeys); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewDefaults(t *testing.T) {
	keys := func(string) string { return "k" }
	e, err := New("google", "", keys)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if e.Name() != string(ModelGeminiEmbedding001) || e.Dimensions() != 3072 {
		t.Errorf("google embedder = %s/%d", e.Name(), e.Dimensions())
	}

	o, err := New("ollama", "", keys)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if o.Name() != "ollama/nomic-embed-text" {
		t.Errorf("ollama Name() = %q", o.Name())
	}
}

func TestGoogleEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":embedContent") {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"embedding": map[string]any{"values": []float32{0.1, 0.2}},
		})
	}))
	defer srv.Close()

	e := NewGoogleEmbedder("k", ModelTextEmbedding004).WithBaseURL(srv.URL)
	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 2 || len(vecs[0]) != 2 {
		t.Errorf("vecs = %v", vecs)
	}

	fn := ToChromemFunc(e)
	v, err := fn(context.Background(), "x")
	if err != nil || len(v) != 2 {
		t.Errorf("chromem func = %v, %v", v, err)
	}
}

func TestOllamaEmbedStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder("nomic-embed-text", 768, srv.URL)
	_, err := e.Embed(context.Background(), []string{"x"})
	var se *llm.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Fatalf("err = %v, want 404 StatusError", err)
	}
}
