package batch

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ziadkadry99/circuitchat/internal/circuitgen"
	"github.com/ziadkadry99/circuitchat/internal/llm"
)

// mockGenerator answers every prompt with an empty circuit, or fails
// prompts listed in fail.
type mockGenerator struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (m *mockGenerator) Generate(_ context.Context, req circuitgen.Request) (*circuitgen.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req.Prompt)
	m.mu.Unlock()
	if err := m.fail[req.Prompt]; err != nil {
		return nil, err
	}
	return &circuitgen.Result{
		CircuitJSON: json.RawMessage(`{"devices":{},"connectors":[]}`),
		Explanation: "Explains " + req.Prompt,
		Usage:       circuitgen.Usage{InputTokens: 10, OutputTokens: 5, CostUSD: 0.01},
	}, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReadPrompts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.txt")
	writeFile(t, path, "# adders\nhalf adder\n\n  full adder  \n")

	prompts, err := ReadPrompts(path)
	if err != nil {
		t.Fatalf("ReadPrompts: %v", err)
	}
	if len(prompts) != 2 {
		t.Fatalf("got %d prompts, want 2", len(prompts))
	}
	if prompts[0].Text != "half adder" || prompts[0].Line != 2 {
		t.Errorf("first prompt = %+v", prompts[0])
	}
	if prompts[1].Text != "full adder" || prompts[1].Line != 4 {
		t.Errorf("second prompt = %+v", prompts[1])
	}
}

func TestExpandPatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "x")
	writeFile(t, filepath.Join(dir, "nested", "deep", "b.txt"), "y")
	writeFile(t, filepath.Join(dir, "nested", "c.json"), "{}")

	files, err := ExpandPatterns([]string{filepath.Join(dir, "**", "*.txt"), filepath.Join(dir, "a.txt")})
	if err != nil {
		t.Fatalf("ExpandPatterns: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %v, want 2 files", files)
	}
	for _, f := range files {
		if !strings.HasSuffix(f, ".txt") {
			t.Errorf("unexpected match %s", f)
		}
	}

	if _, err := ExpandPatterns([]string{filepath.Join(dir, "*.yaml")}); err == nil {
		t.Error("expected error for pattern with no matches")
	}
}

func TestBatcherRun(t *testing.T) {
	gen := &mockGenerator{fail: map[string]error{"broken": errors.New("boom")}}
	var progressCalls int
	var mu sync.Mutex
	b := NewBatcher(2, gen, func(done, total int, prompt string) {
		mu.Lock()
		progressCalls++
		mu.Unlock()
	})

	prompts := []Prompt{{Text: "and gate"}, {Text: "broken"}, {Text: "mux"}}
	res := b.Run(context.Background(), prompts)

	if len(res.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(res.Items))
	}
	for i, it := range res.Items {
		if it.Prompt.Text != prompts[i].Text {
			t.Errorf("item %d out of order: %q", i, it.Prompt.Text)
		}
	}
	if res.Failed != 1 || res.Items[1].Err == nil {
		t.Errorf("failed = %d, item err = %v", res.Failed, res.Items[1].Err)
	}
	if res.InputTokens != 20 || res.OutputTokens != 10 {
		t.Errorf("tokens = %d/%d, want 20/10", res.InputTokens, res.OutputTokens)
	}
	if progressCalls != 3 {
		t.Errorf("progress called %d times, want 3", progressCalls)
	}
}

func TestBatcherStopsOnQuota(t *testing.T) {
	gen := &mockGenerator{fail: map[string]error{
		"first": &llm.StatusError{Provider: "google", StatusCode: 429, Body: "RESOURCE_EXHAUSTED"},
	}}
	b := NewBatcher(1, gen, nil)

	res := b.Run(context.Background(), []Prompt{{Text: "first"}, {Text: "second"}, {Text: "third"}})

	if res.Failed != 3 {
		t.Fatalf("failed = %d, want 3", res.Failed)
	}
	for _, it := range res.Items[1:] {
		if !errors.Is(it.Err, ErrQuotaExhausted) && !errors.Is(it.Err, context.Canceled) {
			t.Errorf("%q: err = %v, want quota skip", it.Prompt.Text, it.Err)
		}
	}
	if len(gen.calls) != 1 {
		t.Errorf("generator called %d times after quota error, want 1", len(gen.calls))
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"4-bit Ripple Carry Adder!": "4-bit-ripple-carry-adder",
		"???":                       "circuit",
		strings.Repeat("a", 60):     strings.Repeat("a", 48),
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteOutputs(t *testing.T) {
	dir := t.TempDir()
	items := []Item{
		{Prompt: Prompt{Text: "half adder"}, Result: &circuitgen.Result{
			CircuitJSON: json.RawMessage(`{"devices":{},"connectors":[]}`),
			Explanation: "Sum and carry.",
		}},
		{Prompt: Prompt{Text: "broken"}, Err: errors.New("boom")},
	}

	paths, err := WriteOutputs(dir, items)
	if err != nil {
		t.Fatalf("WriteOutputs: %v", err)
	}
	if len(paths) != 1 || filepath.Base(paths[0]) != "001-half-adder.json" {
		t.Fatalf("paths = %v", paths)
	}

	data, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got["prompt"] != "half adder" || got["explanation"] != "Sum and carry." {
		t.Errorf("output = %v", got)
	}
}
