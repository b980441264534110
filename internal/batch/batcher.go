// Package batch runs many circuit generation prompts concurrently.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ziadkadry99/circuitchat/internal/circuitgen"
	"github.com/ziadkadry99/circuitchat/internal/llm"
)

// Generator is the part of circuitgen.Generator a batch needs.
type Generator interface {
	Generate(ctx context.Context, req circuitgen.Request) (*circuitgen.Result, error)
}

// ProgressFunc is called after each prompt completes.
type ProgressFunc func(done, total int, prompt string)

// ErrQuotaExhausted marks prompts skipped after the provider ran out of quota.
var ErrQuotaExhausted = errors.New("skipped (API quota exhausted)")

// Batcher runs prompts through a generator with bounded parallelism.
type Batcher struct {
	concurrency int
	gen         Generator
	onProgress  ProgressFunc
}

// NewBatcher creates a new Batcher with the given concurrency limit.
func NewBatcher(concurrency int, gen Generator, onProgress ProgressFunc) *Batcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Batcher{
		concurrency: concurrency,
		gen:         gen,
		onProgress:  onProgress,
	}
}

// Item is the outcome of one prompt.
type Item struct {
	Prompt Prompt
	Result *circuitgen.Result
	Err    error
}

// Result holds every item, in input order, plus totals.
type Result struct {
	Items        []Item
	Failed       int
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

// Run generates a circuit for each prompt.
func (b *Batcher) Run(ctx context.Context, prompts []Prompt) *Result {
	total := len(prompts)
	result := &Result{Items: make([]Item, total)}
	if total == 0 {
		return result
	}

	// Circuit breaker: cancel remaining work if quota is exhausted.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var quotaExhausted atomic.Bool

	sem := make(chan struct{}, b.concurrency)
	var processed atomic.Int64
	done := func(p Prompt) {
		count := processed.Add(1)
		if b.onProgress != nil {
			b.onProgress(int(count), total, p.Text)
		}
	}

	var wg sync.WaitGroup
	for i, p := range prompts {
		result.Items[i].Prompt = p

		if quotaExhausted.Load() {
			result.Items[i].Err = ErrQuotaExhausted
			done(p)
			continue
		}

		select {
		case <-ctx.Done():
			result.Items[i].Err = ctx.Err()
			if quotaExhausted.Load() {
				result.Items[i].Err = ErrQuotaExhausted
			}
			done(p)
			continue
		case sem <- struct{}{}:
		}

		// The slot may have been freed by the request that tripped the breaker.
		if quotaExhausted.Load() {
			<-sem
			result.Items[i].Err = ErrQuotaExhausted
			done(p)
			continue
		}

		wg.Add(1)
		go func(i int, p Prompt) {
			defer wg.Done()
			defer func() { <-sem }()

			res, err := b.gen.Generate(ctx, circuitgen.Request{Prompt: p.Text})
			// Each goroutine owns its slot; no lock needed.
			result.Items[i].Result = res
			result.Items[i].Err = err
			if isQuotaError(err) {
				quotaExhausted.Store(true)
				cancel()
			}
			done(p)
		}(i, p)
	}
	wg.Wait()

	for _, it := range result.Items {
		if it.Err != nil {
			result.Failed++
			continue
		}
		if it.Result != nil {
			result.InputTokens += it.Result.Usage.InputTokens
			result.OutputTokens += it.Result.Usage.OutputTokens
			result.CostUSD += it.Result.Usage.CostUSD
		}
	}
	return result
}

func isQuotaError(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *llm.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(msg, "quota")
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a prompt into a short file-name-safe string.
func Slug(s string) string {
	s = strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if len(s) > 48 {
		s = strings.TrimRight(s[:48], "-")
	}
	if s == "" {
		s = "circuit"
	}
	return s
}

// output is the on-disk record of one successful prompt.
type output struct {
	Prompt       string          `json:"prompt"`
	CircuitJSON  json.RawMessage `json:"circuitJson"`
	Explanation  string          `json:"explanation"`
	GenerationID string          `json:"generationId,omitempty"`
	Warnings     []string        `json:"warnings,omitempty"`
}

// WriteOutputs writes one JSON file per successful item into dir and
// returns the paths written.
func WriteOutputs(dir string, items []Item) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	var paths []string
	for i, it := range items {
		if it.Err != nil || it.Result == nil {
			continue
		}
		data, err := json.MarshalIndent(output{
			Prompt:       it.Prompt.Text,
			CircuitJSON:  it.Result.CircuitJSON,
			Explanation:  it.Result.Explanation,
			GenerationID: it.Result.GenerationID,
			Warnings:     it.Result.Warnings,
		}, "", "  ")
		if err != nil {
			return paths, fmt.Errorf("encoding %q: %w", it.Prompt.Text, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("%03d-%s.json", i+1, Slug(it.Prompt.Text)))
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			return paths, fmt.Errorf("writing %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
