// Package circuitgen turns natural-language circuit requests into digitaljs
// circuit JSON by prompting an LLM and slicing its reply, and proxies
// circuit analysis requests to the same model.
package circuitgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/circuitchat/internal/circuit"
	"github.com/ziadkadry99/circuitchat/internal/history"
	"github.com/ziadkadry99/circuitchat/internal/llm"
	"github.com/ziadkadry99/circuitchat/internal/logging"
	"github.com/ziadkadry99/circuitchat/internal/metrics"
)

// DefaultTimeout bounds one upstream call when Options.Timeout is zero.
const DefaultTimeout = 120 * time.Second

// Recorder persists generation attempts.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) (string, error)
}

// Options configures a Generator. Every field is optional.
type Options struct {
	Model   string
	Timeout time.Duration
	// MaxTokens caps the model's output; zero leaves the provider default.
	MaxTokens int
	Logger    *zap.Logger
	Recorder  Recorder
	Metrics   *metrics.Registry
}

// Generator runs circuit generation and analysis against one provider.
type Generator struct {
	provider  llm.Provider
	model     string
	timeout   time.Duration
	maxTokens int
	logger    *zap.Logger
	recorder  Recorder
	metrics   *metrics.Registry
}

// New creates a Generator.
func New(provider llm.Provider, opts Options) *Generator {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Generator{
		provider:  provider,
		model:     opts.Model,
		timeout:   timeout,
		maxTokens: opts.MaxTokens,
		logger:    logging.OrNop(opts.Logger),
		recorder:  opts.Recorder,
		metrics:   opts.Metrics,
	}
}

// Provider returns the name of the underlying provider.
func (g *Generator) Provider() string {
	return g.provider.Name()
}

// Request is one circuit generation request.
type Request struct {
	Prompt string
	// SessionID links the attempt to a chat session in history.
	SessionID string
}

// Result is a successfully generated circuit.
type Result struct {
	CircuitJSON  json.RawMessage
	Explanation  string
	GenerationID string
	// Warnings are advisory findings from circuit.Inspect.
	Warnings []string
	Usage    Usage
}

// Usage reports what the upstream call consumed.
type Usage struct {
	Model        string        `json:"model"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	CostUSD      float64       `json:"cost_usd"`
	Duration     time.Duration `json:"duration_ns"`
}

func (g *Generator) complete(ctx context.Context, prompt string) (*llm.CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := llm.UserPrompt(g.model, prompt)
	req.MaxTokens = g.maxTokens
	return g.provider.Complete(ctx, req)
}

// Generate builds the generation prompt for req, calls the model, and
// extracts the circuit JSON and explanation from its reply. Every attempt,
// failed or not, is recorded and counted.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	start := time.Now()
	log := g.logger.With(zap.String("provider", g.provider.Name()), zap.String("session", req.SessionID))
	log.Info("circuit generation requested", zap.String("prompt", req.Prompt))

	prompt := GenerationPrompt(req.Prompt)
	entry := history.Entry{
		Prompt:    req.Prompt,
		Provider:  g.provider.Name(),
		Model:     g.model,
		SessionID: req.SessionID,
	}

	resp, err := g.complete(ctx, prompt)
	if err == nil {
		entry.RawText = resp.Content
		if resp.Model != "" {
			entry.Model = resp.Model
		}
		entry.InputTokens = resp.InputTokens
		entry.OutputTokens = resp.OutputTokens
		entry.CostUSD = llm.EstimateUsageCost(resp, prompt)
		if g.metrics != nil {
			g.metrics.RecordUsage(g.provider.Name(), resp.InputTokens, resp.OutputTokens, entry.CostUSD)
		}
		log.Debug("model responded",
			zap.Int("input_tokens", resp.InputTokens),
			zap.Int("output_tokens", resp.OutputTokens),
			zap.String("finish_reason", resp.FinishReason),
			zap.String("text", resp.Content))

		if resp.Content == "" {
			err = ErrEmptyResponse
		}
	}

	var parsed *Parsed
	if err == nil {
		parsed, err = Parse(resp.Content)
	}

	if err != nil {
		entry.Status = Classify(err)
		entry.Error = err.Error()
		var ij *InvalidJSONError
		if errors.As(err, &ij) {
			entry.Explanation = ij.Explanation
			log.Warn("model produced invalid JSON",
				zap.String("candidate", logging.Truncate(ij.Candidate, 4096)),
				zap.String("explanation", ij.Explanation),
				zap.Error(ij.Err))
		} else {
			log.Error("circuit generation failed", zap.String("status", string(entry.Status)), zap.Error(err))
		}
		g.finish(ctx, &entry, start)
		return nil, err
	}

	log.Debug("extracted circuit",
		zap.ByteString("circuit_json", parsed.CircuitJSON),
		zap.String("explanation", parsed.Explanation))

	result := &Result{
		CircuitJSON: parsed.CircuitJSON,
		Explanation: parsed.Explanation,
		Warnings:    inspect(parsed.CircuitJSON),
	}
	if len(result.Warnings) > 0 {
		log.Info("circuit has warnings", zap.Strings("warnings", result.Warnings))
	}

	entry.Status = history.StatusOK
	entry.CircuitJSON = parsed.CircuitJSON
	entry.Explanation = parsed.Explanation
	result.GenerationID = g.finish(ctx, &entry, start)
	result.Usage = Usage{
		Model:        entry.Model,
		InputTokens:  entry.InputTokens,
		OutputTokens: entry.OutputTokens,
		CostUSD:      entry.CostUSD,
		Duration:     entry.Duration,
	}
	log.Info("circuit generated",
		zap.String("generation_id", result.GenerationID),
		zap.Duration("duration", entry.Duration))
	return result, nil
}

// finish stamps the duration, records the attempt and returns its id.
// Recording failures are logged; they never change the caller's outcome.
func (g *Generator) finish(ctx context.Context, entry *history.Entry, start time.Time) string {
	entry.Duration = time.Since(start)
	if g.metrics != nil {
		g.metrics.RecordGeneration(entry.Provider, string(entry.Status), entry.Duration)
	}
	if g.recorder == nil {
		return ""
	}
	// The request context may already be cancelled; the record still matters.
	id, err := g.recorder.Record(context.WithoutCancel(ctx), *entry)
	if err != nil {
		g.logger.Warn("recording generation failed", zap.Error(err))
		return ""
	}
	return id
}

func inspect(raw json.RawMessage) []string {
	c, err := circuit.Decode(raw)
	if err != nil {
		return []string{fmt.Sprintf("circuit does not match the digitaljs document shape: %v", err)}
	}
	return circuit.Inspect(c).Warnings
}

// Analyze asks the model to review circuitJSON and returns its raw reply,
// or NoSuggestions when the reply is empty.
func (g *Generator) Analyze(ctx context.Context, circuitJSON string) (string, error) {
	log := g.logger.With(zap.String("provider", g.provider.Name()))
	log.Info("circuit analysis requested", zap.Int("circuit_bytes", len(circuitJSON)))

	resp, err := g.complete(ctx, AnalysisPrompt(circuitJSON))
	status := string(Classify(err))
	if g.metrics != nil {
		g.metrics.RecordAnalysis(g.provider.Name(), status)
	}
	if err != nil {
		log.Error("circuit analysis failed", zap.String("status", status), zap.Error(err))
		return "", err
	}
	if g.metrics != nil {
		g.metrics.RecordUsage(g.provider.Name(), resp.InputTokens, resp.OutputTokens, llm.EstimateUsageCost(resp, circuitJSON))
	}
	log.Debug("analysis reply", zap.String("text", resp.Content))

	if resp.Content == "" {
		return NoSuggestions, nil
	}
	return resp.Content, nil
}
