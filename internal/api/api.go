// Package api serves the JSON endpoints used by the chat page and by
// scripted clients.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/circuitchat/internal/circuitgen"
	"github.com/ziadkadry99/circuitchat/internal/llm"
	"github.com/ziadkadry99/circuitchat/internal/logging"
)

// Service is the generation backend the handlers call.
type Service interface {
	Generate(ctx context.Context, req circuitgen.Request) (*circuitgen.Result, error)
	Analyze(ctx context.Context, circuitJSON string) (string, error)
	Provider() string
}

// maxBodyBytes bounds request bodies; circuits are small documents.
const maxBodyBytes = 1 << 20

// RegisterRoutes mounts the generation, analysis and circuit endpoints.
func RegisterRoutes(r chi.Router, svc Service, logger *zap.Logger) {
	logger = logging.OrNop(logger)
	r.Route("/api", func(r chi.Router) {
		r.Post("/generate-circuit", handleGenerate(svc, logger))
		r.Post("/ai-assist", handleAnalyze(svc, logger))
		r.Route("/circuits", func(r chi.Router) {
			r.Post("/validate", handleValidate())
			r.Get("/examples/full-adder", handleFullAdder())
			r.Get("/device-types", handleDeviceTypes())
		})
	})
}

// ErrorBody is the failure payload of /api/generate-circuit.
type ErrorBody struct {
	Error             string `json:"error"`
	Details           string `json:"details,omitempty"`
	Explanation       string `json:"explanation,omitempty"`
	ParseErrorMessage string `json:"parseErrorMessage,omitempty"`
}

// GenerateResponse is the success payload of /api/generate-circuit.
type GenerateResponse struct {
	CircuitJSON  json.RawMessage `json:"circuitJson"`
	Explanation  string          `json:"explanation"`
	GenerationID string          `json:"generationId,omitempty"`
	Warnings     []string        `json:"warnings,omitempty"`
}

type generateRequest struct {
	Prompt    string `json:"prompt"`
	SessionID string `json:"sessionId,omitempty"`
}

func handleGenerate(svc Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorBody{Error: "Invalid request body.", Details: err.Error()})
			return
		}

		res, err := svc.Generate(r.Context(), circuitgen.Request{Prompt: req.Prompt, SessionID: req.SessionID})
		if err != nil {
			status, body := GenerateError(svc.Provider(), err)
			logger.Debug("generate-circuit failed", zap.Int("status", status), zap.String("error", body.Error))
			writeJSON(w, status, body)
			return
		}

		writeJSON(w, http.StatusOK, GenerateResponse{
			CircuitJSON:  res.CircuitJSON,
			Explanation:  res.Explanation,
			GenerationID: res.GenerationID,
			Warnings:     res.Warnings,
		})
	}
}

// GenerateError maps a generation error to its HTTP status and payload.
func GenerateError(provider string, err error) (int, ErrorBody) {
	var (
		statusErr  *llm.StatusError
		transport  *llm.TransportError
		missing    *circuitgen.MissingBlockError
		invalidErr *circuitgen.InvalidJSONError
	)
	switch {
	case errors.Is(err, circuitgen.ErrEmptyPrompt):
		return http.StatusBadRequest, ErrorBody{Error: "Prompt is required."}
	case errors.Is(err, llm.ErrMissingAPIKey):
		return http.StatusInternalServerError, ErrorBody{Error: "API key not configured."}
	case errors.As(err, &statusErr):
		return statusErr.StatusCode, ErrorBody{
			Error:   fmt.Sprintf("%s API request failed with status %d.", llm.DisplayName(provider), statusErr.StatusCode),
			Details: statusErr.Body,
		}
	case errors.As(err, &transport):
		return http.StatusServiceUnavailable, ErrorBody{
			Error:   "Network error connecting to AI service.",
			Details: transport.Err.Error(),
		}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, ErrorBody{
			Error:   "Network error connecting to AI service.",
			Details: err.Error(),
		}
	case errors.Is(err, circuitgen.ErrEmptyResponse):
		return http.StatusInternalServerError, ErrorBody{Error: "No content generated by AI."}
	case errors.As(err, &missing):
		return http.StatusInternalServerError, ErrorBody{
			Error:   "AI response did not contain a valid JSON block.",
			Details: missing.Text,
		}
	case errors.As(err, &invalidErr):
		return http.StatusInternalServerError, ErrorBody{
			Error:             "AI generated invalid JSON.",
			Details:           invalidErr.Candidate,
			Explanation:       invalidErr.Explanation,
			ParseErrorMessage: invalidErr.Err.Error(),
		}
	default:
		return http.StatusInternalServerError, ErrorBody{Error: "Internal server error.", Details: err.Error()}
	}
}

// AnalyzeResponse is every payload of /api/ai-assist, success or not.
type AnalyzeResponse struct {
	Result string `json:"result"`
}

type analyzeRequest struct {
	// Circuit is usually a JSON string holding the serialized circuit, but
	// a raw JSON object is accepted too.
	Circuit json.RawMessage `json:"circuit"`
}

func (a analyzeRequest) circuitText() string {
	var s string
	if err := json.Unmarshal(a.Circuit, &s); err == nil {
		return s
	}
	return string(a.Circuit)
}

func handleAnalyze(svc Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req analyzeRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeJSON(w, http.StatusInternalServerError, AnalyzeResponse{Result: "Error processing request: " + err.Error()})
			return
		}
		if len(req.Circuit) == 0 || string(req.Circuit) == "null" {
			writeJSON(w, http.StatusBadRequest, AnalyzeResponse{Result: "Circuit is required."})
			return
		}

		out, err := svc.Analyze(r.Context(), req.circuitText())
		if err != nil {
			status, body := AnalyzeError(err)
			logger.Debug("ai-assist failed", zap.Int("status", status), zap.Error(err))
			writeJSON(w, status, body)
			return
		}
		writeJSON(w, http.StatusOK, AnalyzeResponse{Result: out})
	}
}

// AnalyzeError maps an analysis error to its HTTP status and payload.
func AnalyzeError(err error) (int, AnalyzeResponse) {
	var statusErr *llm.StatusError
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		return http.StatusInternalServerError, AnalyzeResponse{Result: "API key not configured."}
	case errors.As(err, &statusErr):
		text := statusErr.Status
		if text == "" {
			text = http.StatusText(statusErr.StatusCode)
		}
		return statusErr.StatusCode, AnalyzeResponse{Result: "Error from AI service: " + text}
	default:
		return http.StatusInternalServerError, AnalyzeResponse{Result: "Error processing request: " + err.Error()}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
