// Package history records every circuit generation attempt and serves the
// record back for review and similar-prompt search.
package history

import (
	"encoding/json"
	"time"
)

// Status is the outcome of one generation attempt.
type Status string

const (
	StatusOK            Status = "ok"
	StatusNoJSONBlock   Status = "no_json_block"
	StatusInvalidJSON   Status = "invalid_json"
	StatusEmptyResponse Status = "empty_response"
	StatusUpstreamError Status = "upstream_error"
	StatusUnavailable   Status = "unavailable"
	StatusConfigError   Status = "config_error"
	StatusError         Status = "error"
)

// Entry is a single generation record.
type Entry struct {
	ID           string          `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	Prompt       string          `json:"prompt"`
	Status       Status          `json:"status"`
	CircuitJSON  json.RawMessage `json:"circuit_json,omitempty"`
	Explanation  string          `json:"explanation,omitempty"`
	RawText      string          `json:"raw_text,omitempty"`
	Error        string          `json:"error,omitempty"`
	Provider     string          `json:"provider"`
	Model        string          `json:"model"`
	InputTokens  int             `json:"input_tokens"`
	OutputTokens int             `json:"output_tokens"`
	CostUSD      float64         `json:"cost_usd"`
	Duration     time.Duration   `json:"duration_ns"`
	SessionID    string          `json:"session_id,omitempty"`
}

// Summary aggregates the table by outcome.
type Summary struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"by_status"`
	CostUSD  float64        `json:"cost_usd"`
}
