package circuitgen

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Literal markers the model is instructed to emit around its answer.
const (
	JSONStartMarker   = "```json"
	JSONEndMarker     = "```"
	ExplanationMarker = "--- Explanation ---"
)

// Explanation placeholders used when the model did not follow the format.
const (
	NoExplanationFormat    = "AI did not provide an explanation in the expected format."
	NoExplanationAfterJSON = "No explanation provided after JSON."
)

// Extraction is the result of slicing a model reply on its markers.
type Extraction struct {
	// JSON is the trimmed text inside the fenced block, not yet parsed.
	JSON        string
	Explanation string
}

// Extract locates the first ```json fence, the next closing fence after it,
// and the explanation section.
//
// The explanation marker is searched for in the whole text, so a marker
// inside the JSON body, or a second fence inside the explanation, is not
// guarded against.
func Extract(text string) (Extraction, error) {
	ex := Extraction{Explanation: NoExplanationFormat}

	start := strings.Index(text, JSONStartMarker)
	end := -1
	if start != -1 {
		body := start + len(JSONStartMarker)
		if i := strings.Index(text[body:], JSONEndMarker); i != -1 {
			end = body + i
			ex.JSON = strings.TrimSpace(text[body:end])
		}
	}

	if i := strings.Index(text, ExplanationMarker); i != -1 {
		ex.Explanation = strings.TrimSpace(text[i+len(ExplanationMarker):])
	} else if end != -1 {
		ex.Explanation = strings.TrimSpace(text[end+len(JSONEndMarker):])
		if ex.Explanation == "" {
			ex.Explanation = NoExplanationAfterJSON
		}
	}

	if ex.JSON == "" {
		return ex, &MissingBlockError{Text: text}
	}
	return ex, nil
}

// Parsed is a model reply whose JSON block parsed successfully.
type Parsed struct {
	CircuitJSON json.RawMessage
	Explanation string
}

// Parse extracts and validates the circuit JSON from a model reply. The
// JSON is compacted but otherwise passed through unchanged.
func Parse(text string) (*Parsed, error) {
	ex, err := Extract(text)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := json.Unmarshal([]byte(ex.JSON), &raw); err != nil {
		return nil, &InvalidJSONError{Candidate: ex.JSON, Explanation: ex.Explanation, Err: err}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, &InvalidJSONError{Candidate: ex.JSON, Explanation: ex.Explanation, Err: err}
	}
	return &Parsed{CircuitJSON: buf.Bytes(), Explanation: ex.Explanation}, nil
}
