package circuit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrEmpty is returned for blank input.
	ErrEmpty = errors.New("circuit JSON is empty")
	// ErrNotObject is returned when the document is not a JSON object.
	ErrNotObject = errors.New("circuit JSON must be an object")
	// ErrMissingDevices is returned when "devices" is absent or not an object.
	ErrMissingDevices = errors.New(`circuit JSON must contain a "devices" object`)
	// ErrMissingConnectors is returned when "connectors" is absent or not an array.
	ErrMissingConnectors = errors.New(`circuit JSON must contain a "connectors" array`)
)

// ParseError reports pasted text that is not JSON at all.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidatePasted checks user-supplied circuit JSON before it may become the
// active circuit. Only the top-level shape is checked; port and bit-width
// rules are the simulator's business. The compacted document is returned.
func ValidatePasted(data []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmpty
	}

	var top any
	if err := json.Unmarshal(trimmed, &top); err != nil {
		return nil, &ParseError{Err: err}
	}
	obj, ok := top.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	if devices, ok := obj["devices"]; !ok || !isObject(devices) {
		return nil, ErrMissingDevices
	}
	if connectors, ok := obj["connectors"]; !ok || !isArray(connectors) {
		return nil, ErrMissingConnectors
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, &ParseError{Err: err}
	}
	return json.RawMessage(buf.Bytes()), nil
}

func isObject(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}

func isArray(v any) bool {
	_, ok := v.([]any)
	return ok
}
