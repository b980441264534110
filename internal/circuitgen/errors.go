package circuitgen

import (
	"context"
	"errors"
	"fmt"

	"github.com/ziadkadry99/circuitchat/internal/history"
	"github.com/ziadkadry99/circuitchat/internal/llm"
)

var (
	// ErrEmptyPrompt is returned when the user supplied no prompt.
	ErrEmptyPrompt = errors.New("prompt is required")
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("no content generated by AI")
	// ErrNoJSONBlock matches every *MissingBlockError.
	ErrNoJSONBlock = errors.New("AI response did not contain a valid JSON block")
)

// MissingBlockError carries the raw model text when no fenced JSON block
// could be located in it.
type MissingBlockError struct {
	Text string
}

func (e *MissingBlockError) Error() string {
	return ErrNoJSONBlock.Error()
}

func (e *MissingBlockError) Is(target error) bool {
	return target == ErrNoJSONBlock
}

// InvalidJSONError is returned when the fenced block does not parse. The
// extracted explanation is kept so callers can still show it.
type InvalidJSONError struct {
	Candidate   string
	Explanation string
	Err         error
}

func (e *InvalidJSONError) Error() string {
	return fmt.Sprintf("AI generated invalid JSON: %v", e.Err)
}

func (e *InvalidJSONError) Unwrap() error { return e.Err }

// Classify maps a generation error to the status recorded in history.
func Classify(err error) history.Status {
	var (
		statusErr  *llm.StatusError
		transport  *llm.TransportError
		invalidErr *InvalidJSONError
	)
	switch {
	case err == nil:
		return history.StatusOK
	case errors.Is(err, llm.ErrMissingAPIKey):
		return history.StatusConfigError
	case errors.As(err, &statusErr):
		return history.StatusUpstreamError
	case errors.As(err, &transport), errors.Is(err, context.DeadlineExceeded):
		return history.StatusUnavailable
	case errors.Is(err, ErrEmptyResponse):
		return history.StatusEmptyResponse
	case errors.Is(err, ErrNoJSONBlock):
		return history.StatusNoJSONBlock
	case errors.As(err, &invalidErr):
		return history.StatusInvalidJSON
	default:
		return history.StatusError
	}
}
