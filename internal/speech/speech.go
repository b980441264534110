// Package speech defines the voice capabilities a chat session can use.
// Implementations are supplied by the client; Nop stands in when the
// client has none.
package speech

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrUnsupported is returned when the client cannot provide a capability.
var ErrUnsupported = errors.New("speech is not supported by this client")

// Result is one recognition result. Interim results may later be replaced
// by a final one covering the same speech.
type Result struct {
	Transcript string `json:"transcript"`
	Final      bool   `json:"final"`
}

// Recognizer turns speech into text. Handlers registered with OnResult and
// OnError receive every batch of results and every failure; passing nil
// detaches them.
type Recognizer interface {
	StartListening(ctx context.Context) error
	StopListening() error
	OnResult(fn func([]Result))
	OnError(fn func(error))
}

// Synthesizer reads text aloud.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
	Cancel() error
}

// Nop implements both capabilities for clients without speech support.
type Nop struct{}

func (Nop) StartListening(context.Context) error { return ErrUnsupported }
func (Nop) StopListening() error                 { return nil }
func (Nop) OnResult(func([]Result))              {}
func (Nop) OnError(func(error))                  {}
func (Nop) Speak(context.Context, string) error  { return ErrUnsupported }
func (Nop) Cancel() error                        { return nil }

// ListeningPlaceholder is shown while nothing has been recognized yet.
const ListeningPlaceholder = "Listening..."

// Transcript aggregates results for display: the concatenated final
// results if any, else the concatenated interim ones, else the placeholder.
func Transcript(results []Result) string {
	var final, interim strings.Builder
	for _, r := range results {
		if r.Final {
			final.WriteString(r.Transcript)
		} else {
			interim.WriteString(r.Transcript)
		}
	}
	if final.Len() > 0 {
		return final.String()
	}
	if interim.Len() > 0 {
		return interim.String()
	}
	return ListeningPlaceholder
}

// FinalText returns only the concatenated final results, trimmed.
func FinalText(results []Result) string {
	var b strings.Builder
	for _, r := range results {
		if r.Final {
			b.WriteString(r.Transcript)
		}
	}
	return strings.TrimSpace(b.String())
}

// Toggle runs voice input for a session. While on, interim transcripts go
// to onInterim and each non-empty final transcript goes to onFinal.
type Toggle struct {
	mu         sync.Mutex
	recognizer Recognizer
	listening  bool

	onInterim func(string)
	onFinal   func(string)
	onError   func(error)
}

// NewToggle wires a recognizer to the session callbacks. Any callback may
// be nil.
func NewToggle(r Recognizer, onInterim, onFinal func(string), onError func(error)) *Toggle {
	if r == nil {
		r = Nop{}
	}
	return &Toggle{recognizer: r, onInterim: onInterim, onFinal: onFinal, onError: onError}
}

// Listening reports whether voice input is on.
func (t *Toggle) Listening() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.listening
}

// Set turns voice input on or off. Turning it on attaches handlers and
// starts listening; turning it off stops and detaches them.
func (t *Toggle) Set(ctx context.Context, on bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if on == t.listening {
		return nil
	}
	if !on {
		err := t.recognizer.StopListening()
		t.recognizer.OnResult(nil)
		t.recognizer.OnError(nil)
		t.listening = false
		return err
	}

	t.recognizer.OnResult(t.handleResults)
	t.recognizer.OnError(t.handleError)
	if err := t.recognizer.StartListening(ctx); err != nil {
		t.recognizer.OnResult(nil)
		t.recognizer.OnError(nil)
		return err
	}
	t.listening = true
	return nil
}

func (t *Toggle) handleResults(results []Result) {
	// Results racing a toggle-off or an error are dropped.
	if !t.Listening() {
		return
	}
	if t.onInterim != nil {
		t.onInterim(Transcript(results))
	}
	if text := FinalText(results); text != "" && t.onFinal != nil {
		t.onFinal(text)
	}
}

// handleError turns voice input off as Set(false) would, so a later toggle
// starts from a clean recognizer.
func (t *Toggle) handleError(err error) {
	t.mu.Lock()
	if t.listening {
		_ = t.recognizer.StopListening()
		t.recognizer.OnResult(nil)
		t.recognizer.OnError(nil)
		t.listening = false
	}
	t.mu.Unlock()
	if t.onError != nil {
		t.onError(err)
	}
}

// Speaker reads explanations aloud when voice output is enabled.
type Speaker struct {
	mu      sync.Mutex
	synth   Synthesizer
	enabled bool
}

// NewSpeaker returns a disabled speaker backed by s.
func NewSpeaker(s Synthesizer) *Speaker {
	if s == nil {
		s = Nop{}
	}
	return &Speaker{synth: s}
}

// SetEnabled toggles voice output. Disabling cancels current speech.
func (s *Speaker) SetEnabled(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = on
	if !on {
		return s.synth.Cancel()
	}
	return nil
}

// Enabled reports whether voice output is on.
func (s *Speaker) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Say speaks text if voice output is on. Earlier speech is cancelled.
func (s *Speaker) Say(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled || strings.TrimSpace(text) == "" {
		return nil
	}
	if err := s.synth.Cancel(); err != nil {
		return err
	}
	return s.synth.Speak(ctx, text)
}
