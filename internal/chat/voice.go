package chat

import (
	"context"
	"errors"
	"sync"

	"github.com/ziadkadry99/circuitchat/internal/speech"
)

// clientRecognizer drives the browser's speech recognition. Results and
// errors arrive as speech_result and speech_error messages.
type clientRecognizer struct {
	conn *wsConn

	mu       sync.Mutex
	onResult func([]speech.Result)
	onError  func(error)
}

func (r *clientRecognizer) StartListening(context.Context) error {
	return r.conn.send(serverMessage{Type: outSpeech, Listening: boolPtr(true)})
}

func (r *clientRecognizer) StopListening() error {
	return r.conn.send(serverMessage{Type: outSpeech, Listening: boolPtr(false)})
}

func (r *clientRecognizer) OnResult(fn func([]speech.Result)) {
	r.mu.Lock()
	r.onResult = fn
	r.mu.Unlock()
}

func (r *clientRecognizer) OnError(fn func(error)) {
	r.mu.Lock()
	r.onError = fn
	r.mu.Unlock()
}

func (r *clientRecognizer) deliverResults(results []speech.Result) {
	r.mu.Lock()
	fn := r.onResult
	r.mu.Unlock()
	if fn != nil {
		fn(results)
	}
}

func (r *clientRecognizer) deliverError(msg string) {
	r.mu.Lock()
	fn := r.onError
	r.mu.Unlock()
	if fn != nil {
		fn(errors.New(msg))
	}
}

// clientSynthesizer asks the browser to speak.
type clientSynthesizer struct {
	conn *wsConn
}

func (s *clientSynthesizer) Speak(_ context.Context, text string) error {
	return s.conn.send(serverMessage{Type: outSpeak, Text: text})
}

func (s *clientSynthesizer) Cancel() error {
	return s.conn.send(serverMessage{Type: outSpeak, Cancel: true})
}
