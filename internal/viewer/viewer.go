// Package viewer owns the lifecycle of the circuit instance a chat session
// displays. The instance itself lives in the browser-side simulator; the
// viewer decides when it is mounted, torn down and replaced.
package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ziadkadry99/circuitchat/internal/logging"
)

// Status tags the viewer state.
type Status string

const (
	StatusEmpty   Status = "empty"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

var (
	// ErrClosed is returned by operations on a closed viewer.
	ErrClosed = errors.New("viewer is closed")
	// ErrNoCircuit is returned by Reload when nothing is displayed.
	ErrNoCircuit = errors.New("no circuit is loaded")
)

// Instance is a mounted circuit. Stop releases it; SetFixed toggles
// whether its layout can be edited.
type Instance interface {
	Stop() error
	SetFixed(fixed bool) error
}

// Engine mounts circuits. generation identifies the mount so an
// asynchronous engine can report back through Viewer.Acknowledge.
type Engine interface {
	Mount(ctx context.Context, generation uint64, circuit json.RawMessage, fixed bool) (Instance, error)
}

// State is a snapshot of the viewer.
type State struct {
	Status     Status          `json:"status"`
	Generation uint64          `json:"generation"`
	Circuit    json.RawMessage `json:"circuit,omitempty"`
	Error      string          `json:"error,omitempty"`
	Fixed      bool            `json:"fixed"`
	// IncludeLayout selects whether serialize-and-reload keeps positions.
	IncludeLayout bool `json:"includeLayout"`
}

// Viewer holds at most one mounted instance. Every data change tears the
// old instance down before mounting the next one.
type Viewer struct {
	mu       sync.Mutex
	engine   Engine
	logger   *zap.Logger
	onChange func(State)

	state    State
	instance Instance
	closed   bool
}

// New creates an empty viewer that mounts through engine.
func New(engine Engine, logger *zap.Logger) *Viewer {
	return &Viewer{
		engine: engine,
		logger: logging.OrNop(logger),
		state:  State{Status: StatusEmpty, IncludeLayout: true},
	}
}

// OnChange registers fn to receive every new state. fn runs without the
// viewer lock held.
func (v *Viewer) OnChange(fn func(State)) {
	v.mu.Lock()
	v.onChange = fn
	v.mu.Unlock()
}

// State returns the current snapshot.
func (v *Viewer) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Circuit returns the circuit JSON currently loaded, or nil.
func (v *Viewer) Circuit() json.RawMessage {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.Circuit
}

// Load replaces whatever is displayed with circuit and returns the mount's
// generation. A synchronous mount failure leaves the viewer in the error
// state and is returned.
func (v *Viewer) Load(ctx context.Context, circuit json.RawMessage) (uint64, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return 0, ErrClosed
	}
	gen, err := v.mountLocked(ctx, circuit)
	s, notify := v.state, v.onChange
	v.mu.Unlock()

	if notify != nil {
		notify(s)
	}
	return gen, err
}

func (v *Viewer) mountLocked(ctx context.Context, circuit json.RawMessage) (uint64, error) {
	v.teardownLocked()
	v.state.Generation++
	v.state.Status = StatusLoading
	v.state.Circuit = circuit
	v.state.Error = ""

	inst, err := v.engine.Mount(ctx, v.state.Generation, circuit, v.state.Fixed)
	if err != nil {
		v.state.Status = StatusError
		v.state.Error = "Error loading circuit: " + err.Error()
		return v.state.Generation, fmt.Errorf("mounting circuit: %w", err)
	}
	v.instance = inst
	return v.state.Generation, nil
}

// teardownLocked stops the current instance. Stop failures are logged and
// otherwise ignored: the instance is dropped either way.
func (v *Viewer) teardownLocked() {
	if v.instance == nil {
		return
	}
	if err := v.instance.Stop(); err != nil {
		v.logger.Warn("stopping circuit instance", zap.Uint64("generation", v.state.Generation), zap.Error(err))
	}
	v.instance = nil
}

// Clear tears down the instance and returns to the empty state.
func (v *Viewer) Clear() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.teardownLocked()
	v.state.Generation++
	v.state.Status = StatusEmpty
	v.state.Circuit = nil
	v.state.Error = ""
	s, notify := v.state, v.onChange
	v.mu.Unlock()

	if notify != nil {
		notify(s)
	}
}

// Reload remounts the browser's own serialization of the displayed circuit
// (with or without layout, per IncludeLayout).
func (v *Viewer) Reload(ctx context.Context, serialized json.RawMessage) (uint64, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return 0, ErrClosed
	}
	if v.state.Status != StatusReady {
		v.mu.Unlock()
		return 0, ErrNoCircuit
	}
	if len(serialized) == 0 || !json.Valid(serialized) {
		v.state.Status = StatusError
		v.state.Error = "Error during serialize/reload: serialized circuit is not valid JSON"
		s, notify := v.state, v.onChange
		v.mu.Unlock()
		if notify != nil {
			notify(s)
		}
		return 0, errors.New(s.Error)
	}
	gen, err := v.mountLocked(ctx, serialized)
	s, notify := v.state, v.onChange
	v.mu.Unlock()

	if notify != nil {
		notify(s)
	}
	return gen, err
}

// SetFixed applies fixed mode to the live instance and remembers it for
// later mounts.
func (v *Viewer) SetFixed(fixed bool) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.state.Fixed = fixed
	if v.instance != nil {
		if err := v.instance.SetFixed(fixed); err != nil {
			v.logger.Warn("applying fixed mode", zap.Bool("fixed", fixed), zap.Error(err))
		}
	}
	s, notify := v.state, v.onChange
	v.mu.Unlock()

	if notify != nil {
		notify(s)
	}
}

// SetIncludeLayout records the serialization preference.
func (v *Viewer) SetIncludeLayout(include bool) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.state.IncludeLayout = include
	s, notify := v.state, v.onChange
	v.mu.Unlock()

	if notify != nil {
		notify(s)
	}
}

// Acknowledge settles a pending mount. Acks for any generation other than
// the current loading one are stale and ignored; the return value reports
// whether the ack was applied.
func (v *Viewer) Acknowledge(generation uint64, mountErr error) bool {
	v.mu.Lock()
	if v.closed || generation != v.state.Generation || v.state.Status != StatusLoading {
		v.mu.Unlock()
		return false
	}
	if mountErr != nil {
		v.teardownLocked()
		v.state.Status = StatusError
		v.state.Error = "Error loading circuit: " + mountErr.Error()
	} else {
		v.state.Status = StatusReady
	}
	s, notify := v.state, v.onChange
	v.mu.Unlock()

	if notify != nil {
		notify(s)
	}
	return true
}

// Close tears down the instance. Later operations fail with ErrClosed or
// are ignored.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.teardownLocked()
	v.closed = true
	v.state.Status = StatusEmpty
	v.state.Circuit = nil
}
