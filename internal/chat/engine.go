package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ziadkadry99/circuitchat/internal/viewer"
)

// clientEngine mounts circuits in the browser. Mount only issues the
// command; the browser answers with mounted or mount_error, which the
// session feeds to viewer.Acknowledge.
type clientEngine struct {
	conn *wsConn
}

func (e *clientEngine) Mount(_ context.Context, generation uint64, circuit json.RawMessage, fixed bool) (viewer.Instance, error) {
	err := e.conn.send(serverMessage{
		Type:       outMount,
		Generation: generation,
		Circuit:    circuit,
		Fixed:      boolPtr(fixed),
	})
	if err != nil {
		return nil, fmt.Errorf("sending mount command: %w", err)
	}
	return &clientInstance{conn: e.conn, generation: generation}, nil
}

// clientInstance is the browser's simulator instance for one generation.
type clientInstance struct {
	conn       *wsConn
	generation uint64
}

// Stop is a no-op once the connection is gone: the page took the
// instance with it.
func (i *clientInstance) Stop() error {
	err := i.conn.send(serverMessage{Type: outUnmount, Generation: i.generation})
	if errors.Is(err, errConnClosed) {
		return nil
	}
	return err
}

func (i *clientInstance) SetFixed(fixed bool) error {
	return i.conn.send(serverMessage{Type: outFixed, Generation: i.generation, Fixed: boolPtr(fixed)})
}
