package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

type fakeInstance struct {
	id      int
	stopped bool
	fixed   []bool
	stopErr error
}

func (i *fakeInstance) Stop() error {
	i.stopped = true
	return i.stopErr
}

func (i *fakeInstance) SetFixed(fixed bool) error {
	i.fixed = append(i.fixed, fixed)
	return nil
}

type fakeEngine struct {
	mu        sync.Mutex
	instances []*fakeInstance
	mountErr  error
	lastFixed bool
	stopErr   error
}

func (e *fakeEngine) Mount(_ context.Context, _ uint64, _ json.RawMessage, fixed bool) (Instance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mountErr != nil {
		return nil, e.mountErr
	}
	e.lastFixed = fixed
	inst := &fakeInstance{id: len(e.instances), stopErr: e.stopErr}
	e.instances = append(e.instances, inst)
	return inst, nil
}

var andGate = json.RawMessage(`{"devices":{"d0":{"type":"And"}},"connectors":[]}`)

func TestLoadAcknowledge(t *testing.T) {
	eng := &fakeEngine{}
	v := New(eng, nil)

	if s := v.State(); s.Status != StatusEmpty || !s.IncludeLayout {
		t.Fatalf("initial state = %+v", s)
	}

	gen, err := v.Load(context.Background(), andGate)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s := v.State(); s.Status != StatusLoading || s.Generation != gen {
		t.Fatalf("after Load = %+v", s)
	}

	if !v.Acknowledge(gen, nil) {
		t.Fatal("Acknowledge rejected current generation")
	}
	if s := v.State(); s.Status != StatusReady {
		t.Errorf("status = %s, want ready", s.Status)
	}
	if string(v.Circuit()) != string(andGate) {
		t.Errorf("Circuit = %s", v.Circuit())
	}
}

func TestLoadTearsDownPrevious(t *testing.T) {
	eng := &fakeEngine{stopErr: errors.New("already stopped")}
	v := New(eng, nil)

	g1, _ := v.Load(context.Background(), andGate)
	v.Acknowledge(g1, nil)
	g2, _ := v.Load(context.Background(), andGate)

	if !eng.instances[0].stopped {
		t.Error("first instance not stopped before second mount")
	}
	if eng.instances[1].stopped {
		t.Error("second instance stopped")
	}
	if v.Acknowledge(g1, nil) {
		t.Error("stale ack applied")
	}
	if v.State().Status != StatusLoading {
		t.Errorf("stale ack changed state to %s", v.State().Status)
	}
	if !v.Acknowledge(g2, nil) {
		t.Error("current ack rejected")
	}
}

func TestMountFailure(t *testing.T) {
	eng := &fakeEngine{mountErr: errors.New("digitaljs not loaded")}
	v := New(eng, nil)

	if _, err := v.Load(context.Background(), andGate); err == nil {
		t.Fatal("expected mount error")
	}
	s := v.State()
	if s.Status != StatusError || s.Error != "Error loading circuit: digitaljs not loaded" {
		t.Errorf("state = %+v", s)
	}
}

func TestAcknowledgeFailure(t *testing.T) {
	eng := &fakeEngine{}
	v := New(eng, nil)
	gen, _ := v.Load(context.Background(), andGate)

	v.Acknowledge(gen, errors.New("unknown port"))
	s := v.State()
	if s.Status != StatusError || s.Error != "Error loading circuit: unknown port" {
		t.Errorf("state = %+v", s)
	}
	if !eng.instances[0].stopped {
		t.Error("failed instance not torn down")
	}
}

func TestSetFixedAppliesAndPersists(t *testing.T) {
	eng := &fakeEngine{}
	v := New(eng, nil)
	gen, _ := v.Load(context.Background(), andGate)
	v.Acknowledge(gen, nil)

	v.SetFixed(true)
	if got := eng.instances[0].fixed; len(got) != 1 || !got[0] {
		t.Errorf("live instance fixed calls = %v", got)
	}

	v.Load(context.Background(), andGate)
	if !eng.lastFixed {
		t.Error("fixed mode not passed to later mount")
	}
}

func TestReload(t *testing.T) {
	eng := &fakeEngine{}
	v := New(eng, nil)

	if _, err := v.Reload(context.Background(), andGate); !errors.Is(err, ErrNoCircuit) {
		t.Errorf("Reload on empty = %v, want ErrNoCircuit", err)
	}

	gen, _ := v.Load(context.Background(), andGate)
	v.Acknowledge(gen, nil)

	withLayout := json.RawMessage(`{"devices":{"d0":{"type":"And","position":{"x":10,"y":20}}},"connectors":[]}`)
	gen2, err := v.Reload(context.Background(), withLayout)
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if gen2 <= gen {
		t.Errorf("generation did not advance: %d -> %d", gen, gen2)
	}
	if string(v.Circuit()) != string(withLayout) {
		t.Errorf("Circuit = %s", v.Circuit())
	}

	v.Acknowledge(gen2, nil)
	if _, err := v.Reload(context.Background(), json.RawMessage(`{oops`)); err == nil {
		t.Error("expected error for invalid serialization")
	}
	if v.State().Status != StatusError {
		t.Errorf("status = %s, want error", v.State().Status)
	}
}

func TestClearAndClose(t *testing.T) {
	eng := &fakeEngine{}
	v := New(eng, nil)

	var seen []Status
	v.OnChange(func(s State) { seen = append(seen, s.Status) })

	gen, _ := v.Load(context.Background(), andGate)
	v.Acknowledge(gen, nil)
	v.Clear()

	want := []Status{StatusLoading, StatusReady, StatusEmpty}
	if len(seen) != len(want) {
		t.Fatalf("transitions = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, seen[i], want[i])
		}
	}
	if !eng.instances[0].stopped {
		t.Error("Clear did not stop the instance")
	}
	if v.Circuit() != nil {
		t.Error("Clear kept the circuit")
	}

	v.Load(context.Background(), andGate)
	v.Close()
	if !eng.instances[1].stopped {
		t.Error("Close did not stop the instance")
	}
	if _, err := v.Load(context.Background(), andGate); !errors.Is(err, ErrClosed) {
		t.Errorf("Load after Close = %v, want ErrClosed", err)
	}
}

func TestSetIncludeLayout(t *testing.T) {
	v := New(&fakeEngine{}, nil)
	v.SetIncludeLayout(false)
	if v.State().IncludeLayout {
		t.Error("IncludeLayout still true")
	}
}

func TestSettersIgnoredAfterClose(t *testing.T) {
	v := New(&fakeEngine{}, nil)
	v.Close()

	changes := 0
	v.OnChange(func(State) { changes++ })
	v.SetFixed(true)
	v.SetIncludeLayout(false)

	s := v.State()
	if s.Fixed || !s.IncludeLayout {
		t.Errorf("state changed after Close: %+v", s)
	}
	if changes != 0 {
		t.Errorf("OnChange fired %d times after Close", changes)
	}
}
