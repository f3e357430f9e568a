package fsm

import (
	"context"
	"errors"
	"testing"

	"github.com/looplab/fsm"
)

func TestWrapGuardCancels(t *testing.T) {
	errBusy := errors.New("busy")
	m := fsm.NewFSM("idle",
		fsm.Events{{Name: "start", Src: []string{"idle"}, Dst: "running"}},
		fsm.Callbacks{
			"before_start": WrapGuard(func(_ context.Context, _ *fsm.Event) error { return errBusy }),
		},
	)

	err := m.Event(context.Background(), "start")
	var canceled fsm.CanceledError
	if !errors.As(err, &canceled) {
		t.Fatalf("err=%v, want CanceledError", err)
	}
	if !errors.Is(canceled.Err, errBusy) {
		t.Errorf("canceled.Err=%v, want %v", canceled.Err, errBusy)
	}
	if m.Current() != "idle" {
		t.Errorf("state=%s, want idle", m.Current())
	}
}

func TestWrapGuardAllows(t *testing.T) {
	m := fsm.NewFSM("idle",
		fsm.Events{{Name: "start", Src: []string{"idle"}, Dst: "running"}},
		fsm.Callbacks{
			"before_start": WrapGuard(func(_ context.Context, _ *fsm.Event) error { return nil }),
		},
	)

	if err := m.Event(context.Background(), "start"); err != nil {
		t.Fatalf("Event() err=%v", err)
	}
	if m.Current() != "running" {
		t.Errorf("state=%s, want running", m.Current())
	}
}

func TestWrapEventRecordsError(t *testing.T) {
	errSide := errors.New("side effect failed")
	var seen error
	m := fsm.NewFSM("idle",
		fsm.Events{{Name: "start", Src: []string{"idle"}, Dst: "running"}},
		fsm.Callbacks{
			"enter_running": WrapEvent(func(_ context.Context, _ *fsm.Event) error { return errSide }),
			"after_start": func(_ context.Context, e *fsm.Event) {
				seen = e.Err
			},
		},
	)

	_ = m.Event(context.Background(), "start")
	if m.Current() != "running" {
		t.Errorf("state=%s, want running", m.Current())
	}
	if !errors.Is(seen, errSide) {
		t.Errorf("after callback saw %v, want %v", seen, errSide)
	}
}
