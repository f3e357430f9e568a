package core

import (
	"context"
	"sync/atomic"
	"time"
)

// Reading is one sample of the inputs.
type Reading struct {
	Button1   bool
	Button2   bool
	JoystickX uint16
	JoystickY uint16
}

// Sensors samples the hardware. Implementations must not block for longer
// than a register read.
type Sensors interface {
	Read(ctx context.Context) (Reading, error)
}

// Snapshot is the node state at one tick. It is never modified after it is
// stored.
type Snapshot struct {
	Button1        bool      `json:"button1"`
	Button2        bool      `json:"button2"`
	JoystickX      uint16    `json:"joystickX"`
	JoystickY      uint16    `json:"joystickY"`
	Direction      Direction `json:"direction"`
	Button1Message string    `json:"button1Message"`
	Button2Message string    `json:"button2Message"`
	TakenAt        time.Time `json:"takenAt"`
}

// ButtonCode returns 1 when pressed and 0 otherwise, as uploaded.
func ButtonCode(pressed bool) int {
	if pressed {
		return 1
	}
	return 0
}

// SnapshotStore holds the latest snapshot for concurrent readers.
type SnapshotStore struct {
	p atomic.Pointer[Snapshot]
}

// NewSnapshotStore returns a store holding the zero snapshot with the
// initial button messages.
func NewSnapshotStore() *SnapshotStore {
	s := &SnapshotStore{}
	m := NewButtonMonitor(2)
	s.Store(&Snapshot{
		Direction:      Center,
		Button1Message: m.Message(1),
		Button2Message: m.Message(2),
	})
	return s
}

func (s *SnapshotStore) Store(snap *Snapshot) {
	s.p.Store(snap)
}

func (s *SnapshotStore) Load() *Snapshot {
	return s.p.Load()
}
