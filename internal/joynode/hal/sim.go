package hal

import (
	"context"
	"sync"

	"github.com/autopeer-io/joynode/internal/joynode/core"
)

// simPath is the stick position sequence of the simulator, one entry per
// read. It visits every direction and returns to center in between.
var simPath = []core.Reading{
	{JoystickX: 2048, JoystickY: 2048},
	{JoystickX: 3800, JoystickY: 2048},
	{JoystickX: 3800, JoystickY: 3800},
	{JoystickX: 2048, JoystickY: 3800},
	{JoystickX: 300, JoystickY: 3800},
	{JoystickX: 300, JoystickY: 2048},
	{JoystickX: 300, JoystickY: 300},
	{JoystickX: 2048, JoystickY: 300},
	{JoystickX: 3800, JoystickY: 300},
}

// Sim replays simPath and toggles the buttons at different rates. A value
// given to Set overrides the sequence until Set(nil).
type Sim struct {
	mu       sync.Mutex
	n        int
	override *core.Reading
}

func NewSim() *Sim {
	return &Sim{}
}

func (s *Sim) Read(_ context.Context) (core.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.override != nil {
		return *s.override, nil
	}

	r := simPath[s.n%len(simPath)]
	r.Button1 = (s.n/3)%2 == 1
	r.Button2 = (s.n/5)%2 == 1
	s.n++
	return r, nil
}

// Set pins the reading returned by Read.
func (s *Sim) Set(r *core.Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r == nil {
		s.override = nil
		return
	}
	v := *r
	s.override = &v
}
