package uplink

import (
	"sync"
	"time"
)

// Status is a point-in-time view of the client for the ops server.
type Status struct {
	State       string    `json:"state"`
	InFlight    bool      `json:"inFlight"`
	Address     string    `json:"address,omitempty"`
	LastOutcome string    `json:"lastOutcome,omitempty"`
	LastError   string    `json:"lastError,omitempty"`
	LastAttempt time.Time `json:"lastAttempt,omitzero"`
	Attempts    uint64    `json:"attempts"`
	Successes   uint64    `json:"successes"`
}

type statusHolder struct {
	mu sync.RWMutex
	s  Status
}

func (h *statusHolder) setState(state string, inFlight bool, addr string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.s.State = state
	h.s.InFlight = inFlight
	h.s.Address = addr
}

func (h *statusHolder) recordOutcome(outcome string, err error, at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.s.Attempts++
	if err == nil {
		h.s.Successes++
		h.s.LastError = ""
	} else {
		h.s.LastError = err.Error()
	}
	h.s.LastOutcome = outcome
	h.s.LastAttempt = at
}

func (h *statusHolder) get() Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.s
}

// Status returns the latest status. It is safe to call from any goroutine.
func (c *Client) Status() Status {
	return c.status.get()
}
