package uplink

import (
	"github.com/looplab/fsm"

	fsmutil "github.com/autopeer-io/joynode/internal/pkg/util/fsm"
)

// States of the upload session.
const (
	StateIdle             = "idle"
	StateResolving        = "resolving"
	StateConnecting       = "connecting"
	StateSending          = "sending"
	StateAwaitingResponse = "awaiting_response"
)

const (
	// EventResolve (Active) starts a hostname lookup.
	EventResolve = "event_resolve"
	// EventResolved stores the address. The connect happens on a later trigger.
	EventResolved = "event_resolved"
	// EventResolveFailed returns to idle so the next trigger looks up again.
	EventResolveFailed = "event_resolve_failed"
	// EventConnect (Active) allocates a handle and dials.
	EventConnect = "event_connect"
	// EventConnected writes the request.
	EventConnected = "event_connected"
	// EventSent waits for the response once the request is on the wire.
	EventSent = "event_sent"
	// EventPeerClosed ends the session normally.
	EventPeerClosed = "event_peer_closed"
	// EventFail aborts the session from any active state.
	EventFail = "event_fail"
)

var activeStates = []string{StateConnecting, StateSending, StateAwaitingResponse}

func (c *Client) newFiniteStateMachine() *fsm.FSM {
	events := fsm.Events{
		{Name: EventResolve, Src: []string{StateIdle}, Dst: StateResolving},
		{Name: EventResolved, Src: []string{StateResolving}, Dst: StateIdle},
		{Name: EventResolveFailed, Src: []string{StateResolving}, Dst: StateIdle},
		{Name: EventConnect, Src: []string{StateIdle}, Dst: StateConnecting},
		{Name: EventConnected, Src: []string{StateConnecting}, Dst: StateSending},
		{Name: EventSent, Src: []string{StateSending}, Dst: StateAwaitingResponse},
		{Name: EventPeerClosed, Src: []string{StateSending, StateAwaitingResponse}, Dst: StateIdle},
		{Name: EventFail, Src: activeStates, Dst: StateIdle},
	}

	callbacks := fsm.Callbacks{
		// Guards (before_...): a returned error cancels the transition
		"before_" + EventConnect:   fsmutil.WrapGuard(c.GuardOpenHandle),
		"before_" + EventConnected: fsmutil.WrapGuard(c.GuardWriteRequest),

		// Side-Effects (enter_...)
		"enter_" + StateConnecting: fsmutil.WrapEvent(c.ActionEnterConnecting),
		"enter_" + StateIdle:       fsmutil.WrapEvent(c.ActionEnterIdle),
		"enter_state":              fsmutil.WrapEvent(c.ActionPublishStatus),
	}

	return fsm.NewFSM(StateIdle, events, callbacks)
}
