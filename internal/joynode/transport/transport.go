// Package transport runs TCP connections on goroutines and reports their
// progress as events dispatched on the event loop.
package transport

import (
	"errors"
	"fmt"
	"net/netip"
)

var (
	// ErrHandleLimit is returned by Open when every handle is in use.
	ErrHandleLimit = errors.New("transport: handle limit reached")

	// ErrClosed is returned by operations on a closed handle.
	ErrClosed = errors.New("transport: handle closed")

	// ErrNotConnected is returned by Write before the Connected event.
	ErrNotConnected = errors.New("transport: not connected")
)

// EventKind identifies what happened on a handle.
type EventKind int

const (
	Connected EventKind = iota
	ConnectFailed
	Sent
	Received
	PeerClosed
	Failed
)

func (k EventKind) String() string {
	switch k {
	case Connected:
		return "connected"
	case ConnectFailed:
		return "connect_failed"
	case Sent:
		return "sent"
	case Received:
		return "received"
	case PeerClosed:
		return "peer_closed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is delivered to a handle's Handler on the loop goroutine.
type Event struct {
	Kind EventKind

	// ID of the handle the event belongs to.
	ID uint64

	// Data holds the payload of a Received event.
	Data []byte

	// N is the byte count of a Sent event.
	N int

	// Err is set for ConnectFailed and Failed.
	Err error
}

// Handler consumes handle events. It always runs on the loop goroutine.
type Handler func(Event)

// Transport allocates connection handles.
type Transport interface {
	// Open allocates a handle whose events go to h. It fails with
	// ErrHandleLimit when no handle is free.
	Open(h Handler) (Handle, error)
}

// Handle is one outbound connection.
type Handle interface {
	// ID is unique for the lifetime of the process.
	ID() uint64

	// Connect starts dialing. The outcome arrives as Connected or
	// ConnectFailed. An error return means no dial was started.
	Connect(addr netip.AddrPort) error

	// Write queues p. Completion arrives as Sent, or Failed.
	Write(p []byte) error

	// Close releases the handle. No events are dispatched after Close.
	// It is safe to call more than once.
	Close() error
}
