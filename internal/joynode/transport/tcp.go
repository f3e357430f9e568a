package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"

	"github.com/autopeer-io/joynode/internal/joynode/loop"
)

const readChunk = 1460

// TCP is a Transport backed by net.Dialer.
type TCP struct {
	loop        *loop.Loop
	logger      logr.Logger
	dialTimeout time.Duration
	maxHandles  int

	nextID atomic.Uint64

	mu   sync.Mutex
	open int
}

var _ Transport = (*TCP)(nil)

// NewTCP returns a transport allowing at most maxHandles open handles.
func NewTCP(l *loop.Loop, logger logr.Logger, dialTimeout time.Duration, maxHandles int) *TCP {
	if maxHandles < 1 {
		maxHandles = 1
	}
	return &TCP{
		loop:        l,
		logger:      logger.WithName("transport"),
		dialTimeout: dialTimeout,
		maxHandles:  maxHandles,
	}
}

// InUse returns the number of open handles.
func (t *TCP) InUse() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

func (t *TCP) Open(h Handler) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.open >= t.maxHandles {
		return nil, ErrHandleLimit
	}
	t.open++

	return &tcpConn{
		t:       t,
		id:      t.nextID.Add(1),
		handler: h,
	}, nil
}

func (t *TCP) release() {
	t.mu.Lock()
	t.open--
	t.mu.Unlock()
}

type connState int

const (
	stateOpen connState = iota
	stateDialing
	stateConnected
	stateClosed
)

type tcpConn struct {
	t       *TCP
	id      uint64
	handler Handler

	mu     sync.Mutex
	state  connState
	nc     net.Conn
	cancel context.CancelFunc

	// serializes writes issued by Write
	wmu sync.Mutex
}

func (c *tcpConn) ID() uint64 { return c.id }

func (c *tcpConn) Connect(addr netip.AddrPort) error {
	if !addr.IsValid() || addr.Port() == 0 {
		return fmt.Errorf("transport: invalid address %q", addr)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case stateClosed:
		return ErrClosed
	case stateOpen:
	default:
		return errors.New("transport: connect already started")
	}

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if c.t.dialTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), c.t.dialTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	c.cancel = cancel
	c.state = stateDialing

	go c.dial(ctx, addr)
	return nil
}

func (c *tcpConn) dial(ctx context.Context, addr netip.AddrPort) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr.String())

	c.mu.Lock()
	if c.state == stateClosed {
		c.mu.Unlock()
		if nc != nil {
			_ = nc.Close()
		}
		return
	}
	if err != nil {
		c.mu.Unlock()
		c.dispatch(Event{Kind: ConnectFailed, Err: err})
		return
	}
	c.nc = nc
	c.state = stateConnected
	c.mu.Unlock()

	c.t.logger.V(1).Info("Connected", "id", c.id, "remote", addr.String())
	c.dispatch(Event{Kind: Connected})

	go c.readLoop(nc)
}

func (c *tcpConn) readLoop(nc net.Conn) {
	buf := make([]byte, readChunk)
	for {
		n, err := nc.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			c.dispatch(Event{Kind: Received, Data: data})
		}
		if err == nil {
			continue
		}

		if errors.Is(err, io.EOF) {
			c.dispatch(Event{Kind: PeerClosed})
		} else if !c.closed() {
			c.dispatch(Event{Kind: Failed, Err: err})
		}
		return
	}
}

func (c *tcpConn) Write(p []byte) error {
	c.mu.Lock()
	state, nc := c.state, c.nc
	c.mu.Unlock()

	switch state {
	case stateClosed:
		return ErrClosed
	case stateConnected:
	default:
		return ErrNotConnected
	}

	buf := make([]byte, len(p))
	copy(buf, p)

	go func() {
		c.wmu.Lock()
		defer c.wmu.Unlock()

		n, err := nc.Write(buf)
		if err != nil {
			c.dispatch(Event{Kind: Failed, Err: err})
			return
		}
		c.dispatch(Event{Kind: Sent, N: n})
	}()
	return nil
}

func (c *tcpConn) Close() error {
	c.mu.Lock()
	if c.state == stateClosed {
		c.mu.Unlock()
		return nil
	}
	c.state = stateClosed
	nc, cancel := c.nc, c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.t.release()

	if nc != nil {
		return nc.Close()
	}
	return nil
}

func (c *tcpConn) closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateClosed
}

// dispatch posts ev to the loop. Events of a handle closed in the meantime
// are dropped at delivery.
func (c *tcpConn) dispatch(ev Event) {
	ev.ID = c.id
	c.t.loop.Post(func() {
		if c.closed() {
			return
		}
		c.handler(ev)
	})
}
