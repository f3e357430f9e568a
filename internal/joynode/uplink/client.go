// Package uplink uploads snapshots to the telemetry endpoint, one request
// per connection and at most one connection at a time.
//
// All methods and transport callbacks run on the event loop goroutine.
// Status may be read from anywhere.
package uplink

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/looplab/fsm"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/joynode/internal/joynode/core"
	"github.com/autopeer-io/joynode/internal/joynode/transport"
	"github.com/autopeer-io/joynode/internal/pkg/metrics"
	"github.com/autopeer-io/joynode/pkg/log"
)

// maxLoggedResponse bounds how much of a response body is logged.
const maxLoggedResponse = 128

// Resolver is the part of the name resolver the client needs.
type Resolver interface {
	Cached(host string) (netip.Addr, bool)
	Resolve(host string, done func(netip.Addr, error)) error
}

// Config describes the telemetry endpoint.
type Config struct {
	Host   string
	Port   uint16
	APIKey string

	// Timeout bounds a session from connect to close. It is checked when an
	// upload is triggered. Zero disables it.
	Timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithClock replaces the real clock.
func WithClock(clk clock.PassiveClock) Option {
	return func(c *Client) {
		c.clock = clk
	}
}

// WithLogger replaces the default "uplink" logger, which is tagged with the host.
func WithLogger(l log.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// session is the per-upload state. It is reset on every return to idle.
type session struct {
	handle    transport.Handle
	id        uint64
	inFlight  bool
	snapshot  *core.Snapshot
	addr      netip.AddrPort
	startedAt time.Time
	received  int
}

// Client drives one upload at a time through resolve, connect, send and
// receive.
type Client struct {
	cfg       Config
	resolver  Resolver
	transport transport.Transport
	clock     clock.PassiveClock
	logger    log.Logger

	fsm     *fsm.FSM
	session session
	status  statusHolder
}

// New returns an idle client.
func New(cfg Config, r Resolver, t transport.Transport, opts ...Option) *Client {
	c := &Client{
		cfg:       cfg,
		resolver:  r,
		transport: t,
		clock:     clock.RealClock{},
		logger:    log.WithName("uplink").WithValues("host", cfg.Host),
	}
	for _, o := range opts {
		o(c)
	}

	c.fsm = c.newFiniteStateMachine()
	c.publishStatus()
	return c
}

// State returns the current state name.
func (c *Client) State() string {
	return c.fsm.Current()
}

// InFlight reports whether a session holds a connection.
func (c *Client) InFlight() bool {
	return c.session.inFlight
}

// TriggerUpload starts an upload of snap unless one is already running.
// Outcomes are logged and counted, never returned.
func (c *Client) TriggerUpload(ctx context.Context, snap *core.Snapshot) {
	if c.session.inFlight && c.cfg.Timeout > 0 && c.clock.Since(c.session.startedAt) >= c.cfg.Timeout {
		c.fail(ctx, fmt.Errorf("%w after %s", ErrTimeout, c.cfg.Timeout))
	}

	if c.session.inFlight {
		c.skip("in_flight", "Upload in flight, skipping")
		return
	}

	if c.fsm.Is(StateResolving) {
		c.skip("resolving", "Resolution pending, skipping")
		return
	}

	addr, ok := c.resolver.Cached(c.cfg.Host)
	if !ok {
		if err := c.resolver.Resolve(c.cfg.Host, c.onResolved); err != nil {
			c.skip("resolving", "Resolution pending, skipping", "err", err.Error())
			return
		}
		c.event(ctx, EventResolve)
		return
	}

	if c.session.handle != nil {
		c.skip("handle_busy", "Connection handle still open, skipping")
		return
	}

	err := c.fsm.Event(ctx, EventConnect, netip.AddrPortFrom(addr, c.cfg.Port), snap)
	var canceled fsm.CanceledError
	if errors.As(err, &canceled) && canceled.Err != nil {
		c.record(canceled.Err)
		c.publishStatus()
		return
	}
	if isFsmRealError(err) {
		c.logger.Error(err, "Connect transition failed")
	}
}

func (c *Client) onResolved(addr netip.Addr, err error) {
	ctx := context.Background()
	if err != nil {
		c.event(ctx, EventResolveFailed, fmt.Errorf("%w: %w", ErrDNSFailure, err))
		return
	}
	c.logger.Info("Endpoint resolved", "host", c.cfg.Host, "addr", addr.String())
	c.event(ctx, EventResolved)
}

// onEvent receives transport events of the session handle.
func (c *Client) onEvent(ev transport.Event) {
	ctx := context.Background()

	if c.session.handle == nil || ev.ID != c.session.id {
		c.logger.Debug("Dropping stale transport event", "event", ev.Kind.String(), "id", ev.ID, "session", c.session.id)
		return
	}

	switch ev.Kind {
	case transport.Connected:
		err := c.fsm.Event(ctx, EventConnected)
		var canceled fsm.CanceledError
		if errors.As(err, &canceled) && canceled.Err != nil {
			c.fail(ctx, canceled.Err)
		} else if isFsmRealError(err) {
			c.logger.Error(err, "Connected transition failed")
		}
	case transport.ConnectFailed:
		c.fail(ctx, fmt.Errorf("%w: %w", ErrConnectFailure, ev.Err))
	case transport.Sent:
		c.logger.Debug("Request sent", "bytes", ev.N)
		c.event(ctx, EventSent)
	case transport.Received:
		c.session.received += len(ev.Data)
		c.logger.Info("Telemetry response", "bytes", len(ev.Data), "body", truncate(ev.Data, maxLoggedResponse))
	case transport.PeerClosed:
		c.event(ctx, EventPeerClosed)
	case transport.Failed:
		c.fail(ctx, fmt.Errorf("%w: %w", ErrTransport, ev.Err))
	}
}

func (c *Client) fail(ctx context.Context, err error) {
	c.event(ctx, EventFail, err)
}

func (c *Client) event(ctx context.Context, name string, args ...any) {
	if err := c.fsm.Event(ctx, name, args...); isFsmRealError(err) {
		c.logger.Debug("Ignoring event", "event", name, "state", c.fsm.Current(), "err", err.Error())
	}
}

func (c *Client) skip(reason, msg string, keysAndValues ...any) {
	metrics.UplinkSkipped.WithLabelValues(reason).Inc()
	c.logger.Debug(msg, keysAndValues...)
}

// record counts one finished attempt.
func (c *Client) record(err error) {
	outcome := outcomeOf(err)
	metrics.UplinkAttempts.WithLabelValues(outcome).Inc()
	c.status.recordOutcome(outcome, err, c.clock.Now())

	if err != nil {
		c.logger.Warn("Upload failed", "outcome", outcome, "err", err.Error())
		return
	}
	c.logger.Info("Upload complete", "received", c.session.received)
}

// GuardOpenHandle is a "Guard" callback.
// It allocates a handle and starts the dial, cancelling the connect when
// either step fails so the client stays idle.
func (c *Client) GuardOpenHandle(_ context.Context, e *fsm.Event) error {
	addr := e.Args[0].(netip.AddrPort)

	h, err := c.transport.Open(c.onEvent)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrResourceExhausted, err)
	}
	if err := h.Connect(addr); err != nil {
		_ = h.Close()
		return fmt.Errorf("%w: %w", ErrConnectFailure, err)
	}

	c.session.handle = h
	c.session.id = h.ID()
	c.session.addr = addr
	return nil
}

// GuardWriteRequest is a "Guard" callback.
// It writes the request for the snapshot captured at trigger time.
func (c *Client) GuardWriteRequest(_ context.Context, _ *fsm.Event) error {
	req := FormatRequest(c.cfg.APIKey, c.cfg.Host, c.session.snapshot)
	if err := c.session.handle.Write(req); err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return nil
}

// ActionEnterConnecting is a "Side-Effect" callback.
func (c *Client) ActionEnterConnecting(_ context.Context, e *fsm.Event) error {
	c.session.inFlight = true
	c.session.snapshot = e.Args[1].(*core.Snapshot)
	c.session.startedAt = c.clock.Now()
	c.session.received = 0
	metrics.UplinkInFlight.Set(1)

	c.logger.Debug("Connecting", "addr", c.session.addr.String(), "id", c.session.id)
	return nil
}

// ActionEnterIdle is a "Side-Effect" callback.
// It records how the session ended and releases it.
func (c *Client) ActionEnterIdle(_ context.Context, e *fsm.Event) error {
	switch e.Event {
	case EventResolved:
		return nil
	case EventResolveFailed, EventFail:
		c.record(eventError(e))
	case EventPeerClosed:
		// A response can overtake the Sent event; having one proves the write.
		if e.Src == StateAwaitingResponse || c.session.received > 0 {
			metrics.UplinkDuration.Observe(c.clock.Since(c.session.startedAt).Seconds())
			c.record(nil)
		} else {
			c.record(fmt.Errorf("%w: peer closed before the request was sent", ErrTransport))
		}
	}

	c.release()
	return nil
}

// ActionPublishStatus is a "Side-Effect" callback run on every state change.
func (c *Client) ActionPublishStatus(_ context.Context, _ *fsm.Event) error {
	c.publishStatus()
	return nil
}

func (c *Client) release() {
	if c.session.handle != nil {
		if err := c.session.handle.Close(); err != nil {
			c.logger.Debug("Closing handle", "err", err.Error())
		}
	}
	c.session = session{}
	metrics.UplinkInFlight.Set(0)
}

func (c *Client) publishStatus() {
	var addr string
	if a, ok := c.resolver.Cached(c.cfg.Host); ok {
		addr = a.String()
	}
	c.status.setState(c.fsm.Current(), c.session.inFlight, addr)
}

func eventError(e *fsm.Event) error {
	if len(e.Args) > 0 {
		if err, ok := e.Args[0].(error); ok {
			return err
		}
	}
	return ErrTransport
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
