// Package responder answers every inbound TCP connection with the status
// page. It reads once, writes one response and closes. Keep-alive and
// request routing are not supported.
package responder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/autopeer-io/joynode/internal/joynode/core"
	"github.com/autopeer-io/joynode/internal/joynode/loop"
	"github.com/autopeer-io/joynode/internal/joynode/page"
	"github.com/autopeer-io/joynode/internal/pkg/metrics"
	"github.com/autopeer-io/joynode/pkg/log"
	"github.com/autopeer-io/joynode/pkg/options"
)

const readChunk = 1024

// SnapshotSource returns the snapshot to render.
type SnapshotSource interface {
	Load() *core.Snapshot
}

// Responder serves the status page on a raw TCP listener.
type Responder struct {
	addr        string
	readTimeout time.Duration
	loop        *loop.Loop
	source      SnapshotSource
	logger      log.Logger

	mu       sync.Mutex
	ln       net.Listener
	conns    map[net.Conn]struct{}
	stopping bool

	ready atomic.Bool
}

// New returns a responder. Listen or Start binds it.
func New(opts *options.ResponderOptions, l *loop.Loop, src SnapshotSource) *Responder {
	return &Responder{
		addr:        opts.Addr,
		readTimeout: opts.ReadTimeout,
		loop:        l,
		source:      src,
		logger:      log.WithName("responder"),
		conns:       make(map[net.Conn]struct{}),
	}
}

// Listen binds the listener. Calling it before Start lets a bind failure
// abort startup before anything else runs.
func (r *Responder) Listen() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ln != nil {
		return nil
	}
	ln, err := net.Listen("tcp", r.addr)
	if err != nil {
		return fmt.Errorf("responder: bind %s: %w", r.addr, err)
	}
	r.ln = ln
	r.ready.Store(true)
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (r *Responder) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ln == nil {
		return nil
	}
	return r.ln.Addr()
}

// Ready reports whether the listener is bound and accepting.
func (r *Responder) Ready() bool {
	return r.ready.Load()
}

// Start accepts connections until ctx is done.
func (r *Responder) Start(ctx context.Context) error {
	if err := r.Listen(); err != nil {
		return err
	}

	r.mu.Lock()
	ln := r.ln
	r.mu.Unlock()

	r.logger.Info("Starting page responder", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		r.ready.Store(false)
		_ = ln.Close()
		r.closeAll()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			r.logger.Error(err, "Accept failed")
			continue
		}

		if !r.track(conn) {
			_ = conn.Close()
			return nil
		}
		go r.read(conn)
	}
}

// track registers conn until it is closed. It fails once shutdown began.
func (r *Responder) track(conn net.Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopping {
		return false
	}
	r.conns[conn] = struct{}{}
	return true
}

func (r *Responder) closeConn(conn net.Conn) {
	r.mu.Lock()
	delete(r.conns, conn)
	r.mu.Unlock()
	_ = conn.Close()
}

// closeAll closes connections still waiting on a read or on the loop, which
// may no longer be polled.
func (r *Responder) closeAll() {
	r.mu.Lock()
	r.stopping = true
	conns := r.conns
	r.conns = make(map[net.Conn]struct{})
	r.mu.Unlock()

	for conn := range conns {
		_ = conn.Close()
	}
	if len(conns) > 0 {
		r.logger.Info("Closed pending connections", "count", len(conns))
	}
}

// read waits for the first chunk and hands it to the loop.
func (r *Responder) read(conn net.Conn) {
	if r.readTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(r.readTimeout))
	}

	buf := make([]byte, readChunk)
	n, err := conn.Read(buf)
	r.loop.Post(func() {
		r.handle(conn, buf[:n], err)
	})
}

// handle runs on the loop. The write happens off-loop.
func (r *Responder) handle(conn net.Conn, payload []byte, readErr error) {
	remote := conn.RemoteAddr().String()

	if len(payload) == 0 {
		result := "empty"
		if readErr != nil && !isEOF(readErr) {
			result = "error"
			r.logger.Debug("Read failed", "remote", remote, "err", readErr.Error())
		}
		metrics.ResponderConnections.WithLabelValues(result).Inc()
		r.closeConn(conn)
		return
	}

	body, err := page.Render(r.source.Load())
	if err != nil {
		metrics.ResponderConnections.WithLabelValues("error").Inc()
		r.logger.Error(err, "Failed to render page", "remote", remote)
		r.closeConn(conn)
		return
	}
	resp := FormatResponse(body)

	go func() {
		defer r.closeConn(conn)

		if _, err := conn.Write(resp); err != nil {
			metrics.ResponderConnections.WithLabelValues("error").Inc()
			r.logger.Debug("Write failed", "remote", remote, "err", err.Error())
			return
		}
		metrics.ResponderConnections.WithLabelValues("served").Inc()
	}()
}

// FormatResponse prefixes body with the response headers.
func FormatResponse(body []byte) []byte {
	head := fmt.Sprintf("HTTP/1.1 200 OK\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"Content-Length: %d\r\n"+
		"Connection: close\r\n"+
		"\r\n", len(body))
	return append([]byte(head), body...)
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
