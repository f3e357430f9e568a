// Package resolver resolves hostnames to IPv4 addresses once and caches
// the answer for the life of the process.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/autopeer-io/joynode/internal/joynode/loop"
	"github.com/autopeer-io/joynode/internal/pkg/metrics"
)

var (
	// ErrLookupPending is returned by Resolve while a lookup for the same
	// host is outstanding.
	ErrLookupPending = errors.New("resolver: lookup pending")

	// ErrNoAddress means the lookup succeeded without an IPv4 answer.
	ErrNoAddress = errors.New("resolver: no IPv4 address")
)

// LookupFunc returns the addresses of host.
type LookupFunc func(ctx context.Context, host string) ([]netip.Addr, error)

// Option configures a Resolver.
type Option func(*Resolver)

// WithLookup replaces the system resolver.
func WithLookup(fn LookupFunc) Option {
	return func(r *Resolver) {
		r.lookup = fn
	}
}

// Resolver caches one address per hostname. Entries are written on success
// only and are never invalidated, so a failed lookup is retried by the next
// Resolve call.
type Resolver struct {
	loop    *loop.Loop
	logger  logr.Logger
	lookup  LookupFunc
	timeout time.Duration

	mu      sync.RWMutex
	cache   map[string]netip.Addr
	pending map[string]bool
}

// New returns a resolver that bounds each lookup by timeout.
func New(l *loop.Loop, logger logr.Logger, timeout time.Duration, opts ...Option) *Resolver {
	r := &Resolver{
		loop:    l,
		logger:  logger.WithName("resolver"),
		lookup:  systemLookup,
		timeout: timeout,
		cache:   make(map[string]netip.Addr),
		pending: make(map[string]bool),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func systemLookup(ctx context.Context, host string) ([]netip.Addr, error) {
	return net.DefaultResolver.LookupNetIP(ctx, "ip4", host)
}

// Cached returns the address stored for host. It is safe to call from any
// goroutine.
func (r *Resolver) Cached(host string) (netip.Addr, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	addr, ok := r.cache[host]
	return addr, ok
}

// Pending reports whether a lookup for host is outstanding.
func (r *Resolver) Pending(host string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pending[host]
}

// Resolve starts a lookup of host. done runs on the loop with the address,
// or with an error when the lookup failed. The cache is written before done
// runs.
func (r *Resolver) Resolve(host string, done func(netip.Addr, error)) error {
	r.mu.Lock()
	if r.pending[host] {
		r.mu.Unlock()
		return ErrLookupPending
	}
	r.pending[host] = true
	r.mu.Unlock()

	if addr, err := netip.ParseAddr(host); err == nil {
		r.loop.Post(func() {
			r.complete(host, addr.Unmap(), nil, done)
		})
		return nil
	}

	type result struct {
		addr netip.Addr
		err  error
	}

	loop.Go(r.loop, func() result {
		ctx := context.Background()
		if r.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}
		addrs, err := r.lookup(ctx, host)
		if err != nil {
			return result{err: err}
		}
		for _, a := range addrs {
			if a = a.Unmap(); a.Is4() {
				return result{addr: a}
			}
		}
		return result{err: ErrNoAddress}
	}, func(res result) {
		r.complete(host, res.addr, res.err, done)
	})
	return nil
}

func (r *Resolver) complete(host string, addr netip.Addr, err error, done func(netip.Addr, error)) {
	r.mu.Lock()
	delete(r.pending, host)
	if err == nil && !addr.Is4() {
		err = ErrNoAddress
	}
	if err == nil {
		r.cache[host] = addr
	}
	r.mu.Unlock()

	if err != nil {
		metrics.ResolverLookups.WithLabelValues("failure").Inc()
		r.logger.Info("Lookup failed", "host", host, "err", err.Error())
		done(netip.Addr{}, fmt.Errorf("resolve %s: %w", host, err))
		return
	}

	metrics.ResolverLookups.WithLabelValues("success").Inc()
	r.logger.Info("Resolved", "host", host, "addr", addr.String())
	done(addr, nil)
}
