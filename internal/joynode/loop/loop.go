// Package loop provides the cooperative event loop that serializes every
// protocol callback of the node.
//
// I/O runs on goroutines, which only ever Post completions. The owner
// goroutine calls Poll, so callbacks never run concurrently with each other
// and never re-enter one another.
package loop

import (
	"fmt"
	"sync"

	"github.com/go-logr/logr"
)

// Loop is a FIFO of callbacks drained by Poll.
type Loop struct {
	logger logr.Logger

	mu    sync.Mutex
	queue []func()

	ready chan struct{}
}

// New returns an empty loop.
func New(logger logr.Logger) *Loop {
	return &Loop{
		logger: logger.WithName("loop"),
		ready:  make(chan struct{}, 1),
	}
}

// Post enqueues fn. It is safe to call from any goroutine, including from
// inside a callback, in which case fn runs on the next Poll.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.ready <- struct{}{}:
	default:
	}
}

// Ready is signalled after Post. A receive does not guarantee pending work,
// since an earlier Poll may already have drained it.
func (l *Loop) Ready() <-chan struct{} {
	return l.ready
}

// Pending returns the number of queued callbacks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Poll runs the callbacks queued at the time of the call in FIFO order and
// returns how many ran. Only the owning goroutine may call Poll.
func (l *Loop) Poll() int {
	l.mu.Lock()
	batch := l.queue
	l.queue = nil
	l.mu.Unlock()

	for _, fn := range batch {
		l.run(fn)
	}
	return len(batch)
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error(fmt.Errorf("%v", r), "Callback panicked")
		}
	}()
	fn()
}

// Go runs work on a new goroutine and posts done with its result.
func Go[T any](l *Loop, work func() T, done func(T)) {
	go func() {
		v := work()
		l.Post(func() { done(v) })
	}()
}
