package core

// import_limiter.go hands out database write slots to imports.
//
// SQLite allows a single writer, so the default is one slot: a second import
// waits up to maxWait for the first to commit and then fails with
// ErrTooManyImports. Drain closes the limiter for good; imports already
// holding a slot finish, and later ones fail with ErrImportsClosed.

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrTooManyImports is returned when every write slot stays taken for
	// the whole wait. Clients should retry after a short delay.
	ErrTooManyImports = errors.New("too many concurrent imports, please try again later")

	// ErrImportsClosed is returned once the limiter has been drained.
	ErrImportsClosed = errors.New("imports are closed: server is shutting down")
)

// DefaultMaxConcurrentImports is the default limit for parallel imports.
const DefaultMaxConcurrentImports = 1

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// ImportLimiter bounds the number of imports holding a write transaction.
type ImportLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	active atomic.Int32
	closed atomic.Bool
}

// NewImportLimiter creates a limiter with maxConcurrent write slots.
// Non-positive arguments select the defaults.
func NewImportLimiter(maxConcurrent int, maxWait time.Duration) *ImportLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentImports
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &ImportLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a write slot and returns the func that gives it back.
// The release func is safe to call more than once.
func (l *ImportLimiter) Acquire(ctx context.Context) (release func(), err error) {
	if l.closed.Load() {
		return nil, ErrImportsClosed
	}

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrTooManyImports
	}

	// Drain may have started while we waited for the slot.
	if l.closed.Load() {
		<-l.slots
		return nil, ErrImportsClosed
	}

	l.active.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			l.active.Add(-1)
			<-l.slots
		})
	}, nil
}

// ActiveCount returns the number of imports holding a slot.
func (l *ImportLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// Available returns the number of free slots.
func (l *ImportLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// Drain closes the limiter to new imports and blocks until every running
// import has released its slot or ctx is done.
func (l *ImportLimiter) Drain(ctx context.Context) error {
	l.closed.Store(true)

	for range cap(l.slots) {
		select {
		case l.slots <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
