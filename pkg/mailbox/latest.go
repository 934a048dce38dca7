// Package mailbox provides a single-slot, overwrite-on-write, never-blocking
// handoff between a producer running at one cadence and a consumer at another.
package mailbox

import (
	"sync/atomic"
	"time"
)

type slot[T any] struct {
	value T
	ok    bool
	at    time.Time
}

// Latest holds the most recently published value. Publishing replaces any
// unread value; readers always see the newest one and never wait.
// The zero value is ready to use and holds nothing.
type Latest[T any] struct {
	cur     atomic.Pointer[slot[T]]
	version atomic.Uint64
	now     func() time.Time
}

// Option configures a Latest.
type Option[T any] func(*Latest[T])

// WithClock overrides time.Now, for tests.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(l *Latest[T]) {
		l.now = now
	}
}

// New creates an empty mailbox.
func New[T any](opts ...Option[T]) *Latest[T] {
	l := &Latest[T]{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Latest[T]) clock() time.Time {
	if l.now != nil {
		return l.now()
	}
	return time.Now()
}

// Publish replaces the held value.
func (l *Latest[T]) Publish(v T) {
	l.cur.Store(&slot[T]{value: v, ok: true, at: l.clock()})
	l.version.Add(1)
}

// Clear replaces the held value with "nothing". Use it when the producer ran
// but had nothing to report, so consumers stop acting on an old value.
func (l *Latest[T]) Clear() {
	l.cur.Store(&slot[T]{at: l.clock()})
	l.version.Add(1)
}

// Load returns the held value, when it was published, and whether there is one.
func (l *Latest[T]) Load() (T, time.Time, bool) {
	s := l.cur.Load()
	if s == nil || !s.ok {
		var zero T
		var at time.Time
		if s != nil {
			at = s.at
		}
		return zero, at, false
	}
	return s.value, s.at, true
}

// LoadFresh is Load that also treats values older than maxAge as absent.
// maxAge <= 0 disables the age check.
func (l *Latest[T]) LoadFresh(maxAge time.Duration) (T, bool) {
	v, at, ok := l.Load()
	if !ok {
		return v, false
	}
	if maxAge > 0 && l.clock().Sub(at) > maxAge {
		var zero T
		return zero, false
	}
	return v, true
}

// Version counts publishes and clears. Consumers can compare versions to
// detect that something new arrived without comparing values.
func (l *Latest[T]) Version() uint64 {
	return l.version.Load()
}
