// Package nonce provides the strictly increasing counter that request
// signing requires. Exchanges reject a signed request whose nonce is not
// greater than the last one seen for the key, so concurrent callers must
// never observe a duplicate.
package nonce

import (
	"sync"
	"time"
)

// Source hands out strictly increasing values seeded from the wall
// clock in whole seconds. If the clock stalls or steps backwards the
// counter keeps advancing past the last value issued.
type Source struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// New creates a Source backed by the system clock.
func New() *Source {
	return NewWithClock(time.Now)
}

// NewWithClock creates a Source backed by the given clock.
func NewWithClock(now func() time.Time) *Source {
	return &Source{now: now}
}

// Next returns a value strictly greater than any previously returned.
func (s *Source) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.now().Unix()
	if n <= s.last {
		n = s.last + 1
	}
	s.last = n
	return n
}
