package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by callers when the breaker refuses a request.
var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

type Config struct {
	// FailThreshold is the number of consecutive failures that trips the
	// breaker open.
	FailThreshold int `json:"fail_threshold"`
	// SuccessThreshold is the number of consecutive half-open successes
	// required to close the breaker again.
	SuccessThreshold int `json:"success_threshold"`
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration `json:"timeout"`
}

// Breaker guards an upstream service. Consecutive failures trip it open,
// after which requests are refused until the timeout elapses. A single
// probe stream in the half-open state decides whether to close again.
type Breaker struct {
	mu           sync.Mutex
	state        State
	failures     int
	successes    int
	lastFailTime time.Time
	config       Config
	metrics      Metrics
	now          func() time.Time
}

// Metrics collects counters describing the breaker's history.
type Metrics struct {
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	StateChanges    int64
}

func New(config Config) *Breaker {
	return &Breaker{
		state:  StateClosed,
		config: config,
		now:    time.Now,
	}
}

// Allow reports whether a request may proceed. In the open state it
// transitions to half-open once the timeout has elapsed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.metrics.TotalRequests++
	switch b.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if b.now().Sub(b.lastFailTime) >= b.config.Timeout {
			b.transition(StateHalfOpen)
			b.successes = 0
			return true
		}
		return false
	}
	return false
}

// Record feeds the outcome of a permitted request back into the breaker.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.metrics.SuccessRequests++
	} else {
		b.metrics.FailedRequests++
	}

	switch b.state {
	case StateClosed:
		if success {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.config.FailThreshold {
			b.lastFailTime = b.now()
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		if success {
			b.successes++
			if b.successes >= b.config.SuccessThreshold {
				b.failures = 0
				b.successes = 0
				b.transition(StateClosed)
			}
			return
		}
		b.lastFailTime = b.now()
		b.successes = 0
		b.transition(StateOpen)
	case StateOpen:
		// A late result for a request permitted before the trip.
		if !success {
			b.lastFailTime = b.now()
		}
	}
}

func (b *Breaker) transition(next State) {
	if b.state == next {
		return
	}
	b.state = next
	b.metrics.StateChanges++
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the breaker closed and clears its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
}

// Metrics returns a snapshot of the breaker's counters.
func (b *Breaker) Metrics() Metrics {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.metrics
}
