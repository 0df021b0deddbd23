package connection

import (
	"log/slog"
	"sync"
	"time"
)

// RetryState is the Reconnection Controller's state.
type RetryState string

const (
	RetryStable     RetryState = "stable"
	RetryBackingOff RetryState = "backing-off"
	RetryConnecting RetryState = "connecting"
)

// Reconnector decides whether and when to reconnect after an abnormal close.
// It is an explicit state machine: attempt counter, single timer handle, and
// state live here and are mutated only through the transition methods below.
// The Reconnector is the sole owner of the reconnect timer; at most one timer
// is pending at any moment.
type Reconnector struct {
	base   time.Duration
	max    time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	state   RetryState
	attempt int
	timer   *time.Timer
	connect func() error
}

// NewReconnector creates a controller with capped exponential backoff.
func NewReconnector(base, max time.Duration, logger *slog.Logger) *Reconnector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconnector{
		base:   base,
		max:    max,
		logger: logger,
		state:  RetryStable,
	}
}

// SetConnect wires the reconnect action. Must be called before the first
// ConnectionLost.
func (r *Reconnector) SetConnect(fn func() error) {
	r.mu.Lock()
	r.connect = fn
	r.mu.Unlock()
}

// State returns the current controller state.
func (r *Reconnector) State() RetryState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Attempt returns the current failure count.
func (r *Reconnector) Attempt() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempt
}

// Delay returns the backoff delay for the current attempt:
// min(base * 2^attempt, max).
func (r *Reconnector) Delay() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.delayLocked()
}

func (r *Reconnector) delayLocked() time.Duration {
	// Shift overflow guard: beyond ~30 doublings the cap always wins.
	if r.attempt > 30 {
		return r.max
	}
	d := r.base << uint(r.attempt)
	if d > r.max || d <= 0 {
		return r.max
	}
	return d
}

// ConnectionLost schedules a reconnect attempt. A loss reported while a
// timer is already pending, or while a connect is in flight, schedules
// nothing; there is never a second timer.
func (r *Reconnector) ConnectionLost() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != RetryStable {
		return
	}
	r.scheduleLocked()
}

// ConnectionOpened resets the controller after any successful connect.
func (r *Reconnector) ConnectionOpened() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.attempt = 0
	r.state = RetryStable
	r.stopTimerLocked()
}

// Cancel clears any pending timer. No reconnect happens after an intentional
// disconnect.
func (r *Reconnector) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopTimerLocked()
	r.attempt = 0
	r.state = RetryStable
}

// PendingTimer reports whether a reconnect timer is currently scheduled.
func (r *Reconnector) PendingTimer() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timer != nil
}

func (r *Reconnector) stopTimerLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Reconnector) scheduleLocked() {
	delay := r.delayLocked()
	r.state = RetryBackingOff
	r.logger.Info("scheduling reconnect",
		"attempt", r.attempt,
		"delay", delay,
	)
	r.timer = time.AfterFunc(delay, r.fire)
}

// fire runs when the backoff timer elapses: attempt one reconnect, then
// either settle or back off again.
func (r *Reconnector) fire() {
	r.mu.Lock()
	if r.state != RetryBackingOff {
		r.mu.Unlock()
		return
	}
	r.state = RetryConnecting
	r.timer = nil
	connect := r.connect
	r.mu.Unlock()

	if connect == nil {
		return
	}

	err := connect()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Cancelled while the connect was in flight.
	if r.state != RetryConnecting {
		return
	}

	if err != nil {
		r.logger.Warn("reconnect failed", "attempt", r.attempt, "error", err)
		r.attempt++
		r.scheduleLocked()
		return
	}

	r.attempt = 0
	r.state = RetryStable
}
