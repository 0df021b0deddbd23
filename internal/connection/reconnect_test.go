package connection

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestReconnector_BackoffSequence(t *testing.T) {
	r := NewReconnector(time.Second, 30*time.Second, nil)

	// Five consecutive failed reconnects: 1, 2, 4, 8, 16 seconds.
	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
	}
	for i, w := range want {
		r.attempt = i
		if got := r.Delay(); got != w {
			t.Errorf("attempt %d: delay = %s, want %s", i, got, w)
		}
	}

	// Further failures cap at 30s.
	for _, attempt := range []int{5, 6, 10, 100} {
		r.attempt = attempt
		if got := r.Delay(); got != 30*time.Second {
			t.Errorf("attempt %d: delay = %s, want capped 30s", attempt, got)
		}
	}
}

func TestReconnector_BackoffMonotonic(t *testing.T) {
	r := NewReconnector(250*time.Millisecond, 10*time.Second, nil)

	prev := time.Duration(0)
	for attempt := 0; attempt < 20; attempt++ {
		r.attempt = attempt
		d := r.Delay()
		if d < prev {
			t.Fatalf("delay decreased: attempt %d gave %s after %s", attempt, d, prev)
		}
		if d > 10*time.Second {
			t.Fatalf("delay %s exceeds cap", d)
		}
		prev = d
	}
}

func TestReconnector_RetriesUntilSuccess(t *testing.T) {
	var calls atomic.Int32
	failures := int32(3)

	r := NewReconnector(5*time.Millisecond, 50*time.Millisecond, nil)
	r.SetConnect(func() error {
		n := calls.Add(1)
		if n <= failures {
			return errors.New("dial refused")
		}
		r.ConnectionOpened()
		return nil
	})

	r.ConnectionLost()

	deadline := time.After(2 * time.Second)
	for r.State() != RetryStable || calls.Load() < failures+1 {
		select {
		case <-deadline:
			t.Fatalf("never stabilized: state=%s calls=%d", r.State(), calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	if got := calls.Load(); got != failures+1 {
		t.Errorf("connect called %d times, want %d", got, failures+1)
	}
	if r.Attempt() != 0 {
		t.Errorf("attempt = %d after success, want 0", r.Attempt())
	}
	if r.PendingTimer() {
		t.Error("timer still pending after success")
	}
}

func TestReconnector_SingleTimer(t *testing.T) {
	r := NewReconnector(time.Hour, time.Hour, nil)
	r.SetConnect(func() error { return nil })

	r.ConnectionLost()
	if !r.PendingTimer() {
		t.Fatal("expected a pending timer")
	}

	// A second loss while backing off must not schedule another timer.
	r.ConnectionLost()
	r.ConnectionLost()

	if r.State() != RetryBackingOff {
		t.Errorf("state = %s, want backing-off", r.State())
	}
	if !r.PendingTimer() {
		t.Error("expected the original timer still pending")
	}
}

func TestReconnector_CancelClearsTimer(t *testing.T) {
	var calls atomic.Int32

	r := NewReconnector(20*time.Millisecond, time.Second, nil)
	r.SetConnect(func() error {
		calls.Add(1)
		return nil
	})

	r.ConnectionLost()
	r.Cancel()

	if r.PendingTimer() {
		t.Error("timer survived Cancel")
	}
	if r.State() != RetryStable {
		t.Errorf("state = %s, want stable", r.State())
	}

	time.Sleep(60 * time.Millisecond)
	if calls.Load() != 0 {
		t.Errorf("connect ran %d times after Cancel, want 0", calls.Load())
	}
}

func TestReconnector_ResetAfterSuccess(t *testing.T) {
	r := NewReconnector(time.Second, 30*time.Second, nil)

	r.attempt = 4
	if r.Delay() != 16*time.Second {
		t.Fatalf("precondition: delay at attempt 4 should be 16s")
	}

	r.ConnectionOpened()

	if r.Delay() != time.Second {
		t.Errorf("delay after success = %s, want base 1s", r.Delay())
	}
}
