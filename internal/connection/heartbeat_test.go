package connection

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

type pingRecorder struct {
	mu     sync.Mutex
	frames [][]byte
}

func (p *pingRecorder) send(data []byte) error {
	p.mu.Lock()
	p.frames = append(p.frames, data)
	p.mu.Unlock()
	return nil
}

func (p *pingRecorder) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frames)
}

func TestHeartbeat_SendsPings(t *testing.T) {
	rec := &pingRecorder{}
	h := newHeartbeat(10*time.Millisecond, rec.send, nil)

	h.start()
	defer h.stop()

	deadline := time.After(time.Second)
	for rec.count() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d pings sent", rec.count())
		case <-time.After(5 * time.Millisecond):
		}
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	var frame map[string]string
	if err := json.Unmarshal(rec.frames[0], &frame); err != nil {
		t.Fatalf("ping frame is not JSON: %v", err)
	}
	if frame["type"] != "ping" {
		t.Errorf("frame type = %q, want ping", frame["type"])
	}
}

func TestHeartbeat_NoPingAfterStop(t *testing.T) {
	rec := &pingRecorder{}
	h := newHeartbeat(5*time.Millisecond, rec.send, nil)

	h.start()
	time.Sleep(30 * time.Millisecond)
	h.stop()

	// stop is synchronous: the count may not move after it returns.
	after := rec.count()
	time.Sleep(50 * time.Millisecond)

	if got := rec.count(); got != after {
		t.Errorf("%d pings sent after stop", got-after)
	}
}

func TestHeartbeat_StartStopIdempotent(t *testing.T) {
	rec := &pingRecorder{}
	h := newHeartbeat(time.Hour, rec.send, nil)

	h.start()
	h.start()
	h.stop()
	h.stop()

	// Restartable after stop.
	h.start()
	h.stop()
}
