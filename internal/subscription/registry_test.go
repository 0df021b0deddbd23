package subscription

import (
	"encoding/json"
	"sync"
	"testing"
)

// frameRecorder captures outbound frames and simulates connection state.
type frameRecorder struct {
	mu     sync.Mutex
	open   bool
	frames []map[string]string
}

func (f *frameRecorder) send(data []byte) {
	var frame map[string]string
	json.Unmarshal(data, &frame)
	f.mu.Lock()
	f.frames = append(f.frames, frame)
	f.mu.Unlock()
}

func (f *frameRecorder) isOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *frameRecorder) setOpen(open bool) {
	f.mu.Lock()
	f.open = open
	f.mu.Unlock()
}

func (f *frameRecorder) count(frameType, topic string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, fr := range f.frames {
		if fr["type"] == frameType && fr["subscription"] == topic {
			n++
		}
	}
	return n
}

func TestRegistry_IdempotentReplay(t *testing.T) {
	rec := &frameRecorder{}
	r := NewRegistry(rec.send, rec.isOpen, nil)

	// Subscribe twice before connecting.
	r.Subscribe(BotTopic("42"))
	r.Subscribe(BotTopic("42"))

	if got := rec.count("subscribe", "bot:42"); got != 0 {
		t.Fatalf("%d frames sent while closed, want 0", got)
	}

	// Connect: replay sends exactly one frame for the topic.
	rec.setOpen(true)
	r.ReplayAll()

	if got := rec.count("subscribe", "bot:42"); got != 1 {
		t.Errorf("replay sent %d subscribe frames for bot:42, want 1", got)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1 (set semantics)", r.Len())
	}
}

func TestRegistry_SubscribeWhileOpenSendsImmediately(t *testing.T) {
	rec := &frameRecorder{open: true}
	r := NewRegistry(rec.send, rec.isOpen, nil)

	r.Subscribe(TradeTopic("t-1"))

	if got := rec.count("subscribe", "trade:t-1"); got != 1 {
		t.Errorf("sent %d frames, want 1", got)
	}

	// Duplicate subscribe while open: set already holds it, no frame.
	r.Subscribe(TradeTopic("t-1"))
	if got := rec.count("subscribe", "trade:t-1"); got != 1 {
		t.Errorf("duplicate subscribe sent another frame (total %d)", got)
	}
}

func TestRegistry_UnsubscribeOffline(t *testing.T) {
	rec := &frameRecorder{}
	r := NewRegistry(rec.send, rec.isOpen, nil)

	r.Subscribe(UserTopic("u-1"))
	r.Unsubscribe(UserTopic("u-1"))

	if r.Has(UserTopic("u-1")) {
		t.Error("topic still active after offline unsubscribe")
	}
	if len(rec.frames) != 0 {
		t.Errorf("%d frames sent while closed, want 0", len(rec.frames))
	}

	// A replay after reconnect must not resurrect it.
	rec.setOpen(true)
	r.ReplayAll()
	if got := rec.count("subscribe", "user:u-1"); got != 0 {
		t.Errorf("removed topic replayed %d times", got)
	}
}

func TestRegistry_UnsubscribeWhileOpen(t *testing.T) {
	rec := &frameRecorder{open: true}
	r := NewRegistry(rec.send, rec.isOpen, nil)

	r.Subscribe(StrategyTopic("s-1"))
	r.Unsubscribe(StrategyTopic("s-1"))

	if got := rec.count("unsubscribe", "strategy:s-1"); got != 1 {
		t.Errorf("sent %d unsubscribe frames, want 1", got)
	}

	// Unsubscribing an unknown topic sends nothing.
	r.Unsubscribe(StrategyTopic("s-1"))
	if got := rec.count("unsubscribe", "strategy:s-1"); got != 1 {
		t.Errorf("second unsubscribe sent another frame (total %d)", got)
	}
}

func TestRegistry_ReplayCoversWholeSet(t *testing.T) {
	rec := &frameRecorder{}
	r := NewRegistry(rec.send, rec.isOpen, nil)

	topics := []string{BotTopic("1"), BotTopic("2"), UserTopic("u"), TradeTopic("t")}
	for _, topic := range topics {
		r.Subscribe(topic)
	}

	rec.setOpen(true)
	r.ReplayAll()

	for _, topic := range topics {
		if got := rec.count("subscribe", topic); got != 1 {
			t.Errorf("topic %s replayed %d times, want 1", topic, got)
		}
	}
}

func TestSplit(t *testing.T) {
	kind, id, err := Split("bot:abc-123")
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if kind != "bot" || id != "abc-123" {
		t.Errorf("Split = (%s, %s)", kind, id)
	}

	for _, bad := range []string{"", "bot", "bot:", ":42"} {
		if _, _, err := Split(bad); err == nil {
			t.Errorf("Split(%q) succeeded, want error", bad)
		}
	}
}
