package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/botdash/realtime/internal/model"
)

func TestEntityStore_PutGet(t *testing.T) {
	s := NewEntityStore[model.BotUpdate]()

	s.Put("bot-1", model.BotUpdate{BotID: "bot-1", Status: "running"})
	s.Put("bot-1", model.BotUpdate{BotID: "bot-1", Status: "paused"})

	got, ok := s.Get("bot-1")
	if !ok {
		t.Fatal("expected bot-1 present")
	}
	if got.Status != "paused" {
		t.Errorf("Status = %s, want paused (last write wins)", got.Status)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestEntityStore_SubscribeNotify(t *testing.T) {
	s := NewEntityStore[model.BotUpdate]()

	var mu sync.Mutex
	var seen []string
	cancel := s.Subscribe(func(id string, v model.BotUpdate) {
		mu.Lock()
		seen = append(seen, id+":"+v.Status)
		mu.Unlock()
	})

	s.Put("bot-1", model.BotUpdate{Status: "running"})
	s.Put("bot-2", model.BotUpdate{Status: "error"})

	cancel()
	s.Put("bot-3", model.BotUpdate{Status: "stopped"})

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("observer saw %d updates, want 2: %v", len(seen), seen)
	}
	if seen[0] != "bot-1:running" || seen[1] != "bot-2:error" {
		t.Errorf("observer saw %v", seen)
	}
}

func TestEntityStore_ObserverMayReadBack(t *testing.T) {
	s := NewEntityStore[model.BotUpdate]()

	done := make(chan struct{})
	s.Subscribe(func(id string, v model.BotUpdate) {
		// Reading from inside an observer must not deadlock.
		s.Get(id)
		s.Snapshot()
		close(done)
	})

	s.Put("bot-1", model.BotUpdate{Status: "running"})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("observer deadlocked reading from store")
	}
}

func TestEntityStore_ConcurrentSources(t *testing.T) {
	s := NewEntityStore[model.BotUpdate]()

	var wg sync.WaitGroup
	for src := 0; src < 4; src++ {
		wg.Add(1)
		go func(src int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.Put(fmt.Sprintf("bot-%d", i%10), model.BotUpdate{Status: "running"})
			}
		}(src)
	}
	wg.Wait()

	if s.Len() != 10 {
		t.Errorf("Len = %d, want 10", s.Len())
	}
}

func TestAlertBuffer_EvictionCap(t *testing.T) {
	b := NewAlertBuffer(50)

	for i := 0; i < 60; i++ {
		b.Push(model.Alert{ID: fmt.Sprintf("a-%d", i)})
	}

	if b.Len() != 50 {
		t.Fatalf("Len = %d, want 50", b.Len())
	}

	snap := b.Snapshot()
	if snap[0].ID != "a-59" {
		t.Errorf("most recent = %s, want a-59", snap[0].ID)
	}
	if snap[49].ID != "a-10" {
		t.Errorf("oldest kept = %s, want a-10", snap[49].ID)
	}
}

func TestAlertBuffer_Dismiss(t *testing.T) {
	b := NewAlertBuffer(10)
	b.Push(model.Alert{ID: "a-1"})
	b.Push(model.Alert{ID: "a-2"})

	if !b.Dismiss("a-1") {
		t.Error("Dismiss(a-1) = false, want true")
	}
	if b.Dismiss("a-1") {
		t.Error("second Dismiss(a-1) = true, want false")
	}
	if b.Len() != 1 {
		t.Errorf("Len = %d, want 1", b.Len())
	}
}

func TestChatLog_Append(t *testing.T) {
	l := NewChatLog()

	l.Append(model.ChatTurn{SessionID: "s-1", Role: "user", Message: "hi"})
	l.Append(model.ChatTurn{SessionID: "s-1", Role: "assistant", Message: "hello"})
	l.Append(model.ChatTurn{SessionID: "s-2", Role: "user", Message: "other"})

	turns := l.Session("s-1")
	if len(turns) != 2 {
		t.Fatalf("session s-1 has %d turns, want 2", len(turns))
	}
	if turns[0].Message != "hi" || turns[1].Message != "hello" {
		t.Errorf("turns out of order: %+v", turns)
	}

	l.Drop("s-1")
	if len(l.Session("s-1")) != 0 {
		t.Error("expected s-1 transcript dropped")
	}
	if l.Sessions() != 1 {
		t.Errorf("Sessions = %d, want 1", l.Sessions())
	}
}

func TestMetricsCell_Replace(t *testing.T) {
	c := NewMetricsCell()

	if _, ok := c.Current(); ok {
		t.Error("expected empty cell")
	}

	c.Replace(model.MetricsSnapshot{ActiveBots: 3, TotalPnL: 12.5})
	c.Replace(model.MetricsSnapshot{ActiveBots: 4})

	got, ok := c.Current()
	if !ok {
		t.Fatal("expected snapshot present")
	}
	if got.ActiveBots != 4 {
		t.Errorf("ActiveBots = %d, want 4", got.ActiveBots)
	}
	if got.TotalPnL != 0 {
		t.Errorf("TotalPnL = %v, want 0 (wholesale replace, no merge)", got.TotalPnL)
	}
}
