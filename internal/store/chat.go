package store

import (
	"sync"

	"github.com/botdash/realtime/internal/model"
)

// ChatLog keeps per-session append-only chat transcripts. A session's log
// grows until the hosting session ends and the log is dropped wholesale.
type ChatLog struct {
	mu       sync.RWMutex
	sessions map[string][]model.ChatTurn
}

// NewChatLog creates an empty log.
func NewChatLog() *ChatLog {
	return &ChatLog{sessions: make(map[string][]model.ChatTurn)}
}

// Append adds a turn to its session's transcript.
func (l *ChatLog) Append(turn model.ChatTurn) {
	l.mu.Lock()
	l.sessions[turn.SessionID] = append(l.sessions[turn.SessionID], turn)
	l.mu.Unlock()
}

// Session returns a copy of one session's transcript in arrival order.
func (l *ChatLog) Session(id string) []model.ChatTurn {
	l.mu.RLock()
	defer l.mu.RUnlock()

	turns := l.sessions[id]
	out := make([]model.ChatTurn, len(turns))
	copy(out, turns)
	return out
}

// Drop discards one session's transcript.
func (l *ChatLog) Drop(id string) {
	l.mu.Lock()
	delete(l.sessions, id)
	l.mu.Unlock()
}

// Sessions returns the number of sessions with transcripts.
func (l *ChatLog) Sessions() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.sessions)
}
