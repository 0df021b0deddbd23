package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParse_BotStatus(t *testing.T) {
	raw := []byte(`{
		"message_id": "m-1",
		"type": "bot_status",
		"bot_id": "bot-42",
		"priority": 2,
		"data": {"id": "bot-42", "status": "running"}
	}`)

	env, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if env.Type != TypeBotStatus {
		t.Errorf("Type = %s, want bot_status", env.Type)
	}
	if env.BotID != "bot-42" {
		t.Errorf("BotID = %s, want bot-42", env.BotID)
	}
	if env.Priority != 2 {
		t.Errorf("Priority = %d, want 2", env.Priority)
	}
	if !env.Known() {
		t.Error("expected Known() to be true for bot_status")
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"not json", `{{{`, ErrMalformed},
		{"truncated", `{"type": "bot_st`, ErrMalformed},
		{"no type", `{"message_id": "m-1"}`, ErrMissingType},
		{"empty type", `{"type": ""}`, ErrMissingType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParse_UnknownTypeTolerated(t *testing.T) {
	env, err := Parse([]byte(`{"type": "server_added_later", "data": {}}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if env.Known() {
		t.Error("expected Known() to be false for unrecognized type")
	}
}

func TestFrames(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want map[string]string
	}{
		{"ping", PingFrame(), map[string]string{"type": "ping"}},
		{"subscribe", SubscribeFrame("bot:42"), map[string]string{"type": "subscribe", "subscription": "bot:42"}},
		{"unsubscribe", UnsubscribeFrame("bot:42"), map[string]string{"type": "unsubscribe", "subscription": "bot:42"}},
		{"chat", ChatFrame("s-1", "hello"), map[string]string{"type": "ai_chat", "session_id": "s-1", "message": "hello"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]string
			if err := json.Unmarshal(tt.data, &got); err != nil {
				t.Fatalf("frame is not valid JSON: %v", err)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("%s = %q, want %q", k, got[k], v)
				}
			}
			if len(got) != len(tt.want) {
				t.Errorf("frame has %d fields, want %d: %s", len(got), len(tt.want), tt.data)
			}
		})
	}
}
