package protocol

import "encoding/json"

// frame is the outbound wire shape. Only the fields relevant to each frame
// type are populated.
type frame struct {
	Type         string `json:"type"`
	Subscription string `json:"subscription,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
	Message      string `json:"message,omitempty"`
}

func marshal(f frame) []byte {
	data, _ := json.Marshal(f)
	return data
}

// PingFrame is the keep-alive frame sent by the heartbeat monitor.
func PingFrame() []byte {
	return marshal(frame{Type: "ping"})
}

// SubscribeFrame requests updates for one topic.
func SubscribeFrame(topic string) []byte {
	return marshal(frame{Type: "subscribe", Subscription: topic})
}

// UnsubscribeFrame ends updates for one topic.
func UnsubscribeFrame(topic string) []byte {
	return marshal(frame{Type: "unsubscribe", Subscription: topic})
}

// ChatFrame sends one user message into an AI chat session.
func ChatFrame(sessionID, message string) []byte {
	return marshal(frame{Type: "ai_chat", SessionID: sessionID, Message: message})
}
