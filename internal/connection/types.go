package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected  = errors.New("not connected")
	ErrAlreadyClosed = errors.New("already closed")
)

// State is the lifecycle state of the logical connection.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateOpen       State = "open"
	StateClosing    State = "closing"
	StateClosed     State = "closed"
)

// Intentional close codes. Any other close code triggers the Reconnection
// Controller.
const (
	CloseNormal    = 1000
	CloseGoingAway = 1001
)

// RawMessage wraps raw frame bytes with the local receive timestamp. Entity
// stores order updates by this timestamp's arrival, never by server time.
type RawMessage struct {
	Data       []byte
	ReceivedAt time.Time
}

// CloseInfo describes how a connection ended.
type CloseInfo struct {
	Code int   // WebSocket close code; 1006 when the transport failed without one
	Err  error // underlying read error
}

// Intentional reports whether the close code suppresses auto-reconnect.
func (ci CloseInfo) Intentional() bool {
	return ci.Code == CloseNormal || ci.Code == CloseGoingAway
}

// Config configures the Connection Manager.
type Config struct {
	Origin            string        // dashboard origin, e.g. https://dash.example.com
	WSPath            string        // WebSocket path under the origin
	HeartbeatInterval time.Duration // ping cadence while open
	WriteTimeout      time.Duration // write deadline for sends
	HandshakeTimeout  time.Duration // dial timeout
	BufferSize        int           // inbound message channel buffer size
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		WSPath:            "/api/v1/ws",
		HeartbeatInterval: 30 * time.Second,
		WriteTimeout:      5 * time.Second,
		HandshakeTimeout:  10 * time.Second,
		BufferSize:        1000,
	}
}
