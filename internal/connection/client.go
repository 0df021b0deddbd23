package connection

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client represents a single WebSocket connection to the dashboard server.
type Client interface {
	// Connect establishes the WebSocket connection.
	Connect(ctx context.Context) error

	// Close sends a close frame with the given code and tears the
	// connection down.
	Close(code int, reason string) error

	// Send writes raw bytes to the connection.
	Send(data []byte) error

	// Messages returns a channel of raw inbound frames, each stamped with
	// its local receive time.
	Messages() <-chan RawMessage

	// Done returns a channel that receives exactly one CloseInfo when the
	// read loop ends.
	Done() <-chan CloseInfo
}

// client implements the Client interface.
type client struct {
	url    string
	cfg    Config
	logger *slog.Logger

	conn *websocket.Conn

	// Output channels
	messages chan RawMessage
	done     chan CloseInfo

	// Write serialization
	writeMu sync.Mutex

	// State
	mu        sync.Mutex
	connected bool
	closed    bool
}

// NewClient creates a WebSocket client for one dial of the given URL.
func NewClient(url string, cfg Config, logger *slog.Logger) Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &client{
		url:      url,
		cfg:      cfg,
		logger:   logger,
		messages: make(chan RawMessage, cfg.BufferSize),
		done:     make(chan CloseInfo, 1),
	}
}

// Connect establishes the WebSocket connection.
func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrAlreadyClosed
	}
	c.mu.Unlock()

	header := http.Header{}
	header.Set("Accept", "application/json")

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.url, header)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	go c.readLoop()

	c.logger.Debug("websocket connected")

	return nil
}

// Close sends a close frame and tears the connection down.
func (c *client) Close(code int, reason string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason),
			time.Now().Add(time.Second),
		)
		return conn.Close()
	}

	return nil
}

// Send writes raw bytes to the connection.
func (c *client) Send(data []byte) error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	conn := c.conn
	c.mu.Unlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	// A zero timeout means no deadline; an Add(0) deadline would be already
	// expired and fail every write.
	if c.cfg.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Messages returns the inbound frame channel.
func (c *client) Messages() <-chan RawMessage {
	return c.messages
}

// Done returns the close notification channel.
func (c *client) Done() <-chan CloseInfo {
	return c.done
}

// readLoop reads frames from the WebSocket until the connection ends, then
// reports how it ended.
func (c *client) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		receivedAt := time.Now()

		if err != nil {
			c.mu.Lock()
			c.connected = false
			locallyClosed := c.closed
			c.mu.Unlock()

			c.done <- closeInfoFor(err, locallyClosed)
			close(c.messages)
			return
		}

		msg := RawMessage{
			Data:       data,
			ReceivedAt: receivedAt,
		}

		select {
		case c.messages <- msg:
		default:
			c.logger.Warn("message buffer full, dropping message")
		}
	}
}

// closeInfoFor derives the close code from a read error. A locally initiated
// Close reports as normal regardless of how the read loop errored out.
func closeInfoFor(err error, locallyClosed bool) CloseInfo {
	if locallyClosed {
		return CloseInfo{Code: CloseNormal, Err: err}
	}

	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return CloseInfo{Code: ce.Code, Err: err}
	}

	return CloseInfo{Code: websocket.CloseAbnormalClosure, Err: err}
}
