package connection

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/botdash/realtime/internal/auth"
)

// Manager owns the single logical connection for one client session:
// lifecycle, authenticated handshake, sends, and the heartbeat timer. It
// never decides retry policy; abnormal closes are handed to the
// Reconnector.
type Manager struct {
	cfg     Config
	tokens  auth.TokenSource
	retrier *Reconnector
	logger  *slog.Logger

	heartbeat *heartbeat

	// Stable output channel for the Message Router; survives reconnects.
	messages chan RawMessage

	mu           sync.RWMutex
	state        State
	client       Client
	connID       string
	lastActivity time.Time

	stateSubs map[int]func(State)
	nextSub   int

	onOpen  []func()
	onError []func(error)
}

// NewManager creates a Connection Manager. The Reconnector is injected so
// retry policy stays outside the transport; callers wire its connect action
// back to Connect.
func NewManager(cfg Config, tokens auth.TokenSource, retrier *Reconnector, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		cfg:       cfg,
		tokens:    tokens,
		retrier:   retrier,
		logger:    logger,
		messages:  make(chan RawMessage, cfg.BufferSize),
		state:     StateIdle,
		stateSubs: make(map[int]func(State)),
	}
	m.heartbeat = newHeartbeat(cfg.HeartbeatInterval, m.sendOnOpen, logger)
	return m
}

// OnOpen registers a callback invoked after every successful (re)connect.
// The Subscription Registry replays its active set from here. Register
// before the first Connect.
func (m *Manager) OnOpen(fn func()) {
	m.mu.Lock()
	m.onOpen = append(m.onOpen, fn)
	m.mu.Unlock()
}

// OnConnectionError registers a callback for transport-level failures.
// Errors never propagate to callers as panics or fatal conditions; they
// arrive here for toasts and diagnostics.
func (m *Manager) OnConnectionError(fn func(error)) {
	m.mu.Lock()
	m.onError = append(m.onError, fn)
	m.mu.Unlock()
}

// Connect opens the connection carrying a fresh token and a freshly
// generated connection id. Fails fast with auth.ErrNoToken when the session
// provider has no credential: no connection attempt, no retry loop.
func (m *Manager) Connect(ctx context.Context) error {
	token, err := m.tokens.Token(ctx)
	if err != nil {
		m.logger.Warn("connect refused, no credential", "error", err)
		return err
	}

	connID := NewConnectionID()
	endpoint, err := EndpointURL(m.cfg.Origin, m.cfg.WSPath, token, connID)
	if err != nil {
		return err
	}

	m.setState(StateConnecting)

	client := NewClient(endpoint, m.cfg, m.logger.With("connection_id", connID))
	if err := client.Connect(ctx); err != nil {
		m.setState(StateClosed)
		m.notifyError(err)
		return err
	}

	m.mu.Lock()
	m.client = client
	m.connID = connID
	m.lastActivity = time.Now()
	m.mu.Unlock()

	m.setState(StateOpen)
	m.heartbeat.start()
	m.retrier.ConnectionOpened()

	go m.watch(client)

	m.mu.RLock()
	callbacks := append([]func(){}, m.onOpen...)
	m.mu.RUnlock()
	for _, fn := range callbacks {
		fn()
	}

	m.logger.Info("connected", "connection_id", connID)

	return nil
}

// Send writes a frame best-effort. Frames sent while the connection is not
// open are silently dropped, not queued. The realtime layer is a live
// view, not a reliable log.
func (m *Manager) Send(frame []byte) {
	if err := m.sendOnOpen(frame); err != nil {
		m.logger.Debug("dropping frame", "error", err)
	}
}

func (m *Manager) sendOnOpen(frame []byte) error {
	m.mu.RLock()
	client := m.client
	open := m.state == StateOpen
	m.mu.RUnlock()

	if !open || client == nil {
		return ErrNotConnected
	}

	m.mu.Lock()
	m.lastActivity = time.Now()
	m.mu.Unlock()

	return client.Send(frame)
}

// Disconnect initiates a clean close and cancels the heartbeat timer and
// any pending reconnect timer.
func (m *Manager) Disconnect(reason string) {
	m.retrier.Cancel()
	m.heartbeat.stop()

	m.mu.Lock()
	client := m.client
	m.client = nil
	m.mu.Unlock()

	if client != nil {
		m.setState(StateClosing)
		client.Close(CloseNormal, reason)
	}
	m.setState(StateClosed)
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// ConnectionID returns the id sent on the last connect.
func (m *Manager) ConnectionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connID
}

// LastActivity returns the time of the last send or receive.
func (m *Manager) LastActivity() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastActivity
}

// Messages returns the inbound frame channel consumed by the Message
// Router. The channel is stable across reconnects.
func (m *Manager) Messages() <-chan RawMessage {
	return m.messages
}

// StateChanges registers an observer for lifecycle transitions; the UI
// renders its "reconnecting" indicator from this. The returned cancel func
// unregisters it.
func (m *Manager) StateChanges(fn func(State)) (cancel func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.stateSubs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.stateSubs, id)
		m.mu.Unlock()
	}
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	if m.state == s {
		m.mu.Unlock()
		return
	}
	m.state = s
	observers := make([]func(State), 0, len(m.stateSubs))
	for _, fn := range m.stateSubs {
		observers = append(observers, fn)
	}
	m.mu.Unlock()

	for _, fn := range observers {
		fn(s)
	}
}

func (m *Manager) notifyError(err error) {
	m.mu.RLock()
	callbacks := append([]func(error){}, m.onError...)
	m.mu.RUnlock()
	for _, fn := range callbacks {
		fn(err)
	}
}

// watch forwards inbound frames to the router channel and handles the
// connection's end.
func (m *Manager) watch(client Client) {
	msgs := client.Messages()
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				// Channel closes right after Done fires; wait for Done.
				msgs = nil
				continue
			}

			m.mu.Lock()
			m.lastActivity = msg.ReceivedAt
			m.mu.Unlock()

			select {
			case m.messages <- msg:
			default:
				m.logger.Warn("router buffer full, dropping message")
			}

		case ci := <-client.Done():
			m.handleClose(client, ci)
			return
		}
	}
}

// handleClose runs when the transport ends for any reason. Intentional
// closes stop here; anything else is handed to the Reconnector.
func (m *Manager) handleClose(client Client, ci CloseInfo) {
	m.mu.Lock()
	// A stale client's close (already replaced by a reconnect) is ignored.
	if m.client != client {
		m.mu.Unlock()
		return
	}
	m.client = nil
	wasClosing := m.state == StateClosing || m.state == StateClosed
	m.mu.Unlock()

	m.heartbeat.stop()
	m.setState(StateClosed)

	if wasClosing || ci.Intentional() {
		m.logger.Info("connection closed", "code", ci.Code)
		return
	}

	m.logger.Warn("connection lost",
		"code", ci.Code,
		"error", ci.Err,
	)
	m.notifyError(ci.Err)
	m.retrier.ConnectionLost()
}
