package connection

import (
	"log/slog"
	"sync"
	"time"

	"github.com/botdash/realtime/internal/protocol"
)

// heartbeat emits a ping frame on a fixed interval while the connection is
// open. It is the sole owner of its timer: start/stop pairs never leave a
// ticker running, and stop guarantees no trailing ping is sent after it
// returns.
type heartbeat struct {
	interval time.Duration
	send     func([]byte) error
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

func newHeartbeat(interval time.Duration, send func([]byte) error, logger *slog.Logger) *heartbeat {
	return &heartbeat{
		interval: interval,
		send:     send,
		logger:   logger,
	}
}

// start begins the ping loop. No-op if already running.
func (h *heartbeat) start() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return
	}
	h.running = true
	h.stopCh = make(chan struct{})

	go h.loop(h.stopCh)
}

// stop halts the ping loop. After stop returns, no further ping is sent even
// if a tick already fired.
func (h *heartbeat) stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return
	}
	h.running = false
	close(h.stopCh)
}

func (h *heartbeat) loop(stopCh chan struct{}) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}

		// The send happens under the same lock stop takes, so a tick that
		// raced stop either sends before stop returns or not at all.
		h.mu.Lock()
		if !h.running {
			h.mu.Unlock()
			return
		}
		if err := h.send(protocol.PingFrame()); err != nil {
			h.logger.Debug("failed to send ping", "error", err)
		}
		h.mu.Unlock()
	}
}
