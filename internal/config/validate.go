package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *ClientConfig) Validate() error {
	if c.Origin == "" {
		return errors.New("origin is required")
	}
	u, err := url.Parse(c.Origin)
	if err != nil {
		return fmt.Errorf("origin is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("origin scheme must be http or https, got %q", u.Scheme)
	}

	if !strings.HasPrefix(c.Realtime.WSPath, "/") {
		return fmt.Errorf("realtime.ws_path must start with /, got %q", c.Realtime.WSPath)
	}
	if c.Realtime.BufferSize < 1 {
		return errors.New("realtime.buffer_size must be >= 1")
	}
	if c.Realtime.ReconnectBaseDelay <= 0 {
		return errors.New("realtime.reconnect_base_delay must be > 0")
	}
	if c.Realtime.ReconnectMaxDelay < c.Realtime.ReconnectBaseDelay {
		return fmt.Errorf("realtime.reconnect_max_delay (%s) cannot be less than reconnect_base_delay (%s)",
			c.Realtime.ReconnectMaxDelay, c.Realtime.ReconnectBaseDelay)
	}
	if c.Realtime.HeartbeatInterval <= 0 {
		return errors.New("realtime.heartbeat_interval must be > 0")
	}
	if c.Realtime.WriteTimeout <= 0 {
		return errors.New("realtime.write_timeout must be > 0")
	}
	if c.Realtime.HandshakeTimeout <= 0 {
		return errors.New("realtime.handshake_timeout must be > 0")
	}

	if c.Notifications.PriorityThreshold < 1 {
		return errors.New("notifications.priority_threshold must be >= 1")
	}

	if c.Alerts.MaxBuffered < 1 {
		return errors.New("alerts.max_buffered must be >= 1")
	}

	if c.ChangeFeed.Enabled {
		if err := c.ChangeFeed.Postgres.validate("changefeed.postgres"); err != nil {
			return err
		}
	}

	if c.Health.Port < 1 || c.Health.Port > 65535 {
		return fmt.Errorf("health.port must be between 1 and 65535, got %d", c.Health.Port)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
