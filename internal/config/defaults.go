package config

import (
	"strings"
	"time"
)

// Default values for optional configuration fields.
const (
	DefaultWSPath             = "/api/v1/ws"
	DefaultAPITimeout         = 30 * time.Second
	DefaultMaxRetries         = 3
	DefaultHeartbeatInterval  = 30 * time.Second
	DefaultWriteTimeout       = 5 * time.Second
	DefaultHandshakeTimeout   = 10 * time.Second
	DefaultBufferSize         = 1000
	DefaultReconnectBaseDelay = 1 * time.Second
	DefaultReconnectMaxDelay  = 30 * time.Second
	DefaultPriorityThreshold  = 4
	DefaultNotifyBufferSize   = 64
	DefaultMaxBufferedAlerts  = 50
	DefaultFeedChannel        = "row_changes"
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 4
	DefaultMinConns           = 1
	DefaultHealthPort         = 8080
	DefaultHealthPath         = "/health"
)

func (c *ClientConfig) applyDefaults() {
	if c.API.BaseURL == "" && c.Origin != "" {
		c.API.BaseURL = strings.TrimRight(c.Origin, "/") + "/api/v1"
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}

	if c.Realtime.WSPath == "" {
		c.Realtime.WSPath = DefaultWSPath
	}
	if c.Realtime.HeartbeatInterval == 0 {
		c.Realtime.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Realtime.WriteTimeout == 0 {
		c.Realtime.WriteTimeout = DefaultWriteTimeout
	}
	if c.Realtime.HandshakeTimeout == 0 {
		c.Realtime.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Realtime.BufferSize == 0 {
		c.Realtime.BufferSize = DefaultBufferSize
	}
	if c.Realtime.ReconnectBaseDelay == 0 {
		c.Realtime.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.Realtime.ReconnectMaxDelay == 0 {
		c.Realtime.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}

	if c.Notifications.PriorityThreshold == 0 {
		c.Notifications.PriorityThreshold = DefaultPriorityThreshold
	}
	if c.Notifications.BufferSize == 0 {
		c.Notifications.BufferSize = DefaultNotifyBufferSize
	}

	if c.Alerts.MaxBuffered == 0 {
		c.Alerts.MaxBuffered = DefaultMaxBufferedAlerts
	}

	if c.ChangeFeed.Channel == "" {
		c.ChangeFeed.Channel = DefaultFeedChannel
	}
	applyDBDefaults(&c.ChangeFeed.Postgres)

	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
	if c.Health.Path == "" {
		c.Health.Path = DefaultHealthPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
