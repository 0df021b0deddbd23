package config

import "time"

// ClientConfig is the root configuration for a realtime client instance.
type ClientConfig struct {
	Origin        string              `yaml:"origin"` // dashboard origin, e.g. https://dash.example.com
	API           APIConfig           `yaml:"api"`
	Realtime      RealtimeConfig      `yaml:"realtime"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Alerts        AlertsConfig        `yaml:"alerts"`
	ChangeFeed    ChangeFeedConfig    `yaml:"changefeed"`
	Health        HealthConfig        `yaml:"health"`
}

// APIConfig holds dashboard REST API settings (resync after connect).
type APIConfig struct {
	BaseURL    string        `yaml:"base_url"` // defaults to <origin>/api/v1
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// RealtimeConfig holds WebSocket connection settings.
type RealtimeConfig struct {
	WSPath             string        `yaml:"ws_path"`
	HeartbeatInterval  time.Duration `yaml:"heartbeat_interval"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	HandshakeTimeout   time.Duration `yaml:"handshake_timeout"`
	BufferSize         int           `yaml:"buffer_size"`
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
}

// NotificationsConfig holds toast emission settings.
type NotificationsConfig struct {
	// PriorityThreshold is the minimum envelope priority at which an alert
	// raises a user-facing notification.
	PriorityThreshold int `yaml:"priority_threshold"`
	BufferSize        int `yaml:"buffer_size"`
}

// AlertsConfig holds the bounded alert buffer settings.
type AlertsConfig struct {
	MaxBuffered int `yaml:"max_buffered"`
}

// ChangeFeedConfig holds the row-level change feed source.
type ChangeFeedConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Channel  string   `yaml:"channel"` // Postgres NOTIFY channel name
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// HealthConfig holds the local health endpoint settings.
type HealthConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`
}
