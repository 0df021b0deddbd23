package router

// Config holds Message Router settings.
type Config struct {
	// PriorityThreshold is the minimum envelope priority at which an
	// inbound alert also raises a user-facing notification.
	PriorityThreshold int
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		PriorityThreshold: 4,
	}
}

// Stats contains runtime statistics.
type Stats struct {
	Received      int64
	Routed        int64
	ParseErrors   int64
	UnknownTypes  int64
	Notifications int64
}
