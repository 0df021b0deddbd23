package connection

import (
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// EndpointURL derives the WebSocket URL from the dashboard origin: the
// scheme is upgraded (http→ws, https→wss) and the token and connection id
// ride as query parameters.
func EndpointURL(origin, path, token, connectionID string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("parse origin: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
		// already a WebSocket origin
	default:
		return "", fmt.Errorf("unsupported origin scheme %q", u.Scheme)
	}

	u.Path = path

	q := u.Query()
	q.Set("token", token)
	q.Set("connection_id", connectionID)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// NewConnectionID generates a client-side connection identifier: millisecond
// timestamp plus a random suffix, globally-unique-enough for correlating
// server logs with one browser session.
func NewConnectionID() string {
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), suffix)
}
