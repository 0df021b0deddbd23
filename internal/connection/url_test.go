package connection

import (
	"net/url"
	"strings"
	"testing"
)

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		want   string
	}{
		{"http upgrades to ws", "http://localhost:3000", "ws://localhost:3000"},
		{"https upgrades to wss", "https://dash.example.com", "wss://dash.example.com"},
		{"ws passes through", "ws://localhost:3000", "ws://localhost:3000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EndpointURL(tt.origin, "/api/v1/ws", "tok-1", "cid-1")
			if err != nil {
				t.Fatalf("EndpointURL failed: %v", err)
			}

			u, err := url.Parse(got)
			if err != nil {
				t.Fatalf("result is not a URL: %v", err)
			}
			if !strings.HasPrefix(got, tt.want) {
				t.Errorf("URL = %s, want prefix %s", got, tt.want)
			}
			if u.Path != "/api/v1/ws" {
				t.Errorf("path = %s, want /api/v1/ws", u.Path)
			}
			if u.Query().Get("token") != "tok-1" {
				t.Errorf("token = %s, want tok-1", u.Query().Get("token"))
			}
			if u.Query().Get("connection_id") != "cid-1" {
				t.Errorf("connection_id = %s, want cid-1", u.Query().Get("connection_id"))
			}
		})
	}
}

func TestEndpointURL_BadScheme(t *testing.T) {
	if _, err := EndpointURL("ftp://example.com", "/ws", "t", "c"); err == nil {
		t.Error("expected error for ftp origin")
	}
}

func TestNewConnectionID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewConnectionID()
		if seen[id] {
			t.Fatalf("duplicate connection id %s", id)
		}
		seen[id] = true

		if !strings.Contains(id, "-") {
			t.Fatalf("id %s missing timestamp-suffix separator", id)
		}
	}
}
