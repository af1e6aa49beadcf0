package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"direct", "203.0.113.7:5000", "", "", "203.0.113.7"},
		{"untrusted peer cannot spoof", "203.0.113.7:5000", "1.2.3.4", "", "203.0.113.7"},
		{"trusted proxy forwards", "10.0.0.2:5000", "198.51.100.9, 10.0.0.2", "", "198.51.100.9"},
		{"trusted proxy real ip", "127.0.0.1:5000", "", "198.51.100.10", "198.51.100.10"},
		{"trusted proxy bad header", "127.0.0.1:5000", "garbage", "", "127.0.0.1"},
		{"no port", "203.0.113.8", "", "", "203.0.113.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, extractClientIP(req))
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter()
	defer rl.stop()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < rateLimitRequests; i++ {
		assert.True(t, rl.allow("1.1.1.1", now), "request %d", i)
	}
	assert.False(t, rl.allow("1.1.1.1", now))
	assert.True(t, rl.allow("2.2.2.2", now))

	assert.True(t, rl.allow("1.1.1.1", now.Add(2*rateLimitWindow)))

	rl.cleanupStaleEntries(now.Add(time.Hour))
	rl.mu.Lock()
	assert.Empty(t, rl.clients)
	rl.mu.Unlock()

	rl.stop()
}
