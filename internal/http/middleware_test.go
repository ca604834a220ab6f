package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{
			name:     "forwarded single hop",
			headers:  map[string]string{"X-Forwarded-For": "192.168.1.1"},
			expected: "192.168.1.1",
		},
		{
			name:     "forwarded chain takes first hop",
			headers:  map[string]string{"X-Forwarded-For": "203.0.113.1, 198.51.100.1"},
			expected: "203.0.113.1",
		},
		{
			name:     "forwarded chain without spaces",
			headers:  map[string]string{"X-Forwarded-For": "203.0.113.1,198.51.100.1"},
			expected: "203.0.113.1",
		},
		{
			name:     "forwarded first hop is trimmed",
			headers:  map[string]string{"X-Forwarded-For": "  203.0.113.1  ,  198.51.100.1"},
			expected: "203.0.113.1",
		},
		{
			name:     "real ip",
			headers:  map[string]string{"X-Real-IP": "192.168.1.100"},
			expected: "192.168.1.100",
		},
		{
			name:     "real ip is trimmed",
			headers:  map[string]string{"X-Real-IP": " 192.168.1.100 "},
			expected: "192.168.1.100",
		},
		{
			name:     "forwarded wins over real ip",
			headers:  map[string]string{"X-Forwarded-For": "203.0.113.1", "X-Real-IP": "192.168.1.100"},
			expected: "203.0.113.1",
		},
		{
			name:       "remote ipv4 with port",
			remoteAddr: "192.168.1.1:54321",
			expected:   "192.168.1.1",
		},
		{
			name:       "remote ipv6 with port",
			remoteAddr: "[2001:db8::1]:54321",
			expected:   "2001:db8::1",
		},
		{
			name:       "remote ipv6 loopback with port",
			remoteAddr: "[::1]:8080",
			expected:   "::1",
		},
		{
			name:       "remote without port",
			remoteAddr: "192.168.1.1",
			expected:   "192.168.1.1",
		},
		{
			name:       "headers win over remote addr",
			headers:    map[string]string{"X-Real-IP": "10.0.0.7"},
			remoteAddr: "192.168.1.1:54321",
			expected:   "10.0.0.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.remoteAddr != "" {
				r.RemoteAddr = tt.remoteAddr
			}
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			require.Equal(t, tt.expected, ExtractClientIP(r))
		})
	}
}

func TestClientIPMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		remoteAddr string
		expected   string
	}{
		{name: "from forwarded header", forwarded: "203.0.113.1", remoteAddr: "192.0.2.1:1234", expected: "203.0.113.1"},
		{name: "from remote addr", remoteAddr: "[::1]:1234", expected: "::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured string
			handler := ClientIPMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured = ClientIPFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			}))

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			require.Equal(t, http.StatusNoContent, w.Code)
			require.Equal(t, tt.expected, captured)
		})
	}
}

func TestClientIPFromContext(t *testing.T) {
	require.Empty(t, ClientIPFromContext(context.Background()))
	require.Equal(t, "192.0.2.1", ClientIPFromContext(WithClientIP(context.Background(), "192.0.2.1")))
}
