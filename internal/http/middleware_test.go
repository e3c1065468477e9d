package httpapi

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(RequestIDFrom(r.Context())))
}

func TestRequestID(t *testing.T) {
	h := Chain(http.HandlerFunc(okHandler), RequestID())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
	var got string
	decode(t, rec, &got)
	assert.Equal(t, "abc-123", got)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)
}

func TestSecurityHeaders(t *testing.T) {
	h := Chain(http.HandlerFunc(okHandler), SecurityHeaders())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/batches", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, rec.Header().Get("Cache-Control"))
}

func TestCORS(t *testing.T) {
	h := Chain(http.HandlerFunc(okHandler), CORS([]string{"https://ops.pally.ng/"}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/operations/start", nil)
	req.Header.Set("Origin", "https://ops.pally.ng")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://ops.pally.ng", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/batches", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), RealIP([]netip.Prefix{netip.MustParsePrefix("192.0.2.0/24"), netip.MustParsePrefix("172.16.0.0/12")}),
		RequestID(), RequestLogger(zap.New(core)))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/batches", nil)
	req.RemoteAddr = "192.0.2.10:40000"
	req.Header.Set("X-Forwarded-For", "10.0.0.7, 172.16.0.1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
	assert.Equal(t, "/api/v1/batches", fields["path"])
	assert.Equal(t, "10.0.0.7", fields["client_ip"])
	assert.NotEmpty(t, fields["request_id"])
}

func TestResolveClientIP(t *testing.T) {
	proxies := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8"), netip.MustParsePrefix("::1/128")}
	tests := []struct {
		name    string
		remote  string
		xff     string
		realIP  string
		trusted []netip.Prefix
		want    string
	}{
		{"no proxies configured ignores headers", "203.0.113.9:5555", "198.51.100.1", "198.51.100.2", nil, "203.0.113.9"},
		{"untrusted peer ignores headers", "203.0.113.9:5555", "198.51.100.1", "", proxies, "203.0.113.9"},
		{"trusted peer forwards client", "10.0.0.2:443", "198.51.100.1", "", proxies, "198.51.100.1"},
		{"spoofed leading hop is skipped", "10.0.0.2:443", "1.2.3.4, 198.51.100.1", "", proxies, "198.51.100.1"},
		{"chain of trusted proxies", "10.0.0.2:443", "198.51.100.1, 10.0.0.5", "", proxies, "198.51.100.1"},
		{"garbage hop falls back to peer", "10.0.0.2:443", "not-an-ip", "", proxies, "10.0.0.2"},
		{"x-real-ip from trusted peer", "10.0.0.2:443", "", "198.51.100.3", proxies, "198.51.100.3"},
		{"ipv6 loopback proxy", "[::1]:8080", "198.51.100.4", "", proxies, "198.51.100.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, resolveClientIP(req, tt.trusted))
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer   abc ", "abc"},
		{"Basic abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", tt.header)
		assert.Equal(t, tt.want, bearerToken(req), tt.header)
	}
}
