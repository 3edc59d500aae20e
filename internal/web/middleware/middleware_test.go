package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MobilityData/gtfs-validator-sub012/internal/config"
)

func ok(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok"))
}

func TestAPIKeyAuth(t *testing.T) {
	cfg := config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"alpha", "beta"}}
	h := APIKeyAuth(cfg)(http.HandlerFunc(ok))

	tests := []struct {
		name string
		key  string
		want int
	}{
		{"missing key", "", http.StatusUnauthorized},
		{"wrong key", "gamma", http.StatusForbidden},
		{"first key", "alpha", http.StatusOK},
		{"second key", "beta", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/tables", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	h := APIKeyAuth(config.SecurityConfig{})(http.HandlerFunc(ok))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tables", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		realIP  string
		forward string
		want    string
	}{
		{"trusted proxy with X-Real-IP", "10.1.2.3:5555", "203.0.113.7", "", "203.0.113.7"},
		{"trusted proxy with X-Forwarded-For", "10.1.2.3:5555", "", "198.51.100.1, 10.0.0.1", "198.51.100.1"},
		{"trusted single address", "192.168.1.10:80", "203.0.113.7", "", "203.0.113.7"},
		{"untrusted client", "203.0.113.9:4444", "1.2.3.4", "", "203.0.113.9:4444"},
		{"invalid header value", "10.1.2.3:5555", "not-an-ip", "", "10.1.2.3:5555"},
	}

	var got string
	h := TrustedRealIP([]string{"10.0.0.0/8", "192.168.1.10", "bogus"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { got = r.RemoteAddr }))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if tt.forward != "" {
				req.Header.Set("X-Forwarded-For", tt.forward)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2)
	h := rl.Middleware(http.HandlerFunc(ok))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.1:1000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.2:1000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("second client status = %d, want 200", rec.Code)
	}

	if n := rl.Sweep(time.Now().Add(time.Hour)); n != 2 {
		t.Errorf("Sweep removed %d, want 2", n)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/validate", nil))

	out := buf.String()
	for _, want := range []string{"level=WARN", "status=502", "bytes=8", "path=/api/validate"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %q: %s", want, out)
		}
	}
}
