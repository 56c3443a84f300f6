package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/bookmarker/internal/logger"
)

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host    string
		pattern string
		want    bool
	}{
		{"bookmarks.lan", "bookmarks.lan", true},
		{"Bookmarks.LAN", "bookmarks.lan", true},
		{"bookmarks.lan", "other.lan", false},
		{"a.example.com", "*.example.com", true},
		{"a.b.example.com", "*.example.com", true},
		{"example.com", "*.example.com", false},
		{"badexample.com", "*.example.com", false},
		{"localhost", "localhost:8080", true},
	}

	for _, tt := range tests {
		if got := matchHost(tt.host, tt.pattern); got != tt.want {
			t.Errorf("matchHost(%q, %q) = %v, want %v", tt.host, tt.pattern, got, tt.want)
		}
	}
}

func TestEnforceHost(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := EnforceHost([]string{"bookmarks.lan"}, logger.NewNop())(ok)

	tests := []struct {
		host string
		want int
	}{
		{"bookmarks.lan", http.StatusNoContent},
		{"bookmarks.lan:8080", http.StatusNoContent},
		{"evil.example", http.StatusForbidden},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = tt.host
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("Host %q: status = %d, want %d", tt.host, rec.Code, tt.want)
		}
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := AllowOnlyCIDRS([]string{"10.0.0.0/8"}, false, logger.NewNop())(ok)

	tests := []struct {
		remote string
		want   int
	}{
		{"10.1.2.3:5555", http.StatusNoContent},
		{"192.168.1.1:5555", http.StatusForbidden},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		req.RemoteAddr = tt.remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("RemoteAddr %q: status = %d, want %d", tt.remote, rec.Code, tt.want)
		}
	}
}

func TestLimiterRefill(t *testing.T) {
	l := newLimiter(RateLimitConfig{Burst: 2, RefillPerIPPerMin: 60})
	start := time.Now()

	for i := 0; i < 2; i++ {
		if ok, _, _ := l.allow("1.2.3.4", start); !ok {
			t.Fatalf("request %d should pass within burst", i)
		}
	}

	ok, _, retry := l.allow("1.2.3.4", start)
	if ok {
		t.Fatal("third request should be limited")
	}
	if retry != 1 {
		t.Errorf("retryAfter = %d, want 1", retry)
	}

	if ok, _, _ := l.allow("5.6.7.8", start); !ok {
		t.Error("buckets must be per client")
	}

	if ok, _, _ := l.allow("1.2.3.4", start.Add(time.Second)); !ok {
		t.Error("one token should refill after a second")
	}
}
