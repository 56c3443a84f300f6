package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIPMatcher(t *testing.T) {
	m, invalid := NewIPMatcher([]string{"10.0.0.0/8", " 192.168.1.7 ", "fd00::/8", "not-an-ip", ""})
	if len(invalid) != 1 || invalid[0] != "not-an-ip" {
		t.Fatalf("invalid = %v, want [not-an-ip]", invalid)
	}

	tests := []struct {
		ip   string
		want bool
	}{
		{"10.20.30.40", true},
		{"::ffff:10.1.1.1", true},
		{"192.168.1.7", true},
		{"192.168.1.8", false},
		{"fd12::1", true},
		{"2001:db8::1", false},
		{"garbage", false},
	}

	for _, tt := range tests {
		if got := m.Allow(tt.ip); got != tt.want {
			t.Errorf("Allow(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}

	if empty, _ := NewIPMatcher(nil); !empty.IsEmpty() {
		t.Error("matcher without entries should be empty")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{name: "remote addr", want: "203.0.113.9"},
		{
			name:    "headers ignored without trust",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.1"},
			want:    "203.0.113.9",
		},
		{
			name:       "left-most forwarded for",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.1"},
			trustProxy: true,
			want:       "198.51.100.1",
		},
		{
			name: "cloudflare first",
			headers: map[string]string{
				"CF-Connecting-IP": "198.51.100.2",
				"X-Forwarded-For":  "198.51.100.1",
			},
			trustProxy: true,
			want:       "198.51.100.2",
		},
		{
			name:       "real ip",
			headers:    map[string]string{"X-Real-IP": "198.51.100.3"},
			trustProxy: true,
			want:       "198.51.100.3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = "203.0.113.9:41000"
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
