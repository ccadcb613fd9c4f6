package security

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDetectSuspiciousRequest(t *testing.T) {
	tests := []struct {
		name    string
		build   func() *http.Request
		flagged bool
	}{
		{
			name:    "normal api request",
			build:   func() *http.Request { return httptest.NewRequest("GET", "/api/transactions?category=food", nil) },
			flagged: false,
		},
		{
			name:    "path traversal",
			build:   func() *http.Request { return httptest.NewRequest("GET", "/api/../etc/passwd", nil) },
			flagged: true,
		},
		{
			name:    "sql probe in query",
			build:   func() *http.Request { return httptest.NewRequest("GET", "/api/bills?id=1%20union%20select", nil) },
			flagged: true,
		},
		{
			name: "scanner user agent",
			build: func() *http.Request {
				r := httptest.NewRequest("GET", "/api/goals", nil)
				r.Header.Set("User-Agent", "sqlmap/1.7")
				return r
			},
			flagged: true,
		},
		{
			name:    "trace method",
			build:   func() *http.Request { return httptest.NewRequest("TRACE", "/api/goals", nil) },
			flagged: true,
		},
		{
			name: "oversized url",
			build: func() *http.Request {
				return httptest.NewRequest("GET", "/api/transactions?q="+strings.Repeat("a", 3000), nil)
			},
			flagged: true,
		},
		{
			name: "forged forwarding chain",
			build: func() *http.Request {
				r := httptest.NewRequest("GET", "/api/goals", nil)
				r.Header.Set("X-Forwarded-For", "1.1.1.1, 2.2.2.2, 3.3.3.3, 4.4.4.4, 5.5.5.5, 6.6.6.6, 7.7.7.7")
				return r
			},
			flagged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector()
			if got := d.DetectSuspiciousRequest(tt.build()); got != tt.flagged {
				t.Errorf("DetectSuspiciousRequest() = %v, want %v", got, tt.flagged)
			}
			want := int64(0)
			if tt.flagged {
				want = 1
			}
			if m := d.GetMetrics(); m.SuspiciousRequests != want {
				t.Errorf("SuspiciousRequests = %d, want %d", m.SuspiciousRequests, want)
			}
		})
	}
}

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()

	t.Run("direct peer", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "203.0.113.9:4312"
		if ip := d.ExtractClientIP(r); ip != "203.0.113.9" {
			t.Errorf("ExtractClientIP() = %q, want 203.0.113.9", ip)
		}
	})

	t.Run("forwarded header from trusted proxy", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "10.1.2.3:9000"
		r.Header.Set("X-Forwarded-For", "198.51.100.7, 10.1.2.3")
		if ip := d.ExtractClientIP(r); ip != "198.51.100.7" {
			t.Errorf("ExtractClientIP() = %q, want 198.51.100.7", ip)
		}
	})

	t.Run("forwarded header from untrusted peer is ignored", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "203.0.113.9:4312"
		r.Header.Set("X-Forwarded-For", "198.51.100.7")
		if ip := d.ExtractClientIP(r); ip != "203.0.113.9" {
			t.Errorf("ExtractClientIP() = %q, want direct peer", ip)
		}
	})

	t.Run("garbage forwarded value falls back and is counted", func(t *testing.T) {
		fresh := NewDetector()
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "127.0.0.1:5000"
		r.Header.Set("X-Forwarded-For", "not-an-ip")
		if ip := fresh.ExtractClientIP(r); ip != "127.0.0.1" {
			t.Errorf("ExtractClientIP() = %q, want 127.0.0.1", ip)
		}
		if m := fresh.GetMetrics(); m.InvalidIPAttempts != 1 {
			t.Errorf("InvalidIPAttempts = %d, want 1", m.InvalidIPAttempts)
		}
	})

	t.Run("x-real-ip from trusted proxy", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "192.168.1.1:8080"
		r.Header.Set("X-Real-IP", "198.51.100.20")
		if ip := d.ExtractClientIP(r); ip != "198.51.100.20" {
			t.Errorf("ExtractClientIP() = %q, want 198.51.100.20", ip)
		}
	})
}

func TestAddTrustedProxy(t *testing.T) {
	d := NewDetector()
	if err := d.AddTrustedProxy("100.64.0.0/10"); err != nil {
		t.Fatalf("AddTrustedProxy() error = %v", err)
	}
	if err := d.AddTrustedProxy("not-a-cidr"); err == nil {
		t.Fatal("AddTrustedProxy() should reject malformed CIDR")
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "100.64.0.5:443"
	r.Header.Set("X-Forwarded-For", "198.51.100.30")
	if ip := d.ExtractClientIP(r); ip != "198.51.100.30" {
		t.Errorf("ExtractClientIP() = %q, want forwarded IP via added proxy range", ip)
	}
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig())
	handler := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/transactions", nil))

	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'; base-uri 'none'",
		"Referrer-Policy":         "no-referrer",
	}
	for name, value := range want {
		if got := rec.Header().Get(name); got != value {
			t.Errorf("%s = %q, want %q", name, got, value)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS should not be set on a plaintext request")
	}
}
