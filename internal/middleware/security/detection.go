package security

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
)

// probeFragments are path or query substrings that only show up in
// vulnerability scans, never in legitimate API traffic.
var probeFragments = []string{
	"../", "..\\", "/etc/passwd", "cmd.exe",
	".env", ".git", ".ssh", "wp-admin", "wp-login",
	"phpmyadmin", "admin.php", "config.php",
	"<script", "javascript:", "eval(",
	"union select", "or 1=1",
}

// scannerAgents are User-Agent substrings of common scanning tools.
var scannerAgents = []string{
	"sqlmap", "nikto", "nmap", "gobuster", "dirb", "masscan",
	"scanner", "crawler", "spider", "scraper",
}

const maxURLLength = 2048

// DetectionMetrics is a snapshot of detector activity.
type DetectionMetrics struct {
	SuspiciousRequests int64 `json:"suspiciousRequests"`
	InvalidIPAttempts  int64 `json:"invalidIpAttempts"`
}

// Detector classifies requests that look like scans or header
// manipulation, and resolves client IPs behind trusted proxies.
type Detector struct {
	suspicious int64
	invalidIPs int64

	trustedProxies []*net.IPNet
}

// NewDetector creates a detector trusting loopback and RFC 1918
// ranges as proxies.
func NewDetector() *Detector {
	return &Detector{
		trustedProxies: []*net.IPNet{
			mustCIDR("127.0.0.0/8"),
			mustCIDR("10.0.0.0/8"),
			mustCIDR("172.16.0.0/12"),
			mustCIDR("192.168.0.0/16"),
		},
	}
}

func mustCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("bad builtin CIDR %s: %v", cidr, err))
	}
	return network
}

// AddTrustedProxy extends the trusted proxy ranges.
func (d *Detector) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.trustedProxies = append(d.trustedProxies, network)
	return nil
}

// DetectSuspiciousRequest reports whether the request matches a known
// probe pattern, counting hits.
func (d *Detector) DetectSuspiciousRequest(r *http.Request) bool {
	if !isSuspicious(r) {
		return false
	}
	atomic.AddInt64(&d.suspicious, 1)
	return true
}

func isSuspicious(r *http.Request) bool {
	switch r.Method {
	case "TRACE", "TRACK", "CONNECT":
		return true
	}

	if len(r.URL.String()) > maxURLLength {
		return true
	}

	target := strings.ToLower(r.URL.Path + "?" + r.URL.RawQuery)
	for _, fragment := range probeFragments {
		if strings.Contains(target, fragment) {
			return true
		}
	}

	agent := strings.ToLower(r.Header.Get("User-Agent"))
	for _, tool := range scannerAgents {
		if strings.Contains(agent, tool) {
			return true
		}
	}

	// A forwarding chain this long is forged, not routed.
	if xff := r.Header.Get("X-Forwarded-For"); strings.Count(xff, ",") > 5 {
		return true
	}

	return false
}

// ExtractClientIP resolves the real client IP. Forwarded headers are
// honored only when the direct peer is a trusted proxy.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	peer := net.ParseIP(host)
	if peer == nil || !d.isTrustedProxy(peer) {
		return host
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
		if net.ParseIP(first) != nil {
			return first
		}
		atomic.AddInt64(&d.invalidIPs, 1)
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
		atomic.AddInt64(&d.invalidIPs, 1)
	}

	return host
}

func (d *Detector) isTrustedProxy(ip net.IP) bool {
	for _, network := range d.trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// GetMetrics returns current detection metrics.
func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{
		SuspiciousRequests: atomic.LoadInt64(&d.suspicious),
		InvalidIPAttempts:  atomic.LoadInt64(&d.invalidIPs),
	}
}
