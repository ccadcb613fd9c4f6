package security

import (
	"fmt"
	"net/http"
)

// HeadersConfig controls the security headers applied to responses.
type HeadersConfig struct {
	CSP string

	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool

	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	PermissionsPolicy   string
	CrossOriginOpener   string
	CrossOriginResource string
}

// DefaultHeadersConfig returns defaults for a JSON only API: nothing
// loads, frames, or embeds these responses.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP: "default-src 'none'; frame-ancestors 'none'; base-uri 'none'",

		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		HSTSPreload:           true,

		XFrameOptions:       "DENY",
		XContentTypeOptions: "nosniff",
		ReferrerPolicy:      "no-referrer",
		PermissionsPolicy:   "geolocation=(), microphone=(), camera=(), payment=()",
		CrossOriginOpener:   "same-origin",
		CrossOriginResource: "same-origin",
	}
}

// HeadersMiddleware applies security headers to every response.
type HeadersMiddleware struct {
	config HeadersConfig
}

// NewHeadersMiddleware creates a headers middleware from config.
func NewHeadersMiddleware(config HeadersConfig) *HeadersMiddleware {
	return &HeadersMiddleware{config: config}
}

// Middleware returns the wrapping handler.
func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := w.Header()
		hdr.Set("X-Content-Type-Options", h.config.XContentTypeOptions)
		hdr.Set("X-Frame-Options", h.config.XFrameOptions)
		if h.config.CSP != "" {
			hdr.Set("Content-Security-Policy", h.config.CSP)
		}
		hdr.Set("Referrer-Policy", h.config.ReferrerPolicy)
		hdr.Set("Permissions-Policy", h.config.PermissionsPolicy)
		hdr.Set("Cross-Origin-Opener-Policy", h.config.CrossOriginOpener)
		hdr.Set("Cross-Origin-Resource-Policy", h.config.CrossOriginResource)

		// HSTS only makes sense on a TLS connection.
		if r.TLS != nil && h.config.HSTSMaxAge > 0 {
			v := fmt.Sprintf("max-age=%d", h.config.HSTSMaxAge)
			if h.config.HSTSIncludeSubdomains {
				v += "; includeSubDomains"
			}
			if h.config.HSTSPreload {
				v += "; preload"
			}
			hdr.Set("Strict-Transport-Security", v)
		}

		next.ServeHTTP(w, r)
	})
}
