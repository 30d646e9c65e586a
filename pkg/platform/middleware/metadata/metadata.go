package metadata

import (
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"moniftar/pkg/requestcontext"
)

// ClientMetadata stores client IP, User-Agent and a short device label in the
// request context. Apply after chi's RealIP so RemoteAddr is already resolved.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), ua, DeviceLabel(ua))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DeviceLabel reduces a User-Agent to "<os>/<browser>", used to tell scanner
// phones apart in audit events.
func DeviceLabel(ua string) string {
	if strings.TrimSpace(ua) == "" {
		return "unknown"
	}
	parsed := useragent.New(ua)
	browser, _ := parsed.Browser()
	os := parsed.OSInfo().Name
	if os == "" {
		os = "Other"
	}
	if browser == "" {
		browser = "Other"
	}
	if parsed.Bot() {
		return "bot/" + browser
	}
	return os + "/" + browser
}

// ClientIPFromRequest strips the port from RemoteAddr.
func ClientIPFromRequest(r *http.Request) string {
	addr := r.RemoteAddr
	if addr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
