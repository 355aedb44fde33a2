// Package reqinfo derives a request-context snapshot (client IP, country,
// device type) from raw request signals for targeting and click analytics.
package reqinfo

import (
	"net/http"
	"strings"

	ua "github.com/mileusna/useragent"
)

// Device keys a link's device targeting map can address.
const (
	DeviceWindows = "windows"
	DeviceMacOS   = "macos"
	DeviceLinux   = "linux"
	DeviceAndroid = "android"
	DeviceIOS     = "ios"
)

// Info is the per-request snapshot handed to the resolver and recorded
// alongside the click.
type Info struct {
	ClientIP    string
	UserAgent   string
	Referer     string
	CountryCode *string
	DeviceType  *string
}

// ClientIP picks the client address from proxy headers, in trust order:
// first X-Forwarded-For entry, then X-Real-IP, then CF-Connecting-IP.
// This is a heuristic for analytics and targeting, not a security
// boundary — every one of these headers is spoofable.
func ClientIP(h http.Header) string {
	if fwd := h.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if real := h.Get("X-Real-IP"); real != "" {
		return strings.TrimSpace(real)
	}
	if cf := h.Get("CF-Connecting-IP"); cf != "" {
		return strings.TrimSpace(cf)
	}
	return "127.0.0.1"
}

// Device maps the user agent's OS family to one of the five canonical
// device keys. Unparseable or unmatched agents yield nil.
func Device(userAgent string) *string {
	if userAgent == "" {
		return nil
	}

	parsed := ua.Parse(userAgent)
	os := strings.ToLower(parsed.OS)
	if os == "" {
		return nil
	}

	var device string
	switch {
	case strings.Contains(os, "windows"):
		device = DeviceWindows
	case strings.Contains(os, "mac"), strings.Contains(os, "os x"):
		device = DeviceMacOS
	case strings.Contains(os, "android"):
		device = DeviceAndroid
	case strings.Contains(os, "ios"):
		device = DeviceIOS
	case strings.Contains(os, "linux"):
		device = DeviceLinux
	default:
		return nil
	}
	return &device
}

// FromRequest assembles the full snapshot for one request.
func FromRequest(r *http.Request, geo *GeoResolver) Info {
	ip := ClientIP(r.Header)
	return Info{
		ClientIP:    ip,
		UserAgent:   r.UserAgent(),
		Referer:     r.Referer(),
		CountryCode: geo.Country(ip),
		DeviceType:  Device(r.UserAgent()),
	}
}
