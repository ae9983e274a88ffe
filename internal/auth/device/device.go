// Package device turns raw User-Agent strings into short display names for
// the authentication attempt log.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent renders "Browser on OS" from a User-Agent header. Unknown
// or empty agents degrade to stable placeholders rather than raw UA strings,
// which are too noisy for the attempt log.
func ParseUserAgent(ua string) string {
	if ua == "" {
		return "Unknown Device"
	}

	parsed := useragent.New(ua)
	browser, _ := parsed.Browser()
	os := parsed.OSInfo().Name
	if os == "" {
		os = parsed.Platform()
	}

	switch {
	case browser != "" && os != "":
		return browser + " on " + os
	case browser != "":
		return browser
	case os != "":
		return "Unknown Browser on " + os
	default:
		// Fall back to the product token before the first slash.
		if i := strings.IndexByte(ua, '/'); i > 0 {
			return ua[:i] + " on Unknown OS"
		}
		return ua + " on Unknown OS"
	}
}
