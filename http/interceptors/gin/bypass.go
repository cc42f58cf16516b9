package gin

import "strings"

// staticSuffixes lists path endings that never carry application traffic
// worth recording.
var staticSuffixes = []string{
	".js", ".css", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico", ".woff2",
}

// bypassPath reports whether capture should skip the request entirely.
// Matching is case-insensitive on the path suffix.
func bypassPath(path string) bool {
	lower := strings.ToLower(path)
	for _, suffix := range staticSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
