// Package headers centralizes the HTTP header names used across the agent.
package headers

const (
	HeaderXRequestID       = "x-request-id"
	HeaderXCorrelationID   = "x-correlation-id"
	HeaderXCorrelationData = "x-correlation-data"
	HeaderXTraceID         = "x-trace-id"

	// HeaderXAPIKey authenticates capture deliveries to the collector.
	HeaderXAPIKey = "x-codecomet-key"

	HeaderAuthorization      = "authorization"
	HeaderCookie             = "cookie"
	HeaderSetCookie          = "set-cookie"
	HeaderProxyAuthorization = "proxy-authorization"
)

// SensitiveHeaders lists headers whose values must never leave the host in
// capture records.
func SensitiveHeaders() []string {
	return []string{
		HeaderAuthorization,
		HeaderCookie,
		HeaderSetCookie,
		HeaderProxyAuthorization,
		HeaderXAPIKey,
	}
}
