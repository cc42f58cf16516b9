package collector

import (
	"net/http"

	"github.com/gorilla/handlers"

	"github.com/codecomet-io/codecomet-go/common/headers"
)

// CORSConfig holds the CORS policy for the collector's HTTP surface.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
}

// DefaultCORSConfig lets browser-based playgrounds post records from any
// origin.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", headers.HeaderXAPIKey},
	}
}

// Apply wraps the handler with CORS middleware.
func (c CORSConfig) Apply(handler http.Handler) http.Handler {
	options := []handlers.CORSOption{
		handlers.AllowedOrigins(c.AllowedOrigins),
		handlers.AllowedMethods(c.AllowedMethods),
		handlers.AllowedHeaders(c.AllowedHeaders),
		handlers.OptionStatusCode(http.StatusNoContent),
	}

	if c.AllowCredentials {
		options = append(options, handlers.AllowCredentials())
	}

	return handlers.CORS(options...)(handler)
}
