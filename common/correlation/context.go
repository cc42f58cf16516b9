package correlation

import (
	"context"
	"encoding/json"
	"maps"

	"github.com/DataDog/dd-trace-go/v2/ddtrace/tracer"
	"github.com/google/uuid"

	"github.com/codecomet-io/codecomet-go/common/headers"
	"github.com/codecomet-io/codecomet-go/common/logger"
)

// IDKey is the correlation key every request context carries.
const IDKey = "correlation_id"

// ContextCorrelationHeader is the HTTP header name for correlation context.
const ContextCorrelationHeader = headers.HeaderXCorrelationData

// RequestIDHeader is the HTTP header carrying the per-request identifier.
const RequestIDHeader = headers.HeaderXRequestID

// correlationContextKey is a private type for context keys to avoid collisions
type correlationContextKey struct{}

// Key is the context key for storing correlation data
var Key = correlationContextKey{}

type requestIDContextKey struct{}

// Data represents the correlation context data
type Data map[string]string

// ContextWithCorrelation seeds the context from an incoming correlation
// header value and guarantees a correlation_id is present afterwards.
func ContextWithCorrelation(ctx context.Context, val string) context.Context {
	if val != "" {
		correlationData, err := Parse(val)
		if err != nil {
			logger.FromContext(ctx).Warn("failed to parse correlation header", logger.Error(err))
		} else {
			ctx = Set(ctx, correlationData)
		}
	}
	// Generate correlation_id if missing
	if !Has(ctx, IDKey) {
		ctx = SetID(ctx, uuid.NewString())
	}
	return ctx
}

// Set adds correlation values to a context, returning a new context.
// - Derives new context; doesn't modify input context or values map.
// - Merges input values into a copy of existing context correlation data.
// - Safe for concurrent calls on shared context; each call is independent.
func Set(ctx context.Context, values map[string]string) context.Context {
	if len(values) == 0 {
		return ctx
	}

	// maps.Clone handles nil, Get returns an empty map if unset
	correlationMap := maps.Clone(Get(ctx))

	for k, v := range values {
		if k != "" && v != "" {
			correlationMap[k] = v
		}
	}

	// Propagate as baggage for distributed tracing
	if span, ok := tracer.SpanFromContext(ctx); ok {
		for k, v := range correlationMap {
			span.SetBaggageItem(k, v)
		}
	}

	ctx = context.WithValue(ctx, Key, correlationMap)
	return logger.ContextWithFields(ctx, toLogFields(correlationMap)...)
}

// SetKey sets a single correlation key-value pair and returns a new context.
// An empty value removes the key.
func SetKey(ctx context.Context, key, value string) context.Context {
	if key == "" {
		return ctx
	}

	newMap := maps.Clone(Get(ctx))

	if value != "" {
		newMap[key] = value
	} else {
		delete(newMap, key)
	}

	if span, ok := tracer.SpanFromContext(ctx); ok {
		span.SetBaggageItem(key, value)
	}

	ctx = context.WithValue(ctx, Key, newMap)
	return logger.ContextWithFields(ctx, toLogFields(newMap)...)
}

// Get returns the correlation data from the context.
// Returns an empty map if no correlation data exists.
func Get(ctx context.Context) Data {
	if ctx == nil {
		return make(Data)
	}

	if v, ok := ctx.Value(Key).(Data); ok && v != nil {
		return v
	}

	return make(Data)
}

// GetValue returns a specific correlation value by key.
// Returns empty string if the key doesn't exist.
func GetValue(ctx context.Context, key string) string {
	if key == "" {
		return ""
	}
	return Get(ctx)[key]
}

// Has checks if a correlation key exists in the context.
func Has(ctx context.Context, key string) bool {
	if key == "" {
		return false
	}
	_, exists := Get(ctx)[key]
	return exists
}

// ID returns the correlation ID from the correlation context.
// Returns empty string if not found.
func ID(ctx context.Context) string {
	return GetValue(ctx, IDKey)
}

// SetID sets the correlation ID in the correlation context.
func SetID(ctx context.Context, correlationID string) context.Context {
	return SetKey(ctx, IDKey, correlationID)
}

// ToLogFields converts the correlation context to log fields.
func ToLogFields(ctx context.Context) []logger.Field {
	return toLogFields(Get(ctx))
}

func toLogFields(data Data) []logger.Field {
	if len(data) == 0 {
		return nil
	}

	fields := make([]logger.Field, 0, len(data))
	for key, value := range data {
		if value != "" {
			fields = append(fields, logger.String(key, value))
		}
	}

	return fields
}

// Generate creates the correlation header string from the context.
func Generate(ctx context.Context) string {
	data := Get(ctx)
	if len(data) == 0 {
		return "{}"
	}
	j, _ := json.Marshal(data)
	return string(j)
}

// Parse parses a correlation header value into a Data map.
func Parse(headerVal string) (Data, error) {
	var data Data
	err := json.Unmarshal([]byte(headerVal), &data)
	return data, err
}

// ContextWithRequestID stores a request id on the context, generating one
// when id is empty, and threads it onto the context logger.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	ctx = context.WithValue(ctx, requestIDContextKey{}, id)
	return logger.ContextWithFields(ctx, logger.String("request_id", id))
}

// RequestIDFromContext returns the request id stored on the context, or
// empty string when none was set.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDContextKey{}).(string); ok {
		return id
	}
	return ""
}
