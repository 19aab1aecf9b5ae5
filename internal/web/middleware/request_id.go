package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey struct{}

// requestIDKey holds the request ID in a request context
var requestIDKey contextKey

// RequestIDConfig holds configuration for the request ID middleware
type RequestIDConfig struct {
	// HeaderName carries the ID in both directions
	HeaderName string
	// Generator makes IDs for requests that bring none, or an unusable one
	Generator func() string
	// MaxLength bounds caller-supplied IDs; longer ones are replaced
	MaxLength int
}

// DefaultRequestIDConfig returns the default request ID configuration
func DefaultRequestIDConfig() RequestIDConfig {
	return RequestIDConfig{
		HeaderName: "X-Request-ID",
		Generator:  func() string { return uuid.NewString() },
		MaxLength:  128,
	}
}

// RequestID tags each request with an ID, reusing the caller's header
// when it is usable
func RequestID() Middleware {
	return RequestIDWithConfig(DefaultRequestIDConfig())
}

// RequestIDWithConfig creates a request ID middleware with custom configuration
func RequestIDWithConfig(config RequestIDConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(config.HeaderName)
			if !validRequestID(requestID, config.MaxLength) {
				requestID = config.Generator()
			}

			w.Header().Set(config.HeaderName, requestID)
			next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), requestID)))
		})
	}
}

// validRequestID accepts non-empty IDs of visible ASCII, so an ID copied
// into log lines cannot forge entries
func validRequestID(id string, maxLength int) bool {
	if id == "" || (maxLength > 0 && len(id) > maxLength) {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}

// WithRequestID stores id in ctx
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID extracts the request ID from the context
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestIDField is the log field carrying the request ID of ctx
func RequestIDField(ctx context.Context) zap.Field {
	return zap.String("request_id", GetRequestID(ctx))
}
