package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"
)

// RecoveryConfig holds configuration for the recovery middleware
type RecoveryConfig struct {
	// EnableStackTrace determines whether to log stack traces
	EnableStackTrace bool
	Logger           *zap.Logger
	// ResponseHandler writes the response for a recovered panic
	ResponseHandler func(http.ResponseWriter, *http.Request, any)
}

// Recovery turns handler panics into 500 responses logged on logger
func Recovery(logger *zap.Logger) Middleware {
	return RecoveryWithConfig(RecoveryConfig{
		EnableStackTrace: true,
		Logger:           logger,
		ResponseHandler:  defaultRecoveryResponse,
	})
}

// RecoveryWithConfig creates a recovery middleware with custom configuration
func RecoveryWithConfig(config RecoveryConfig) Middleware {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	respond := config.ResponseHandler
	if respond == nil {
		respond = defaultRecoveryResponse
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}

				fields := []zap.Field{
					RequestIDField(r.Context()),
					zap.Error(panicError(v)),
				}
				if config.EnableStackTrace {
					fields = append(fields, zap.ByteString("stack", debug.Stack()))
				}
				logger.Error("panic recovered", fields...)

				respond(w, r, v)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func defaultRecoveryResponse(w http.ResponseWriter, r *http.Request, _ any) {
	body, _ := json.Marshal(map[string]string{
		"error":   "internal_server_error",
		"message": "An unexpected error occurred",
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write(body)
}

func panicError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", v)
}
