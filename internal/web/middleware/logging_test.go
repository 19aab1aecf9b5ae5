package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("test response"))
	})

	req := httptest.NewRequest(http.MethodGet, "/test?$top=1", nil)
	req = req.WithContext(WithRequestID(req.Context(), "test-request-id"))
	Logging(zap.New(core))(handler).ServeHTTP(httptest.NewRecorder(), req)

	if logs.Len() != 1 {
		t.Fatalf("Expected one log entry, got %d", logs.Len())
	}
	fields := logs.All()[0].ContextMap()
	if fields["request_id"] != "test-request-id" {
		t.Errorf("Expected request ID 'test-request-id', got %v", fields["request_id"])
	}
	if fields["path"] != "/test" {
		t.Errorf("Expected path /test, got %v", fields["path"])
	}
	if fields["query"] != "$top=1" {
		t.Errorf("Expected query $top=1, got %v", fields["query"])
	}
	if fields["status"] != int64(http.StatusCreated) {
		t.Errorf("Expected status %d, got %v", http.StatusCreated, fields["status"])
	}
	if fields["bytes"] != int64(13) {
		t.Errorf("Expected 13 bytes written, got %v", fields["bytes"])
	}
}

func TestLoggingSkipPaths(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	mw := LoggingWithConfig(LoggingConfig{Logger: zap.New(core), SkipPaths: []string{"/health"}})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/types", nil))

	if logs.Len() != 1 {
		t.Errorf("Expected only /types to be logged, got %d entries", logs.Len())
	}
}
