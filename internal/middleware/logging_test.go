package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggingMiddleware_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusNotFound, zapcore.WarnLevel},
		{http.StatusInternalServerError, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		core, logs := observer.New(zapcore.InfoLevel)

		router := chi.NewRouter()
		router.Use(LoggingMiddleware(zap.New(core)))
		router.Get("/api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		})

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/products/P1", nil))

		entries := logs.FilterMessage("Request completed").All()
		if len(entries) != 1 {
			t.Fatalf("Expected one completion entry, got %d", len(entries))
		}
		if entries[0].Level != tt.level {
			t.Errorf("Status %d: expected level %s, got %s", tt.status, tt.level, entries[0].Level)
		}

		fields := entries[0].ContextMap()
		if fields["route"] != "/api/products/{id}" {
			t.Errorf("Expected route pattern, got %v", fields["route"])
		}
		if fields["status"] != int64(tt.status) {
			t.Errorf("Expected status %d, got %v", tt.status, fields["status"])
		}
	}
}
