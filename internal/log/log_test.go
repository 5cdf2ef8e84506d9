package log

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Output: &buf, Format: "json"}).WithComponent(ComponentDashboard)
	l.Info("refreshed", FieldRecords, 3)

	out := buf.String()
	if !strings.Contains(out, `"component":"dashboard"`) || !strings.Contains(out, `"records":3`) {
		t.Fatalf("unexpected log line: %s", out)
	}
}

func TestMiddlewareRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Format: "json"})

	var seen *Logger
	h := Middleware(logger)(RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard?from=2025-03-01", nil))

	if seen == nil || seen.Component() != ComponentApp {
		t.Fatalf("logger not injected: %+v", seen)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected generated request id header")
	}
	out := buf.String()
	if !strings.Contains(out, `"status_code":418`) || !strings.Contains(out, `"level":"WARN"`) {
		t.Fatalf("unexpected request log: %s", out)
	}

	// A chi request id takes precedence.
	rec = httptest.NewRecorder()
	middleware.RequestID(Middleware(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if id := rec.Header().Get("X-Request-Id"); !strings.Contains(id, "/") {
		t.Fatalf("expected chi request id, got %q", id)
	}
}
