package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: "json", Output: &buf}).WithComponent(ComponentStore)

	logger.Info("record created", FieldExpenseID, "42")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json log line %q: %v", buf.String(), err)
	}
	if entry[FieldComponent] != ComponentStore {
		t.Fatalf("component = %v", entry[FieldComponent])
	}
	if entry[FieldExpenseID] != "42" {
		t.Fatalf("expense_id = %v", entry[FieldExpenseID])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Fatalf("unexpected fallback logger %+v", l)
	}
}

func TestMiddlewareSetsRequestIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "text", Output: &buf})

	var seen *Logger
	h := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected request id header")
	}
	if seen == nil || seen.Component() != ComponentHTTP {
		t.Fatalf("handler did not receive request logger: %+v", seen)
	}
	if !strings.Contains(buf.String(), "status_code=418") {
		t.Fatalf("completion log missing status: %s", buf.String())
	}
}
