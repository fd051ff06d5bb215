package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"spendtrack/internal/core"
)

func TestParseAmountJSON(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{`12.5`, 12.5, false},
		{`"12,50"`, 12.5, false},
		{`" 7.499 "`, 7.5, false},
		{`"abc"`, 0, true},
		{`null`, 0, true},
		{`true`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseAmountJSON(json.RawMessage(tt.raw))
			if tt.wantErr {
				if !errors.Is(err, core.ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("parseAmountJSON(%s) = %v, %v; want %v", tt.raw, got, err, tt.want)
			}
		})
	}
}

func TestParseExpenseInputSanitizes(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/expenses",
		strings.NewReader(`{"description":"  Coffee\u0007 ","amount":3,"category":" Food ","date":" 3/1/2025 "}`))
	in, err := ParseExpenseInput(req)
	if err != nil {
		t.Fatalf("ParseExpenseInput: %v", err)
	}
	if in.Description != "Coffee" || in.Category != "Food" || in.Date != "3/1/2025" || in.Amount != 3 {
		t.Fatalf("unexpected input: %+v", in)
	}
}

func TestDecodeJSONRejectsTrailingData(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/api/budget", strings.NewReader(`{"amount":1,"period":"daily"} {}`))
	var p BudgetPayload
	if err := DecodeJSON(req, &p); !errors.Is(err, errBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestWantsConfirm(t *testing.T) {
	tests := []struct {
		target string
		header string
		want   bool
	}{
		{"/api/expenses", "", false},
		{"/api/expenses?confirm=true", "", true},
		{"/api/expenses?confirm=1", "", true},
		{"/api/expenses?confirm=nope", "", false},
		{"/api/expenses", "true", true},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, tt.target, nil)
		if tt.header != "" {
			req.Header.Set("X-Confirm", tt.header)
		}
		if got := wantsConfirm(req); got != tt.want {
			t.Errorf("wantsConfirm(%s, %q) = %v, want %v", tt.target, tt.header, got, tt.want)
		}
	}
}

func TestRateLimiterWindow(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	metrics := &securityMetrics{}

	if !rl.allow("1.2.3.4", metrics) || !rl.allow("1.2.3.4", metrics) {
		t.Fatalf("first two requests must pass")
	}
	if rl.allow("1.2.3.4", metrics) {
		t.Fatalf("third request in window must be rejected")
	}
	if !rl.allow("5.6.7.8", metrics) {
		t.Fatalf("other clients are independent")
	}
	if metrics.snapshot().RateLimitHits != 1 {
		t.Fatalf("expected one rate limit hit, got %+v", metrics.snapshot())
	}

	now = now.Add(time.Minute)
	if !rl.allow("1.2.3.4", metrics) {
		t.Fatalf("new window must reset the counter")
	}

	now = now.Add(time.Hour)
	if removed := rl.cleanupStaleEntries(); removed != 2 {
		t.Fatalf("expected 2 stale entries removed, got %d", removed)
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		remote string
		xff    string
		want   string
	}{
		{"203.0.113.9:5000", "", "203.0.113.9"},
		{"203.0.113.9:5000", "198.51.100.1", "203.0.113.9"},
		{"10.0.0.2:5000", "198.51.100.1, 10.0.0.2", "198.51.100.1"},
		{"10.0.0.2:5000", "not-an-ip", "10.0.0.2"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remote
		if tt.xff != "" {
			req.Header.Set("X-Forwarded-For", tt.xff)
		}
		if got := extractClientIP(req); got != tt.want {
			t.Errorf("extractClientIP(%s, %q) = %s, want %s", tt.remote, tt.xff, got, tt.want)
		}
	}
}

func TestDetectSuspiciousRequest(t *testing.T) {
	metrics := &securityMetrics{}
	bad := httptest.NewRequest(http.MethodGet, "/api/../../etc/passwd", nil)
	if !detectSuspiciousRequest(bad, metrics) {
		t.Fatalf("path traversal not flagged")
	}
	good := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
	good.Header.Set("User-Agent", "curl/8.0")
	if detectSuspiciousRequest(good, metrics) {
		t.Fatalf("plain API call flagged")
	}
	if metrics.snapshot().SuspiciousRequests != 1 {
		t.Fatalf("unexpected counter: %+v", metrics.snapshot())
	}
}
