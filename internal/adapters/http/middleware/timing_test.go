package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// captureLogs routes the default logger into a buffer for the duration of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

// TestTiming_LogsRequest verifies a normal request is logged at debug.
func TestTiming_LogsRequest(t *testing.T) {
	logs := captureLogs(t)
	handler := Timing(1000, "/public/")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/courses", nil))

	out := logs.String()
	if !strings.Contains(out, "msg=request") || !strings.Contains(out, "path=/courses") {
		t.Errorf("expected request log, got %q", out)
	}
	if strings.Contains(out, "slow_request") {
		t.Errorf("fast request logged as slow: %q", out)
	}
}

// TestTiming_SkipsStatic verifies static assets are excluded from timing.
func TestTiming_SkipsStatic(t *testing.T) {
	logs := captureLogs(t)
	handler := Timing(1000, "/public/")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/public/css/site.css", nil))

	if logs.Len() != 0 {
		t.Errorf("static request was logged: %q", logs.String())
	}
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

// TestTiming_SlowRequestWarns verifies the slow threshold and status capture.
func TestTiming_SlowRequestWarns(t *testing.T) {
	logs := captureLogs(t)
	handler := Timing(1, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
		w.WriteHeader(http.StatusNotFound)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/missing", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
	out := logs.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "msg=slow_request") || !strings.Contains(out, "status=404") {
		t.Errorf("expected slow_request warning with status, got %q", out)
	}
}
