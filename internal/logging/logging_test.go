package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// captureLogOutput reinitializes the logger to write to a buffer for the
// duration of f, then restores the previous logger.
func captureLogOutput(t *testing.T, level Level, format Format, f func()) string {
	t.Helper()
	var buf bytes.Buffer
	old := defaultLogger
	InitLoggerWithWriter(&buf, level, format)
	defer func() {
		defaultLogger = old
	}()
	f()
	return buf.String()
}

func decodeLines(t *testing.T, out string) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		entries = append(entries, m)
	}
	return entries
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("JSON") != FormatJSON {
		t.Error("JSON should parse to FormatJSON")
	}
	if ParseFormat("text") != FormatText {
		t.Error("text should parse to FormatText")
	}
}

func TestLevelFiltering(t *testing.T) {
	out := captureLogOutput(t, LevelWarn, FormatJSON, func() {
		Debug("hidden debug")
		Info("hidden info")
		Warn("shown warn")
		Error("shown error")
	})

	if strings.Contains(out, "hidden") {
		t.Errorf("messages below warn leaked: %s", out)
	}
	entries := decodeLines(t, out)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2: %s", len(entries), out)
	}
}

func TestTimestampFormat(t *testing.T) {
	out := captureLogOutput(t, LevelInfo, FormatJSON, func() {
		Info("tick")
	})
	entries := decodeLines(t, out)
	ts, _ := entries[0]["time"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("timestamp %q is not RFC3339: %v", ts, err)
	}
}

func TestContextIDs(t *testing.T) {
	ctx := WithRunID(WithRequestID(context.Background(), "req-1"), "run-9")
	if GetRequestID(ctx) != "req-1" {
		t.Errorf("GetRequestID = %q", GetRequestID(ctx))
	}
	if GetRunID(ctx) != "run-9" {
		t.Errorf("GetRunID = %q", GetRunID(ctx))
	}
	if GetRequestID(context.Background()) != "" {
		t.Error("empty context should have no request ID")
	}

	out := captureLogOutput(t, LevelDebug, FormatJSON, func() {
		InfoContext(ctx, "with ids")
	})
	entry := decodeLines(t, out)[0]
	if entry["request_id"] != "req-1" || entry["run_id"] != "run-9" {
		t.Errorf("context IDs missing from entry: %v", entry)
	}
}

func TestDomainHelpers(t *testing.T) {
	ctx := context.Background()
	out := captureLogOutput(t, LevelDebug, FormatJSON, func() {
		OracleLookup(ctx, "light", 12, 40*time.Millisecond)
		OracleFailure(ctx, "night", 2, errors.New("timeout"))
		CacheIO("load", "/tmp/rhymes.txt", 3)
		PoemLabeled(ctx, "abc", "hybrid", 7)
		BatchProgress(ctx, 5, 10, 1)
		WebSocketEvent("client_connected", "remote_addr", "127.0.0.1")
		ServerStartup("rest_api", "http", 8080)
	})

	entries := decodeLines(t, out)
	wantMsgs := []string{"oracle_lookup", "oracle_failure", "rhyme_cache", "poem_labeled", "batch_progress", "websocket_event", "server_startup"}
	if len(entries) != len(wantMsgs) {
		t.Fatalf("got %d entries, want %d", len(entries), len(wantMsgs))
	}
	for i, want := range wantMsgs {
		if entries[i]["msg"] != want {
			t.Errorf("entry %d msg = %v, want %s", i, entries[i]["msg"], want)
		}
	}
	if entries[0]["word"] != "light" || entries[0]["rhymes"].(float64) != 12 {
		t.Errorf("oracle_lookup fields wrong: %v", entries[0])
	}
	if entries[1]["error"] != "timeout" {
		t.Errorf("oracle_failure error = %v", entries[1]["error"])
	}
}

func TestCombinedMiddleware(t *testing.T) {
	var seenID string
	handler := CombinedMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	out := captureLogOutput(t, LevelInfo, FormatJSON, func() {
		req := httptest.NewRequest(http.MethodGet, "/v1/label", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusTeapot {
			t.Errorf("status = %d", rec.Code)
		}
		if rec.Header().Get("X-Request-ID") == "" || rec.Header().Get("X-Request-ID") != seenID {
			t.Errorf("request ID header %q does not match context %q", rec.Header().Get("X-Request-ID"), seenID)
		}
	})

	entry := decodeLines(t, out)[0]
	if entry["msg"] != "http_request" || entry["status_code"].(float64) != http.StatusTeapot {
		t.Errorf("unexpected request log: %v", entry)
	}
	if entry["path"] != "/v1/label" {
		t.Errorf("path = %v", entry["path"])
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "given")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "given" {
		t.Errorf("X-Request-ID = %q, want given", got)
	}
}
