package logger

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"
)

// captureStdout runs f with os.Stdout redirected to a pipe and returns the output.
func captureStdout(t *testing.T, f func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	f()

	_ = w.Close()
	b, _ := io.ReadAll(r)
	_ = r.Close()
	return string(b)
}

func TestLoggerEmitsServiceAndTimestamp(t *testing.T) {
	out := captureStdout(t, func() {
		log := New("test-service")
		log.Info().Msg("hello")
	})

	line := strings.TrimSpace(out)
	if line == "" {
		t.Fatal("no output captured")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("invalid json log: %v\n%s", err, line)
	}
	if svc, ok := payload["service"].(string); !ok || svc != "test-service" {
		t.Fatalf("expected service=\"test-service\", got %v", payload["service"])
	}
	if _, ok := payload["time"]; !ok {
		t.Fatalf("expected time field: %s", line)
	}
	if msg, ok := payload["message"].(string); !ok || msg != "hello" {
		t.Fatalf("expected message=\"hello\", got %v", payload["message"])
	}
}

func TestLoggerLevelFromEnv(t *testing.T) {
	t.Setenv("ARBOR_LOG_LEVEL", "error")

	out := captureStdout(t, func() {
		log := New("test-service")
		log.Info().Msg("suppressed")
		log.Error().Msg("kept")
	})

	if strings.Contains(out, "suppressed") {
		t.Fatalf("info line should be filtered at error level: %s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("error line missing: %s", out)
	}
}

func TestLoggerBadLevelFallsBackToInfo(t *testing.T) {
	t.Setenv("ARBOR_LOG_LEVEL", "shouting")

	out := captureStdout(t, func() {
		log := New("test-service")
		log.Info().Msg("visible")
	})
	if !strings.Contains(out, "visible") {
		t.Fatalf("info line missing at fallback level: %s", out)
	}
}
