package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// --- Logging Tests ---

func TestLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	tests := []struct {
		cfg  LogConfig
		want slog.Level
	}{
		{LogConfig{}, slog.LevelInfo},
		{LogConfig{Level: "warning"}, slog.LevelWarn},
		{LogConfig{Level: "ERROR"}, slog.LevelError},
		{LogConfig{Level: "ERROR", Debug: true}, slog.LevelDebug},
	}
	for _, tt := range tests {
		if got := LogLevel(tt.cfg); got != tt.want {
			t.Errorf("LogLevel(%+v) = %v, want %v", tt.cfg, got, tt.want)
		}
	}
}

func TestLogLevel_EnvOverride(t *testing.T) {
	t.Setenv("LOG_LEVEL", "ERROR")

	if got := LogLevel(LogConfig{Level: "DEBUG"}); got != slog.LevelError {
		t.Errorf("LOG_LEVEL should override config, got %v", got)
	}
}

func TestNewLogger_JSON(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")

	var buf bytes.Buffer
	logger := NewLogger(&buf, LogConfig{})
	WithAccount(logger, "alice").Info("worker started")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON output: %v (%s)", err, buf.String())
	}
	if rec["account"] != "alice" {
		t.Errorf("expected account attribute, got %v", rec["account"])
	}
	if rec["msg"] != "worker started" {
		t.Errorf("unexpected msg: %v", rec["msg"])
	}
}

func TestNewLogger_Text(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "text")

	var buf bytes.Buffer
	NewLogger(&buf, LogConfig{}).Info("hello")

	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}

func TestContextLogger(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := WithLogger(context.Background(), logger)

	if FromContext(ctx) != logger {
		t.Error("expected logger from context")
	}
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected default logger fallback")
	}
}

// --- Metrics Tests ---

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	m.SetWorkersLive(3)
	m.WorkerStarted("alice")
	m.WorkerTerminated("alice", time.Second)
	m.RefreshSucceeded(1)
	m.RefreshFailed()
	m.ObserveLockWait(time.Millisecond)
	m.SetLockHeld(true)
	m.TickPanic()
}

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.WorkerStarted("alice")
	m.WorkerStarted("alice")
	m.WorkerTerminated("alice", 10*time.Second)
	m.SetWorkersLive(2)
	m.RefreshSucceeded(7)
	m.RefreshFailed()
	m.SetLockHeld(true)

	if got := testutil.ToFloat64(m.workerStarts.WithLabelValues("alice")); got != 2 {
		t.Errorf("expected 2 starts, got %v", got)
	}
	if got := testutil.ToFloat64(m.workerTerminated.WithLabelValues("alice")); got != 1 {
		t.Errorf("expected 1 termination, got %v", got)
	}
	if got := testutil.ToFloat64(m.workersLive); got != 2 {
		t.Errorf("expected 2 live workers, got %v", got)
	}
	if got := testutil.ToFloat64(m.dataVersion); got != 7 {
		t.Errorf("expected data version 7, got %v", got)
	}
	if got := testutil.ToFloat64(m.refreshes.WithLabelValues("failure")); got != 1 {
		t.Errorf("expected 1 failed refresh, got %v", got)
	}
	if got := testutil.ToFloat64(m.lockHeld); got != 1 {
		t.Errorf("expected lock held gauge 1, got %v", got)
	}
}
