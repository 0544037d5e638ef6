package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"DEBUG", DebugLevel},
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"WARN", WarnLevel},
		{"WARNING", WarnLevel},
		{"error", ErrorLevel},
		{"invalid", InfoLevel}, // Default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, WarnLevel)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %q", len(lines), buf.String())
	}
}

func TestJSONLogger_FieldsInOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	logger.Info("community detected",
		Component("community"),
		Int("communities", 4),
		Float64("modularity", 0.42),
	)

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry.Message != "community detected" {
		t.Errorf("unexpected message %q", entry.Message)
	}
	if entry.Fields["component"] != "community" {
		t.Errorf("missing component field: %v", entry.Fields)
	}
	if entry.Fields["communities"] != float64(4) {
		t.Errorf("missing communities field: %v", entry.Fields)
	}
}

func TestJSONLogger_WithChildFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	child := logger.With(RunID("run-123"))
	child.Info("step done", StopID("stop-7"))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry.Fields["run_id"] != "run-123" {
		t.Errorf("child logger lost pre-set field: %v", entry.Fields)
	}
	if entry.Fields["stop_id"] != "stop-7" {
		t.Errorf("call-site field missing: %v", entry.Fields)
	}
}

func TestTimedOperation_EndAppendsLatencyAndExtras(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	timer := StartTimer(logger, "community detection complete", Metric("community"))
	if timer.Elapsed() < 0 {
		t.Fatal("elapsed went backwards")
	}
	timer.End(Count(4))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry.Fields["metric"] != "community" {
		t.Errorf("missing start-time field: %v", entry.Fields)
	}
	if entry.Fields["count"] != float64(4) {
		t.Errorf("missing end-time field: %v", entry.Fields)
	}
	if _, ok := entry.Fields["latency"]; !ok {
		t.Errorf("missing latency field: %v", entry.Fields)
	}
}

func TestTimedOperation_EndError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, InfoLevel)

	StartTimer(logger, "centrality failed", Metric("centrality")).EndError(errors.New("boom"))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry.Level != "ERROR" {
		t.Errorf("expected ERROR level, got %q", entry.Level)
	}
	if entry.Fields["error"] != "boom" {
		t.Errorf("missing error field: %v", entry.Fields)
	}
}

func TestErrorField(t *testing.T) {
	f := Error(errors.New("boom"))
	if f.Key != "error" || f.Value != "boom" {
		t.Errorf("unexpected error field: %+v", f)
	}

	f = Error(nil)
	if f.Value != nil {
		t.Errorf("nil error should produce nil value, got %v", f.Value)
	}
}
