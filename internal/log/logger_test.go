package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/felixgeelhaar/exlogic/internal/errors"
)

func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Format: FormatJSON, Output: &buf})

	logger.Debug("debug message")
	logger.Info("info message")
	if buf.Len() > 0 {
		t.Errorf("expected no output for debug/info at warn level, got: %s", buf.String())
	}

	logger.Warn("warn message")
	if buf.Len() == 0 {
		t.Error("expected output for warn message")
	}
}

func TestJSONFormatOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf, ServiceVersion: "1.2.3"})

	logger.WithUnit("squat").Info("unit processed", "signal", "knee")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON output: %v\nOutput: %s", err, buf.String())
	}
	if entry["msg"] != "unit processed" {
		t.Errorf("expected msg 'unit processed', got %v", entry["msg"])
	}
	if entry["exercise"] != "squat" {
		t.Errorf("expected exercise 'squat', got %v", entry["exercise"])
	}
	if entry["signal"] != "knee" {
		t.Errorf("expected signal 'knee', got %v", entry["signal"])
	}
	if entry["version"] != "1.2.3" {
		t.Errorf("expected version '1.2.3', got %v", entry["version"])
	}
}

func TestTextFormatOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatText, Output: &buf})

	logger.Info("test message", "key1", "value1")

	output := buf.String()
	if !strings.Contains(output, "test message") || !strings.Contains(output, "key1=value1") {
		t.Errorf("unexpected text output: %s", output)
	}
}

func TestWithErrorExtractsCode(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})

	err := fmt.Errorf("unit: %w", errors.NewPoseNotDetectedError("0.png"))
	logger.LogError("unit failed", err)

	var entry map[string]interface{}
	if jerr := json.Unmarshal(buf.Bytes(), &entry); jerr != nil {
		t.Fatalf("failed to parse JSON output: %v", jerr)
	}
	if entry["error_code"] != "UNIT-002" {
		t.Errorf("expected error_code UNIT-002, got %v", entry["error_code"])
	}
	if _, ok := entry["suggestions"]; !ok {
		t.Error("expected suggestions field")
	}
}

func TestParseHelpers(t *testing.T) {
	tests := []struct {
		in        string
		wantLevel Level
	}{
		{"debug", LevelDebug},
		{"WARNING", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.wantLevel {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.wantLevel)
		}
	}

	if ParseFormat("JSON") != FormatJSON {
		t.Error("ParseFormat(JSON) should be json")
	}
	if ParseFormat("console") != FormatText {
		t.Error("ParseFormat(console) should fall back to text")
	}
}

func TestAddSourceRecordsCaller(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelDebug, Format: FormatJSON, Output: &buf, AddSource: true})

	logger.Debug("detecting pose")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON output: %v", err)
	}
	if _, ok := entry["source"]; !ok {
		t.Errorf("expected source field, got %v", entry)
	}
}
