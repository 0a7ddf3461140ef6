package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/rungate/rungate/internal/errors"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"Warning", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("json") != FormatJSON {
		t.Error("expected json format")
	}
	if ParseFormat("text") != FormatText {
		t.Error("expected text format")
	}
	if ParseFormat("") != FormatText {
		t.Error("expected text format as default")
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  LevelInfo,
		Format: FormatJSON,
		Output: NewOutput(&buf),
	})

	logger.Info("gate started", "rules", 7)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["msg"] != "gate started" {
		t.Errorf("expected msg 'gate started', got %v", entry["msg"])
	}
	if entry["rules"] != float64(7) {
		t.Errorf("expected rules=7, got %v", entry["rules"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  LevelWarn,
		Format: FormatText,
		Output: NewOutput(&buf),
	})

	logger.Debug("hidden")
	logger.Info("also hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("low-severity messages should be filtered, got: %s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn message should be present, got: %s", out)
	}

	if logger.Enabled(context.Background(), LevelDebug) {
		t.Error("debug should not be enabled at warn level")
	}
	if !logger.Enabled(context.Background(), LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  LevelInfo,
		Format: FormatJSON,
		Output: NewOutput(&buf),
	})

	gateErr := errors.NewBadPatternError("lint-python", "[", fmt.Errorf("missing closing ]"))
	logger.WithError(gateErr).Error("rule table rejected")

	out := buf.String()
	if !strings.Contains(out, "CONFIG-003") {
		t.Errorf("expected error_code in output, got: %s", out)
	}
	if !strings.Contains(out, "missing closing ]") {
		t.Errorf("expected cause in output, got: %s", out)
	}
}

func TestDefaultLogger(t *testing.T) {
	original := DefaultLogger()
	defer SetDefaultLogger(original)

	custom := New(Config{Level: LevelError, Format: FormatText, Output: OutputStderr()})
	SetDefaultLogger(custom)

	if DefaultLogger() != custom {
		t.Error("DefaultLogger should return the configured logger")
	}
}
