package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Level: "info", Format: "text", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("command scheduled", "command", "DriveWithJoystick")

	output := buf.String()
	if !strings.Contains(output, "command scheduled") {
		t.Errorf("expected message in output, got: %s", output)
	}
	if !strings.Contains(output, "command=DriveWithJoystick") {
		t.Errorf("expected command=DriveWithJoystick in output, got: %s", output)
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Format: "JSON", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("tick overrun", "tick", 12)

	output := buf.String()
	if !strings.Contains(output, `"msg":"tick overrun"`) {
		t.Errorf("expected JSON msg field in output, got: %s", output)
	}
	if !strings.Contains(output, `"tick":12`) {
		t.Errorf("expected JSON tick field in output, got: %s", output)
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("should not appear")
	logger.Warn("should appear")

	output := buf.String()
	if strings.Contains(output, "should not appear") {
		t.Errorf("INFO message should be filtered at WARN level, got: %s", output)
	}
	if !strings.Contains(output, "should appear") {
		t.Errorf("WARN message should appear at WARN level, got: %s", output)
	}
}

func TestNew_RejectsUnknown(t *testing.T) {
	if _, _, err := New(Options{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, _, err := New(Options{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, _, _ := New(Options{Level: "debug", Writer: &buf})
	Component(logger, "scheduler").Debug("interrupted", "episode", "ep_1234abcd")

	output := buf.String()
	if !strings.Contains(output, "component=scheduler") {
		t.Errorf("expected component in output, got: %s", output)
	}
	if !strings.Contains(output, "episode=ep_1234abcd") {
		t.Errorf("expected episode in output, got: %s", output)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"ERROR", slog.LevelError, false},
		{"unknown", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "robot.log")
	var buf bytes.Buffer
	logger, closer, err := New(Options{Format: "json", Writer: &buf, File: path})
	if err != nil {
		t.Fatal(err)
	}
	logger.Warn("device disconnected", "device", "limelight")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"device":"limelight"`) {
		t.Errorf("log file = %s", data)
	}
	if buf.Len() != 0 {
		t.Errorf("writer should be unused when File is set, got %q", buf.String())
	}
}

func TestNew_CloserWithoutFile(t *testing.T) {
	_, closer, err := New(Options{Writer: &bytes.Buffer{}})
	if err != nil {
		t.Fatal(err)
	}
	if err := closer.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
