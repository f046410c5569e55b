package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		hasError bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"invalid", LevelInfo, true},
		{"", LevelInfo, true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			level, err := ParseLevel(test.input)
			if test.hasError && err == nil {
				t.Error("expected error, got nil")
			}
			if !test.hasError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !test.hasError && level != test.expected {
				t.Errorf("expected %v, got %v", test.expected, level)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Errorf("expected FormatJSON, got %v (%v)", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatText {
		t.Errorf("expected FormatText for empty input, got %v (%v)", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			result := LevelString(test.level)
			if result != test.expected {
				t.Errorf("expected %q, got %q", test.expected, result)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("expected default level Info, got %v", cfg.Level)
	}
	if cfg.Format != FormatText {
		t.Errorf("expected default format Text, got %v", cfg.Format)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected default output stderr, got %s", cfg.Output)
	}
	if cfg.Component != "menukit" {
		t.Errorf("expected default component menukit, got %s", cfg.Component)
	}
}

func TestFileOutputJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menukit.log")

	l, err := New(&Config{
		Level:     LevelDebug,
		Format:    FormatJSON,
		Output:    path,
		Component: "test",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	l.Info("menu shown", "hwnd", 0x1234, "items", 5)
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "menu shown" {
		t.Errorf("expected msg 'menu shown', got %v", entry["msg"])
	}
	if entry["component"] != "test" {
		t.Errorf("expected component 'test', got %v", entry["component"])
	}
}

func TestFileOutputText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menukit.log")

	l, err := New(&Config{Level: LevelInfo, Format: FormatText, Output: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	l.Debug("suppressed below level")
	l.Warn("track failed", "errno", 5)
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)

	if strings.Contains(out, "suppressed below level") {
		t.Error("debug entry should have been filtered at info level")
	}
	if !strings.Contains(out, "track failed") {
		t.Errorf("missing warn entry in output: %s", out)
	}
}

func TestWithComponent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menukit.log")

	l, err := New(&Config{Format: FormatJSON, Output: path, Component: "root"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	child := l.WithComponent("popup")
	child.Info("hello")
	l.Close()

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"component":"popup"`) {
		t.Errorf("expected popup component attribute, got: %s", data)
	}
}

func TestDefaultLoggerIsUsable(t *testing.T) {
	// Must not panic or return nil.
	l := Default()
	if l == nil || l.Logger == nil {
		t.Fatal("Default returned an unusable logger")
	}
}
