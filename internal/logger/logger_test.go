package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNextLevel_Cycles(t *testing.T) {
	level := slog.LevelDebug
	want := []slog.Level{slog.LevelInfo, slog.LevelWarn, slog.LevelError, slog.LevelDebug}
	for _, w := range want {
		level = NextLevel(level)
		if level != w {
			t.Fatalf("expected %v, got %v", w, level)
		}
	}
}

func TestSlogLogger_ImplementsInterface(t *testing.T) {
	var _ Logger = (*SlogLogger)(nil)
}

func TestNewWithWriter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelWarn)

	log.Info("hidden message")
	log.Warn("visible message", "race", "r1")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Errorf("info record should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "visible message") || !strings.Contains(out, "race=r1") {
		t.Errorf("expected warn record with attributes, got: %s", out)
	}
}

func TestSetLevel_ChangesFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelError)

	log.Debug("before")
	log.SetLevel(slog.LevelDebug)
	log.Debug("after")

	if log.GetLevel() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", log.GetLevel())
	}
	out := buf.String()
	if strings.Contains(out, "before") || !strings.Contains(out, "after") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestHTTPLoggingToggle(t *testing.T) {
	log := Nop()
	if log.IsHTTPLoggingEnabled() {
		t.Fatal("http logging should start disabled")
	}
	log.EnableHTTPLogging()
	if !log.IsHTTPLoggingEnabled() {
		t.Error("expected http logging enabled")
	}
	log.DisableHTTPLogging()
	if log.IsHTTPLoggingEnabled() {
		t.Error("expected http logging disabled")
	}
}

func TestNop_DiscardsEverything(t *testing.T) {
	log := Nop()
	log.Error("nothing should happen")
}
