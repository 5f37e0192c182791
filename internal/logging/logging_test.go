package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", "json")

	log.Info("hidden")
	log.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record should be filtered at warn level")
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn record missing from output: %s", out)
	}
	if !strings.Contains(out, "auth-session") {
		t.Fatalf("service attribute missing: %s", out)
	}
}

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug", "text")
	if !log.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("debug level should be enabled")
	}
	log.Debug("msg")
	if strings.Contains(buf.String(), "{") {
		t.Fatalf("text format should not emit JSON: %s", buf.String())
	}
}
