package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetLevelAndGetLevel(t *testing.T) {
	defer SetLevel("info")

	SetLevel("debug")
	if GetLevel() != "debug" {
		t.Errorf("GetLevel() = %q, want debug", GetLevel())
	}
	SetLevel("error")
	if GetLevel() != "error" {
		t.Errorf("GetLevel() = %q, want error", GetLevel())
	}
}

func TestJSONParsingWriterReformatsJSONLines(t *testing.T) {
	var buf bytes.Buffer
	w := &JSONParsingWriter{base: &buf}

	_, err := w.Write([]byte(`{"level":"info","message":"hello","time":"2026-07-29T10:00:00Z","foo":"bar"}`))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "[INFO]") {
		t.Errorf("output = %q, want it to contain [INFO]", out)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("output = %q, want it to contain the message", out)
	}
	if !strings.Contains(out, "foo=bar") {
		t.Errorf("output = %q, want it to contain the extra attribute", out)
	}
}

func TestJSONParsingWriterPassesThroughNonJSON(t *testing.T) {
	var buf bytes.Buffer
	w := &JSONParsingWriter{base: &buf}

	if _, err := w.Write([]byte("plain text line\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.String() != "plain text line\n" {
		t.Errorf("output = %q, want the input unchanged", buf.String())
	}
}

func TestCustomHandlerRespectsLevel(t *testing.T) {
	defer SetLevel("info")
	SetLevel("warn")

	var buf bytes.Buffer
	InitLogger(&buf)

	slog.Info("should be filtered")
	if buf.Len() != 0 {
		t.Fatalf("expected info-level log to be filtered at warn level, got %q", buf.String())
	}

	slog.Warn("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Fatalf("expected warn-level log to appear, got %q", buf.String())
	}
}
