package nanny

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleSinkWritesPlainTextToBuffers(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)
	sink.Log(Record(map[string]any{"a": 1}))
	sink.Log(Scalar("x"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %q", buf.String())
	}
	if lines[0] != `[nanny #1 record] {"a":1}` || lines[1] != `[nanny #2 scalar] "x"` {
		t.Fatalf("unexpected output %q", lines)
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected no color codes for non-terminal writer")
	}
}

func TestJSONLoggerAsSink(t *testing.T) {
	var buf bytes.Buffer
	logger, level := NewJSONLogger(&buf, slog.LevelInfo)
	sink := LoggerSink(logger)

	sink.Log(Record(map[string]any{"a": 1}))
	if buf.Len() != 0 {
		t.Fatalf("debug output should be filtered at info level, got %q", buf.String())
	}
	level.Set(slog.LevelDebug)
	sink.Log(Record(map[string]any{"a": 1}))
	out := buf.String()
	if !strings.Contains(out, `"component":"nanny"`) || !strings.Contains(out, `"kind":"record"`) {
		t.Fatalf("unexpected log line %q", out)
	}
}
