package log

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestLoggerFromContextDefault(t *testing.T) {
	if l := LoggerFromContext(context.Background()); l != slog.Default() {
		t.Fatalf("expected the default logger for an empty context")
	}
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil)).With(slog.String("url", "https://example.com"))
	ctx := ContextWithLogger(context.Background(), logger)
	LoggerFromContext(ctx).Info("hello")
	if !strings.Contains(buf.String(), "url=https://example.com") {
		t.Fatalf("expected logger attributes in output, got %q", buf.String())
	}
}

func TestLevel(t *testing.T) {
	defer func() { Debug = false }()
	Debug = false
	if Level() != slog.LevelInfo {
		t.Fatalf("expected info level, got %v", Level())
	}
	Debug = true
	if Level() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", Level())
	}
}

func TestSetOutputRedirectsDerivedLoggers(t *testing.T) {
	defer SetOutput(os.Stdout)
	defer slog.SetDefault(slog.Default())

	InitializeDefaultLogger()
	derived := slog.With(slog.String("component", "loop"))

	var buf bytes.Buffer
	SetOutput(&buf)
	derived.Info("started")
	if !strings.Contains(buf.String(), "component=loop") || !strings.Contains(buf.String(), "msg=started") {
		t.Fatalf("expected the derived logger to follow the new output, got %q", buf.String())
	}
}
