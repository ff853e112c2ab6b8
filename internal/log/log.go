// Package log sets up the default slog logger and carries per-run loggers
// through contexts.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Debug is set from the command line. It raises the log level and enables
// writing of additional debugging data such as screenshots and page snapshots.
var Debug bool

type ctxKey struct{}

var loggerCtxKey = ctxKey{}

// output lets the destination change after loggers have been derived from the
// default logger, eg when the terminal panel takes over the screen.
var output = &switchWriter{w: os.Stdout}

type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Level returns the log level matching the Debug flag.
func Level() slog.Level {
	if Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// InitializeDefaultLogger installs a text logger as the default logger. It
// writes to stdout unless SetOutput says otherwise.
func InitializeDefaultLogger() {
	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: Level()}))
	slog.SetDefault(logger)
}

// SetOutput redirects all loggers created by InitializeDefaultLogger, including
// those derived from it earlier.
func SetOutput(w io.Writer) {
	output.mu.Lock()
	defer output.mu.Unlock()
	output.w = w
}

func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey, logger)
}

func LoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerCtxKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
