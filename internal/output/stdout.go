package output

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jakopako/loadmore/internal/types"
)

// StdoutWriter represents a writer that writes to stdout
type StdoutWriter struct {
	*WriterConfig
	out    io.Writer
	logger *slog.Logger
}

// NewStdoutWriter returns a new StdoutWriter
func NewStdoutWriter(wc *WriterConfig) *StdoutWriter {
	return &StdoutWriter{
		WriterConfig: wc,
		out:          os.Stdout,
		logger:       slog.With(slog.String("writer", string(STDOUT_WRITER_TYPE))),
	}
}

func (w *StdoutWriter) WritePage(html string) error {
	_, err := fmt.Fprintln(w.out, html)
	return err
}

func (w *StdoutWriter) WriteStatus(status types.RunStatus) error {
	if !w.WriterConfig.WriteStatus {
		return nil
	}
	statusJson, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("error while marshalling status json: %w", err)
	}
	w.logger.Info(fmt.Sprintf("printing run status for %s", status.URL))
	_, err = fmt.Fprintln(w.out, string(statusJson))
	return err
}
