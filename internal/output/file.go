package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/jakopako/loadmore/internal/types"
)

const (
	pageFilename   = "page.html"
	statusFilename = "status.json"
)

// FileWriter represents a writer that writes to files in a directory
type FileWriter struct {
	*WriterConfig
	logger *slog.Logger
}

// NewFileWriter returns a new FileWriter
func NewFileWriter(wc *WriterConfig) (*FileWriter, error) {
	if wc.FileDir == "" {
		return nil, errors.New("filedir needs to be specified for the FileWriter")
	}

	if err := os.MkdirAll(wc.FileDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", wc.FileDir, err)
	}

	return &FileWriter{
		WriterConfig: wc,
		logger:       slog.With(slog.String("writer", string(FILE_WRITER_TYPE))),
	}, nil
}

func (w *FileWriter) WritePage(html string) error {
	filepath := path.Join(w.FileDir, pageFilename)
	if err := os.WriteFile(filepath, []byte(html), 0644); err != nil {
		return fmt.Errorf("error while writing page to file: %w", err)
	}
	w.logger.Info(fmt.Sprintf("wrote %d bytes of html to file %s", len(html), filepath))
	return nil
}

func (w *FileWriter) WriteStatus(status types.RunStatus) error {
	if !w.WriterConfig.WriteStatus {
		return nil
	}
	statusJson, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("error while marshalling status json: %w", err)
	}
	filepath := path.Join(w.FileDir, statusFilename)
	if err := os.WriteFile(filepath, statusJson, 0644); err != nil {
		return fmt.Errorf("error while writing status to file: %w", err)
	}
	w.logger.Info(fmt.Sprintf("wrote run status to file %s", filepath))
	return nil
}
