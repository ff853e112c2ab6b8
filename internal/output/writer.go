// Package output provides the interface, configuration and implementation
// for writers that persist the result of a run: the html of the fully
// expanded page and the run status.
package output

import (
	"fmt"

	"github.com/jakopako/loadmore/internal/types"
)

// Writer defines the interface for all writers.
type Writer interface {
	// WritePage writes the html of the page as it is after the run.
	WritePage(html string) error
	// WriteStatus writes the run status.
	WriteStatus(status types.RunStatus) error
}

// WriterConfig defines the necessary parameters to make a new writer.
type WriterConfig struct {
	Type         WriterType `yaml:"type" env:"LOADMORE_WRITER_TYPE"`
	FileDir      string     `yaml:"filedir" env:"LOADMORE_WRITER_FILEDIR"`
	WriteStatus  bool       `yaml:"write_status"`
	ItemSelector string     `yaml:"item_selector"` // if set, the items matching it are counted in the run status
	Summary      bool       `yaml:"summary"`       // print a summary table at the end
}

// WriterType encapsulates the type of a writer
// See below constants for possible types
type WriterType string

const (
	NONE_WRITER_TYPE   WriterType = "none"
	STDOUT_WRITER_TYPE WriterType = "stdout"
	FILE_WRITER_TYPE   WriterType = "file"
)

// NewWriter returns a new writer depending on the writer type
func NewWriter(wc *WriterConfig) (Writer, error) {
	switch wc.Type {
	case NONE_WRITER_TYPE, "":
		return &NoneWriter{}, nil
	case STDOUT_WRITER_TYPE:
		return NewStdoutWriter(wc), nil
	case FILE_WRITER_TYPE:
		return NewFileWriter(wc)
	default:
		return nil, fmt.Errorf("writer of type '%s' not implemented", wc.Type)
	}
}

// NoneWriter discards everything. It is used when the page is only browsed
// interactively.
type NoneWriter struct{}

func (*NoneWriter) WritePage(string) error            { return nil }
func (*NoneWriter) WriteStatus(types.RunStatus) error { return nil }
