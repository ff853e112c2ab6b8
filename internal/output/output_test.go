package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/jakopako/loadmore/internal/types"
)

func testStatus() types.RunStatus {
	start := time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)
	return types.RunStatus{
		URL:         "https://example.com/s",
		NrTicks:     42,
		NrClicks:    17,
		NrErrors:    1,
		FinalHeight: 48211,
		StopReason:  types.StopReasonStagnation,
		NrItems:     340,
		RunStart:    start,
		RunEnd:      start.Add(50 * time.Second),
	}
}

func TestNewWriter(t *testing.T) {
	tests := []struct {
		wc      WriterConfig
		wantErr bool
	}{
		{WriterConfig{}, false},
		{WriterConfig{Type: NONE_WRITER_TYPE}, false},
		{WriterConfig{Type: STDOUT_WRITER_TYPE}, false},
		{WriterConfig{Type: FILE_WRITER_TYPE}, true}, // no filedir
		{WriterConfig{Type: FILE_WRITER_TYPE, FileDir: t.TempDir()}, false},
		{WriterConfig{Type: "api"}, true},
	}
	for _, tt := range tests {
		_, err := NewWriter(&tt.wc)
		if (err != nil) != tt.wantErr {
			t.Errorf("NewWriter(%+v) error = %v, wantErr %v", tt.wc, err, tt.wantErr)
		}
	}
}

func TestFileWriter(t *testing.T) {
	dir := path.Join(t.TempDir(), "out")
	w, err := NewFileWriter(&WriterConfig{Type: FILE_WRITER_TYPE, FileDir: dir, WriteStatus: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.WritePage("<html><body>all the stories</body></html>"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.WriteStatus(testStatus()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	page, err := os.ReadFile(path.Join(dir, pageFilename))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(page) != "<html><body>all the stories</body></html>" {
		t.Fatalf("unexpected page content %q", page)
	}

	raw, err := os.ReadFile(path.Join(dir, statusFilename))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var status types.RunStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status.NrClicks != 17 || status.StopReason != types.StopReasonStagnation {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestFileWriterSkipsStatus(t *testing.T) {
	dir := t.TempDir()
	w, err := NewFileWriter(&WriterConfig{Type: FILE_WRITER_TYPE, FileDir: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.WriteStatus(testStatus()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(path.Join(dir, statusFilename)); !os.IsNotExist(err) {
		t.Fatalf("expected no status file, got err=%v", err)
	}
}

func TestStdoutWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewStdoutWriter(&WriterConfig{Type: STDOUT_WRITER_TYPE, WriteStatus: true})
	w.out = &buf
	if err := w.WritePage("<p>hi</p>"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.WriteStatus(testStatus()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "<p>hi</p>\n") {
		t.Fatalf("expected the page first, got %q", out)
	}
	if !strings.Contains(out, `"nrTicks": 42`) {
		t.Fatalf("expected the status json, got %q", out)
	}
}

func TestCountItems(t *testing.T) {
	html := `<ul><li class="story">a</li><li class="story">b</li><li>c</li></ul><div class="story">d</div>`
	tests := []struct {
		selector string
		expected int
	}{
		{"li.story", 2},
		{".story", 3},
		{"li", 3},
		{"article", 0},
	}
	for _, tt := range tests {
		n, err := CountItems(html, tt.selector)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != tt.expected {
			t.Errorf("CountItems(%q) = %d; want %d", tt.selector, n, tt.expected)
		}
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintSummary(&buf, testStatus(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"https://example.com/s", "42", "17", "48211", "stagnation", "340", "50s"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected summary to contain %q, got:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := PrintSummary(&buf, testStatus(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(buf.String(), "340") {
		t.Errorf("expected no item count in the summary, got:\n%s", buf.String())
	}
}
