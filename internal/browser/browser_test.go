package browser

import (
	"strings"
	"testing"
	"time"

	"github.com/jakopako/loadmore/internal/detect"
	"github.com/jakopako/loadmore/internal/panel"
)

func TestDebugName(t *testing.T) {
	ts := time.Date(2024, 3, 10, 20, 15, 0, 0, time.UTC)
	tests := []struct {
		url      string
		expected string
	}{
		{"https://www.wattpad.com/search/fantasy", "www.wattpad.com-20240310-201500"},
		{"not a url", "page-20240310-201500"},
		{"", "page-20240310-201500"},
	}
	for _, tt := range tests {
		if got := debugName(tt.url, ts); got != tt.expected {
			t.Errorf("debugName(%q) = %q; want %q", tt.url, got, tt.expected)
		}
	}
}

func TestCandidatesScriptUsesButtonSelector(t *testing.T) {
	if !strings.Contains(candidatesScript, `"button, [role=\"button\"]"`) {
		t.Fatalf("expected the quoted button selector in the script, got:\n%s", candidatesScript)
	}
}

func TestScriptsSkipPanel(t *testing.T) {
	want := `n.closest("#` + panel.RootID + `")`
	for name, script := range map[string]string{"candidates": candidatesScript, "click": clickScript(4)} {
		if !strings.Contains(script, want) {
			t.Errorf("%s script does not exclude the panel, got:\n%s", name, script)
		}
	}
}

func TestClickScript(t *testing.T) {
	s := clickScript(4)
	if !strings.Contains(s, ")[4];") {
		t.Fatalf("expected the script to index element 4, got:\n%s", s)
	}
	if !strings.Contains(s, "n.click();") {
		t.Fatalf("expected a DOM click, got:\n%s", s)
	}
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	if c.PageLoadWaitMS != 2000 {
		t.Fatalf("expected a page load wait of 2000ms, got %d", c.PageLoadWaitMS)
	}
	if len(c.ConsentSelectors) != 1 || c.ConsentSelectors[0] != "#onetrust-accept-btn-handler" {
		t.Fatalf("unexpected consent selectors %v", c.ConsentSelectors)
	}
}

func TestPageControl(t *testing.T) {
	c := &pageControl{cand: detect.Candidate{Index: 3, Target: 2, Text: "", Label: "Load more", Disabled: true}}
	if c.Label() != "Load more" {
		t.Fatalf("expected the aria-label as label, got %q", c.Label())
	}
	if !c.Disabled() {
		t.Fatalf("expected the control to be disabled")
	}
}
