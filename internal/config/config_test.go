package config

import (
	"os"
	"path"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := path.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestDefault(t *testing.T) {
	c := Default()
	if c.Loop.IntervalMS != 1200 || c.Loop.MaxStagnantTicks != 6 {
		t.Fatalf("unexpected loop defaults %+v", c.Loop)
	}
	if !c.Loop.Scroll || !c.Loop.Click {
		t.Fatalf("expected both actions enabled by default, got %+v", c.Loop)
	}
	if c.Loop.SettleMS != 200 {
		t.Fatalf("expected a settle time of 200ms, got %d", c.Loop.SettleMS)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults must be valid: %v", err)
	}
}

func TestNewConfigKeepsDefaults(t *testing.T) {
	p := writeConfig(t, `
url: https://www.wattpad.com/search/fantasy
loop:
  interval_ms: 500
  scroll: false
browser:
  headless: true
  consent_selectors:
    - "#accept"
    - ".cookie-ok"
writer:
  type: file
  filedir: out
`)
	c, err := NewConfig(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.URL != "https://www.wattpad.com/search/fantasy" {
		t.Fatalf("unexpected url %q", c.URL)
	}
	if c.Loop.IntervalMS != 500 {
		t.Fatalf("expected interval 500, got %d", c.Loop.IntervalMS)
	}
	if c.Loop.Scroll {
		t.Fatalf("expected scroll to be disabled by the file")
	}
	if !c.Loop.Click {
		t.Fatalf("expected click to keep its default")
	}
	if c.Loop.MaxStagnantTicks != 6 {
		t.Fatalf("expected max_stagnant_ticks to keep its default, got %d", c.Loop.MaxStagnantTicks)
	}
	if c.Browser.PageLoadWaitMS != 2000 {
		t.Fatalf("expected page_load_wait_ms to keep its default, got %d", c.Browser.PageLoadWaitMS)
	}
	if len(c.Browser.ConsentSelectors) != 2 || c.Browser.ConsentSelectors[1] != ".cookie-ok" {
		t.Fatalf("unexpected consent selectors %v", c.Browser.ConsentSelectors)
	}
	if c.Writer.Type != "file" || c.Writer.FileDir != "out" {
		t.Fatalf("unexpected writer config %+v", c.Writer)
	}
}

func TestNewConfigEnv(t *testing.T) {
	t.Setenv("LOADMORE_MAX_STAGNANT_TICKS", "3")
	t.Setenv("LOADMORE_CLICK", "false")
	t.Setenv("LOADMORE_URL", "https://example.com")
	c, err := NewConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Loop.MaxStagnantTicks != 3 {
		t.Fatalf("expected max_stagnant_ticks 3 from env, got %d", c.Loop.MaxStagnantTicks)
	}
	if c.Loop.Click {
		t.Fatalf("expected click disabled from env")
	}
	if !c.Loop.Scroll {
		t.Fatalf("expected scroll to keep its default")
	}
	if c.URL != "https://example.com" {
		t.Fatalf("unexpected url %q", c.URL)
	}
}

func TestNewConfigMissingFile(t *testing.T) {
	if _, err := NewConfig(path.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero interval", func(c *Config) { c.Loop.IntervalMS = 0 }, true},
		{"zero threshold", func(c *Config) { c.Loop.MaxStagnantTicks = 0 }, true},
		{"negative page wait", func(c *Config) { c.Browser.PageLoadWaitMS = -1 }, true},
		{"headless without controls", func(c *Config) {
			c.Browser.Headless = true
			c.Panel.Terminal = false
		}, true},
		{"headless with autostart", func(c *Config) {
			c.Browser.Headless = true
			c.Panel.Terminal = false
			c.Autostart = true
		}, false},
	}
	for _, tt := range tests {
		c := Default()
		tt.mutate(&c)
		if err := c.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	c := Default()
	c.URL = "https://example.com"
	b, err := c.YAML()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(b), "interval_ms: 1200") {
		t.Fatalf("expected interval_ms in yaml, got:\n%s", b)
	}
	var back Config
	if err := yaml.Unmarshal(b, &back); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back.Loop != c.Loop || back.URL != c.URL {
		t.Fatalf("expected %+v, got %+v", c, back)
	}
}

func TestUsage(t *testing.T) {
	u, err := Usage()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(u, "LOADMORE_INTERVAL_MS") {
		t.Fatalf("expected the interval env var in the usage, got:\n%s", u)
	}
}
