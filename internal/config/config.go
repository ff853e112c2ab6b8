// Package config defines the overall configuration of a run. Values are
// taken from a yaml file or environment variables or both, on top of the
// built-in defaults.
package config

import (
	"errors"
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jakopako/loadmore/internal/browser"
	"github.com/jakopako/loadmore/internal/loop"
	"github.com/jakopako/loadmore/internal/output"
	"gopkg.in/yaml.v3"
)

// PanelConfig selects the control panels.
type PanelConfig struct {
	Page     bool `yaml:"page" env:"LOADMORE_PANEL_PAGE"`         // floating panel inside the page
	Terminal bool `yaml:"terminal" env:"LOADMORE_PANEL_TERMINAL"` // tview panel in the terminal
}

type Config struct {
	URL        string              `yaml:"url" env:"LOADMORE_URL"`
	Autostart  bool                `yaml:"autostart" env:"LOADMORE_AUTOSTART"`
	ExitOnStop bool                `yaml:"exit_on_stop" env:"LOADMORE_EXIT_ON_STOP"`
	Loop       loop.Config         `yaml:"loop"`
	Browser    browser.Config      `yaml:"browser"`
	Panel      PanelConfig         `yaml:"panel"`
	Writer     output.WriterConfig `yaml:"writer"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Loop:    loop.DefaultConfig(),
		Browser: browser.DefaultConfig(),
		Panel: PanelConfig{
			Page:     true,
			Terminal: true,
		},
		Writer: output.WriterConfig{
			Type: output.NONE_WRITER_TYPE,
		},
	}
}

// NewConfig reads the configuration. If path is empty only the environment
// is read. Fields missing from the file keep their defaults.
func NewConfig(path string) (*Config, error) {
	config := Default()
	var err error
	if path == "" {
		err = cleanenv.ReadEnv(&config)
	} else {
		err = cleanenv.ReadConfig(path, &config)
	}
	if err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if err := c.Loop.Validate(); err != nil {
		return fmt.Errorf("invalid loop config: %w", err)
	}
	if c.Browser.PageLoadWaitMS < 0 {
		return errors.New("invalid browser config: page_load_wait_ms must not be negative")
	}
	if c.Browser.Headless && !c.Panel.Terminal && !c.Autostart {
		return errors.New("a headless browser without terminal panel needs autostart")
	}
	return nil
}

// YAML returns the configuration in the format NewConfig reads.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// Usage returns a description of the environment variables that are read.
func Usage() (string, error) {
	c := Default()
	return cleanenv.GetDescription(&c, nil)
}
