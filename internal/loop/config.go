package loop

import (
	"errors"
	"time"
)

// Config holds the tunables of the action loop.
type Config struct {
	IntervalMS       int  `yaml:"interval_ms" env:"LOADMORE_INTERVAL_MS"`
	MaxStagnantTicks int  `yaml:"max_stagnant_ticks" env:"LOADMORE_MAX_STAGNANT_TICKS"`
	Scroll           bool `yaml:"scroll" env:"LOADMORE_SCROLL"`
	Click            bool `yaml:"click" env:"LOADMORE_CLICK"`
	SettleMS         int  `yaml:"settle_ms" env:"LOADMORE_SETTLE_MS"` // pause after a click so the page can react
}

// DefaultConfig returns the loop defaults: a tick every 1.2s, auto-stop after
// 6 ticks without progress, both actions enabled.
func DefaultConfig() Config {
	return Config{
		IntervalMS:       1200,
		MaxStagnantTicks: 6,
		Scroll:           true,
		Click:            true,
		SettleMS:         200,
	}
}

func (c Config) Validate() error {
	if c.IntervalMS <= 0 {
		return errors.New("interval_ms must be positive")
	}
	if c.MaxStagnantTicks <= 0 {
		return errors.New("max_stagnant_ticks must be positive")
	}
	if c.SettleMS < 0 {
		return errors.New("settle_ms must not be negative")
	}
	return nil
}

func (c Config) interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}

func (c Config) settle() time.Duration {
	return time.Duration(c.SettleMS) * time.Millisecond
}
