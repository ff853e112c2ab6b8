// Package loop implements the action loop. On a fixed interval it scrolls the
// page to the bottom and clicks the page's "load more" control. It keeps track
// of the content height and stops on its own once the page stops growing and
// nothing is left to click.
//
// All page access goes through a Driver and all timing through a Scheduler,
// so the loop can be driven by a real browser tab or by fakes in tests.
package loop

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jakopako/loadmore/internal/log"
	"github.com/jakopako/loadmore/internal/types"
)

// A Driver gives the loop access to the page it works on.
type Driver interface {
	// ScrollToBottom scrolls the page to its maximum vertical extent.
	ScrollToBottom(ctx context.Context) error
	// FindLoadControl returns the first load control on the page or nil
	// if there is none. Not finding a control is not an error.
	FindLoadControl(ctx context.Context) (Control, error)
	// ContentHeight returns the current height of the page content.
	ContentHeight(ctx context.Context) (int, error)
}

// A Control is an element on the page that reveals more content when clicked.
type Control interface {
	Label() string
	Disabled() bool
	Click(ctx context.Context) error
}

// State is a snapshot of the loop's state record.
type State struct {
	Running          bool   `json:"running"`
	DoScroll         bool   `json:"doScroll"`
	DoClick          bool   `json:"doClick"`
	IntervalMS       int    `json:"intervalMs"`
	MaxStagnantTicks int    `json:"maxStagnantTicks"`
	LastHeight       int    `json:"lastHeight"`
	StagnantCount    int    `json:"stagnantCount"`
	Status           string `json:"status"`
}

// Stats counts what happened during the current (or last) run.
type Stats struct {
	Ticks      int
	Clicks     int
	Errors     int
	StopReason string
	Started    time.Time
	Stopped    time.Time
}

// Controller owns the state record and runs the loop. Start, Stop and the
// setters may be called from any goroutine.
type Controller struct {
	ctx      context.Context
	driver   Driver
	sched    Scheduler
	interval time.Duration
	settle   time.Duration
	logger   *slog.Logger

	mu          sync.Mutex
	state       State
	cancel      func() // non-nil iff state.Running
	run         uint64
	stats       Stats
	stopped     chan struct{}
	observers   []func(State)
	dispatching bool
	dirty       bool
}

// NewController returns an idle controller. ctx is passed to every driver call
// and carries the logger.
func NewController(ctx context.Context, d Driver, s Scheduler, cfg Config) *Controller {
	stopped := make(chan struct{})
	close(stopped)
	return &Controller{
		ctx:      ctx,
		driver:   d,
		sched:    s,
		interval: cfg.interval(),
		settle:   cfg.settle(),
		logger:   log.LoggerFromContext(ctx).With(slog.String("component", "loop")),
		state: State{
			DoScroll:         cfg.Scroll,
			DoClick:          cfg.Click,
			IntervalMS:       cfg.IntervalMS,
			MaxStagnantTicks: cfg.MaxStagnantTicks,
			Status:           StatusIdle,
		},
		stopped: stopped,
	}
}

// Start begins ticking. It does nothing if the loop is already running.
func (c *Controller) Start() error {
	if c.Running() {
		return nil
	}
	h, err := c.driver.ContentHeight(c.ctx)
	if err != nil {
		return fmt.Errorf("failed to read content height: %w", err)
	}

	c.mu.Lock()
	// another Start may have won while the height was read
	if c.state.Running {
		c.mu.Unlock()
		return nil
	}
	c.run++
	c.state.Running = true
	c.state.StagnantCount = 0
	c.state.LastHeight = h
	c.state.Status = StatusStarting
	c.stats = Stats{Started: time.Now()}
	c.stopped = make(chan struct{})
	run := c.run
	c.cancel = c.sched.Every(c.interval, func() { c.tick(run) })
	snap := c.state
	c.mu.Unlock()

	c.logger.Info("started", slog.Int("height", h), slog.Int("interval_ms", snap.IntervalMS))
	c.notify()
	return nil
}

// Stop cancels the periodic ticks. It does nothing if the loop is not running.
// A tick that is already in flight is not aborted but will not change the
// state record any more.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.state.Running {
		c.mu.Unlock()
		return
	}
	c.stopLocked(types.StopReasonUser)
	c.mu.Unlock()

	c.logger.Info("stopped", slog.String("reason", types.StopReasonUser))
	c.notify()
}

// Toggle stops a running loop and starts a stopped one.
func (c *Controller) Toggle() error {
	if c.Running() {
		c.Stop()
		return nil
	}
	return c.Start()
}

// stopLocked requires c.mu to be held.
func (c *Controller) stopLocked(reason string) State {
	c.state.Running = false
	c.cancel()
	c.cancel = nil
	c.state.Status = StatusStopped
	c.stats.StopReason = reason
	c.stats.Stopped = time.Now()
	close(c.stopped)
	return c.state
}

// SetDoScroll enables or disables scrolling from the next tick on.
func (c *Controller) SetDoScroll(v bool) {
	c.update(func(s *State) { s.DoScroll = v })
}

// SetDoClick enables or disables clicking from the next tick on.
func (c *Controller) SetDoClick(v bool) {
	c.update(func(s *State) { s.DoClick = v })
}

// Running reports whether the loop is running.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Running
}

// Snapshot returns a copy of the state record.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stats returns the counters of the current or last run.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Stopped returns a channel that is closed once the current run stops. If the
// loop is not running the returned channel is already closed.
func (c *Controller) Stopped() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// Subscribe registers fn to be called with a fresh snapshot after state
// changes. fn is called outside the controller's lock and may call back into
// the controller. Observers never see an older state after a newer one, but
// changes that happen while observers are busy are delivered as one.
func (c *Controller) Subscribe(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

func (c *Controller) update(fn func(s *State)) {
	c.mu.Lock()
	fn(&c.state)
	c.mu.Unlock()
	c.notify()
}

// notify delivers the current state to the observers. Only one goroutine
// delivers at a time. A call that finds a delivery in progress leaves the
// newer state to that goroutine, which reads it fresh once its round ends.
func (c *Controller) notify() {
	c.mu.Lock()
	c.dirty = true
	if c.dispatching {
		c.mu.Unlock()
		return
	}
	c.dispatching = true
	for c.dirty {
		c.dirty = false
		snap := c.state
		observers := slices.Clone(c.observers)
		c.mu.Unlock()
		for _, o := range observers {
			o(snap)
		}
		c.mu.Lock()
	}
	c.dispatching = false
	c.mu.Unlock()
}

// Tick runs one iteration of the loop if the loop is running. It is what the
// scheduler calls on every interval.
func (c *Controller) Tick() {
	c.mu.Lock()
	run := c.run
	c.mu.Unlock()
	c.tick(run)
}

// tick isolates failures: an error is logged and shown in the status but
// leaves the loop running, the next tick is the retry.
func (c *Controller) tick(run uint64) {
	c.mu.Lock()
	if !c.current(run) {
		c.mu.Unlock()
		return
	}
	c.stats.Ticks++
	c.mu.Unlock()

	if err := c.step(run); err != nil {
		c.logger.Warn("tick failed", slog.String("err", err.Error()))
		c.mu.Lock()
		c.stats.Errors++
		c.state.Status = StatusError
		c.mu.Unlock()
		c.notify()
	}
}

// current requires c.mu to be held.
func (c *Controller) current(run uint64) bool {
	return c.state.Running && c.run == run
}

func (c *Controller) step(run uint64) error {
	c.mu.Lock()
	doScroll, doClick := c.state.DoScroll, c.state.DoClick
	c.mu.Unlock()

	if doScroll {
		if err := c.driver.ScrollToBottom(c.ctx); err != nil {
			return fmt.Errorf("failed to scroll: %w", err)
		}
	}

	if doClick {
		ctl, err := c.driver.FindLoadControl(c.ctx)
		if err != nil {
			return fmt.Errorf("failed to find load control: %w", err)
		}
		if ctl != nil && !ctl.Disabled() {
			c.logger.Debug("clicking load control", slog.String("label", ctl.Label()))
			if err := ctl.Click(c.ctx); err != nil {
				return fmt.Errorf("failed to click load control: %w", err)
			}
			c.mu.Lock()
			if !c.current(run) {
				c.mu.Unlock()
				return nil
			}
			c.state.StagnantCount = 0
			c.state.Status = StatusClicking
			c.stats.Clicks++
			c.mu.Unlock()
			c.notify()

			if err := c.sched.Sleep(c.ctx, c.settle); err != nil {
				return err
			}
			// Stop may have been called during the pause.
			if !c.isCurrent(run) {
				return nil
			}
		}
	}

	h, err := c.driver.ContentHeight(c.ctx)
	if err != nil {
		return fmt.Errorf("failed to read content height: %w", err)
	}

	c.mu.Lock()
	doClick = c.state.DoClick
	c.mu.Unlock()
	found := false
	if doClick {
		ctl, err := c.driver.FindLoadControl(c.ctx)
		if err != nil {
			return fmt.Errorf("failed to find load control: %w", err)
		}
		found = ctl != nil
	}

	c.mu.Lock()
	if !c.current(run) {
		c.mu.Unlock()
		return nil
	}
	if h <= c.state.LastHeight && !found {
		c.state.StagnantCount++
		if c.state.StagnantCount >= c.state.MaxStagnantTicks {
			snap := c.stopLocked(types.StopReasonStagnation)
			c.mu.Unlock()
			c.logger.Info("no further growth detected, auto-stopping", slog.Int("height", snap.LastHeight))
			c.notify()
			return nil
		}
	} else {
		c.state.StagnantCount = 0
		c.state.LastHeight = h
	}
	c.state.Status = runningStatus(c.state)
	c.mu.Unlock()
	c.notify()
	return nil
}

func (c *Controller) isCurrent(run uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current(run)
}
