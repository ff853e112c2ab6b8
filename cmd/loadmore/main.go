/*
loadmore opens a web page in Chrome and keeps scrolling it and clicking its
"load more" control until no more content appears.

A control panel is injected into the page and shown in the terminal. Both
let you start and stop the loop (also via Alt+Shift+S) and switch the two
actions on and off.
*/
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"syscall"

	"github.com/PuerkitoBio/goquery"
	"github.com/alecthomas/kong"
	"github.com/jakopako/loadmore/internal/browser"
	"github.com/jakopako/loadmore/internal/config"
	"github.com/jakopako/loadmore/internal/detect"
	"github.com/jakopako/loadmore/internal/log"
	"github.com/jakopako/loadmore/internal/loop"
	"github.com/jakopako/loadmore/internal/output"
	"github.com/jakopako/loadmore/internal/panel"
	"github.com/jakopako/loadmore/internal/tui"
	"github.com/jakopako/loadmore/internal/types"
	"github.com/jakopako/loadmore/internal/utils"
	"github.com/olekukonko/tablewriter"
)

var version = "dev"

const name = "loadmore"

type VersionFlag string

func (v VersionFlag) Decode(_ *kong.DecodeContext) error { return nil }
func (v VersionFlag) IsBool() bool                       { return true }
func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}

type cli struct {
	Version VersionFlag `short:"v" long:"version" help:"Print the version and exit."`
	Debug   bool        `short:"d" long:"debug" help:"Set log level to 'debug' and store a screenshot and the html of the page at the end of a run."`

	Run     RunCmd     `cmd:"" help:"Open a page and scroll/click until everything is loaded."`
	Inspect InspectCmd `cmd:"" help:"List the button-like elements of a saved html page and show which one would be clicked."`
	Config  ConfigCmd  `cmd:"" help:"Print the effective configuration."`
}

type RunCmd struct {
	URL         string `arg:"" optional:"" help:"The page to work on. Overrides the url of the configuration."`
	Config      string `short:"c" help:"The configuration file. If not set, only the defaults and environment variables are used."`
	Headless    bool   `help:"Run the browser without a window."`
	Interval    int    `short:"i" help:"Tick interval in milliseconds."`
	MaxStagnant int    `short:"m" help:"Number of ticks without progress after which the loop stops."`
	NoScroll    bool   `name:"no-scroll" help:"Don't scroll to the bottom on every tick."`
	NoClick     bool   `name:"no-click" help:"Don't click the load more control."`
	Autostart   bool   `short:"a" help:"Start the loop as soon as the page has loaded."`
	ExitOnStop  bool   `short:"x" name:"exit-on-stop" help:"Exit as soon as the loop stops."`
	NoTUI       bool   `name:"no-tui" help:"Don't show the terminal panel."`
	NoPanel     bool   `name:"no-panel" help:"Don't inject the control panel into the page."`
	Out         string `short:"o" help:"Write the final page and the run status to this directory."`
	Stdout      bool   `help:"Write the final page to stdout."`
	Item        string `help:"CSS selector of the items the page loads. Their number is reported in the run status."`
	Summary     bool   `short:"s" help:"Print a summary table at the end."`
}

func (rc *RunCmd) apply(c *config.Config) {
	if rc.URL != "" {
		c.URL = rc.URL
	}
	if rc.Headless {
		c.Browser.Headless = true
	}
	if rc.Interval > 0 {
		c.Loop.IntervalMS = rc.Interval
	}
	if rc.MaxStagnant > 0 {
		c.Loop.MaxStagnantTicks = rc.MaxStagnant
	}
	if rc.NoScroll {
		c.Loop.Scroll = false
	}
	if rc.NoClick {
		c.Loop.Click = false
	}
	if rc.Autostart {
		c.Autostart = true
	}
	if rc.ExitOnStop {
		c.ExitOnStop = true
	}
	if rc.NoTUI {
		c.Panel.Terminal = false
	}
	if rc.NoPanel {
		c.Panel.Page = false
	}
	if rc.Out != "" {
		c.Writer.Type = output.FILE_WRITER_TYPE
		c.Writer.FileDir = rc.Out
		c.Writer.WriteStatus = true
	}
	if rc.Stdout {
		c.Writer.Type = output.STDOUT_WRITER_TYPE
	}
	if rc.Item != "" {
		c.Writer.ItemSelector = rc.Item
	}
	if rc.Summary {
		c.Writer.Summary = true
	}
}

func (rc *RunCmd) Run() error {
	cfg, err := config.NewConfig(rc.Config)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	rc.apply(cfg)
	if cfg.URL == "" {
		return fmt.Errorf("no url given, pass it as argument or set it in the configuration")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	writer, err := output.NewWriter(&cfg.Writer)
	if err != nil {
		slog.Error(err.Error())
		return err
	}

	// the browser must outlive an interrupt so the results can still be read from the page
	logger := slog.With(slog.String("url", cfg.URL))
	ctx := log.ContextWithLogger(context.Background(), logger)
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting browser")
	b, err := browser.New(ctx, &cfg.Browser)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.Navigate(cfg.URL); err != nil {
		return err
	}
	if _, err := b.AcceptConsent(); err != nil {
		logger.Warn("failed to accept consent banner", slog.String("err", err.Error()))
	}

	tab := b.Context()
	ctrl := loop.NewController(tab, browser.NewPageDriver(), loop.NewTickerScheduler(), cfg.Loop)

	if cfg.Panel.Page {
		p, err := panel.Attach(tab, ctrl)
		if err != nil {
			logger.Warn("continuing without page panel", slog.String("err", err.Error()))
		} else {
			ctrl.Subscribe(p.Update)
		}
	}

	var finished chan struct{}
	if cfg.ExitOnStop {
		finished = make(chan struct{})
		var once sync.Once
		ctrl.Subscribe(func(s loop.State) {
			if !s.Running && s.Status == loop.StatusStopped {
				once.Do(func() { close(finished) })
			}
		})
	}

	if cfg.Autostart {
		if err := ctrl.Start(); err != nil {
			return err
		}
	}

	if cfg.Panel.Terminal {
		t := tui.New(ctrl, fmt.Sprintf("%s · %s", name, cfg.URL))
		ctrl.Subscribe(t.Update)
		log.SetOutput(t.LogWriter())
		go func() {
			select {
			case <-sigCtx.Done():
			case <-finished:
			}
			t.Stop()
		}()
		err := t.Run()
		log.SetOutput(os.Stdout)
		if err != nil {
			return fmt.Errorf("terminal panel failed: %w", err)
		}
	} else {
		if !cfg.Autostart {
			logger.Info("waiting for the loop to be started from the page, press Ctrl+C to quit")
		}
		select {
		case <-sigCtx.Done():
		case <-finished:
		}
	}

	ctrl.Stop()
	return finish(b, ctrl, cfg, writer)
}

func finish(b *browser.Browser, ctrl *loop.Controller, cfg *config.Config, writer output.Writer) error {
	stats := ctrl.Stats()
	status := types.RunStatus{
		URL:         cfg.URL,
		NrTicks:     stats.Ticks,
		NrClicks:    stats.Clicks,
		NrErrors:    stats.Errors,
		FinalHeight: ctrl.Snapshot().LastHeight,
		StopReason:  stats.StopReason,
		RunStart:    stats.Started,
		RunEnd:      stats.Stopped,
	}

	if cfg.Writer.Type != output.NONE_WRITER_TYPE || cfg.Writer.ItemSelector != "" {
		html, err := b.OuterHTML()
		if err != nil {
			return fmt.Errorf("failed to read the final page: %w", err)
		}
		if cfg.Writer.ItemSelector != "" {
			if status.NrItems, err = output.CountItems(html, cfg.Writer.ItemSelector); err != nil {
				return err
			}
		}
		if err := writer.WritePage(html); err != nil {
			return err
		}
	}
	if err := writer.WriteStatus(status); err != nil {
		return err
	}
	if cfg.Writer.Summary {
		if err := output.PrintSummary(os.Stdout, status, cfg.Writer.ItemSelector != ""); err != nil {
			return err
		}
	}
	if log.Debug {
		if err := b.WriteDebugData(cfg.URL); err != nil {
			slog.Warn("failed to write debug data", slog.String("err", err.Error()))
		}
	}
	slog.Info(fmt.Sprintf("done after %d ticks and %d clicks", status.NrTicks, status.NrClicks))
	return nil
}

type InspectCmd struct {
	File string `arg:"" help:"The saved html page, - for stdin."`
}

func (ic *InspectCmd) Run() error {
	var r io.Reader = os.Stdin
	if ic.File != "-" {
		f, err := os.Open(ic.File)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return err
	}

	cands := detect.Candidates(doc)
	first, found := detect.First(cands)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("#", "Text", "Aria-label", "Disabled", "Load control")
	for _, c := range cands {
		match := ""
		if found && c.Index == first.Index {
			match = "<- clicked"
		} else if c.Matches() {
			match = "match"
		}
		row := []string{fmt.Sprint(c.Index), utils.ShortenString(c.Text, 40), utils.ShortenString(c.Label, 40), fmt.Sprint(c.Disabled), match}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	if !found {
		slog.Info(fmt.Sprintf("no load control among %d candidates", len(cands)))
	}
	return nil
}

type ConfigCmd struct {
	Config string `short:"c" help:"The configuration file. If not set, only the defaults and environment variables are used."`
	Env    bool   `short:"e" help:"List the environment variables that are read instead."`
}

func (cc *ConfigCmd) Run() error {
	if cc.Env {
		usage, err := config.Usage()
		if err != nil {
			return err
		}
		fmt.Println(usage)
		return nil
	}
	c, err := config.NewConfig(cc.Config)
	if err != nil {
		return err
	}
	b, err := c.YAML()
	if err != nil {
		return fmt.Errorf("error while marshalling. %v", err)
	}
	fmt.Print(string(b))
	return nil
}

func getVersion() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if ok {
		if buildInfo.Main.Version != "" && buildInfo.Main.Version != "(devel)" {
			return buildInfo.Main.Version
		}
	}
	return version
}

func main() {
	cli := cli{
		Version: VersionFlag(getVersion()),
	}

	ctx := kong.Parse(&cli,
		kong.Name(name),
		kong.UsageOnError(),
		kong.Vars{
			"version": string(cli.Version),
		})

	log.Debug = cli.Debug
	// not very nice that the log package contains global state,
	// and that the following function relies on the log.Debug variable being set
	log.InitializeDefaultLogger()

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
