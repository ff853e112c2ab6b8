// Package browser runs the Chrome tab the action loop works on. It launches
// the browser, navigates to the target page, accepts cookie banners and
// implements the loop's page driver on top of chromedp.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
	"github.com/jakopako/loadmore/internal/log"
)

// Config defines how the browser is started and how long to wait for the page.
type Config struct {
	UserAgent        string   `yaml:"user_agent" env:"LOADMORE_USER_AGENT"`
	Headless         bool     `yaml:"headless" env:"LOADMORE_HEADLESS"`
	PageLoadWaitMS   int      `yaml:"page_load_wait_ms" env:"LOADMORE_PAGE_LOAD_WAIT_MS"`
	WindowWidth      int      `yaml:"window_width"`
	WindowHeight     int      `yaml:"window_height"`
	ConsentSelectors []string `yaml:"consent_selectors"` // clicked once after the page has loaded, if present
	DebugDir         string   `yaml:"debug_dir" env:"LOADMORE_DEBUG_DIR"`
}

// DefaultConfig returns a visible desktop sized browser that accepts OneTrust
// cookie banners.
func DefaultConfig() Config {
	return Config{
		PageLoadWaitMS:   2000,
		WindowWidth:      1920,
		WindowHeight:     1080,
		ConsentSelectors: []string{"#onetrust-accept-btn-handler"},
	}
}

// Browser is a running Chrome instance with a single tab.
type Browser struct {
	*Config
	allocContext context.Context
	cancelAlloc  context.CancelFunc
	tabContext   context.Context
	cancelTab    context.CancelFunc
	logger       *slog.Logger
}

// New starts Chrome. The tab's context is derived from ctx, so values such as
// the logger are available to everything that runs in the tab.
func New(ctx context.Context, c *Config) (*Browser, error) {
	width, height := c.WindowWidth, c.WindowHeight
	if width == 0 || height == 0 {
		width, height = 1920, 1080 // sometimes pages look different on mobile, eg buttons are missing
	}
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(width, height),
		chromedp.Flag("headless", c.Headless),
	)
	if c.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(c.UserAgent))
	}
	allocContext, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabContext, cancelTab := chromedp.NewContext(allocContext)

	b := &Browser{
		Config:       c,
		allocContext: allocContext,
		cancelAlloc:  cancelAlloc,
		tabContext:   tabContext,
		cancelTab:    cancelTab,
		logger:       log.LoggerFromContext(ctx).With(slog.String("component", "browser")),
	}

	// the first Run launches the browser
	if err := chromedp.Run(tabContext); err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	if log.Debug {
		b.logVersion()
	}
	return b, nil
}

// Context returns the tab's context. Pass it to everything that talks to the page.
func (b *Browser) Context() context.Context {
	return b.tabContext
}

func (b *Browser) Close() {
	b.cancelTab()
	b.cancelAlloc()
}

// Navigate opens urlStr and waits for the configured page load time.
func (b *Browser) Navigate(urlStr string) error {
	wait := time.Duration(b.PageLoadWaitMS) * time.Millisecond
	b.logger.Debug("navigating", slog.String("url", urlStr), slog.Duration("wait", wait))
	if err := chromedp.Run(b.tabContext,
		chromedp.Navigate(urlStr),
		chromedp.Sleep(wait),
	); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", urlStr, err)
	}
	return nil
}

// AcceptConsent clicks the first consent button that is present on the page
// and reports whether it clicked one. A missing banner is not an error.
func (b *Browser) AcceptConsent() (bool, error) {
	for _, sel := range b.ConsentSelectors {
		var nodes []*cdp.Node
		if err := chromedp.Run(b.tabContext, chromedp.Nodes(sel, &nodes, chromedp.ByQuery, chromedp.AtLeast(0))); err != nil {
			return false, fmt.Errorf("failed to look up consent button %s: %w", sel, err)
		}
		if len(nodes) == 0 {
			continue
		}
		b.logger.Info("accepting consent banner", slog.String("selector", sel))
		if err := chromedp.Run(b.tabContext, chromedp.MouseClickNode(nodes[0])); err != nil {
			return false, fmt.Errorf("failed to click consent button %s: %w", sel, err)
		}
		return true, nil
	}
	return false, nil
}

// OuterHTML returns the current document, including everything that has been
// loaded so far.
func (b *Browser) OuterHTML() (string, error) {
	var body string
	err := chromedp.Run(b.tabContext, chromedp.ActionFunc(func(ctx context.Context) error {
		node, err := dom.GetDocument().Do(ctx)
		if err != nil {
			return err
		}
		body, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
		return err
	}))
	return body, err
}

// WriteDebugData stores a screenshot and the current html of the page in the
// debug directory.
func (b *Browser) WriteDebugData(urlStr string) error {
	if b.DebugDir != "" {
		if err := os.MkdirAll(b.DebugDir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create debug directory: %v", err)
		}
	}
	name := debugName(urlStr, time.Now())

	var buf []byte
	if err := chromedp.Run(b.tabContext, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	pngFile := path.Join(b.DebugDir, name+".png")
	b.logger.Debug(fmt.Sprintf("writing screenshot to file %s", pngFile))
	if err := os.WriteFile(pngFile, buf, 0644); err != nil {
		return err
	}

	body, err := b.OuterHTML()
	if err != nil {
		return err
	}
	htmlFile := path.Join(b.DebugDir, name+".html")
	b.logger.Debug(fmt.Sprintf("writing html to file %s", htmlFile))
	return os.WriteFile(htmlFile, []byte(body), 0644)
}

func (b *Browser) logVersion() {
	err := chromedp.Run(b.tabContext, chromedp.ActionFunc(func(ctx context.Context) error {
		protocolVersion, product, revision, userAgent, jsVersion, err := cdpbrowser.GetVersion().Do(ctx)
		if err != nil {
			return err
		}
		b.logger.Debug(fmt.Sprintf("chrome version: protocolVersion=%s, product=%s, revision=%s, userAgent=%s, jsVersion=%s",
			protocolVersion, product, revision, userAgent, jsVersion))
		return nil
	}))
	if err != nil {
		b.logger.Warn("failed to get chrome version", slog.String("err", err.Error()))
	}
}

func debugName(urlStr string, t time.Time) string {
	host := "page"
	if u, err := url.Parse(urlStr); err == nil && u.Host != "" {
		host = u.Host
	}
	return fmt.Sprintf("%s-%s", host, t.Format("20060102-150405"))
}
