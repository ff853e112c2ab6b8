package browser

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/chromedp/chromedp"
	"github.com/jakopako/loadmore/internal/detect"
	"github.com/jakopako/loadmore/internal/loop"
	"github.com/jakopako/loadmore/internal/panel"
)

const (
	scrollScript = `window.scrollTo({top: document.body.scrollHeight, behavior: 'instant'})`
	heightScript = `(document.body || document.documentElement).scrollHeight`
)

// buttonsExpr evaluates to the button-like elements of the page outside the
// injected panel. Candidate indexes refer to positions in this list.
var buttonsExpr = `Array.from(document.querySelectorAll(` + strconv.Quote(detect.ButtonSelector) + `))` +
	`.filter((n) => !n.closest(` + strconv.Quote("#"+panel.RootID) + `))`

// candidatesScript lists the button-like elements in the same shape as
// detect.Candidate so the matching itself happens in Go.
var candidatesScript = `(() => {
  const nodes = ` + buttonsExpr + `;
  return nodes.map((n, i) => {
    const target = n.closest('button') || n;
    return {
      index: i,
      target: nodes.indexOf(target),
      text: (n.textContent || '').trim(),
      label: (n.getAttribute('aria-label') || '').trim(),
      disabled: !!target.disabled,
    };
  });
})()`

// clickScript clicks the element at index target through the DOM, so an
// overlapping element such as the panel cannot swallow the click.
func clickScript(target int) string {
	return `(() => {
  const n = ` + buttonsExpr + `[` + strconv.Itoa(target) + `];
  if (!n) return false;
  n.click();
  return true;
})()`
}

var _ loop.Driver = (*PageDriver)(nil)

var errControlGone = errors.New("load control is no longer on the page")

// PageDriver implements loop.Driver for a chromedp tab. Every method expects
// the tab's context.
type PageDriver struct{}

func NewPageDriver() *PageDriver {
	return &PageDriver{}
}

func (d *PageDriver) ScrollToBottom(ctx context.Context) error {
	return chromedp.Run(ctx, chromedp.Evaluate(scrollScript, nil))
}

func (d *PageDriver) ContentHeight(ctx context.Context) (int, error) {
	var h int
	err := chromedp.Run(ctx, chromedp.Evaluate(heightScript, &h))
	return h, err
}

// FindLoadControl scans the page on every call since the DOM changes between
// ticks.
func (d *PageDriver) FindLoadControl(ctx context.Context) (loop.Control, error) {
	var cands []detect.Candidate
	if err := chromedp.Run(ctx, chromedp.Evaluate(candidatesScript, &cands)); err != nil {
		return nil, err
	}
	c, ok := detect.First(cands)
	if !ok {
		return nil, nil
	}
	return &pageControl{cand: c}, nil
}

type pageControl struct {
	cand detect.Candidate
}

func (c *pageControl) Label() string {
	return c.cand.Name()
}

func (c *pageControl) Disabled() bool {
	return c.cand.Disabled
}

func (c *pageControl) Click(ctx context.Context) error {
	var clicked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(clickScript(c.cand.Target), &clicked)); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("%w: %s", errControlGone, c.cand)
	}
	return nil
}
