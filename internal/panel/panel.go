// Package panel injects the floating control panel into the page and bridges
// it to the loop controller.
//
// The page talks to Go through a CDP binding: the panel's checkboxes and
// buttons, the Alt+Shift+S hotkey and the window.__LOADMORE__ handle all send
// small JSON commands. Go pushes every state change back into the page.
package panel

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/jakopako/loadmore/internal/log"
	"github.com/jakopako/loadmore/internal/loop"
)

// BindingName is the name of the function the page calls to send commands.
const BindingName = "__loadmoreCommand"

// RootID is the id of the panel's root element. Page automation must ignore
// everything below it.
const RootID = "loadmore-panel"

//go:embed panel.js
var panelScript string

const (
	CommandStart  = "start"
	CommandStop   = "stop"
	CommandToggle = "toggle"
	CommandScroll = "scroll"
	CommandClick  = "click"
	CommandSync   = "sync" // sent by a freshly mounted panel
)

// Command is the payload the page sends through the binding.
type Command struct {
	Cmd   string `json:"cmd"`
	Value bool   `json:"value"`
}

// Commander is what the panel controls. *loop.Controller implements it.
type Commander interface {
	Start() error
	Stop()
	Toggle() error
	SetDoScroll(v bool)
	SetDoClick(v bool)
	Snapshot() loop.State
}

// Panel is the in-page control panel of one tab.
type Panel struct {
	ctx    context.Context
	ctrl   Commander
	logger *slog.Logger
	push   func(loop.State) error
}

// Script returns the panel's javascript.
func Script() string {
	return strings.NewReplacer("__BINDING__", BindingName, "__ROOT_ID__", RootID).Replace(panelScript)
}

// Attach injects the panel into the current document and every document the
// tab loads later. ctx must be the tab's context.
func Attach(ctx context.Context, ctrl Commander) (*Panel, error) {
	p := newPanel(ctx, ctrl)
	p.push = p.evaluateUpdate

	chromedp.ListenTarget(ctx, p.listen)
	script := Script()
	err := chromedp.Run(ctx,
		runtime.AddBinding(BindingName),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx)
			return err
		}),
		chromedp.Evaluate(script, nil),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to inject control panel: %w", err)
	}
	p.Update(ctrl.Snapshot())
	p.logger.Debug("control panel injected")
	return p, nil
}

func newPanel(ctx context.Context, ctrl Commander) *Panel {
	return &Panel{
		ctx:    ctx,
		ctrl:   ctrl,
		logger: log.LoggerFromContext(ctx).With(slog.String("component", "panel")),
	}
}

// Update shows s in the page. Errors are logged, a broken panel never affects
// the loop.
func (p *Panel) Update(s loop.State) {
	if err := p.push(s); err != nil {
		p.logger.Debug("failed to update control panel", slog.String("err", err.Error()))
	}
}

func (p *Panel) evaluateUpdate(s loop.State) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	expr := fmt.Sprintf("window.__loadmorePanel && window.__loadmorePanel.update(%s)", b)
	return chromedp.Run(p.ctx, chromedp.Evaluate(expr, nil))
}

func (p *Panel) listen(ev any) {
	if e, ok := ev.(*runtime.EventBindingCalled); ok && e.Name == BindingName {
		// chromedp must not be called from within the listener
		go func() {
			if err := p.handle(e.Payload); err != nil {
				p.logger.Warn("failed to handle panel command", slog.String("payload", e.Payload), slog.String("err", err.Error()))
			}
		}()
	}
}

func (p *Panel) handle(payload string) error {
	var c Command
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return fmt.Errorf("invalid command: %w", err)
	}
	p.logger.Debug("received panel command", slog.String("cmd", c.Cmd), slog.Bool("value", c.Value))
	switch c.Cmd {
	case CommandStart:
		return p.ctrl.Start()
	case CommandStop:
		p.ctrl.Stop()
	case CommandToggle:
		return p.ctrl.Toggle()
	case CommandScroll:
		p.ctrl.SetDoScroll(c.Value)
	case CommandClick:
		p.ctrl.SetDoClick(c.Value)
	case CommandSync:
		p.Update(p.ctrl.Snapshot())
	default:
		return fmt.Errorf("unknown command %q", c.Cmd)
	}
	return nil
}
