// Package tui provides the terminal control panel. It mirrors the panel that
// is injected into the page: two checkboxes for the actions, Start and Stop
// buttons, a status line and the Alt+Shift+S hotkey. Log output is shown
// below the controls.
package tui

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
	"github.com/jakopako/loadmore/internal/loop"
	"github.com/rivo/tview"
)

// Commander is what the panel controls. *loop.Controller implements it.
type Commander interface {
	Start() error
	Stop()
	Toggle() error
	SetDoScroll(v bool)
	SetDoClick(v bool)
	Snapshot() loop.State
}

type Panel struct {
	app       *tview.Application
	ctrl      Commander
	scrollBox *tview.Checkbox
	clickBox  *tview.Checkbox
	status    *tview.TextView
	logs      *tview.TextView
	done      atomic.Bool
}

func New(ctrl Commander, title string) *Panel {
	p := &Panel{
		app:  tview.NewApplication(),
		ctrl: ctrl,
	}
	s := ctrl.Snapshot()

	p.scrollBox = tview.NewCheckbox().SetLabel("Auto-scroll ").SetChecked(s.DoScroll).
		SetChangedFunc(func(checked bool) {
			go p.ctrl.SetDoScroll(checked)
		})
	p.clickBox = tview.NewCheckbox().SetLabel("Click “Load more” ").SetChecked(s.DoClick).
		SetChangedFunc(func(checked bool) {
			go p.ctrl.SetDoClick(checked)
		})

	form := tview.NewForm().
		AddFormItem(p.scrollBox).
		AddFormItem(p.clickBox).
		AddButton("Start", func() { go p.command("start", p.ctrl.Start) }).
		AddButton("Stop", func() { go p.ctrl.Stop() }).
		AddButton("Quit", p.app.Stop)
	form.SetBorder(true).SetTitle(fmt.Sprintf(" %s ", title)).SetTitleAlign(tview.AlignLeft)

	p.status = tview.NewTextView().SetText(statusLine(s)).SetTextColor(statusColor(s))
	p.logs = tview.NewTextView().SetScrollable(true).SetMaxLines(500)
	p.logs.ScrollToEnd() // follow new log lines
	p.logs.SetChangedFunc(func() {
		if !p.done.Load() {
			p.app.Draw()
		}
	})
	p.logs.SetBorder(true).SetTitle(" Log ").SetTitleAlign(tview.AlignLeft)

	hint := tview.NewTextView().SetText("Hotkey: Alt+Shift+S · Tab to move · Ctrl+C to quit").SetTextColor(tcell.ColorGray)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 9, 0, true).
		AddItem(p.status, 1, 0, false).
		AddItem(hint, 1, 0, false).
		AddItem(p.logs, 0, 1, false)

	p.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if isToggleKey(event) {
			go p.command("toggle", p.ctrl.Toggle)
			return nil
		}
		return event
	})
	p.app.SetRoot(layout, true).SetFocus(form)
	return p
}

// LogWriter returns the writer behind the log pane.
func (p *Panel) LogWriter() io.Writer {
	return p.logs
}

// Update shows s. It is safe to call from any goroutine.
func (p *Panel) Update(s loop.State) {
	if p.done.Load() {
		return
	}
	p.app.QueueUpdateDraw(func() {
		p.scrollBox.SetChecked(s.DoScroll)
		p.clickBox.SetChecked(s.DoClick)
		p.status.SetText(statusLine(s)).SetTextColor(statusColor(s))
	})
}

// Run blocks until the user quits the panel.
func (p *Panel) Run() error {
	defer p.done.Store(true)
	return p.app.Run()
}

// Stop closes the panel, eg when the run ends for another reason.
func (p *Panel) Stop() {
	p.app.Stop()
}

func (p *Panel) command(name string, fn func() error) {
	if err := fn(); err != nil {
		slog.Error(fmt.Sprintf("%s failed: %v", name, err))
	}
}

func statusLine(s loop.State) string {
	return fmt.Sprintf("Status: %s", s.Status)
}

func statusColor(s loop.State) tcell.Color {
	switch {
	case s.Status == loop.StatusError:
		return tcell.ColorRed
	case s.Running:
		return tcell.ColorGreen
	default:
		return tcell.ColorYellow
	}
}

// Alt+Shift+S arrives as an upper case rune with the alt modifier. Some
// terminals also report the shift modifier.
func isToggleKey(ev *tcell.EventKey) bool {
	if ev.Key() != tcell.KeyRune || ev.Modifiers()&tcell.ModAlt == 0 {
		return false
	}
	return ev.Rune() == 'S' || (ev.Rune() == 's' && ev.Modifiers()&tcell.ModShift != 0)
}
