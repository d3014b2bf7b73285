package prompt

import (
	"fmt"
	"io"
	"sync"

	"github.com/imamik/appinstaller/internal/wizard"
)

// Printer writes wizard updates to a stream. It is the view used between
// prompts and when no terminal is attached.
type Printer struct {
	mu  sync.Mutex
	out io.Writer
}

var _ wizard.View = (*Printer)(nil)

// NewPrinter returns a printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintln(p.out, s)
}

// ShowScreen implements wizard.View.
func (p *Printer) ShowScreen(s *wizard.Screen) {
	p.println("")
	p.println(titleStyle.Render(s.Title))
	if s.Description != "" {
		p.println(descriptionStyle.Render(s.Description))
	}
}

// SetTitle implements wizard.View.
func (p *Printer) SetTitle(string) {}

// Focus implements wizard.View.
func (p *Printer) Focus(_ *wizard.Screen, c *wizard.Control) {
	if reason := c.Check(); reason != "" {
		p.println(focusStyle.Render(fmt.Sprintf("%s: %s", c.Label, reason)))
		return
	}
	p.println(focusStyle.Render(fmt.Sprintf("Check %s", c.Label)))
}

// ShowAlert implements wizard.View.
func (p *Printer) ShowAlert(s *wizard.Screen) {
	if s.Alert.Message == "" {
		return
	}
	p.println(alertStyle.Render(s.Alert.Message))
}

// AppendLog implements wizard.View.
func (p *Printer) AppendLog(line string) {
	p.println(logStyle.Render(line))
}

// SetInstalling implements wizard.View.
func (p *Printer) SetInstalling(bool) {}

// Summary prints the completion summary.
func (p *Printer) Summary(text string) {
	p.println("")
	p.println(summaryStyle.Render(text))
}
