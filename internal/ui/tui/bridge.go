package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/appinstaller/internal/pipeline"
	"github.com/imamik/appinstaller/internal/wizard"
)

// Bridge forwards wizard and pipeline updates to a running program. While no
// program is attached, wizard updates go to the fallback view.
type Bridge struct {
	mu       sync.Mutex
	send     func(tea.Msg)
	fallback wizard.View
}

var (
	_ wizard.View       = (*Bridge)(nil)
	_ pipeline.Observer = (*Bridge)(nil)
)

// NewBridge returns a bridge falling back to v.
func NewBridge(v wizard.View) *Bridge {
	if v == nil {
		v = wizard.NopView{}
	}
	return &Bridge{fallback: v}
}

// Attach routes updates to send.
func (b *Bridge) Attach(send func(tea.Msg)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send = send
}

// Detach routes updates back to the fallback view.
func (b *Bridge) Detach() {
	b.Attach(nil)
}

func (b *Bridge) sender() func(tea.Msg) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.send
}

// ShowScreen implements wizard.View.
func (b *Bridge) ShowScreen(s *wizard.Screen) {
	if b.sender() == nil {
		b.fallback.ShowScreen(s)
	}
}

// SetTitle implements wizard.View.
func (b *Bridge) SetTitle(title string) {
	if b.sender() == nil {
		b.fallback.SetTitle(title)
	}
}

// Focus implements wizard.View.
func (b *Bridge) Focus(s *wizard.Screen, c *wizard.Control) {
	if b.sender() == nil {
		b.fallback.Focus(s, c)
	}
}

// ShowAlert implements wizard.View.
func (b *Bridge) ShowAlert(s *wizard.Screen) {
	if send := b.sender(); send != nil {
		send(AlertMsg{Message: s.Alert.Message})
		return
	}
	b.fallback.ShowAlert(s)
}

// AppendLog implements wizard.View.
func (b *Bridge) AppendLog(line string) {
	if send := b.sender(); send != nil {
		send(LogMsg{Line: line})
		return
	}
	b.fallback.AppendLog(line)
}

// SetInstalling implements wizard.View.
func (b *Bridge) SetInstalling(on bool) {
	if send := b.sender(); send != nil {
		send(InstallingMsg{On: on})
		return
	}
	b.fallback.SetInstalling(on)
}

// Event implements pipeline.Observer.
func (b *Bridge) Event(e pipeline.Event) {
	if send := b.sender(); send != nil {
		send(StepMsg{Event: e})
	}
}
