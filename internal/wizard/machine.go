package wizard

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// ErrUnknownScreen is returned for screen ids missing from the catalog.
var ErrUnknownScreen = errors.New("unknown screen")

// DefaultAbortMessage is logged when installing mode is aborted without one.
const DefaultAbortMessage = "Process aborted"

// UpgradeParameter selects the upgrade process when present in the launch
// query.
const UpgradeParameter = "UpgradeToPaid"

// View observes the machine. Every method is called synchronously from the
// goroutine driving the machine.
type View interface {
	ShowScreen(s *Screen)
	SetTitle(title string)
	Focus(s *Screen, c *Control)
	ShowAlert(s *Screen)
	AppendLog(line string)
	SetInstalling(on bool)
}

// NopView discards every update.
type NopView struct{}

func (NopView) ShowScreen(*Screen)      {}
func (NopView) SetTitle(string)         {}
func (NopView) Focus(*Screen, *Control) {}
func (NopView) ShowAlert(*Screen)       {}
func (NopView) AppendLog(string)        {}
func (NopView) SetInstalling(bool)      {}

// Submitter runs the client action named by a form trigger.
type Submitter func(trigger, arg string) error

// Machine is the wizard state machine. It is not safe for concurrent use.
type Machine struct {
	screens    []*Screen
	byID       map[ScreenID]*Screen
	current    *Screen
	history    *History
	nav        Navigator
	view       View
	submit     Submitter
	now        func() time.Time
	logs       []string
	installing bool
}

// Option configures a Machine.
type Option func(*Machine)

// WithView attaches v.
func WithView(v View) Option {
	return func(m *Machine) { m.view = v }
}

// WithClock replaces the wall clock used for log lines and history uids.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
		m.history.now = now
	}
}

// NewMachine returns a machine over screens mirroring its history to nav.
func NewMachine(screens []*Screen, nav Navigator, opts ...Option) *Machine {
	m := &Machine{
		screens: screens,
		byID:    make(map[ScreenID]*Screen, len(screens)),
		history: NewHistory(nav),
		nav:     nav,
		view:    NopView{},
		now:     time.Now,
	}
	for _, s := range screens {
		s.Visible = false
		m.byID[s.ID] = s
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetSubmitter sets the function run for form triggers on forward navigation.
func (m *Machine) SetSubmitter(fn Submitter) {
	m.submit = fn
}

// Start shows the initial screen and replaces the current history entry.
func (m *Machine) Start(initial ScreenID) error {
	target, ok := m.byID[initial]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownScreen, initial)
	}
	m.reveal(target)
	m.history.Replace(initial)
	return nil
}

// Show makes id the only visible screen and pushes a history entry unless
// the current entry already points at it.
func (m *Machine) Show(id ScreenID) error {
	target, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownScreen, id)
	}
	m.reveal(target)
	if m.history.Current().Screen != id {
		m.history.Push(id)
	}
	return nil
}

func (m *Machine) reveal(target *Screen) {
	for _, s := range m.screens {
		s.Visible = s == target
	}
	m.current = target
	m.view.SetTitle(target.Title)
	m.view.ShowScreen(target)
}

// Current returns the visible screen, or nil before Start.
func (m *Machine) Current() *Screen {
	return m.current
}

// Screen returns the screen with id.
func (m *Machine) Screen(id ScreenID) (*Screen, bool) {
	s, ok := m.byID[id]
	return s, ok
}

// Screens returns the catalog.
func (m *Machine) Screens() []*Screen {
	return m.screens
}

// History returns the navigation history.
func (m *Machine) History() *History {
	return m.history
}

// Control returns the control with id on any screen.
func (m *Machine) Control(id string) *Control {
	for _, s := range m.screens {
		if c := s.Control(id); c != nil {
			return c
		}
	}
	return nil
}

// SetValue sets the value of control id. Locked controls keep their value.
func (m *Machine) SetValue(id, value string) bool {
	c := m.Control(id)
	if c == nil || c.Locked {
		return false
	}
	c.Value = value
	return true
}

// Value returns the value of control id.
func (m *Machine) Value(id string) string {
	if c := m.Control(id); c != nil {
		return c.Value
	}
	return ""
}

// Lock disables the controls with the given ids.
func (m *Machine) Lock(ids ...string) {
	for _, id := range ids {
		if c := m.Control(id); c != nil {
			c.Locked = true
		}
	}
}

// Collect reads the visible screen's form. Keys are the control ids with the
// screen id removed once and the first remaining letter lower-cased.
func (m *Machine) Collect() (Record, bool) {
	if m.current == nil || m.current.Form == nil {
		return nil, false
	}
	r := Record{}
	for _, c := range m.current.Form.Controls {
		r[FieldName(m.current.ID, c.ID)] = c.Value
	}
	return r, true
}

// FieldName derives the record key of a control.
func FieldName(screen ScreenID, controlID string) string {
	name := strings.Replace(controlID, string(screen), "", 1)
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToLower(r)) + name[size:]
}

// Commit stores r as section of s, or the collected form when r is nil. It
// reports whether anything was stored.
func (m *Machine) Commit(s *Session, section Section, r Record) bool {
	if r == nil {
		var ok bool
		if r, ok = m.Collect(); !ok {
			return false
		}
	}
	s.Commit(section, r)
	return true
}

// ValidationError reports the first control of a form that fails its
// constraints.
type ValidationError struct {
	Screen  ScreenID
	Control string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Control, e.Reason)
}

// Validate checks the visible screen's form. The first offending control is
// focused and shaken.
func (m *Machine) Validate() error {
	if m.current == nil || m.current.Form == nil {
		return nil
	}
	for _, c := range m.current.Form.Controls {
		if reason := c.Check(); reason != "" {
			c.Shakes++
			m.view.Focus(m.current, c)
			return &ValidationError{Screen: m.current.ID, Control: c.ID, Reason: reason}
		}
	}
	return nil
}

// Reject focuses and shakes control id on the visible screen, the way a
// failed validation does.
func (m *Machine) Reject(id, reason string) error {
	c := m.Control(id)
	if c == nil {
		return fmt.Errorf("unknown control %s", id)
	}
	c.Shakes++
	m.view.Focus(m.current, c)
	return &ValidationError{Screen: m.current.ID, Control: id, Reason: reason}
}

// Navigated handles a back or forward move of the navigation platform. Back
// shows the target screen. Forward validates the form of the screen being
// left and runs its trigger; an invalid form steps the navigator back.
func (m *Machine) Navigated(e Entry) error {
	back := m.history.observe(e)
	if !back && m.current != nil && m.current.Form != nil {
		form := m.current.Form
		if err := m.Validate(); err != nil {
			if prev, ok := m.nav.Back(); ok {
				m.history.observe(prev)
				if s, ok := m.byID[prev.Screen]; ok {
					m.reveal(s)
				}
			}
			return err
		}
		if m.submit == nil {
			return nil
		}
		return m.submit(form.Trigger, "")
	}
	target, ok := m.byID[e.Screen]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownScreen, e.Screen)
	}
	m.reveal(target)
	return nil
}

// PushAlert shows msg on the visible screen. An identical message only bumps
// the shake counter.
func (m *Machine) PushAlert(msg string) {
	if m.current == nil {
		return
	}
	if m.current.Alert.Message == msg {
		m.current.Alert.Shakes++
	} else {
		m.current.Alert = Alert{Message: msg}
	}
	m.view.ShowAlert(m.current)
}

// PopAlert clears the alert of the visible screen.
func (m *Machine) PopAlert() {
	if m.current == nil {
		return
	}
	m.current.Alert = Alert{}
	m.view.ShowAlert(m.current)
}

// Log appends a timestamped line to the progress log.
func (m *Machine) Log(msg string) {
	line := m.now().Format("15:04:05") + " " + msg
	m.logs = append(m.logs, line)
	m.view.AppendLog(line)
}

// Logs returns the progress log.
func (m *Machine) Logs() []string {
	return append([]string(nil), m.logs...)
}

// SetInstalling toggles installing mode.
func (m *Machine) SetInstalling(on bool) {
	m.installing = on
	m.view.SetInstalling(on)
}

// Installing reports whether installing mode is on.
func (m *Machine) Installing() bool {
	return m.installing
}

// AbortInstall logs msg, or DefaultAbortMessage when empty, and leaves
// installing mode.
func (m *Machine) AbortInstall(msg string) {
	if msg == "" {
		msg = DefaultAbortMessage
	}
	m.Log(msg)
	m.SetInstalling(false)
}

// InitialScreen returns the entry screen for the process.
func InitialScreen(upgrade bool) ScreenID {
	if upgrade {
		return ScreenUpgrade
	}
	return ScreenWelcome
}

// HasParameter reports whether query carries a parameter called name,
// ignoring case.
func HasParameter(query, name string) bool {
	query = strings.TrimPrefix(query, "?")
	for _, pair := range strings.Split(query, "&") {
		key, _, _ := strings.Cut(pair, "=")
		if key != "" && strings.EqualFold(key, name) {
			return true
		}
	}
	return false
}
