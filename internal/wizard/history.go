package wizard

import (
	"sync"
	"time"
)

// Entry is one navigation entry.
type Entry struct {
	Screen ScreenID `json:"view"`
	UID    int64    `json:"uid"`
}

// Navigator is the navigation platform the history is mirrored to.
type Navigator interface {
	Push(e Entry)
	Replace(e Entry)
	// Back moves one entry back and returns it.
	Back() (Entry, bool)
}

// History writes entries to a Navigator with strictly increasing uids and
// remembers the last uid it has seen.
type History struct {
	nav     Navigator
	now     func() time.Time
	written int64
	seen    int64
	current Entry
}

// NewHistory returns a History writing to nav.
func NewHistory(nav Navigator) *History {
	return &History{nav: nav, now: time.Now}
}

// Push writes a new entry for screen.
func (h *History) Push(screen ScreenID) Entry {
	e := h.next(screen)
	h.nav.Push(e)
	return e
}

// Replace overwrites the current entry with screen.
func (h *History) Replace(screen ScreenID) Entry {
	e := h.next(screen)
	h.nav.Replace(e)
	return e
}

// Current returns the last written or navigated-to entry.
func (h *History) Current() Entry {
	return h.current
}

// next stamps an entry with the wall clock in milliseconds, bumped past the
// previous uid when the clock did not move.
func (h *History) next(screen ScreenID) Entry {
	uid := h.now().UnixMilli()
	if uid <= h.written {
		uid = h.written + 1
	}
	h.written = uid
	h.seen = uid
	h.current = Entry{Screen: screen, UID: uid}
	return h.current
}

// observe records e as seen and reports whether it is a back navigation.
func (h *History) observe(e Entry) (back bool) {
	back = e.UID < h.seen
	h.seen = e.UID
	h.current = e
	return back
}

// MemoryNavigator is an in-memory back/forward stack.
type MemoryNavigator struct {
	mu      sync.Mutex
	entries []Entry
	index   int
}

// NewMemoryNavigator returns an empty navigator.
func NewMemoryNavigator() *MemoryNavigator {
	return &MemoryNavigator{index: -1}
}

// Push drops any forward entries and appends e.
func (n *MemoryNavigator) Push(e Entry) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries[:n.index+1], e)
	n.index = len(n.entries) - 1
}

// Replace overwrites the current entry, or pushes when there is none.
func (n *MemoryNavigator) Replace(e Entry) {
	n.mu.Lock()
	if n.index >= 0 {
		n.entries[n.index] = e
		n.mu.Unlock()
		return
	}
	n.mu.Unlock()
	n.Push(e)
}

// Back moves one entry back.
func (n *MemoryNavigator) Back() (Entry, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.index <= 0 {
		return Entry{}, false
	}
	n.index--
	return n.entries[n.index], true
}

// Forward moves one entry forward.
func (n *MemoryNavigator) Forward() (Entry, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.index+1 >= len(n.entries) {
		return Entry{}, false
	}
	n.index++
	return n.entries[n.index], true
}

// CanBack reports whether Back would move.
func (n *MemoryNavigator) CanBack() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.index > 0
}

// CanForward reports whether Forward would move.
func (n *MemoryNavigator) CanForward() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.index+1 < len(n.entries)
}

// Current returns the entry at the cursor.
func (n *MemoryNavigator) Current() (Entry, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.index < 0 {
		return Entry{}, false
	}
	return n.entries[n.index], true
}

// Entries returns a copy of the stack.
func (n *MemoryNavigator) Entries() []Entry {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Entry(nil), n.entries...)
}
