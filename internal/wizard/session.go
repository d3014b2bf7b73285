package wizard

import (
	"maps"
	"sync"
)

// Section names a part of the collected configuration.
type Section string

// Sections of the session.
const (
	SectionSoftware Section = "software"
	SectionLicense  Section = "license"
	SectionDB       Section = "db"
	SectionAdmin    Section = "admin"
	SectionEmail    Section = "email"
	// SectionHandlers holds the detected cPanel handlers. It is advisory.
	SectionHandlers Section = "handlers"
)

// valueKey is the field used by single-value sections.
const valueKey = "value"

// Record is the field to value mapping of one section.
type Record map[string]string

// Session accumulates the configuration collected during one run. Sections
// are replaced whole, last write wins.
type Session struct {
	mu       sync.RWMutex
	sections map[Section]Record
	// panelDone caches a successful hosting-panel provisioning.
	panelDone bool
	upgrade   bool
}

// NewSession returns an empty session. upgrade selects the upgrade process.
func NewSession(upgrade bool) *Session {
	return &Session{sections: map[Section]Record{}, upgrade: upgrade}
}

// Commit stores a copy of r as section.
func (s *Session) Commit(section Section, r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections[section] = maps.Clone(r)
	if s.sections[section] == nil {
		s.sections[section] = Record{}
	}
}

// Record returns a copy of section.
func (s *Session) Record(section Section) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.sections[section]
	return maps.Clone(r), ok
}

// Has reports whether section was committed.
func (s *Session) Has(section Section) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sections[section]
	return ok
}

// Field returns one field of section, or "".
func (s *Session) Field(section Section, field string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sections[section][field]
}

// SetValue commits a single-value section.
func (s *Session) SetValue(section Section, v string) {
	s.Commit(section, Record{valueKey: v})
}

// Value returns the value of a single-value section.
func (s *Session) Value(section Section) string {
	return s.Field(section, valueKey)
}

// Software returns the selected software, or "".
func (s *Session) Software() string { return s.Value(SectionSoftware) }

// License returns the verified license key, or "".
func (s *Session) License() string { return s.Value(SectionLicense) }

// Handlers returns the detected cPanel handlers, or "".
func (s *Session) Handlers() string { return s.Value(SectionHandlers) }

// Upgrade reports whether the session runs the upgrade process.
func (s *Session) Upgrade() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.upgrade
}

// PanelDone reports whether the hosting panel already provisioned the database.
func (s *Session) PanelDone() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.panelDone
}

// SetPanelDone sets the hosting-panel flag.
func (s *Session) SetPanelDone(done bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panelDone = done
}

// Snapshot returns a deep copy of every section.
func (s *Session) Snapshot() map[Section]Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Section]Record, len(s.sections))
	for k, v := range s.sections {
		out[k] = maps.Clone(v)
	}
	return out
}
