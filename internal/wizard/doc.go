// Package wizard holds the client-side state of the guided setup: the screen
// catalog, the state machine that shows exactly one screen at a time, the
// session that accumulates collected configuration, and the history sync that
// turns back/forward navigation into state transitions.
//
// Nothing in this package draws anything. Frontends observe the machine
// through View and drive navigation through a Navigator.
package wizard
