// Package dispatch maps installer actions to their handlers and serves them
// over HTTP. Every request yields exactly one JSON envelope.
package dispatch
