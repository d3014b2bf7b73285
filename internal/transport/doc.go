// Package transport is the client side of the action protocol. A Client
// issues one action at a time and turns every outcome, including servers that
// do not speak the protocol, into an envelope.
package transport
