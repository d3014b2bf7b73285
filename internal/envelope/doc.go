// Package envelope defines the wire contract shared by the installer server and
// its clients.
//
// Every request is an [Action] plus a flat parameter map ([Request]); every
// response is exactly one [Response] carrying a numeric code, a human-readable
// message and an optional data payload. The 2xx/non-2xx boundary of the code,
// not the HTTP status, decides success.
//
// Domain failures travel as [CodedError] values so the dispatcher can turn any
// handler error into a response without knowing where it came from.
package envelope
