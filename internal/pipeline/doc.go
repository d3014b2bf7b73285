// Package pipeline runs the fixed install and upgrade chains. Each step is
// one action issued by the client; a step starts only after the previous one
// reported success, and a failing step applies its declared policy.
package pipeline
