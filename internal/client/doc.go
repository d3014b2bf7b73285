// Package client drives an installation from the user's side. It binds the
// wizard screens to server actions, runs the install and upgrade chains and
// keeps the collected session. Frontends render the wizard.Machine it owns
// and call Do for every button or form the user triggers.
package client
