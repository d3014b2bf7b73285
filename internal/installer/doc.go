// Package installer implements the server side of every installer action on
// top of the collaborator packages.
package installer
