// Package database verifies that a MySQL database is ready to receive a fresh
// installation: reachable, empty and writable by the connecting user.
//
// Grant parsing is pure and lives in grants.go; the driver-backed connection
// is hidden behind [Conn] so checks can run against fakes.
package database
