// Package cpanel talks to a cPanel account through UAPI.
//
// The installer uses it for two things: provisioning the application database
// (database, user and grants in one go) and detecting the PHP handler block
// cPanel writes into .htaccess, so it can be carried over to extracted files.
package cpanel
