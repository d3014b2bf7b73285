// Package config defines the installer configuration model.
//
// The [Config] struct describes the deployment the installer targets (working
// directory, public URL, installer file), the catalog of installable
// applications, the vendor endpoints used for license checks and downloads, the
// optional hosting-panel and release-mirror integrations, and the input patterns
// the wizard enforces.
//
// Configuration is layered: built-in defaults, an optional YAML file, then
// APPINSTALLER_* environment variables. [Load] applies all three and validates
// the result. Operation timeouts are loaded separately with [LoadTimeouts].
package config
