// Package selfdestruct removes the installer from the host once it is done.
package selfdestruct

import (
	"errors"
	"fmt"
	"os"
)

// Remover deletes the installer file and its error log.
type Remover struct {
	installerFile string
	errorLog      string
}

// New returns a Remover for the given paths. Empty paths are skipped.
func New(installerFile, errorLog string) *Remover {
	return &Remover{installerFile: installerFile, errorLog: errorLog}
}

// InstallerFile returns the path that Destroy removes.
func (r *Remover) InstallerFile() string {
	return r.installerFile
}

// Destroy removes the installer file, then the error log. A missing error log
// is ignored; a missing installer file is an error.
func (r *Remover) Destroy() error {
	if r.installerFile == "" {
		return errors.New("installer file is unknown")
	}
	if err := os.Remove(r.installerFile); err != nil {
		return fmt.Errorf("unable to remove installer file at %s: %w", r.installerFile, err)
	}
	if r.errorLog != "" {
		if err := os.Remove(r.errorLog); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("unable to remove error log at %s: %w", r.errorLog, err)
		}
	}
	return nil
}
