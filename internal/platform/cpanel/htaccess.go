package cpanel

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	handlerBegin = "# php -- BEGIN cPanel-generated handler, do not edit"
	handlerEnd   = "# php -- END cPanel-generated handler, do not edit"
)

// ErrNoHandlers is returned when no cPanel handler block exists.
var ErrNoHandlers = errors.New("no cPanel .htaccess handlers found")

// HtaccessHandlers returns the cPanel-generated PHP handler block of the
// .htaccess file in dir, markers included.
func HtaccessHandlers(dir string) (string, error) {
	path := filepath.Join(dir, ".htaccess")
	// #nosec G304 - dir is the configured working directory
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s doesn't exist", ErrNoHandlers, path)
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	block, ok := ExtractHandlers(string(data))
	if !ok {
		return "", fmt.Errorf("%w in %s", ErrNoHandlers, path)
	}
	return block, nil
}

// ExtractHandlers finds the handler block in an .htaccess body.
func ExtractHandlers(htaccess string) (string, bool) {
	start := strings.Index(htaccess, handlerBegin)
	if start < 0 {
		return "", false
	}
	rest := htaccess[start:]
	end := strings.Index(rest, handlerEnd)
	if end < 0 {
		return "", false
	}
	return rest[:end+len(handlerEnd)], true
}
