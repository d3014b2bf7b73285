// Package settings writes the application settings file.
package settings

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/imamik/appinstaller/internal/database"
)

const tablePrefix = "chv_"

var phpEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

var settingsTemplate = template.Must(template.New("settings").Funcs(template.FuncMap{
	"php": func(s string) string { return "'" + phpEscaper.Replace(s) + "'" },
}).Parse(`<?php
$settings['db_host'] = {{php .Host}};
$settings['db_port'] = {{php .Port}};
$settings['db_name'] = {{php .Name}};
$settings['db_user'] = {{php .User}};
$settings['db_pass'] = {{php .UserPassword}};
$settings['db_table_prefix'] = {{php .TablePrefix}};
$settings['db_driver'] = 'mysql';
$settings['db_pdo_attrs'] = [];
$settings['debug_level'] = 1;
`))

// Render returns the settings file body for creds.
func Render(creds database.Credentials) ([]byte, error) {
	var buf bytes.Buffer
	data := struct {
		database.Credentials
		TablePrefix string
	}{creds, tablePrefix}
	if err := settingsTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render settings: %w", err)
	}
	return buf.Bytes(), nil
}

// Writer writes settings files confined to a root directory.
type Writer struct {
	root string
}

// NewWriter returns a Writer that refuses paths outside root.
func NewWriter(root string) *Writer {
	return &Writer{root: filepath.Clean(root)}
}

// Write renders creds into path, creating parent directories as needed.
func (w *Writer) Write(path string, creds database.Credentials) error {
	if !Within(w.root, path) {
		return fmt.Errorf("%s is outside %s", path, w.root)
	}
	body, err := Render(creds)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	// #nosec G306 - the web server user must be able to read the settings
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Within reports whether path is root or below it.
func Within(root, path string) bool {
	root = filepath.Clean(root)
	path = filepath.Clean(path)
	if !filepath.IsAbs(path) {
		return false
	}
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}
