package config

import (
	"os"
	"path/filepath"
)

// Default values for the installer configuration.
const (
	DefaultAppName      = "Chevereto Installer"
	DefaultAppVersion   = "2.0.1"
	DefaultAppURL       = "https://github.com/chevereto/installer"
	DefaultAddr         = ":8080"
	DefaultSettingsFile = "app/settings.php"
	DefaultPanelPort    = "2083"
	DefaultDBHost       = "localhost"
	DefaultDBPort       = "3306"
)

// Default input patterns.
const (
	DefaultUsernamePattern = `^[\w]{3,16}$`
	DefaultPasswordPattern = `^.{6,128}$`
	DefaultEmailPattern    = "^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$"
)

// Default returns the built-in configuration rooted at the current directory.
func Default() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	installer := ""
	if exe, err := os.Executable(); err == nil {
		installer = exe
	}

	return &Config{
		App: AppConfig{
			Name:    DefaultAppName,
			Version: DefaultAppVersion,
			URL:     DefaultAppURL,
		},
		Vendor: VendorConfig{
			Name:       "Chevereto",
			URL:        "https://chevereto.com",
			APIURL:     "https://chevereto.com/api",
			LicenseURL: "https://chevereto.com/api/license/check",
		},
		Applications: DefaultApplications(),
		Paths: PathsConfig{
			WorkingDir:    wd,
			InstallerFile: installer,
			ErrorLog:      filepath.Join(wd, "installer.error.log"),
			SettingsFile:  DefaultSettingsFile,
		},
		Server: ServerConfig{
			Addr:     DefaultAddr,
			Software: "appinstaller",
		},
		Panel: PanelConfig{
			DatabaseHost: DefaultDBHost,
			DatabasePort: DefaultDBPort,
		},
		Patterns: Patterns{
			Username: DefaultUsernamePattern,
			Password: DefaultPasswordPattern,
			Email:    DefaultEmailPattern,
		},
	}
}

// DefaultApplications returns the built-in application catalog.
func DefaultApplications() map[string]Application {
	return map[string]Application{
		SoftwarePaid: {
			Name:            "Chevereto",
			License:         "Paid",
			URL:             "https://chevereto.com",
			Zipball:         "https://chevereto.com/api/download/latest",
			Folder:          "chevereto",
			RequiresLicense: true,
		},
		SoftwareFree: {
			Name:    "Chevereto-Free",
			License: "Open Source",
			URL:     "https://github.com/Chevereto/Chevereto-Free",
			Zipball: "https://api.github.com/repos/Chevereto/Chevereto-Free/releases/latest",
			Folder:  "Chevereto/Chevereto-Free-",
		},
	}
}
