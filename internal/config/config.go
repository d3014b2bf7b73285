package config

import "path/filepath"

// Software identifiers of the built-in application catalog.
const (
	SoftwarePaid = "chevereto"
	SoftwareFree = "chevereto-free"
)

// Config holds the installer configuration.
type Config struct {
	App          AppConfig              `yaml:"app"`
	Vendor       VendorConfig           `yaml:"vendor"`
	Applications map[string]Application `yaml:"applications"`
	Paths        PathsConfig            `yaml:"paths"`
	Server       ServerConfig           `yaml:"server"`
	Panel        PanelConfig            `yaml:"panel"`
	Mirror       MirrorConfig           `yaml:"mirror"`
	Patterns     Patterns               `yaml:"patterns"`
}

// AppConfig identifies the installer itself.
type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	URL     string `yaml:"url"` // where protocol violations should be reported
}

// VendorConfig holds the vendor API endpoints.
type VendorConfig struct {
	Name       string `yaml:"name"`
	URL        string `yaml:"url"`
	APIURL     string `yaml:"api_url"`
	LicenseURL string `yaml:"license_url"`
}

// Application describes one installable edition.
type Application struct {
	Name    string `yaml:"name"`
	License string `yaml:"license"`
	URL     string `yaml:"url"`
	// Zipball is either a direct archive URL or, for GitHub-hosted editions, the
	// releases/latest API URL that resolves to one.
	Zipball string `yaml:"zipball"`
	// Folder is the path prefix of the application files inside the archive.
	Folder string `yaml:"folder"`
	// RequiresLicense makes download send the license key.
	RequiresLicense bool `yaml:"requires_license"`
}

// PathsConfig holds filesystem locations.
type PathsConfig struct {
	// WorkingDir is where the application gets extracted.
	WorkingDir string `yaml:"working_dir"`
	// InstallerFile is the file removed by self-destruct.
	InstallerFile string `yaml:"installer_file"`
	// ErrorLog receives uncaught handler failures.
	ErrorLog string `yaml:"error_log"`
	// SettingsFile is the application settings file, relative to WorkingDir.
	SettingsFile string `yaml:"settings_file"`
	// DownloadDir holds downloaded archives. Defaults to WorkingDir.
	DownloadDir string `yaml:"download_dir"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// RootURL overrides the public URL derived from incoming requests.
	RootURL string `yaml:"root_url"`
	// Software is reported as the web server software string.
	Software string `yaml:"software"`
}

// PanelConfig holds the cPanel UAPI settings.
type PanelConfig struct {
	Endpoint           string `yaml:"endpoint"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	DatabaseHost       string `yaml:"database_host"`
	DatabasePort       string `yaml:"database_port"`
}

// MirrorConfig configures an optional S3-compatible release mirror. When Bucket
// is set, downloads are served from the mirror instead of the vendor.
type MirrorConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// Enabled reports whether the mirror is configured.
func (m MirrorConfig) Enabled() bool {
	return m.Bucket != ""
}

// Patterns holds the validation patterns shared with the wizard.
type Patterns struct {
	Username string `yaml:"username_pattern" json:"username_pattern"`
	Password string `yaml:"user_password_pattern" json:"user_password_pattern"`
	Email    string `yaml:"email_pattern" json:"email_pattern"`
}

// Application returns the catalog entry for software.
func (c *Config) Application(software string) (Application, bool) {
	app, ok := c.Applications[software]
	return app, ok
}

// SettingsPath returns the absolute path of the application settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Paths.WorkingDir, filepath.FromSlash(c.Paths.SettingsFile))
}

// DownloadDir returns where archives are downloaded to.
func (c *Config) DownloadDir() string {
	if c.Paths.DownloadDir != "" {
		return c.Paths.DownloadDir
	}
	return c.Paths.WorkingDir
}
