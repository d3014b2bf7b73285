package pipeline

import (
	"fmt"

	"github.com/imamik/appinstaller/internal/config"
	"github.com/imamik/appinstaller/internal/envelope"
	"github.com/imamik/appinstaller/internal/wizard"
)

// Chain names.
const (
	ChainInstall = "install"
	ChainUpgrade = "upgrade"
)

// Final log lines of each chain.
const (
	InstallCompleted = "Installation completed"
	UpgradeCompleted = "Upgrade completed"
)

// websiteMode is sent with the setup form.
const websiteMode = "community"

// InstallChain returns the steps of a fresh installation.
func InstallChain() []Step {
	steps := commonSteps()
	steps = append(steps, createSettingsStep(), submitInstallFormStep(), selfDestructStep())
	return steps
}

// UpgradeChain returns the steps of an upgrade. It leaves the existing
// settings and database alone.
func UpgradeChain() []Step {
	steps := commonSteps()
	steps = append(steps, selfDestructStep())
	return steps
}

// Chain returns the chain matching the session process.
func Chain(s *wizard.Session) (string, []Step) {
	if s.Upgrade() {
		return ChainUpgrade, UpgradeChain()
	}
	return ChainInstall, InstallChain()
}

func commonSteps() []Step {
	return []Step{
		{
			Name:   "detect handlers",
			Action: envelope.ActionCPanelHtaccessHandlers,
			Policy: Absorbed,
			Log:    func(*Run) string { return "Detecting existing cPanel .htaccess handlers" },
			OnSuccess: func(r *Run, resp *envelope.Response) {
				r.Session.SetValue(wizard.SectionHandlers, resp.Data.String("handlers"))
			},
		},
		{
			Name:   "download",
			Action: envelope.ActionDownload,
			Log: func(r *Run) string {
				return fmt.Sprintf("Downloading latest %s release", r.Session.Software())
			},
			Params: func(r *Run) (map[string]string, error) {
				if r.Session.Software() == "" {
					return nil, &MissingSectionError{Step: "download", Section: wizard.SectionSoftware}
				}
				return map[string]string{
					"software": r.Session.Software(),
					"license":  r.Session.License(),
				}, nil
			},
			OnSuccess: func(r *Run, resp *envelope.Response) {
				r.Package = resp.Data
			},
		},
		{
			Name:   "extract",
			Action: envelope.ActionExtract,
			Log: func(r *Run) string {
				return "Extracting " + r.Package.String("fileBasename")
			},
			Params: func(r *Run) (map[string]string, error) {
				return map[string]string{
					"software":       r.Session.Software(),
					"filePath":       r.Package.String("filePath"),
					"workingPath":    r.Runtime.AbsPath,
					"appendHtaccess": r.Session.Handlers(),
				}, nil
			},
		},
	}
}

func createSettingsStep() Step {
	return Step{
		Name:   "create settings",
		Action: envelope.ActionCreateSettings,
		Log: func(r *Run) string {
			return fmt.Sprintf("Creating %s file", r.settingsFile())
		},
		Params: func(r *Run) (map[string]string, error) {
			db, err := require(r, "create settings", wizard.SectionDB)
			if err != nil {
				return nil, err
			}
			params := map[string]string{}
			for k, v := range db {
				params[k] = v
			}
			params["filePath"] = r.Runtime.SettingsFilepath(r.settingsFile())
			return params, nil
		},
	}
}

func submitInstallFormStep() Step {
	return Step{
		Name:   "system setup",
		Action: envelope.ActionSubmitInstallForm,
		Log:    func(*Run) string { return "Performing system setup" },
		Params: func(r *Run) (map[string]string, error) {
			admin, err := require(r, "perform system setup", wizard.SectionAdmin)
			if err != nil {
				return nil, err
			}
			email, err := require(r, "perform system setup", wizard.SectionEmail)
			if err != nil {
				return nil, err
			}
			return map[string]string{
				"username":             admin["username"],
				"email":                admin["email"],
				"password":             admin["password"],
				"email_from_email":     email["emailNoreply"],
				"email_incoming_email": email["emailInbox"],
				"website_mode":         websiteMode,
			}, nil
		},
	}
}

func selfDestructStep() Step {
	return Step{
		Name:   "self-destruct",
		Action: envelope.ActionSelfDestruct,
		Policy: Degraded,
		Log: func(r *Run) string {
			return "Removing installer file at " + r.Runtime.InstallerFilepath
		},
		Todo: func(r *Run) string {
			return fmt.Sprintf("Remove the installer file at %s and open %s to continue the process.",
				r.Runtime.InstallerFilepath, r.Runtime.RootURL)
		},
	}
}

// RemovedNotice confirms that the installer removed its own file.
func RemovedNotice(r *Run) string {
	return "The installer has self-removed its file at " + r.Runtime.InstallerFilepath
}

func (r *Run) settingsFile() string {
	if r.SettingsFile != "" {
		return r.SettingsFile
	}
	return config.DefaultSettingsFile
}
