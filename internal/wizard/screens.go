package wizard

import "github.com/imamik/appinstaller/internal/config"

// ScreenID identifies a screen.
type ScreenID string

// Screens of the installer.
const (
	ScreenWelcome         ScreenID = "welcome"
	ScreenLicense         ScreenID = "license"
	ScreenUpgrade         ScreenID = "upgrade"
	ScreenCPanel          ScreenID = "cpanel"
	ScreenDB              ScreenID = "db"
	ScreenAdmin           ScreenID = "admin"
	ScreenEmails          ScreenID = "emails"
	ScreenReady           ScreenID = "ready"
	ScreenReadyUpgrade    ScreenID = "ready-upgrade"
	ScreenInstalling      ScreenID = "installing"
	ScreenUpgrading       ScreenID = "upgrading"
	ScreenComplete        ScreenID = "complete"
	ScreenCompleteUpgrade ScreenID = "complete-upgrade"
	ScreenError           ScreenID = "error"
)

// Terminal reports whether no transition leaves id.
func (id ScreenID) Terminal() bool {
	return id == ScreenComplete || id == ScreenCompleteUpgrade
}

// ControlType mirrors the input types with native constraints.
type ControlType string

// Control types.
const (
	TypeText     ControlType = "text"
	TypePassword ControlType = "password"
	TypeEmail    ControlType = "email"
	TypeNumber   ControlType = "number"
)

// Control is one input of a screen.
type Control struct {
	ID          string
	Label       string
	Type        ControlType
	Required    bool
	Pattern     string
	Placeholder string
	Value       string
	// Locked controls keep their value and stay disabled.
	Locked bool
	// Shakes counts how often the control was flagged as invalid.
	Shakes int
}

// Form groups controls that are collected and validated together. Trigger
// names the action that submits it.
type Form struct {
	Trigger  string
	Controls []*Control
}

// Action is a button of a screen: a named client action plus its argument.
type Action struct {
	Label string
	Name  string
	Arg   string
}

// Alert is the message shown on a screen.
type Alert struct {
	Message string
	// Shakes is bumped when an identical message is pushed again.
	Shakes int
}

// Screen is one step of the wizard.
type Screen struct {
	ID          ScreenID
	Title       string
	Description string
	Visible     bool
	// Controls live outside any form and are read by actions directly.
	Controls []*Control
	Form     *Form
	Actions  []Action
	Alert    Alert
}

// Control returns the control with id from the form or the loose controls.
func (s *Screen) Control(id string) *Control {
	for _, c := range s.controls() {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *Screen) controls() []*Control {
	all := append([]*Control(nil), s.Controls...)
	if s.Form != nil {
		all = append(all, s.Form.Controls...)
	}
	return all
}

// Client action names bound to screen buttons and form triggers.
const (
	ActShow            = "show"
	ActSetLicense      = "setLicense"
	ActSetSoftware     = "setSoftware"
	ActSetUpgrade      = "setUpgrade"
	ActCPanelProcess   = "cPanelProcess"
	ActSetDb           = "setDb"
	ActSetAdmin        = "setAdmin"
	ActSetEmails       = "setEmails"
	ActInstall         = "install"
	ActUpgrade         = "upgrade"
	ActContinueUpgrade = "continueUpgrade"
)

// DefaultScreens returns a fresh copy of the screen catalog. Email controls
// get the email pattern.
func DefaultScreens(patterns config.Patterns) []*Screen {
	return []*Screen{
		{
			ID:          ScreenWelcome,
			Title:       "Chevereto Installer",
			Description: "This tool will guide you through the process of installing Chevereto.",
			Actions: []Action{
				{Label: "Enter license key", Name: ActShow, Arg: string(ScreenLicense)},
				{Label: "Install free edition", Name: ActSetSoftware, Arg: config.SoftwareFree},
			},
		},
		{
			ID:          ScreenLicense,
			Title:       "Enter license key",
			Description: "A license key is required to install the paid edition.",
			Controls: []*Control{
				{ID: "installKey", Label: "License key", Type: TypePassword, Placeholder: "Paste your license key here"},
			},
			Actions: []Action{
				{Label: "Enter license key", Name: ActSetLicense, Arg: "installKey"},
				{Label: "Use free edition instead", Name: ActSetSoftware, Arg: config.SoftwareFree},
			},
		},
		{
			ID:          ScreenUpgrade,
			Title:       "Upgrade",
			Description: "A license key is required to upgrade to the paid edition.",
			Controls: []*Control{
				{ID: "upgradeKey", Label: "License key", Type: TypePassword, Placeholder: "Paste your license key here"},
			},
			Actions: []Action{
				{Label: "Enter license key", Name: ActSetUpgrade},
			},
		},
		{
			ID:          ScreenCPanel,
			Title:       "cPanel access",
			Description: "Provide cPanel credentials to create the database and its user automatically.",
			Controls: []*Control{
				{ID: "cpanelUser", Label: "User", Type: TypeText},
				{ID: "cpanelPassword", Label: "Password", Type: TypePassword},
			},
			Actions: []Action{
				{Label: "Connect to cPanel", Name: ActCPanelProcess},
				{Label: "Skip", Name: ActShow, Arg: string(ScreenDB)},
			},
		},
		{
			ID:          ScreenDB,
			Title:       "Database",
			Description: "Provide the MySQL database. It must be empty and the user needs full privileges on it.",
			Form: &Form{
				Trigger: ActSetDb,
				Controls: []*Control{
					{ID: "dbHost", Label: "Host", Type: TypeText, Required: true, Value: config.DefaultDBHost},
					{ID: "dbPort", Label: "Port", Type: TypeNumber, Required: true, Value: config.DefaultDBPort},
					{ID: "dbName", Label: "Name", Type: TypeText, Required: true},
					{ID: "dbUser", Label: "User", Type: TypeText, Required: true},
					{ID: "dbUserPassword", Label: "User password", Type: TypePassword},
				},
			},
		},
		{
			ID:          ScreenAdmin,
			Title:       "Administrator",
			Description: "Fill in your administrator user details.",
			Form: &Form{
				Trigger: ActSetAdmin,
				Controls: []*Control{
					{ID: "adminEmail", Label: "Email", Type: TypeEmail, Required: true, Pattern: patterns.Email},
					{ID: "adminUsername", Label: "Username", Type: TypeText, Required: true, Pattern: patterns.Username, Placeholder: "3-16 letters, numbers or _"},
					{ID: "adminPassword", Label: "Password", Type: TypePassword, Required: true, Pattern: patterns.Password, Placeholder: "6-128 characters"},
				},
			},
		},
		{
			ID:          ScreenEmails,
			Title:       "Email addresses",
			Description: "Fill in the email addresses used by the system.",
			Form: &Form{
				Trigger: ActSetEmails,
				Controls: []*Control{
					{ID: "emailNoreply", Label: "No-reply", Type: TypeEmail, Required: true, Pattern: patterns.Email},
					{ID: "emailInbox", Label: "Inbox", Type: TypeEmail, Required: true, Pattern: patterns.Email},
				},
			},
		},
		{
			ID:          ScreenReady,
			Title:       "Ready to install",
			Description: "The installer is ready to download and install the software.",
			Actions:     []Action{{Label: "Install", Name: ActInstall}},
		},
		{
			ID:          ScreenReadyUpgrade,
			Title:       "Ready to upgrade",
			Description: "The installer is ready to download and upgrade the software.",
			Actions:     []Action{{Label: "Upgrade", Name: ActUpgrade}},
		},
		{ID: ScreenInstalling, Title: "Installing"},
		{ID: ScreenUpgrading, Title: "Upgrading"},
		{
			ID:          ScreenComplete,
			Title:       "Installation completed",
			Description: "The software has been installed.",
		},
		{
			ID:          ScreenCompleteUpgrade,
			Title:       "Upgrade prepared",
			Description: "The files have been upgraded. Continue to apply the database changes.",
			Actions:     []Action{{Label: "Continue upgrade", Name: ActContinueUpgrade}},
		},
		{ID: ScreenError, Title: "Aw, Snap!"},
	}
}
