package pipeline

import (
	"strings"

	"github.com/imamik/appinstaller/internal/wizard"
)

const (
	recordTitle = "Chevereto installation"
	recordWidth = 35
)

// InstallationRecord is the summary shown once a chain completes.
type InstallationRecord struct {
	URL      string
	Software string
	Admin    wizard.Record
	DB       wizard.Record
	// Cleanup lists the manual steps left by degraded steps.
	Cleanup []string
}

// NewInstallationRecord builds the summary of run.
func NewInstallationRecord(run *Run, outcome *Outcome) InstallationRecord {
	rec := InstallationRecord{
		URL:      run.Runtime.RootURL,
		Software: run.Session.Software(),
	}
	if admin, ok := run.Session.Record(wizard.SectionAdmin); ok {
		rec.Admin = admin
	}
	if db, ok := run.Session.Record(wizard.SectionDB); ok {
		rec.DB = db
	}
	if outcome != nil {
		rec.Cleanup = outcome.Todo()
	}
	return rec
}

// String renders the boxed summary.
func (r InstallationRecord) String() string {
	rule := "+" + strings.Repeat("=", recordWidth) + "+"
	lines := []string{
		rule,
		"| " + recordTitle + strings.Repeat(" ", recordWidth-len(recordTitle)-1) + "|",
		rule,
		"| URL: " + r.URL,
		"| Software: " + r.Software,
		"| --",
		"| # Admin",
		"| Email: " + r.Admin["email"],
		"| Username: " + r.Admin["username"],
		"| Password: " + r.Admin["password"],
		"| --",
		"| # Database",
		"| Host: " + r.DB["host"],
		"| Port: " + r.DB["port"],
		"| Name: " + r.DB["name"],
		"| User: " + r.DB["user"],
		"| User password: " + r.DB["userPassword"],
	}
	if len(r.Cleanup) > 0 {
		lines = append(lines, "| --", "| # Manual steps")
		for _, step := range r.Cleanup {
			lines = append(lines, "| "+step)
		}
	}
	lines = append(lines, rule)
	return strings.Join(lines, "\n")
}
