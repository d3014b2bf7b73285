package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/appinstaller/internal/requirements"
)

func TestBuildDoctorReport(t *testing.T) {
	t.Parallel()

	results := requirements.NewChecker(
		requirements.Requirement{
			Name:     "working-dir",
			Required: true,
			Probe:    func(context.Context) error { return nil },
		},
		requirements.Requirement{
			Name:        "error-log",
			Description: "Uncaught failures are appended to the error log",
			Probe:       func(context.Context) error { return errors.New("no write permission in /var/log") },
		},
	).Check(context.Background())

	report := buildDoctorReport("Chevereto Installer", "2.0.1", "/var/www/html", results)

	assert.True(t, report.Ready)
	require.Len(t, report.Requirements, 2)
	assert.Equal(t, RequirementStatus{Name: "working-dir", Required: true, OK: true}, report.Requirements[0])
	assert.False(t, report.Requirements[1].OK)
	assert.Equal(t, "no write permission in /var/log", report.Requirements[1].Error)
}

func TestBuildDoctorReport_NotReady(t *testing.T) {
	t.Parallel()

	results := requirements.NewChecker(requirements.Requirement{
		Name:     "working-dir",
		Required: true,
		Probe:    func(context.Context) error { return errors.New("missing") },
	}).Check(context.Background())

	report := buildDoctorReport("app", "1", "/srv", results)

	assert.False(t, report.Ready)
	assert.Error(t, results.Error())
}
