package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/imamik/appinstaller/internal/requirements"
	"github.com/imamik/appinstaller/internal/ui/tui"
)

// RequirementStatus is the JSON form of one requirement probe.
type RequirementStatus struct {
	Name        string `json:"name"`
	Required    bool   `json:"required"`
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	Error       string `json:"error,omitempty"`
}

// DoctorReport is the JSON output of the doctor command.
type DoctorReport struct {
	App          string              `json:"app"`
	Version      string              `json:"version"`
	WorkingDir   string              `json:"workingDir"`
	Ready        bool                `json:"ready"`
	Requirements []RequirementStatus `json:"requirements"`
}

// Doctor checks the server requirements the installer depends on and writes
// the report to w. It fails when a required probe fails.
func Doctor(ctx context.Context, w io.Writer, configPath string, jsonOutput bool) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	results := newChecker(cfg).Check(ctx)
	if jsonOutput {
		report := buildDoctorReport(cfg.App.Name, cfg.App.Version, cfg.Paths.WorkingDir, results)
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
	} else {
		_, _ = fmt.Fprintln(w, tui.RenderRequirements(cfg.App.Name, results))
	}
	return results.Error()
}

func buildDoctorReport(app, version, workingDir string, results *requirements.Results) DoctorReport {
	report := DoctorReport{
		App:        app,
		Version:    version,
		WorkingDir: workingDir,
		Ready:      !results.HasErrors(),
	}
	for _, res := range results.Results {
		status := RequirementStatus{
			Name:        res.Requirement.Name,
			Required:    res.Requirement.Required,
			OK:          res.OK(),
			Description: res.Requirement.Description,
		}
		if res.Err != nil {
			status.Error = res.Err.Error()
		}
		report.Requirements = append(report.Requirements, status)
	}
	return report
}
