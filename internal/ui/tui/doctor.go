package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/appinstaller/internal/requirements"
)

// RenderRequirements renders a requirement check report.
func RenderRequirements(title string, results *requirements.Results) string {
	var b strings.Builder

	b.WriteString(brandStyle.Render(title))
	status := " "
	switch {
	case results.HasErrors():
		status += errorStyle.Render("Missing server requirements")
	case len(results.Warnings()) > 0:
		status += warnStyle.Render("Ready with warnings")
	default:
		status += okStyle.Render("Ready")
	}
	b.WriteString(status)
	b.WriteString("\n")

	b.WriteString(headingStyle.Render("  Requirements"))
	b.WriteString("\n")
	for _, res := range results.Results {
		mark, style := requirementMark(res)
		fmt.Fprintf(&b, "  %s %s", style.Render(mark), res.Requirement.Name)
		if res.Requirement.Description != "" {
			b.WriteString(mutedStyle.Render("  " + res.Requirement.Description))
		}
		b.WriteString("\n")
		if res.Err != nil {
			fmt.Fprintf(&b, "       %s\n", style.Render(res.Err.Error()))
		}
	}
	return b.String()
}

func requirementMark(res requirements.Result) (string, lipgloss.Style) {
	switch {
	case res.OK():
		return markDone, okStyle
	case res.Requirement.Required:
		return markFailed, errorStyle
	default:
		return markDegraded, warnStyle
	}
}
