// Package requirements probes the host for what an installation needs.
//
// Each [Requirement] is a named probe. Failed required probes block every
// action request; failed optional ones are reported as warnings only.
package requirements

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Requirement is one environment probe.
type Requirement struct {
	// Name identifies the probe in reports.
	Name string

	// Required failures block the installer.
	Required bool

	// Description explains what the requirement is for.
	Description string

	// Probe returns a human-readable reason when the requirement is not met.
	Probe func(ctx context.Context) error
}

// Result is the outcome of one probe.
type Result struct {
	Requirement Requirement
	Err         error
}

// OK reports whether the probe passed.
func (r Result) OK() bool { return r.Err == nil }

// Results contains the outcome of a full check.
type Results struct {
	Results []Result
}

// HasErrors returns true if any required probe failed.
func (r *Results) HasErrors() bool {
	return len(r.Errors()) > 0
}

// Errors returns the plain-text reasons of the failed required probes.
func (r *Results) Errors() []string {
	var out []string
	for _, res := range r.Results {
		if res.Requirement.Required && res.Err != nil {
			out = append(out, res.Err.Error())
		}
	}
	return out
}

// Warnings returns the reasons of the failed optional probes.
func (r *Results) Warnings() []string {
	var out []string
	for _, res := range r.Results {
		if !res.Requirement.Required && res.Err != nil {
			out = append(out, res.Err.Error())
		}
	}
	return out
}

// Error returns an error listing every failed required probe.
func (r *Results) Error() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("missing server requirements: %s", strings.Join(errs, "; "))
}

// Checker runs a fixed list of requirements.
type Checker struct {
	requirements []Requirement
}

// NewChecker returns a checker for reqs.
func NewChecker(reqs ...Requirement) *Checker {
	return &Checker{requirements: reqs}
}

// Check runs every probe in order.
func (c *Checker) Check(ctx context.Context) *Results {
	results := &Results{Results: make([]Result, 0, len(c.requirements))}
	for _, req := range c.requirements {
		results.Results = append(results.Results, Result{Requirement: req, Err: req.Probe(ctx)})
	}
	return results
}

// Errors runs every probe and returns the failed required reasons.
func (c *Checker) Errors(ctx context.Context) []string {
	return c.Check(ctx).Errors()
}

// Paths are the filesystem locations the default requirements probe.
type Paths struct {
	WorkingDir  string
	DownloadDir string
	ErrorLog    string
}

// Default returns the standard requirement list for paths.
func Default(paths Paths) []Requirement {
	reqs := []Requirement{
		{
			Name:        "working-dir",
			Required:    true,
			Description: "The application is extracted into the working directory",
			Probe:       func(context.Context) error { return Writable(paths.WorkingDir) },
		},
	}
	if paths.DownloadDir != "" && paths.DownloadDir != paths.WorkingDir {
		reqs = append(reqs, Requirement{
			Name:        "download-dir",
			Required:    true,
			Description: "Release archives are downloaded here",
			Probe:       func(context.Context) error { return Writable(paths.DownloadDir) },
		})
	}
	if paths.ErrorLog != "" {
		reqs = append(reqs, Requirement{
			Name:        "error-log",
			Required:    false,
			Description: "Uncaught failures are appended to the error log",
			Probe:       func(context.Context) error { return Writable(filepath.Dir(paths.ErrorLog)) },
		})
	}
	return reqs
}

// Writable reports whether dir exists and accepts new files.
func Writable(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("directory %s doesn't exist", dir)
		}
		return fmt.Errorf("unable to access %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	f, err := os.CreateTemp(dir, ".appinstaller-probe-*")
	if err != nil {
		return fmt.Errorf("no write permission in %s directory", dir)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}
