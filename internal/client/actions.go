package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/appinstaller/internal/config"
	"github.com/imamik/appinstaller/internal/envelope"
	"github.com/imamik/appinstaller/internal/pipeline"
	"github.com/imamik/appinstaller/internal/transport"
	"github.com/imamik/appinstaller/internal/wizard"
)

// Controls read by actions outside of forms.
const (
	controlUpgradeKey     = "upgradeKey"
	controlCPanelUser     = "cpanelUser"
	controlCPanelPassword = "cpanelPassword"
)

// checkLicense verifies key. A rejected key clears the stored license.
func (c *Client) checkLicense(ctx context.Context, key string) error {
	_, err := c.transport.Fetch(ctx, envelope.ActionCheckLicense, map[string]string{"license": key}, transport.Callbacks{})
	if err != nil {
		c.session.SetValue(wizard.SectionLicense, "")
		return err
	}
	c.session.SetValue(wizard.SectionLicense, key)
	return nil
}

func (c *Client) setLicense(ctx context.Context, controlID string) error {
	key := c.machine.Value(controlID)
	if key == "" {
		return c.machine.Reject(controlID, wizard.ReasonRequired)
	}
	if err := c.checkLicense(ctx, key); err != nil {
		return err
	}
	return c.setSoftware(config.SoftwarePaid)
}

func (c *Client) setSoftware(software string) error {
	c.session.SetValue(wizard.SectionSoftware, software)
	c.machine.Log("Software has been set to: " + software)
	return c.machine.Show(wizard.ScreenCPanel)
}

func (c *Client) setUpgrade(ctx context.Context) error {
	key := c.machine.Value(controlUpgradeKey)
	if key == "" {
		return c.machine.Reject(controlUpgradeKey, wizard.ReasonRequired)
	}
	if err := c.checkLicense(ctx, key); err != nil {
		return err
	}
	c.session.SetValue(wizard.SectionSoftware, config.SoftwarePaid)
	c.machine.Log("Software has been set to: " + config.SoftwarePaid)
	return c.machine.Show(wizard.ScreenReadyUpgrade)
}

// cPanelProcess provisions the database through the hosting panel. Once it
// succeeded the credentials are kept and later calls go straight to admin.
func (c *Client) cPanelProcess(ctx context.Context) error {
	if c.session.PanelDone() {
		return c.machine.Show(wizard.ScreenAdmin)
	}
	params := map[string]string{}
	for _, f := range []struct{ key, id string }{
		{"user", controlCPanelUser},
		{"password", controlCPanelPassword},
	} {
		v := c.machine.Value(f.id)
		if v == "" {
			return c.machine.Reject(f.id, wizard.ReasonRequired)
		}
		params[f.key] = v
	}

	resp, err := c.transport.Fetch(ctx, envelope.ActionCPanelProcess, params, transport.Callbacks{})
	if err != nil {
		c.session.SetPanelDone(false)
		return err
	}
	c.machine.Lock(controlCPanelUser, controlCPanelPassword)
	c.session.Commit(wizard.SectionDB, wizard.Record(resp.Data.Map("db")))
	c.session.SetPanelDone(true)
	return c.machine.Show(wizard.ScreenAdmin)
}

// setDb verifies the manual database form and commits it.
func (c *Client) setDb(ctx context.Context) error {
	if err := c.machine.Validate(); err != nil {
		return err
	}
	record, ok := c.machine.Collect()
	if !ok {
		return fmt.Errorf("%w: %s has no form", ErrUnknownAction, wizard.ActSetDb)
	}
	if _, err := c.transport.Fetch(ctx, envelope.ActionCheckDatabase, record, transport.Callbacks{}); err != nil {
		return err
	}
	c.session.Commit(wizard.SectionDB, record)
	return c.machine.Show(wizard.ScreenAdmin)
}

// commitForm validates and stores the visible form, then shows next.
func (c *Client) commitForm(section wizard.Section, next wizard.ScreenID) error {
	if err := c.machine.Validate(); err != nil {
		return err
	}
	c.machine.Commit(c.session, section, nil)
	return c.machine.Show(next)
}

// runChain runs the chain of the session process. A fatal step leaves the
// machine on the progress screen with an alert.
func (c *Client) runChain(ctx context.Context, progress, done wizard.ScreenID, completed string) error {
	c.machine.SetInstalling(true)
	if err := c.machine.Show(progress); err != nil {
		return err
	}

	name, steps := pipeline.Chain(c.session)
	run := &pipeline.Run{
		Session:      c.session,
		Runtime:      c.runtime,
		SettingsFile: c.opts.SettingsFile,
	}
	outcome, err := c.driver.Run(ctx, name, steps, run)
	if err != nil {
		if c.machine.Installing() {
			var failure *transport.FailureError
			if !errors.As(err, &failure) {
				c.machine.PushAlert(err.Error())
			}
			c.machine.AbortInstall("")
		}
		return err
	}

	c.machine.SetInstalling(false)
	c.machine.Log(completed)
	rec := pipeline.NewInstallationRecord(run, outcome)
	c.record = &rec
	if err := c.machine.Show(done); err != nil {
		return err
	}
	todo := outcome.Todo()
	if len(todo) == 0 {
		c.machine.PushAlert(pipeline.RemovedNotice(run))
	}
	for _, line := range todo {
		c.machine.PushAlert(line)
	}
	return nil
}

// continueUpgrade runs the application setup against the upgraded files.
func (c *Client) continueUpgrade(ctx context.Context) error {
	if c.opts.Upgrader == nil {
		return fmt.Errorf("%w: %s", ErrUnknownAction, wizard.ActContinueUpgrade)
	}
	c.machine.Log("Applying database changes")
	if err := c.opts.Upgrader.Upgrade(ctx, c.runtime.RootURL); err != nil {
		c.machine.PushAlert(err.Error())
		return err
	}
	c.machine.Log("Upgrade applied, open " + c.runtime.RootURL)
	return nil
}
