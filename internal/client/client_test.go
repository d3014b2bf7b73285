package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/imamik/appinstaller/internal/config"
	"github.com/imamik/appinstaller/internal/dispatch"
	"github.com/imamik/appinstaller/internal/envelope"
	"github.com/imamik/appinstaller/internal/transport"
	"github.com/imamik/appinstaller/internal/wizard"
)

var _ = Describe("Installer client", func() {
	var (
		ctx      context.Context
		actions  *fakeActions
		server   *httptest.Server
		upgrader *fakeUpgrader
		c        *Client
	)

	start := func(upgrade bool) {
		c = New(Options{
			Endpoint: server.URL + "/",
			Upgrade:  upgrade,
			Upgrader: upgrader,
		})
		Expect(c.Init(ctx)).To(Succeed())
	}

	screen := func() wizard.ScreenID {
		return c.Machine().Current().ID
	}

	do := func(name, arg string) error {
		return c.Do(ctx, name, arg)
	}

	fillDatabase := func() {
		m := c.Machine()
		m.SetValue("dbHost", "localhost")
		m.SetValue("dbPort", "3306")
		m.SetValue("dbName", "chevereto")
		m.SetValue("dbUser", "chevereto")
		m.SetValue("dbUserPassword", "secret")
	}

	fillAdminAndEmails := func() {
		m := c.Machine()
		m.SetValue("adminEmail", "admin@example.com")
		m.SetValue("adminUsername", "admin")
		m.SetValue("adminPassword", "password123")
		Expect(do(wizard.ActSetAdmin, "")).To(Succeed())
		m.SetValue("emailNoreply", "noreply@example.com")
		m.SetValue("emailInbox", "inbox@example.com")
		Expect(do(wizard.ActSetEmails, "")).To(Succeed())
	}

	// readyToInstall walks the free edition with a manual database.
	readyToInstall := func() {
		Expect(do(wizard.ActSetSoftware, config.SoftwareFree)).To(Succeed())
		Expect(do(wizard.ActShow, string(wizard.ScreenDB))).To(Succeed())
		fillDatabase()
		Expect(do(wizard.ActSetDb, "")).To(Succeed())
		fillAdminAndEmails()
		Expect(screen()).To(Equal(wizard.ScreenReady))
	}

	BeforeEach(func() {
		ctx = context.Background()
		actions = newFakeActions()
		upgrader = &fakeUpgrader{}
		server = newInstallerServer(actions)
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("Init", func() {
		It("logs the server string and shows the welcome screen", func() {
			start(false)
			Expect(screen()).To(Equal(wizard.ScreenWelcome))
			Expect(c.Machine().Logs()).NotTo(BeEmpty())
			Expect(c.Machine().Logs()[0]).To(ContainSubstring("Server appinstaller"))
			Expect(c.Runtime().RootURL).To(Equal(server.URL + "/"))
		})

		It("starts on the upgrade screen for the upgrade process", func() {
			start(true)
			Expect(screen()).To(Equal(wizard.ScreenUpgrade))
		})

		It("shows the error screen when requirements are missing", func() {
			server.Close()
			server = newInstallerServer(actions, dispatch.WithRequirements(staticRequirements{"No zip support"}))
			c = New(Options{Endpoint: server.URL + "/"})

			err := c.Init(ctx)
			Expect(errors.Is(err, ErrRequirements)).To(BeTrue())
			Expect(screen()).To(Equal(wizard.ScreenError))
			Expect(c.Machine().Current().Alert.Message).To(Equal("No zip support"))
		})

		It("refuses actions before Init", func() {
			c = New(Options{Endpoint: server.URL + "/"})
			Expect(c.Do(ctx, wizard.ActShow, "license")).To(MatchError(ErrNotStarted))
		})
	})

	Describe("license", func() {
		BeforeEach(func() {
			start(false)
			Expect(do(wizard.ActShow, string(wizard.ScreenLicense))).To(Succeed())
		})

		It("rejects an empty key without a request", func() {
			err := do(wizard.ActSetLicense, "installKey")
			var verr *wizard.ValidationError
			Expect(errors.As(err, &verr)).To(BeTrue())
			Expect(verr.Control).To(Equal("installKey"))
			Expect(c.Machine().Control("installKey").Shakes).To(Equal(1))
			Expect(actions.called()).To(BeEmpty())
		})

		It("selects the paid edition for a valid key", func() {
			c.Machine().SetValue("installKey", "KEY-123")
			Expect(do(wizard.ActSetLicense, "installKey")).To(Succeed())

			Expect(c.Session().License()).To(Equal("KEY-123"))
			Expect(c.Session().Software()).To(Equal(config.SoftwarePaid))
			Expect(screen()).To(Equal(wizard.ScreenCPanel))
			Expect(strings.Join(c.Machine().Logs(), "\n")).To(ContainSubstring("Software has been set to: chevereto"))
			Expect(actions.lastParams(envelope.ActionCheckLicense).Get("license")).To(Equal("KEY-123"))
		})

		It("keeps the software unset when the key is rejected and lets the free edition through", func() {
			actions.fail(envelope.ActionCheckLicense, 400, "Invalid license key")
			c.Machine().SetValue("installKey", "BAD")

			err := do(wizard.ActSetLicense, "installKey")
			var failure *transport.FailureError
			Expect(errors.As(err, &failure)).To(BeTrue())
			Expect(failure.Code()).To(Equal(400))

			Expect(c.Session().Software()).To(BeEmpty())
			Expect(c.Session().License()).To(BeEmpty())
			Expect(screen()).To(Equal(wizard.ScreenLicense))
			Expect(c.Machine().Current().Alert.Message).To(Equal("Invalid license key"))

			Expect(do(wizard.ActSetSoftware, config.SoftwareFree)).To(Succeed())
			Expect(c.Session().Software()).To(Equal(config.SoftwareFree))
			Expect(screen()).To(Equal(wizard.ScreenCPanel))
		})
	})

	Describe("database", func() {
		BeforeEach(func() {
			start(false)
			Expect(do(wizard.ActSetSoftware, config.SoftwareFree)).To(Succeed())
		})

		It("provisions through cPanel once and locks the credentials", func() {
			c.Machine().SetValue("cpanelUser", "user")
			c.Machine().SetValue("cpanelPassword", "pass")
			Expect(do(wizard.ActCPanelProcess, "")).To(Succeed())

			Expect(screen()).To(Equal(wizard.ScreenAdmin))
			Expect(c.Session().Field(wizard.SectionDB, "name")).To(Equal("cp_chevereto"))
			Expect(c.Session().PanelDone()).To(BeTrue())
			Expect(c.Machine().Control("cpanelUser").Locked).To(BeTrue())
			Expect(c.Machine().Control("cpanelPassword").Locked).To(BeTrue())

			Expect(do(wizard.ActShow, string(wizard.ScreenCPanel))).To(Succeed())
			Expect(do(wizard.ActCPanelProcess, "")).To(Succeed())
			Expect(screen()).To(Equal(wizard.ScreenAdmin))
			Expect(actions.count(envelope.ActionCPanelProcess)).To(Equal(1))
		})

		It("requires both cPanel credentials", func() {
			c.Machine().SetValue("cpanelUser", "user")
			err := do(wizard.ActCPanelProcess, "")
			var verr *wizard.ValidationError
			Expect(errors.As(err, &verr)).To(BeTrue())
			Expect(verr.Control).To(Equal("cpanelPassword"))
			Expect(actions.called()).To(BeEmpty())
		})

		It("reports rejected cPanel credentials", func() {
			actions.fail(envelope.ActionCPanelProcess, 403, "Invalid cPanel credentials")
			c.Machine().SetValue("cpanelUser", "user")
			c.Machine().SetValue("cpanelPassword", "wrong")

			Expect(do(wizard.ActCPanelProcess, "")).NotTo(Succeed())
			Expect(c.Session().PanelDone()).To(BeFalse())
			Expect(c.Session().Has(wizard.SectionDB)).To(BeFalse())
			Expect(c.Machine().Current().Alert.Message).To(Equal("Invalid cPanel credentials"))
		})

		It("does not touch the session for an incomplete form", func() {
			Expect(do(wizard.ActShow, string(wizard.ScreenDB))).To(Succeed())
			c.Machine().SetValue("dbName", "")

			err := do(wizard.ActSetDb, "")
			var verr *wizard.ValidationError
			Expect(errors.As(err, &verr)).To(BeTrue())
			Expect(screen()).To(Equal(wizard.ScreenDB))
			Expect(c.Session().Has(wizard.SectionDB)).To(BeFalse())
			Expect(actions.count(envelope.ActionCheckDatabase)).To(Equal(0))
		})

		It("verifies and commits a manual database", func() {
			Expect(do(wizard.ActShow, string(wizard.ScreenDB))).To(Succeed())
			fillDatabase()
			Expect(do(wizard.ActSetDb, "")).To(Succeed())

			Expect(screen()).To(Equal(wizard.ScreenAdmin))
			p := actions.lastParams(envelope.ActionCheckDatabase)
			Expect(p.Get("name")).To(Equal("chevereto"))
			Expect(p.Get("userPassword")).To(Equal("secret"))
			Expect(c.Session().Field(wizard.SectionDB, "host")).To(Equal("localhost"))
		})

		It("keeps the previous record when the database check fails", func() {
			Expect(do(wizard.ActShow, string(wizard.ScreenDB))).To(Succeed())
			fillDatabase()
			Expect(do(wizard.ActSetDb, "")).To(Succeed())
			Expect(c.Back()).To(Succeed())
			Expect(screen()).To(Equal(wizard.ScreenDB))

			actions.fail(envelope.ActionCheckDatabase, 403, "Database user doesn't have ALTER privilege")
			c.Machine().SetValue("dbName", "other")
			Expect(do(wizard.ActSetDb, "")).NotTo(Succeed())

			Expect(c.Session().Field(wizard.SectionDB, "name")).To(Equal("chevereto"))
			Expect(screen()).To(Equal(wizard.ScreenDB))
		})
	})

	Describe("history", func() {
		BeforeEach(func() {
			start(false)
			Expect(do(wizard.ActSetSoftware, config.SoftwareFree)).To(Succeed())
			Expect(do(wizard.ActShow, string(wizard.ScreenDB))).To(Succeed())
			fillDatabase()
			Expect(do(wizard.ActSetDb, "")).To(Succeed())
		})

		It("never submits on back", func() {
			Expect(c.Back()).To(Succeed())
			Expect(screen()).To(Equal(wizard.ScreenDB))
			Expect(actions.count(envelope.ActionCheckDatabase)).To(Equal(1))
		})

		It("resubmits the left form on forward", func() {
			Expect(c.Back()).To(Succeed())
			Expect(c.Forward()).To(Succeed())
			Expect(screen()).To(Equal(wizard.ScreenAdmin))
			Expect(actions.count(envelope.ActionCheckDatabase)).To(Equal(2))
		})

		It("steps back when the left form became invalid", func() {
			Expect(c.Back()).To(Succeed())
			c.Machine().SetValue("dbName", "")

			err := c.Forward()
			var verr *wizard.ValidationError
			Expect(errors.As(err, &verr)).To(BeTrue())
			Expect(screen()).To(Equal(wizard.ScreenDB))
			Expect(c.Session().Field(wizard.SectionDB, "name")).To(Equal("chevereto"))
			Expect(actions.count(envelope.ActionCheckDatabase)).To(Equal(1))
		})
	})

	Describe("install", func() {
		BeforeEach(func() {
			start(false)
			readyToInstall()
		})

		It("runs the whole chain and shows the summary", func() {
			Expect(do(wizard.ActInstall, "")).To(Succeed())

			Expect(actions.called()).To(Equal([]envelope.Action{
				envelope.ActionCheckDatabase,
				envelope.ActionCPanelHtaccessHandlers,
				envelope.ActionDownload,
				envelope.ActionExtract,
				envelope.ActionCreateSettings,
				envelope.ActionSubmitInstallForm,
				envelope.ActionSelfDestruct,
			}))
			Expect(screen()).To(Equal(wizard.ScreenComplete))
			Expect(c.Done()).To(BeTrue())
			Expect(c.Machine().Installing()).To(BeFalse())
			Expect(c.Machine().Current().Alert.Message).To(Equal("The installer has self-removed its file at /var/www/html/installer.php"))
			Expect(c.CanLeave()).To(BeEmpty())

			Expect(c.Record()).NotTo(BeNil())
			Expect(c.Record().String()).To(ContainSubstring("| Username: admin"))
			Expect(c.Record().Cleanup).To(BeEmpty())

			logs := c.Machine().Logs()
			Expect(logs[len(logs)-1]).To(HaveSuffix("Installation completed"))

			settings := actions.lastParams(envelope.ActionCreateSettings)
			Expect(settings.Get("filePath")).To(Equal("/var/www/html/app/settings.php"))
			Expect(settings.Get("name")).To(Equal("chevereto"))

			setup := actions.lastParams(envelope.ActionSubmitInstallForm)
			Expect(setup.Get("email_from_email")).To(Equal("noreply@example.com"))
			Expect(setup.Get("website_mode")).To(Equal("community"))
		})

		It("carries on with empty handlers when detection fails", func() {
			actions.fail(envelope.ActionCPanelHtaccessHandlers, 404, "No cPanel .htaccess handlers found")
			Expect(do(wizard.ActInstall, "")).To(Succeed())

			Expect(actions.count(envelope.ActionDownload)).To(Equal(1))
			Expect(actions.lastParams(envelope.ActionExtract).Get("appendHtaccess")).To(BeEmpty())
			Expect(screen()).To(Equal(wizard.ScreenComplete))
		})

		It("stops on a failed extraction", func() {
			actions.fail(envelope.ActionExtract, 500, "Can't extract /tmp/downloads/chevereto.zip")

			err := do(wizard.ActInstall, "")
			Expect(err).To(HaveOccurred())

			Expect(c.Machine().Installing()).To(BeFalse())
			Expect(screen()).To(Equal(wizard.ScreenInstalling))
			Expect(c.Machine().Current().Alert.Message).To(Equal("Can't extract /tmp/downloads/chevereto.zip"))
			Expect(actions.count(envelope.ActionCreateSettings)).To(Equal(0))
			Expect(c.Done()).To(BeFalse())
			Expect(c.Record()).To(BeNil())

			logs := c.Machine().Logs()
			Expect(logs[len(logs)-1]).To(HaveSuffix(wizard.DefaultAbortMessage))
		})

		It("reaches completion with removal instructions when self-destruct fails", func() {
			actions.fail(envelope.ActionSelfDestruct, 503, "Unable to remove installer file")
			Expect(do(wizard.ActInstall, "")).To(Succeed())

			Expect(screen()).To(Equal(wizard.ScreenComplete))
			todo := "Remove the installer file at /var/www/html/installer.php and open " + server.URL + "/ to continue the process."
			Expect(c.Machine().Current().Alert.Message).To(Equal(todo))
			Expect(c.Machine().Current().Alert.Message).NotTo(ContainSubstring("self-removed"))
			Expect(c.Record().Cleanup).To(ConsistOf(todo))
			Expect(c.Record().String()).To(ContainSubstring("| # Manual steps\n| " + todo))
		})
	})

	Describe("upgrade", func() {
		BeforeEach(func() {
			start(true)
			c.Machine().SetValue("upgradeKey", "KEY-123")
			Expect(do(wizard.ActSetUpgrade, "")).To(Succeed())
		})

		It("prepares the files and applies the upgrade on continue", func() {
			Expect(screen()).To(Equal(wizard.ScreenReadyUpgrade))
			Expect(c.Session().Software()).To(Equal(config.SoftwarePaid))

			Expect(do(wizard.ActUpgrade, "")).To(Succeed())
			Expect(screen()).To(Equal(wizard.ScreenCompleteUpgrade))
			Expect(actions.count(envelope.ActionCreateSettings)).To(Equal(0))
			Expect(actions.count(envelope.ActionSubmitInstallForm)).To(Equal(0))
			Expect(actions.count(envelope.ActionSelfDestruct)).To(Equal(1))
			Expect(c.Machine().Current().Alert.Message).To(HavePrefix("The installer has self-removed its file at"))

			Expect(do(wizard.ActContinueUpgrade, "")).To(Succeed())
			Expect(upgrader.rootURLs).To(Equal([]string{server.URL + "/"}))
		})

		It("alerts when the upgrade endpoint fails", func() {
			upgrader.err = errors.New("setup answered 500")
			Expect(do(wizard.ActUpgrade, "")).To(Succeed())
			Expect(do(wizard.ActContinueUpgrade, "")).NotTo(Succeed())
			Expect(c.Machine().Current().Alert.Message).To(Equal("setup answered 500"))
		})
	})

	It("warns before leaving while installing", func() {
		start(false)
		Expect(c.CanLeave()).To(BeEmpty())
		c.Machine().SetInstalling(true)
		Expect(c.CanLeave()).To(Equal(LeaveWarning))
	})

	It("rejects unknown actions", func() {
		start(false)
		Expect(do("nope", "")).To(MatchError(ErrUnknownAction))
	})
})
