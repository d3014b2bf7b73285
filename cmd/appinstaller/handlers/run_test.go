package handlers

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/appinstaller/internal/client"
	"github.com/imamik/appinstaller/internal/config"
	"github.com/imamik/appinstaller/internal/deployment"
	"github.com/imamik/appinstaller/internal/envelope"
	"github.com/imamik/appinstaller/internal/transport"
	"github.com/imamik/appinstaller/internal/ui/prompt"
	"github.com/imamik/appinstaller/internal/ui/tui"
	"github.com/imamik/appinstaller/internal/wizard"
)

// fakeTransport answers every action with a success unless a failure is
// queued for it.
type fakeTransport struct {
	runtimeErrors []string
	failures      map[envelope.Action]int
	calls         []envelope.Action
}

func (f *fakeTransport) Runtime(context.Context) (deployment.Runtime, error) {
	return deployment.Runtime{
		AbsPath:      "/var/www/html/",
		RelPath:      "/",
		RootURL:      "http://localhost/",
		ServerString: "Server test",
		Patterns:     config.Default().Patterns,
		Errors:       f.runtimeErrors,
	}, nil
}

func (f *fakeTransport) Fetch(_ context.Context, action envelope.Action, _ map[string]string, cb transport.Callbacks) (*envelope.Response, error) {
	f.calls = append(f.calls, action)
	if f.failures[action] > 0 {
		f.failures[action]--
		resp := envelope.Fail(500, string(action)+" failed")
		if cb.Error != nil && cb.Error(resp) {
			return resp, nil
		}
		return resp, &transport.FailureError{Response: resp}
	}

	var data envelope.Data
	if action == envelope.ActionDownload {
		data = envelope.Data{"filePath": "/tmp/chevereto.zip", "fileBasename": "chevereto.zip"}
	}
	return envelope.OK(string(action)+" ok", data), nil
}

func (f *fakeTransport) count(action envelope.Action) int {
	n := 0
	for _, a := range f.calls {
		if a == action {
			n++
		}
	}
	return n
}

// scriptStep answers one prompt.
type scriptStep struct {
	screen wizard.ScreenID
	values map[string]string
	choice func(s *wizard.Screen) prompt.Choice
}

// scriptedAsker replays a fixed conversation.
type scriptedAsker struct {
	steps  []scriptStep
	asked  []wizard.ScreenID
	navs   []prompt.Nav
	leave  bool
	leaves int
}

func (a *scriptedAsker) Ask(_ context.Context, s *wizard.Screen, nav prompt.Nav) (prompt.Answer, error) {
	a.asked = append(a.asked, s.ID)
	a.navs = append(a.navs, nav)
	if len(a.steps) == 0 {
		return prompt.Answer{}, fmt.Errorf("unexpected prompt for %s", s.ID)
	}
	step := a.steps[0]
	a.steps = a.steps[1:]
	if step.screen != s.ID {
		return prompt.Answer{}, fmt.Errorf("expected screen %s, got %s", step.screen, s.ID)
	}
	return prompt.Answer{Values: step.values, Choice: step.choice(s)}, nil
}

func (a *scriptedAsker) ConfirmLeave(context.Context, string) (bool, error) {
	a.leaves++
	return a.leave, nil
}

func (a *scriptedAsker) backs() []bool {
	out := make([]bool, len(a.navs))
	for i, nav := range a.navs {
		out[i] = nav.Back
	}
	return out
}

func action(name string) func(*wizard.Screen) prompt.Choice {
	return func(s *wizard.Screen) prompt.Choice {
		for _, act := range s.Actions {
			if act.Name == name {
				return prompt.Choice{Kind: prompt.ChoiceAction, Label: act.Label, Action: act}
			}
		}
		return prompt.Choice{Kind: prompt.ChoiceQuit}
	}
}

func choose(kind prompt.ChoiceKind) func(*wizard.Screen) prompt.Choice {
	return func(*wizard.Screen) prompt.Choice { return prompt.Choice{Kind: kind} }
}

var dbValues = map[string]string{
	"dbHost": "localhost", "dbPort": "3306", "dbName": "chevereto",
	"dbUser": "chevereto", "dbUserPassword": "secret",
}

var adminValues = map[string]string{
	"adminEmail": "admin@example.com", "adminUsername": "admin", "adminPassword": "password123",
}

var emailValues = map[string]string{
	"emailNoreply": "noreply@example.com", "emailInbox": "inbox@example.com",
}

func newTestRunner(ft *fakeTransport, asker Asker, upgrade bool) (*runner, *bytes.Buffer) {
	var out bytes.Buffer
	printer := prompt.NewPrinter(&out)
	bridge := tui.NewBridge(printer)
	c := client.New(client.Options{
		Upgrade:      upgrade,
		SettingsFile: config.DefaultSettingsFile,
		View:         bridge,
		Transport:    ft,
		Upgrader:     noopUpgrader{},
		Log:          logr.Discard(),
	})
	return &runner{
		client:  c,
		asker:   asker,
		bridge:  bridge,
		printer: printer,
		log:     logr.Discard(),
	}, &out
}

type noopUpgrader struct{}

func (noopUpgrader) Upgrade(context.Context, string) error { return nil }

func TestRunner_FreeInstall(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{}
	asker := &scriptedAsker{steps: []scriptStep{
		{screen: wizard.ScreenWelcome, choice: action(wizard.ActSetSoftware)},
		{screen: wizard.ScreenCPanel, choice: action(wizard.ActShow)},
		{screen: wizard.ScreenDB, values: dbValues, choice: choose(prompt.ChoiceSubmit)},
		{screen: wizard.ScreenAdmin, values: adminValues, choice: choose(prompt.ChoiceSubmit)},
		{screen: wizard.ScreenEmails, values: emailValues, choice: choose(prompt.ChoiceSubmit)},
		{screen: wizard.ScreenReady, choice: action(wizard.ActInstall)},
	}}
	r, out := newTestRunner(ft, asker, false)

	require.NoError(t, r.run(context.Background()))

	assert.Empty(t, asker.steps)
	assert.Equal(t, wizard.ScreenComplete, r.client.Machine().Current().ID)
	assert.Equal(t, []bool{false, true, true, true, true, true}, asker.backs())
	assert.Equal(t, 1, ft.count(envelope.ActionCheckDatabase))
	assert.Equal(t, 1, ft.count(envelope.ActionSubmitInstallForm))
	assert.Contains(t, out.String(), "| Chevereto installation")
	assert.Contains(t, out.String(), "Installation completed")
}

func TestRunner_FailedActionReasksScreen(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{failures: map[envelope.Action]int{envelope.ActionCheckDatabase: 1}}
	asker := &scriptedAsker{steps: []scriptStep{
		{screen: wizard.ScreenWelcome, choice: action(wizard.ActSetSoftware)},
		{screen: wizard.ScreenCPanel, choice: action(wizard.ActShow)},
		{screen: wizard.ScreenDB, values: dbValues, choice: choose(prompt.ChoiceSubmit)},
		{screen: wizard.ScreenDB, choice: choose(prompt.ChoiceQuit)},
	}}
	r, _ := newTestRunner(ft, asker, false)

	err := r.run(context.Background())

	require.ErrorIs(t, err, ErrAborted)
	assert.Equal(t, 1, ft.count(envelope.ActionCheckDatabase))
	assert.Zero(t, asker.leaves)
}

func TestRunner_BackReturnsToPreviousScreen(t *testing.T) {
	t.Parallel()

	asker := &scriptedAsker{steps: []scriptStep{
		{screen: wizard.ScreenWelcome, choice: action(wizard.ActSetSoftware)},
		{screen: wizard.ScreenCPanel, choice: choose(prompt.ChoiceBack)},
		{screen: wizard.ScreenWelcome, choice: choose(prompt.ChoiceQuit)},
	}}
	r, _ := newTestRunner(&fakeTransport{}, asker, false)

	require.ErrorIs(t, r.run(context.Background()), ErrAborted)
	assert.Equal(t, []wizard.ScreenID{wizard.ScreenWelcome, wizard.ScreenCPanel, wizard.ScreenWelcome}, asker.asked)
}

func TestRunner_ForwardResubmitsLeftScreen(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{}
	asker := &scriptedAsker{steps: []scriptStep{
		{screen: wizard.ScreenWelcome, choice: action(wizard.ActSetSoftware)},
		{screen: wizard.ScreenCPanel, choice: action(wizard.ActShow)},
		{screen: wizard.ScreenDB, values: dbValues, choice: choose(prompt.ChoiceSubmit)},
		{screen: wizard.ScreenAdmin, choice: choose(prompt.ChoiceBack)},
		{screen: wizard.ScreenDB, choice: choose(prompt.ChoiceForward)},
		{screen: wizard.ScreenAdmin, choice: choose(prompt.ChoiceQuit)},
	}}
	r, _ := newTestRunner(ft, asker, false)

	require.ErrorIs(t, r.run(context.Background()), ErrAborted)
	assert.Empty(t, asker.steps)
	assert.Equal(t, 2, ft.count(envelope.ActionCheckDatabase))
	assert.Equal(t, prompt.Nav{Back: true, Forward: true}, asker.navs[4])
	assert.False(t, asker.navs[5].Forward)
}

func TestRunner_InvalidForwardStaysOnScreen(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{}
	asker := &scriptedAsker{steps: []scriptStep{
		{screen: wizard.ScreenWelcome, choice: action(wizard.ActSetSoftware)},
		{screen: wizard.ScreenCPanel, choice: action(wizard.ActShow)},
		{screen: wizard.ScreenDB, values: dbValues, choice: choose(prompt.ChoiceSubmit)},
		{screen: wizard.ScreenAdmin, choice: choose(prompt.ChoiceBack)},
		{screen: wizard.ScreenDB, values: map[string]string{"dbName": ""}, choice: choose(prompt.ChoiceForward)},
		{screen: wizard.ScreenDB, choice: choose(prompt.ChoiceQuit)},
	}}
	r, _ := newTestRunner(ft, asker, false)

	require.ErrorIs(t, r.run(context.Background()), ErrAborted)
	assert.Empty(t, asker.steps)
	assert.Equal(t, 1, ft.count(envelope.ActionCheckDatabase))
}

func TestRunner_RequirementErrors(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{runtimeErrors: []string{"No write permission in /var/www/html"}}
	r, out := newTestRunner(ft, &scriptedAsker{}, false)

	err := r.run(context.Background())

	require.ErrorIs(t, err, client.ErrRequirements)
	assert.Contains(t, out.String(), "No write permission in /var/www/html")
}

func TestRunner_UpgradeContinues(t *testing.T) {
	t.Parallel()

	ft := &fakeTransport{}
	asker := &scriptedAsker{steps: []scriptStep{
		{screen: wizard.ScreenUpgrade, values: map[string]string{"upgradeKey": "key"}, choice: action(wizard.ActSetUpgrade)},
		{screen: wizard.ScreenReadyUpgrade, choice: action(wizard.ActUpgrade)},
		{screen: wizard.ScreenCompleteUpgrade, choice: action(wizard.ActContinueUpgrade)},
	}}
	r, out := newTestRunner(ft, asker, true)

	require.NoError(t, r.run(context.Background()))

	assert.Empty(t, asker.steps)
	assert.False(t, asker.navs[2].Back)
	assert.Zero(t, ft.count(envelope.ActionSubmitInstallForm))
	assert.Contains(t, out.String(), "Upgrade applied, open http://localhost/")
}

func TestReported(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"validation", &wizard.ValidationError{Control: "dbName"}, true},
		{"server failure", &transport.FailureError{Response: envelope.Fail(500, "boom")}, true},
		{"cancelled", context.Canceled, false},
		{"aborted", ErrAborted, false},
		{"unknown action", fmt.Errorf("%w: nope", client.ErrUnknownAction), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, reported(tt.err))
		})
	}
}

func TestUpgradeRequested(t *testing.T) {
	t.Parallel()

	assert.True(t, upgradeRequested("https://example.com/installer.php?UpgradeToPaid"))
	assert.True(t, upgradeRequested("https://example.com/?lang=en&upgradetopaid=1"))
	assert.False(t, upgradeRequested("https://example.com/installer.php"))
	assert.False(t, upgradeRequested("://bad"))
}
