package envelope

import "fmt"

// Action identifies one server-side operation.
type Action string

// Actions understood by the installer server.
const (
	ActionCheckLicense           Action = "checkLicense"
	ActionCPanelHtaccessHandlers Action = "cPanelHtaccessHandlers"
	ActionDownload               Action = "download"
	ActionExtract                Action = "extract"
	ActionCPanelProcess          Action = "cPanelProcess"
	ActionCheckDatabase          Action = "checkDatabase"
	ActionCreateSettings         Action = "createSettings"
	ActionSubmitInstallForm      Action = "submitInstallForm"
	ActionSelfDestruct           Action = "selfDestruct"
)

// Actions returns every known action in catalog order.
func Actions() []Action {
	return []Action{
		ActionCheckLicense,
		ActionCPanelHtaccessHandlers,
		ActionDownload,
		ActionExtract,
		ActionCPanelProcess,
		ActionCheckDatabase,
		ActionCreateSettings,
		ActionSubmitInstallForm,
		ActionSelfDestruct,
	}
}

// ParseAction maps a raw action name to a known Action.
// Unknown names are rejected with a 400 CodedError.
func ParseAction(name string) (Action, error) {
	for _, a := range Actions() {
		if string(a) == name {
			return a, nil
		}
	}
	if name == "" {
		return "", NewError(CodeBadRequest, "Missing action")
	}
	return "", NewError(CodeBadRequest, fmt.Sprintf("Invalid action %q", name))
}

// String implements fmt.Stringer.
func (a Action) String() string {
	return string(a)
}
