package envelope

import (
	"fmt"
	"strings"
)

// Params holds the handler-specific parameters of a request.
type Params map[string]string

// Get returns the value of name, or "".
func (p Params) Get(name string) string {
	return p[name]
}

// Require fails with a 400 CodedError naming every missing parameter.
func (p Params) Require(names ...string) error {
	var missing []string
	for _, name := range names {
		if strings.TrimSpace(p[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return NewError(CodeBadRequest, fmt.Sprintf("Missing %s parameter", strings.Join(missing, ", ")))
}
