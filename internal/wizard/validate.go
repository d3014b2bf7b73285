package wizard

import (
	"regexp"
	"strconv"
	"strings"
)

// Messages reported by Control.Check.
const (
	ReasonRequired = "Please fill out this field."
	ReasonEmail    = "Please enter an email address."
	ReasonNumber   = "Please enter a number."
	ReasonPattern  = "Please match the requested format."
)

// Check applies the native constraints of c and returns the first violated
// one, or "". Empty optional controls pass.
func (c *Control) Check() string {
	if c.Value == "" {
		if c.Required {
			return ReasonRequired
		}
		return ""
	}
	switch c.Type {
	case TypeEmail:
		if !looksLikeEmail(c.Value) {
			return ReasonEmail
		}
	case TypeNumber:
		if _, err := strconv.ParseFloat(c.Value, 64); err != nil {
			return ReasonNumber
		}
	}
	if c.Pattern != "" && !matchesWhole(c.Pattern, c.Value) {
		return ReasonPattern
	}
	return ""
}

func looksLikeEmail(v string) bool {
	local, domain, ok := strings.Cut(v, "@")
	return ok && local != "" && domain != "" && !strings.ContainsAny(v, " \t\n") && !strings.Contains(domain, "@")
}

// matchesWhole matches pattern against the whole value. Patterns that do not
// compile are ignored.
func matchesWhole(pattern, value string) bool {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return true
	}
	return re.MatchString(value)
}
