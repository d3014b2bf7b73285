package database

import (
	"fmt"
	"regexp"
	"strings"
)

// RequiredPrivileges must all be granted on the target schema.
var RequiredPrivileges = []string{"ALTER", "CREATE", "DELETE", "DROP", "INDEX", "INSERT", "SELECT", "TRIGGER", "UPDATE"}

const allPrivileges = "ALL PRIVILEGES"

var grantPattern = regexp.MustCompile(`^GRANT ([\w,\s]*) ON (.*)\.(.*) TO`)

// Grant is one parsed SHOW GRANTS line.
type Grant struct {
	Privileges []string
	// Schema is the schema name without quotes or escapes.
	Schema string
	// Pattern is the schema as granted, a LIKE pattern where % and _ are
	// wildcards unless escaped with a backslash.
	Pattern string
	Table   string
}

// ParseGrant parses a SHOW GRANTS line. Role grants and other statements that
// do not name privileges on an object return false.
func ParseGrant(line string) (Grant, bool) {
	m := grantPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Grant{}, false
	}
	var privs []string
	for _, p := range strings.Split(m[1], ",") {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			privs = append(privs, p)
		}
	}
	return Grant{
		Privileges: privs,
		Schema:     unquote(m[2]),
		Pattern:    stripQuotes(m[2]),
		Table:      unquote(m[3]),
	}, true
}

// AppliesTo reports whether the grant covers schema, matching the granted
// pattern the way MySQL matches schema names in grant tables.
func (g Grant) AppliesTo(schema string) bool {
	pattern := g.Pattern
	if pattern == "" {
		pattern = g.Schema
	}
	if pattern == "*" {
		return true
	}
	return likePattern(pattern).MatchString(schema)
}

// likePattern compiles a LIKE pattern into an anchored regular expression.
func likePattern(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			b.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			b.WriteString(".*")
		case r == '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	if escaped {
		b.WriteString(regexp.QuoteMeta(`\`))
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}

// MissingPrivileges returns the required privileges the grants do not give on
// schema, or nil when the user may install there.
func MissingPrivileges(grants []string, schema string) []string {
	held := map[string]bool{}
	for _, line := range grants {
		g, ok := ParseGrant(line)
		if !ok || !g.AppliesTo(schema) {
			continue
		}
		for _, p := range g.Privileges {
			if p == allPrivileges {
				return nil
			}
			held[p] = true
		}
	}

	var missing []string
	for _, p := range RequiredPrivileges {
		if !held[p] {
			missing = append(missing, p)
		}
	}
	return missing
}

// PrivilegeError reports missing privileges.
type PrivilegeError struct {
	User    string
	Schema  string
	Missing []string
}

func (e *PrivilegeError) Error() string {
	return fmt.Sprintf("Database user `%s` doesn't have %s privilege on the `%s` database.",
		e.User, strings.Join(e.Missing, ", "), e.Schema)
}

func stripQuotes(s string) string {
	return strings.NewReplacer("`", "", "'", "").Replace(s)
}

func unquote(s string) string {
	s = strings.ReplaceAll(s, `\`, "")
	return strings.NewReplacer("`", "", "'", "").Replace(s)
}
