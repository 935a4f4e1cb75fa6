package vars

import (
	"regexp"
	"sort"
	"strings"

	"github.com/tplforge/tplforge/pkg/report"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CheckIdentifiers walks a freshly loaded variable mapping and warns
// about every key, at any depth, that is not a valid identifier. With
// fix set, offending keys are renamed to a sanitized form so templates
// can still reach the value. The input is not modified; the returned
// mapping reflects any renames. source names where the variables came
// from and appears in the warnings.
func CheckIdentifiers(in map[string]any, source string, fix bool, rep *report.Reporter) map[string]any {
	return checkScope(in, "", source, fix, rep)
}

func checkScope(in map[string]any, scope, source string, fix bool, rep *report.Reporter) map[string]any {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(in))
	for _, key := range keys {
		val := in[key]
		if nested, ok := val.(map[string]any); ok {
			val = checkScope(nested, scope+key+".", source, fix, rep)
		}

		if identPattern.MatchString(key) {
			out[key] = val
			continue
		}

		if !fix {
			rep.Warnf("Variable name '%s%s' loaded from %s is not a valid identifier.", scope, key, source)
			out[key] = val
			continue
		}

		fixed := sanitizeIdentifier(key)
		rep.Warnf("Variable name '%s%s' loaded from %s is not a valid identifier, replaced by '%s%s'.",
			scope, key, source, scope, fixed)
		out[fixed] = val
	}
	return out
}

// sanitizeIdentifier rewrites key into a valid identifier: every
// invalid rune becomes '_' and a leading digit gets a '_' prefix.
func sanitizeIdentifier(key string) string {
	var b strings.Builder
	for i, r := range key {
		valid := r == '_' ||
			(r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9')
		if !valid {
			b.WriteByte('_')
			continue
		}
		if i == 0 && r >= '0' && r <= '9' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
