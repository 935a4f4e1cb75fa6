// Package vars builds the variable context: merging layered sources,
// parsing command-line defines, validating identifiers and assembling
// the builtin context values.
package vars

import (
	"reflect"
	"sort"

	"github.com/tplforge/tplforge/pkg/report"
	"github.com/tplforge/tplforge/pkg/types"
)

// Merge folds incoming into base and returns the merged mapping. Neither
// input is modified. When both sides hold a mapping under the same key the
// merge recurses; any other collision with a differing value lets incoming
// win and records a warning of the form
//
//	Variable '<path>' got overwritten from '<old>' to '<new>'<label>.
//
// prefix is the dotted path of the mapping being merged ("" at the root)
// and label names the source of incoming, e.g. " while loading 'x.yml'".
// Keys are visited in sorted order so warning order is deterministic.
func Merge(base, incoming map[string]any, prefix, label string, rep *report.Reporter) map[string]any {
	merged := make(map[string]any, len(base)+len(incoming))
	for k, v := range base {
		merged[k] = v
	}

	keys := make([]string, 0, len(incoming))
	for k := range incoming {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val := incoming[key]
		old, exists := merged[key]
		if !exists || reflect.DeepEqual(old, val) {
			merged[key] = val
			continue
		}
		if types.KindOf(old) == types.KindMapping && types.KindOf(val) == types.KindMapping {
			merged[key] = Merge(old.(map[string]any), val.(map[string]any), prefix+key+".", label, rep)
			continue
		}
		merged[key] = val
		if rep != nil {
			rep.Warnf("Variable '%s%s' got overwritten from '%v' to '%v'%s.", prefix, key, old, val, label)
		}
	}
	return merged
}
