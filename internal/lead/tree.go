package lead

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Unknown stands in for any lead field missing from the upstream payload.
const Unknown = "Unknown"

// Unassigned is the assignee of a lead with no first or last name.
const Unassigned = "Unassigned"

func present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}

// text resolves a dotted path under node to a string. Missing and null
// values yield def; non-string scalars and objects yield their raw JSON.
func text(node gjson.Result, path, def string) string {
	r := node.Get(path)
	if !present(r) {
		return def
	}
	if r.Type == gjson.String {
		return r.Str
	}
	return r.Raw
}

// assignee joins assigneeId.firstName and assigneeId.lastName.
func assignee(node gjson.Result) string {
	first := text(node, "assigneeId.firstName", "")
	last := text(node, "assigneeId.lastName", "")
	name := strings.TrimSpace(first + " " + last)
	if name == "" {
		return Unassigned
	}
	return name
}

func propensity(node gjson.Result) Propensity {
	r := node.Get("conversionPropensity.probability")
	if r.Type != gjson.Number {
		return Propensity{}
	}
	return KnownPropensity(r.Float())
}

func suggestiveAction(node gjson.Result) any {
	r := node.Get("suggestiveAction")
	if !present(r) {
		return Unknown
	}
	return r.Value()
}
