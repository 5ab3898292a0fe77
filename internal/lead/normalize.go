// Package lead flattens status-grouped upstream lead payloads into lead
// records plus status, source and assignee counts.
package lead

import (
	"github.com/tidwall/gjson"
)

// ShapeError reports a payload whose root cannot be normalized.
type ShapeError struct {
	Reason string
}

func (e *ShapeError) Error() string {
	return "lead: malformed payload: " + e.Reason
}

// Normalize walks raw in group order, then lead order, and builds a Dataset.
// Missing or null lead fields resolve to Unknown. It fails with *ShapeError
// only when the root is not a non-empty JSON object with a data key.
func Normalize(raw []byte) (*Dataset, error) {
	if !gjson.ValidBytes(raw) {
		return nil, &ShapeError{Reason: "payload is not valid JSON"}
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, &ShapeError{Reason: "payload root is not an object"}
	}
	data := root.Get("data")
	if !data.Exists() {
		return nil, &ShapeError{Reason: "no leads data available"}
	}

	ds := newDataset()
	groups := data.Get("items")
	if !groups.IsArray() {
		return ds, nil
	}
	groups.ForEach(func(_, group gjson.Result) bool {
		ds.addGroup(group)
		return true
	})
	return ds, nil
}

func (d *Dataset) addGroup(group gjson.Result) {
	var members []gjson.Result
	if items := group.Get("items"); items.IsArray() {
		members = items.Array()
	}

	// The group's label comes from its first lead only.
	label := Unknown
	if len(members) > 0 {
		label = text(members[0], "leadStatus.labelName", Unknown)
	}

	d.LeadStatusSummary.Add(label, len(members))
	d.TotalLeads += len(members)

	for _, m := range members {
		d.addLead(label, m)
	}
}

func (d *Dataset) addLead(status string, node gjson.Result) {
	l := Lead{
		LeadID:               text(node, "leadId", Unknown),
		Status:               status,
		FullName:             text(node, "profile.fullName", Unknown),
		SourceOfLead:         text(node, "profile.sourceOfLead.labelName", Unknown),
		SubSourceOfLead:      text(node, "profile.subSourceOfLead.labelName", Unknown),
		Assignee:             assignee(node),
		CreatedAt:            text(node, "createdAt", Unknown),
		UpdatedAt:            text(node, "updatedAt", Unknown),
		ConversionPropensity: propensity(node),
		SuggestiveAction:     suggestiveAction(node),
	}

	d.LeadSources.Add(l.SourceOfLead, 1)
	d.LeadsByAssignee.Add(l.Assignee, 1)
	d.Leads = append(d.Leads, l)
}
