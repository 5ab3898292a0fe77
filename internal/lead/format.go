package lead

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NoData is the context text for a payload that cannot be normalized.
const NoData = "No leads data available."

// FormatContext renders d as plain text for an LLM prompt: the status
// summary, the total, then one block of key: value lines per lead. The
// output is not truncated.
func FormatContext(d *Dataset) string {
	if d == nil {
		return NoData
	}

	summary, err := json.MarshalIndent(d.LeadStatusSummary, "", "  ")
	if err != nil {
		summary = []byte("{}")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Lead Status Summary: %s\n\n", summary)
	fmt.Fprintf(&b, "Total Leads: %d\n\n", d.TotalLeads)
	b.WriteString("Lead Details:\n")
	for i, l := range d.Leads {
		fmt.Fprintf(&b, "Lead %d:\n", i+1)
		for _, f := range l.fields() {
			fmt.Fprintf(&b, "  %s: %s\n", f[0], f[1])
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatRaw normalizes raw and renders it with FormatContext, or returns
// NoData when raw has no usable root.
func FormatRaw(raw []byte) string {
	d, err := Normalize(raw)
	if err != nil {
		return NoData
	}
	return FormatContext(d)
}

func (l Lead) fields() [][2]string {
	return [][2]string{
		{"leadId", l.LeadID},
		{"status", l.Status},
		{"fullName", l.FullName},
		{"sourceOfLead", l.SourceOfLead},
		{"subSourceOfLead", l.SubSourceOfLead},
		{"assignee", l.Assignee},
		{"createdAt", l.CreatedAt},
		{"updatedAt", l.UpdatedAt},
		{"conversionPropensity", l.ConversionPropensity.String()},
		{"suggestiveAction", display(l.SuggestiveAction)},
	}
}

func display(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
