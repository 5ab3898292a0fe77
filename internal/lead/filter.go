package lead

import (
	"golang.org/x/text/cases"
)

// FilterByStatus returns the leads whose status equals status, ignoring case.
func (d *Dataset) FilterByStatus(status string) []Lead {
	return d.filter(status, func(l Lead) string { return l.Status })
}

// FilterBySource returns the leads whose source equals source, ignoring case.
func (d *Dataset) FilterBySource(source string) []Lead {
	return d.filter(source, func(l Lead) string { return l.SourceOfLead })
}

func (d *Dataset) filter(want string, field func(Lead) string) []Lead {
	out := []Lead{}
	if d == nil {
		return out
	}
	folder := cases.Fold()
	want = folder.String(want)
	for _, l := range d.Leads {
		if folder.String(field(l)) == want {
			out = append(out, l)
		}
	}
	return out
}
