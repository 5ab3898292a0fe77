package lead

import (
	"encoding/json"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Lead is one flattened upstream lead.
type Lead struct {
	LeadID               string     `json:"leadId" yaml:"leadId"`
	Status               string     `json:"status" yaml:"status"`
	FullName             string     `json:"fullName" yaml:"fullName"`
	SourceOfLead         string     `json:"sourceOfLead" yaml:"sourceOfLead"`
	SubSourceOfLead      string     `json:"subSourceOfLead" yaml:"subSourceOfLead"`
	Assignee             string     `json:"assignee" yaml:"assignee"`
	CreatedAt            string     `json:"createdAt" yaml:"createdAt"`
	UpdatedAt            string     `json:"updatedAt" yaml:"updatedAt"`
	ConversionPropensity Propensity `json:"conversionPropensity" yaml:"conversionPropensity"`
	// SuggestiveAction is passed through as decoded JSON, or Unknown.
	SuggestiveAction any `json:"suggestiveAction" yaml:"suggestiveAction"`
}

// Propensity is a conversion probability that may be unknown. It encodes as
// a JSON number when known and as "Unknown" otherwise.
type Propensity struct {
	value float64
	known bool
}

// KnownPropensity returns a propensity holding p.
func KnownPropensity(p float64) Propensity {
	return Propensity{value: p, known: true}
}

// Value returns the probability and whether it is known.
func (p Propensity) Value() (float64, bool) {
	return p.value, p.known
}

func (p Propensity) String() string {
	if !p.known {
		return Unknown
	}
	return strconv.FormatFloat(p.value, 'f', -1, 64)
}

// MarshalJSON implements json.Marshaler.
func (p Propensity) MarshalJSON() ([]byte, error) {
	if !p.known {
		return json.Marshal(Unknown)
	}
	return json.Marshal(p.value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Propensity) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		*p = Propensity{}
		return nil
	}
	*p = KnownPropensity(f)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (p Propensity) MarshalYAML() (any, error) {
	if !p.known {
		return Unknown, nil
	}
	return p.value, nil
}

// Counts maps labels to counts, keeping keys in first-seen order.
type Counts struct {
	m *orderedmap.OrderedMap[string, int]
}

// NewCounts returns an empty Counts.
func NewCounts() *Counts {
	return &Counts{m: orderedmap.New[string, int]()}
}

// Add increments key by n, inserting it at the end if unseen.
func (c *Counts) Add(key string, n int) {
	cur, _ := c.m.Get(key)
	c.m.Set(key, cur+n)
}

// Get returns the count for key, or 0.
func (c *Counts) Get(key string) int {
	if c == nil || c.m == nil {
		return 0
	}
	v, _ := c.m.Get(key)
	return v
}

// Len returns the number of distinct keys.
func (c *Counts) Len() int {
	if c == nil || c.m == nil {
		return 0
	}
	return c.m.Len()
}

// Keys returns the keys in first-seen order.
func (c *Counts) Keys() []string {
	keys := make([]string, 0, c.Len())
	if c.Len() == 0 {
		return keys
	}
	for pair := c.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// MarshalJSON implements json.Marshaler, preserving key order.
func (c *Counts) MarshalJSON() ([]byte, error) {
	if c == nil || c.m == nil {
		return []byte("{}"), nil
	}
	return c.m.MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler, preserving key order.
func (c *Counts) UnmarshalJSON(b []byte) error {
	if c.m == nil {
		c.m = orderedmap.New[string, int]()
	}
	return c.m.UnmarshalJSON(b)
}

// MarshalYAML implements yaml.Marshaler, preserving key order.
func (c *Counts) MarshalYAML() (any, error) {
	if c == nil || c.m == nil {
		return map[string]int{}, nil
	}
	return c.m.MarshalYAML()
}

// Dataset is the normalized form of one upstream payload. It is built once by
// Normalize and not modified afterwards.
type Dataset struct {
	TotalLeads        int     `json:"total_leads" yaml:"total_leads"`
	LeadStatusSummary *Counts `json:"lead_status_summary" yaml:"lead_status_summary"`
	LeadSources       *Counts `json:"lead_sources" yaml:"lead_sources"`
	LeadsByAssignee   *Counts `json:"leads_by_assignee" yaml:"leads_by_assignee"`
	Leads             []Lead  `json:"leads" yaml:"leads"`
}

func newDataset() *Dataset {
	return &Dataset{
		LeadStatusSummary: NewCounts(),
		LeadSources:       NewCounts(),
		LeadsByAssignee:   NewCounts(),
		Leads:             []Lead{},
	}
}
