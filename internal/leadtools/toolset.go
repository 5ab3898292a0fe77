package leadtools

import (
	"context"

	"go.uber.org/zap"

	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/lead"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/pkg/leadsapi"
)

// Summary is the result of get_leads.
type Summary struct {
	TotalLeads        int          `json:"total_leads" yaml:"total_leads"`
	LeadStatusSummary *lead.Counts `json:"lead_status_summary" yaml:"lead_status_summary"`
	LeadSources       *lead.Counts `json:"lead_sources" yaml:"lead_sources"`
}

// StatusMatch is the result of get_lead_by_status.
type StatusMatch struct {
	Status string      `json:"status" yaml:"status"`
	Count  int         `json:"count" yaml:"count"`
	Leads  []lead.Lead `json:"leads" yaml:"leads"`
}

// SourceMatch is the result of get_lead_by_source.
type SourceMatch struct {
	Source string      `json:"source" yaml:"source"`
	Count  int         `json:"count" yaml:"count"`
	Leads  []lead.Lead `json:"leads" yaml:"leads"`
}

// Stats is the result of get_lead_stats.
type Stats struct {
	TotalLeads int          `json:"total_leads" yaml:"total_leads"`
	ByStatus   *lead.Counts `json:"by_status" yaml:"by_status"`
	BySource   *lead.Counts `json:"by_source" yaml:"by_source"`
	ByAssignee *lead.Counts `json:"by_assignee" yaml:"by_assignee"`
}

// Option configures a Toolset.
type Option func(*Toolset)

// WithObserver registers a callback run after every query with the tool name
// and "ok" or "error".
func WithObserver(fn func(tool, outcome string)) Option {
	return func(t *Toolset) {
		t.observe = fn
	}
}

// WithTurnID tags query logs with the chat turn they belong to.
func WithTurnID(id string) Option {
	return func(t *Toolset) {
		t.turnID = id
	}
}

// Toolset runs the lead queries for one Scope. Each query fetches and
// normalizes the leads again; nothing is cached between calls.
type Toolset struct {
	fetcher leadsapi.Client
	scope   Scope
	turnID  string
	observe func(tool, outcome string)
}

// NewToolset binds the queries to scope.
func NewToolset(fetcher leadsapi.Client, scope Scope, opts ...Option) *Toolset {
	t := &Toolset{fetcher: fetcher, scope: scope}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Scope returns the binding the queries run against.
func (t *Toolset) Scope() Scope {
	return t.scope
}

// ListSummary returns the total, status counts and source counts.
func (t *Toolset) ListSummary(ctx context.Context) (*Summary, error) {
	ds, err := t.dataset(ctx, ToolGetLeads)
	if err != nil {
		return nil, err
	}
	return &Summary{
		TotalLeads:        ds.TotalLeads,
		LeadStatusSummary: ds.LeadStatusSummary,
		LeadSources:       ds.LeadSources,
	}, nil
}

// FilterByStatus returns the leads whose status matches status, ignoring case.
func (t *Toolset) FilterByStatus(ctx context.Context, status string) (*StatusMatch, error) {
	ds, err := t.dataset(ctx, ToolGetLeadByStatus)
	if err != nil {
		return nil, err
	}
	leads := ds.FilterByStatus(status)
	return &StatusMatch{Status: status, Count: len(leads), Leads: leads}, nil
}

// FilterBySource returns the leads whose source matches source, ignoring case.
func (t *Toolset) FilterBySource(ctx context.Context, source string) (*SourceMatch, error) {
	ds, err := t.dataset(ctx, ToolGetLeadBySource)
	if err != nil {
		return nil, err
	}
	leads := ds.FilterBySource(source)
	return &SourceMatch{Source: source, Count: len(leads), Leads: leads}, nil
}

// Stats returns every aggregate of the dataset.
func (t *Toolset) Stats(ctx context.Context) (*Stats, error) {
	ds, err := t.dataset(ctx, ToolGetLeadStats)
	if err != nil {
		return nil, err
	}
	return &Stats{
		TotalLeads: ds.TotalLeads,
		ByStatus:   ds.LeadStatusSummary,
		BySource:   ds.LeadSources,
		ByAssignee: ds.LeadsByAssignee,
	}, nil
}

func (t *Toolset) dataset(ctx context.Context, tool string) (*lead.Dataset, error) {
	ds, err := t.load(ctx)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	if t.observe != nil {
		t.observe(tool, outcome)
	}

	log := zap.L().With(
		zap.String("tool", tool),
		zap.String("organisation_id", t.scope.OrganisationID),
		zap.String("project_id", t.scope.ProjectID),
	)
	if t.turnID != "" {
		log = log.With(zap.String("turn_id", t.turnID))
	}
	if err != nil {
		log.Warn("leadtools: query failed", zap.Error(err))
		return nil, err
	}
	log.Debug("leadtools: query served", zap.Int("total_leads", ds.TotalLeads))
	return ds, nil
}

func (t *Toolset) load(ctx context.Context) (*lead.Dataset, error) {
	if err := t.scope.Validate(); err != nil {
		return nil, err
	}
	raw, err := t.fetcher.FetchLeads(ctx, t.scope.fetchRequest())
	if err != nil {
		return nil, err
	}
	return lead.Normalize(raw)
}
