package main

import (
	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/agent"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/chat"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/config"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/metrics"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/pkg/leadsapi"
)

// newLeadsClient builds the upstream client from config. m may be nil.
func newLeadsClient(c *config.Config, m *metrics.Metrics) leadsapi.Client {
	opts := []leadsapi.Option{
		leadsapi.WithBaseURL(c.Leads.BaseURL),
		leadsapi.WithClientID(c.Leads.ClientID),
		leadsapi.WithQuery(c.Leads.GroupBy, c.Leads.MapRelatedEntities, c.Leads.Limit),
		leadsapi.WithTimeout(c.Leads.Timeout()),
		leadsapi.WithMaxAttempts(c.Leads.MaxAttempts),
		leadsapi.WithRateLimit(c.Leads.RateLimit, 1),
	}
	if m != nil {
		opts = append(opts, leadsapi.WithObserver(m.ObserveFetch))
	}
	return leadsapi.NewClient(c.Leads.BearerToken, opts...)
}

// newChatService wires the chat service to the configured model. The model
// client is built on first use.
func newChatService(c *config.Config, fetcher leadsapi.Client, m *metrics.Metrics) (*chat.Service, error) {
	prompt, err := chat.LoadSystemPrompt(c.LLM.SystemPromptPath)
	if err != nil {
		return nil, err
	}
	var opts []chat.Option
	if m != nil {
		opts = append(opts, chat.WithObserver(m))
	}
	return chat.NewService(fetcher, agent.NewProvider(c.LLM, nil), prompt, opts...), nil
}
