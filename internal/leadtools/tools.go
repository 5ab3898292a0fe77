package leadtools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tmc/langchaingo/tools"
)

// Tool names as registered with LLM providers and the MCP server.
const (
	ToolGetLeads        = "get_leads"
	ToolGetLeadByStatus = "get_lead_by_status"
	ToolGetLeadBySource = "get_lead_by_source"
	ToolGetLeadStats    = "get_lead_stats"
)

// Param is a string parameter of a tool.
type Param struct {
	Name        string
	Description string
	Required    bool
}

// Spec describes a tool to a function-calling provider.
type Spec struct {
	Name        string
	Description string
	Params      []Param
}

// Schema returns the JSON schema of the tool's input object.
func (s Spec) Schema() map[string]any {
	props := map[string]any{}
	required := []string{}
	for _, p := range s.Params {
		props[p.Name] = map[string]any{
			"type":        "string",
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

var specs = []Spec{
	{
		Name:        ToolGetLeads,
		Description: "Get the total number of leads with counts per lead status and per lead source for the current organisation and project.",
	},
	{
		Name:        ToolGetLeadByStatus,
		Description: "Get the leads whose status matches the given status name (case-insensitive), with their count.",
		Params: []Param{
			{Name: "status", Description: "Lead status label, e.g. New or Qualified", Required: true},
		},
	},
	{
		Name:        ToolGetLeadBySource,
		Description: "Get the leads whose source matches the given source name (case-insensitive), with their count.",
		Params: []Param{
			{Name: "source", Description: "Lead source label, e.g. Website or Referral", Required: true},
		},
	},
	{
		Name:        ToolGetLeadStats,
		Description: "Get lead statistics: total leads and counts by status, by source and by assignee.",
	},
}

// Specs returns the four lead tools in registration order.
func Specs() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}

// Tool is one lead query bound to a Toolset. It satisfies tools.Tool.
type Tool struct {
	spec Spec
	ts   *Toolset
}

var _ tools.Tool = (*Tool)(nil)

// Tools returns the queries of t as callable tools.
func (t *Toolset) Tools() []*Tool {
	out := make([]*Tool, 0, len(specs))
	for _, s := range specs {
		out = append(out, &Tool{spec: s, ts: t})
	}
	return out
}

// LangChainTools returns the queries of t as langchaingo tools.
func (t *Toolset) LangChainTools() []tools.Tool {
	ts := t.Tools()
	out := make([]tools.Tool, len(ts))
	for i, tool := range ts {
		out[i] = tool
	}
	return out
}

// Name implements tools.Tool.
func (t *Tool) Name() string { return t.spec.Name }

// Description implements tools.Tool.
func (t *Tool) Description() string { return t.spec.Description }

// Parameters returns the JSON schema of the tool's input.
func (t *Tool) Parameters() map[string]any { return t.spec.Schema() }

// Call runs the query. input is a JSON object of arguments; a bare string is
// accepted as the value of a tool's single parameter. The result is JSON.
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	args, err := t.parseArgs(input)
	if err != nil {
		return "", err
	}

	var result any
	switch t.spec.Name {
	case ToolGetLeads:
		result, err = t.ts.ListSummary(ctx)
	case ToolGetLeadByStatus:
		result, err = t.ts.FilterByStatus(ctx, args["status"])
	case ToolGetLeadBySource:
		result, err = t.ts.FilterBySource(ctx, args["source"])
	case ToolGetLeadStats:
		result, err = t.ts.Stats(ctx)
	default:
		return "", eris.Errorf("leadtools: unknown tool %q", t.spec.Name)
	}
	if err != nil {
		return "", err
	}

	b, err := json.Marshal(result)
	if err != nil {
		return "", eris.Wrap(err, "leadtools: marshal result")
	}
	return string(b), nil
}

func (t *Tool) parseArgs(input string) (map[string]string, error) {
	args := map[string]string{}
	input = strings.TrimSpace(input)

	if input != "" && input != "null" {
		if strings.HasPrefix(input, "{") {
			var raw map[string]any
			if err := json.Unmarshal([]byte(input), &raw); err != nil {
				return nil, eris.Wrapf(err, "leadtools: %s: invalid arguments", t.spec.Name)
			}
			for k, v := range raw {
				if s, ok := v.(string); ok {
					args[k] = s
				}
			}
		} else if len(t.spec.Params) == 1 {
			args[t.spec.Params[0].Name] = strings.Trim(input, `"`)
		}
	}

	for _, p := range t.spec.Params {
		if p.Required && args[p.Name] == "" {
			return nil, eris.Errorf("leadtools: %s: missing required argument %q", t.spec.Name, p.Name)
		}
	}
	return args, nil
}

// ErrorJSON renders err as the {"error": ...} object handed back to an agent.
func ErrorJSON(err error) string {
	b, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(b)
}
