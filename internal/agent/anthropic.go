package agent

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/varun-vembar-tcgls/chatterist-sirrus/pkg/anthropic"
)

// AnthropicRunner runs turns on the Anthropic Messages API.
type AnthropicRunner struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	maxRounds int
}

// NewAnthropicRunner creates a runner. maxRounds bounds the number of model
// calls per turn.
func NewAnthropicRunner(client anthropic.Client, model string, maxTokens, maxRounds int) *AnthropicRunner {
	if maxRounds < 1 {
		maxRounds = 1
	}
	return &AnthropicRunner{
		client:    client,
		model:     model,
		maxTokens: int64(maxTokens),
		maxRounds: maxRounds,
	}
}

// Model implements Runner.
func (r *AnthropicRunner) Model() string { return r.model }

// Run implements Runner.
func (r *AnthropicRunner) Run(ctx context.Context, turn Turn) (*Reply, error) {
	tools := make([]anthropic.Tool, len(turn.Tools))
	for i, t := range turn.Tools {
		tools[i] = anthropic.Tool{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.Parameters(),
		}
	}

	msgs := []anthropic.Message{{Role: "user", Text: turn.Message}}
	reply := &Reply{}
	var usage anthropic.TokenUsage

	for round := 0; round < r.maxRounds; round++ {
		resp, err := r.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     r.model,
			MaxTokens: r.maxTokens,
			System:    turn.System,
			Messages:  msgs,
			Tools:     tools,
		})
		if err != nil {
			return nil, eris.Wrapf(err, "agent: round %d", round+1)
		}
		reply.Rounds++
		usage.Add(resp.Usage)

		uses := resp.ToolUses()
		if len(uses) == 0 {
			usage.LogCost(r.model, turn.ID)
			reply.Text = resp.Text()
			return reply, nil
		}

		msgs = append(msgs, anthropic.Message{Role: "assistant", Text: resp.Text(), ToolUses: uses})

		results := make([]anthropic.ToolResult, len(uses))
		for i, u := range uses {
			content, isErr := dispatch(ctx, turn, u.Name, inputString(u.Input))
			results[i] = anthropic.ToolResult{ToolUseID: u.ID, Content: content, IsError: isErr}
			reply.ToolCalls++
		}
		msgs = append(msgs, anthropic.Message{Role: "user", ToolResults: results})
	}

	usage.LogCost(r.model, turn.ID)
	return nil, ErrTooManyRounds
}

// Complete implements Runner.
func (r *AnthropicRunner) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := r.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     r.model,
		MaxTokens: r.maxTokens,
		System:    system,
		Messages:  []anthropic.Message{{Role: "user", Text: prompt}},
	})
	if err != nil {
		return "", eris.Wrap(err, "agent: complete")
	}
	resp.Usage.LogCost(r.model, "")
	return resp.Text(), nil
}

func inputString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}
