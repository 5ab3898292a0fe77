package agent

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tmc/langchaingo/llms"
)

// LangChainRunner runs turns on any langchaingo model with function calling.
// The Gemini provider is served through it.
type LangChainRunner struct {
	llm       llms.Model
	model     string
	maxTokens int
	maxRounds int
}

// NewLangChainRunner creates a runner around llm. model is used for logging.
func NewLangChainRunner(llm llms.Model, model string, maxTokens, maxRounds int) *LangChainRunner {
	if maxRounds < 1 {
		maxRounds = 1
	}
	return &LangChainRunner{llm: llm, model: model, maxTokens: maxTokens, maxRounds: maxRounds}
}

// Model implements Runner.
func (r *LangChainRunner) Model() string { return r.model }

// Run implements Runner.
func (r *LangChainRunner) Run(ctx context.Context, turn Turn) (*Reply, error) {
	defs := make([]llms.Tool, len(turn.Tools))
	for i, t := range turn.Tools {
		defs[i] = llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		}
	}

	var msgs []llms.MessageContent
	if turn.System != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, turn.System))
	}
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, turn.Message))

	opts := []llms.CallOption{llms.WithTools(defs)}
	if r.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(r.maxTokens))
	}

	reply := &Reply{}
	for round := 0; round < r.maxRounds; round++ {
		resp, err := r.llm.GenerateContent(ctx, msgs, opts...)
		if err != nil {
			return nil, eris.Wrapf(err, "agent: round %d", round+1)
		}
		reply.Rounds++
		if len(resp.Choices) == 0 {
			return nil, eris.New("agent: model returned no choices")
		}

		choice := resp.Choices[0]
		if len(choice.ToolCalls) == 0 {
			reply.Text = choice.Content
			return reply, nil
		}

		assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			assistant.Parts = append(assistant.Parts, llms.TextContent{Text: choice.Content})
		}
		for _, tc := range choice.ToolCalls {
			assistant.Parts = append(assistant.Parts, tc)
		}
		msgs = append(msgs, assistant)

		for _, tc := range choice.ToolCalls {
			if tc.FunctionCall == nil {
				continue
			}
			content, _ := dispatch(ctx, turn, tc.FunctionCall.Name, tc.FunctionCall.Arguments)
			msgs = append(msgs, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: tc.ID,
					Name:       tc.FunctionCall.Name,
					Content:    content,
				}},
			})
			reply.ToolCalls++
		}
	}

	return nil, ErrTooManyRounds
}

// Complete implements Runner.
func (r *LangChainRunner) Complete(ctx context.Context, system, prompt string) (string, error) {
	var msgs []llms.MessageContent
	if system != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, system))
	}
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	var opts []llms.CallOption
	if r.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(r.maxTokens))
	}

	resp, err := r.llm.GenerateContent(ctx, msgs, opts...)
	if err != nil {
		return "", eris.Wrap(err, "agent: complete")
	}
	if len(resp.Choices) == 0 {
		return "", eris.New("agent: model returned no choices")
	}
	return resp.Choices[0].Content, nil
}
