package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/varun-vembar-tcgls/chatterist-sirrus/pkg/anthropic"
)

type mockAnthropic struct {
	mock.Mock
}

func (m *mockAnthropic) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func toolUseResponse(id, name, input string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		StopReason: "tool_use",
		Content: []anthropic.ContentBlock{
			{Type: "tool_use", ID: id, Name: name, Input: json.RawMessage(input)},
		},
	}
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		StopReason: "end_turn",
		Content:    []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

func TestAnthropicRunner_ToolRoundTrip(t *testing.T) {
	tool := &fakeTool{name: "get_lead_by_status", result: `{"status":"New","count":2,"leads":[]}`}
	m := &mockAnthropic{}

	first := m.On("CreateMessage", mock.Anything, mock.MatchedBy(func(r anthropic.MessageRequest) bool {
		return len(r.Messages) == 1
	})).Return(toolUseResponse("tu_1", "get_lead_by_status", `{"status":"New"}`), nil).Once()

	m.On("CreateMessage", mock.Anything, mock.MatchedBy(func(r anthropic.MessageRequest) bool {
		if len(r.Messages) != 3 {
			return false
		}
		assistant, results := r.Messages[1], r.Messages[2]
		return assistant.Role == "assistant" &&
			len(assistant.ToolUses) == 1 && assistant.ToolUses[0].ID == "tu_1" &&
			results.Role == "user" &&
			len(results.ToolResults) == 1 &&
			results.ToolResults[0].ToolUseID == "tu_1" &&
			!results.ToolResults[0].IsError &&
			results.ToolResults[0].Content == tool.result
	})).Return(textResponse("You have 2 new leads."), nil).Once().NotBefore(first)

	r := NewAnthropicRunner(m, "claude-sonnet-4-5-20250929", 1024, 4)
	reply, err := r.Run(context.Background(), Turn{
		ID:      "turn-1",
		System:  "system prompt",
		Message: "How many new leads?",
		Tools:   []Tool{tool},
	})
	require.NoError(t, err)
	assert.Equal(t, "You have 2 new leads.", reply.Text)
	assert.Equal(t, 2, reply.Rounds)
	assert.Equal(t, 1, reply.ToolCalls)
	assert.Equal(t, []string{`{"status":"New"}`}, tool.inputs)
	m.AssertExpectations(t)
}

func TestAnthropicRunner_RegistersToolsAndSystem(t *testing.T) {
	m := &mockAnthropic{}
	m.On("CreateMessage", mock.Anything, mock.MatchedBy(func(r anthropic.MessageRequest) bool {
		return r.System == "be brief" &&
			r.Model == "claude-sonnet-4-5-20250929" &&
			r.MaxTokens == 512 &&
			len(r.Tools) == 1 &&
			r.Tools[0].Name == "get_leads" &&
			r.Tools[0].InputSchema["type"] == "object"
	})).Return(textResponse("hi"), nil)

	r := NewAnthropicRunner(m, "claude-sonnet-4-5-20250929", 512, 2)
	reply, err := r.Run(context.Background(), Turn{System: "be brief", Message: "hello", Tools: []Tool{&fakeTool{name: "get_leads"}}})
	require.NoError(t, err)
	assert.Equal(t, "hi", reply.Text)
	assert.Zero(t, reply.ToolCalls)
}

func TestAnthropicRunner_ToolErrorIsReportedToModel(t *testing.T) {
	tool := &fakeTool{name: "get_leads", err: errors.New("tool context not initialized")}
	m := &mockAnthropic{}
	m.On("CreateMessage", mock.Anything, mock.MatchedBy(func(r anthropic.MessageRequest) bool {
		return len(r.Messages) == 1
	})).Return(toolUseResponse("tu_1", "get_leads", ``), nil).Once()
	m.On("CreateMessage", mock.Anything, mock.MatchedBy(func(r anthropic.MessageRequest) bool {
		if len(r.Messages) != 3 {
			return false
		}
		res := r.Messages[2].ToolResults[0]
		return res.IsError && res.Content == `{"error":"tool context not initialized"}`
	})).Return(textResponse("I could not load the leads."), nil).Once()

	r := NewAnthropicRunner(m, "m", 256, 3)
	reply, err := r.Run(context.Background(), Turn{Message: "count", Tools: []Tool{tool}})
	require.NoError(t, err)
	assert.Equal(t, "I could not load the leads.", reply.Text)
	assert.Equal(t, []string{"{}"}, tool.inputs)
}

func TestAnthropicRunner_TooManyRounds(t *testing.T) {
	m := &mockAnthropic{}
	m.On("CreateMessage", mock.Anything, mock.Anything).
		Return(toolUseResponse("tu", "get_leads", `{}`), nil)

	r := NewAnthropicRunner(m, "m", 256, 2)
	_, err := r.Run(context.Background(), Turn{Message: "loop", Tools: []Tool{&fakeTool{name: "get_leads", result: "{}"}}})
	assert.ErrorIs(t, err, ErrTooManyRounds)
	m.AssertNumberOfCalls(t, "CreateMessage", 2)
}

func TestAnthropicRunner_APIError(t *testing.T) {
	m := &mockAnthropic{}
	m.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("overloaded"))

	r := NewAnthropicRunner(m, "m", 256, 2)
	_, err := r.Run(context.Background(), Turn{Message: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
}

func TestAnthropicRunner_Complete(t *testing.T) {
	m := &mockAnthropic{}
	m.On("CreateMessage", mock.Anything, mock.MatchedBy(func(r anthropic.MessageRequest) bool {
		return len(r.Tools) == 0 && r.Messages[0].Text == "analyse" && r.System == "sys"
	})).Return(textResponse("analysis"), nil)

	r := NewAnthropicRunner(m, "m", 256, 2)
	out, err := r.Complete(context.Background(), "sys", "analyse")
	require.NoError(t, err)
	assert.Equal(t, "analysis", out)
	assert.Equal(t, "m", r.Model())
}
