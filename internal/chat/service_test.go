package chat

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/agent"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/leadtools"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/pkg/leadsapi"
)

const payload = `{"data":{"items":[{"leadStatus":"S1","items":[
	{"leadId":"L1","leadStatus":{"labelName":"New"},"profile":{"fullName":"Jane","sourceOfLead":{"labelName":"Web"}}}
]}]}}`

var scope = leadtools.Scope{OrganisationID: "org", ProjectID: "proj", AuthToken: "tok", ClientID: "WEB"}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchLeads(ctx context.Context, req leadsapi.FetchRequest) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

// toolCallingRunner invokes every registered tool once and answers with
// the concatenated results.
type toolCallingRunner struct {
	mu        sync.Mutex
	turns     []agent.Turn
	completes []string
	answer    string
	err       error
}

func (r *toolCallingRunner) Run(ctx context.Context, turn agent.Turn) (*agent.Reply, error) {
	r.mu.Lock()
	r.turns = append(r.turns, turn)
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	calls := 0
	for _, t := range turn.Tools {
		if t.Name() != leadtools.ToolGetLeads {
			continue
		}
		out, err := t.Call(ctx, "{}")
		if err != nil {
			return nil, err
		}
		calls++
		r.answer = out
	}
	return &agent.Reply{Text: r.answer, Rounds: 2, ToolCalls: calls}, nil
}

func (r *toolCallingRunner) Complete(_ context.Context, _, prompt string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completes = append(r.completes, prompt)
	if r.err != nil {
		return "", r.err
	}
	return "analysis", nil
}

func (r *toolCallingRunner) Model() string { return "test-model" }

type staticSource struct {
	runner agent.Runner
	err    error
}

func (s staticSource) Runner() (agent.Runner, error) { return s.runner, s.err }

type recordingObserver struct {
	mu    sync.Mutex
	turns []string
	tools []string
}

func (o *recordingObserver) TurnFinished(kind, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.turns = append(o.turns, kind+":"+outcome)
}

func (o *recordingObserver) ToolCalled(tool, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tools = append(o.tools, tool+":"+outcome)
}

func wantFetch() leadsapi.FetchRequest {
	return leadsapi.FetchRequest{OrganisationID: "org", ProjectID: "proj", AuthToken: "tok", ClientID: "WEB"}
}

func TestChat_RunsToolsAgainstScope(t *testing.T) {
	f := &mockFetcher{}
	f.On("FetchLeads", mock.Anything, wantFetch()).Return(json.RawMessage(payload), nil).Once()
	r := &toolCallingRunner{}
	obs := &recordingObserver{}
	svc := NewService(f, staticSource{runner: r}, "system prompt", WithObserver(obs))

	resp, err := svc.Chat(context.Background(), ChatRequest{Scope: scope, Message: "How many leads?"})
	require.NoError(t, err)
	assert.Equal(t, "How many leads?", resp.Message)
	assert.JSONEq(t, `{"total_leads":1,"lead_status_summary":{"New":1},"lead_sources":{"Web":1}}`, resp.Response)

	require.Len(t, r.turns, 1)
	turn := r.turns[0]
	assert.NotEmpty(t, turn.ID)
	assert.Equal(t, "system prompt", turn.System)
	assert.Equal(t, "How many leads?", turn.Message)
	assert.Len(t, turn.Tools, 4)

	assert.Equal(t, []string{"chat:ok"}, obs.turns)
	assert.Equal(t, []string{"get_leads:ok"}, obs.tools)
	f.AssertExpectations(t)
}

func TestChat_FreshTurnIDs(t *testing.T) {
	f := &mockFetcher{}
	f.On("FetchLeads", mock.Anything, mock.Anything).Return(json.RawMessage(payload), nil)
	r := &toolCallingRunner{}
	svc := NewService(f, staticSource{runner: r}, "")

	for i := 0; i < 2; i++ {
		_, err := svc.Chat(context.Background(), ChatRequest{Scope: scope, Message: "hi"})
		require.NoError(t, err)
	}
	require.Len(t, r.turns, 2)
	assert.NotEqual(t, r.turns[0].ID, r.turns[1].ID)
}

func TestChat_Rejections(t *testing.T) {
	f := &mockFetcher{}
	r := &toolCallingRunner{}
	cfgErr := &agent.ConfigError{Key: "llm.gemini_api_key", Reason: "not configured"}

	tests := []struct {
		name    string
		source  RunnerSource
		req     ChatRequest
		wantErr error
	}{
		{"blank_message", staticSource{runner: r}, ChatRequest{Scope: scope, Message: "  "}, ErrEmptyMessage},
		{"missing_scope", staticSource{runner: r}, ChatRequest{Scope: leadtools.Scope{ProjectID: "p"}, Message: "hi"}, leadtools.ErrContextNotInitialized},
		{"unconfigured_llm", staticSource{err: cfgErr}, ChatRequest{Scope: scope, Message: "hi"}, cfgErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &recordingObserver{}
			svc := NewService(f, tt.source, "", WithObserver(obs))
			_, err := svc.Chat(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, []string{"chat:error"}, obs.turns)
		})
	}
	assert.Empty(t, r.turns)
	f.AssertNotCalled(t, "FetchLeads", mock.Anything, mock.Anything)
}

func TestChat_RunnerError(t *testing.T) {
	r := &toolCallingRunner{err: errors.New("model unavailable")}
	svc := NewService(&mockFetcher{}, staticSource{runner: r}, "")

	_, err := svc.Chat(context.Background(), ChatRequest{Scope: scope, Message: "hi"})
	require.EqualError(t, err, "model unavailable")
}

func TestQuery(t *testing.T) {
	f := &mockFetcher{}
	f.On("FetchLeads", mock.Anything, wantFetch()).Return(json.RawMessage(payload), nil).Once()
	r := &toolCallingRunner{}
	obs := &recordingObserver{}
	svc := NewService(f, staticSource{runner: r}, "", WithObserver(obs))

	resp, err := svc.Query(context.Background(), QueryRequest{Scope: scope, Query: "Who is new?"})
	require.NoError(t, err)
	assert.Equal(t, &QueryResponse{Query: "Who is new?", Response: "analysis"}, resp)

	require.Len(t, r.completes, 1)
	prompt := r.completes[0]
	assert.Contains(t, prompt, "--- LEADS DATA ---\nLead Status Summary:")
	assert.Contains(t, prompt, "Total Leads: 1")
	assert.Contains(t, prompt, "fullName: Jane")
	assert.Contains(t, prompt, "--- USER QUERY ---\nWho is new?")
	assert.Equal(t, []string{"query:ok"}, obs.turns)
	f.AssertExpectations(t)
}

func TestQuery_UnusablePayload(t *testing.T) {
	f := &mockFetcher{}
	f.On("FetchLeads", mock.Anything, mock.Anything).Return(json.RawMessage(`{"message":"nope"}`), nil)
	r := &toolCallingRunner{}
	svc := NewService(f, staticSource{runner: r}, "")

	_, err := svc.Query(context.Background(), QueryRequest{Scope: scope, Query: "anything"})
	require.NoError(t, err)
	require.Len(t, r.completes, 1)
	assert.Contains(t, r.completes[0], "No leads data available.")
}

func TestQuery_FetchError(t *testing.T) {
	upstream := &leadsapi.UpstreamError{StatusCode: 404, Body: "missing"}
	f := &mockFetcher{}
	f.On("FetchLeads", mock.Anything, mock.Anything).Return(nil, upstream)
	r := &toolCallingRunner{}
	svc := NewService(f, staticSource{runner: r}, "")

	_, err := svc.Query(context.Background(), QueryRequest{Scope: scope, Query: "anything"})
	ue, ok := leadsapi.IsUpstreamError(err)
	require.True(t, ok)
	assert.Equal(t, 404, ue.StatusCode)
	assert.Empty(t, r.completes)
}

func TestQuery_BlankQuery(t *testing.T) {
	svc := NewService(&mockFetcher{}, staticSource{runner: &toolCallingRunner{}}, "")
	_, err := svc.Query(context.Background(), QueryRequest{Scope: scope, Query: ""})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestLoadSystemPrompt(t *testing.T) {
	def, err := LoadSystemPrompt("")
	require.NoError(t, err)
	assert.Contains(t, def, "get_lead_by_status")

	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("custom"), 0o600))
	got, err := LoadSystemPrompt(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", got)

	_, err = LoadSystemPrompt(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
