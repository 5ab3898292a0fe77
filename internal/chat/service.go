// Package chat answers natural-language questions about a project's leads,
// either through tool calling or through a single prompt over the full
// lead context.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/agent"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/lead"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/leadtools"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/pkg/leadsapi"
)

// ErrEmptyMessage is returned when the user message or query is blank.
var ErrEmptyMessage = eris.New("chat: message must not be empty")

// RunnerSource supplies the LLM runner. *agent.Provider implements it.
type RunnerSource interface {
	Runner() (agent.Runner, error)
}

// ChatRequest is one tool-calling chat turn.
type ChatRequest struct {
	Scope   leadtools.Scope
	Message string
}

// ChatResponse echoes the message with the model's answer.
type ChatResponse struct {
	Message  string `json:"message" yaml:"message"`
	Response string `json:"response" yaml:"response"`
}

// QueryRequest is one legacy single-shot analysis.
type QueryRequest struct {
	Scope leadtools.Scope
	Query string
}

// QueryResponse echoes the query with the model's answer.
type QueryResponse struct {
	Query    string `json:"query" yaml:"query"`
	Response string `json:"response" yaml:"response"`
}

// Observer receives turn and tool outcomes, e.g. for metrics.
type Observer interface {
	TurnFinished(kind, outcome string, d time.Duration)
	ToolCalled(tool, outcome string)
}

// Option configures a Service.
type Option func(*Service)

// WithObserver registers o for turn and tool outcomes.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		s.observer = o
	}
}

// Service runs chat turns. It holds no per-turn state.
type Service struct {
	fetcher      leadsapi.Client
	runners      RunnerSource
	systemPrompt string
	observer     Observer
}

// NewService creates a Service.
func NewService(fetcher leadsapi.Client, runners RunnerSource, systemPrompt string, opts ...Option) *Service {
	s := &Service{fetcher: fetcher, runners: runners, systemPrompt: systemPrompt}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Chat binds the request's scope to a fresh Toolset, registers the lead
// tools with the model and returns its final answer.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (resp *ChatResponse, err error) {
	start := time.Now()
	defer func() { s.finish("chat", start, err) }()

	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}
	if err := req.Scope.Validate(); err != nil {
		return nil, err
	}

	runner, err := s.runners.Runner()
	if err != nil {
		return nil, err
	}

	turnID := uuid.NewString()
	opts := []leadtools.Option{leadtools.WithTurnID(turnID)}
	if s.observer != nil {
		opts = append(opts, leadtools.WithObserver(s.observer.ToolCalled))
	}
	toolset := leadtools.NewToolset(s.fetcher, req.Scope, opts...)

	var tools []agent.Tool
	for _, t := range toolset.Tools() {
		tools = append(tools, t)
	}

	log := zap.L().With(
		zap.String("turn_id", turnID),
		zap.String("organisation_id", req.Scope.OrganisationID),
		zap.String("project_id", req.Scope.ProjectID),
	)
	log.Info("chat: turn started", zap.String("model", runner.Model()))

	reply, err := runner.Run(ctx, agent.Turn{
		ID:      turnID,
		System:  s.systemPrompt,
		Message: req.Message,
		Tools:   tools,
	})
	if err != nil {
		log.Warn("chat: turn failed", zap.Error(err))
		return nil, err
	}

	log.Info("chat: turn finished",
		zap.Int("rounds", reply.Rounds),
		zap.Int("tool_calls", reply.ToolCalls),
		zap.Duration("duration", time.Since(start)),
	)
	return &ChatResponse{Message: req.Message, Response: reply.Text}, nil
}

// Query fetches the leads once, renders them as prompt context and asks the
// model a single question without tools.
func (s *Service) Query(ctx context.Context, req QueryRequest) (resp *QueryResponse, err error) {
	start := time.Now()
	defer func() { s.finish("query", start, err) }()

	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyMessage
	}
	if err := req.Scope.Validate(); err != nil {
		return nil, err
	}

	runner, err := s.runners.Runner()
	if err != nil {
		return nil, err
	}

	raw, err := s.fetcher.FetchLeads(ctx, leadsapi.FetchRequest{
		OrganisationID: req.Scope.OrganisationID,
		ProjectID:      req.Scope.ProjectID,
		AuthToken:      req.Scope.AuthToken,
		ClientID:       req.Scope.ClientID,
	})
	if err != nil {
		return nil, err
	}

	answer, err := runner.Complete(ctx, "", analysisPrompt(lead.FormatRaw(raw), req.Query))
	if err != nil {
		return nil, err
	}
	return &QueryResponse{Query: req.Query, Response: answer}, nil
}

func (s *Service) finish(kind string, start time.Time, err error) {
	if s.observer == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	s.observer.TurnFinished(kind, outcome, time.Since(start))
}
