// Package agent runs chat turns against an LLM provider, answering the
// model's function calls with host tools until it produces a final reply.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrTooManyRounds is returned when the model keeps calling tools past the
// configured round limit.
var ErrTooManyRounds = eris.New("agent: tool round limit reached without a final answer")

// ConfigError reports a missing or invalid LLM setting. It surfaces as
// "service unavailable" at the HTTP boundary.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("agent: %s: %s", e.Key, e.Reason)
}

// Tool is a host function the model may call. Call receives the model's
// JSON arguments and returns a JSON result.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Call(ctx context.Context, input string) (string, error)
}

// Turn is one user message plus the tools available while answering it.
type Turn struct {
	ID      string
	System  string
	Message string
	Tools   []Tool
}

// Reply is the model's final answer to a Turn.
type Reply struct {
	Text      string
	Rounds    int
	ToolCalls int
}

// Runner answers turns with a specific provider.
type Runner interface {
	// Run answers turn, executing tool calls between model rounds.
	Run(ctx context.Context, turn Turn) (*Reply, error)
	// Complete sends a single prompt without tools.
	Complete(ctx context.Context, system, prompt string) (string, error)
	// Model returns the model identifier in use.
	Model() string
}

// dispatch runs the named tool. Failures are returned as an {"error": ...}
// JSON result so the model always receives well-formed JSON.
func dispatch(ctx context.Context, turn Turn, name, input string) (string, bool) {
	log := zap.L().With(zap.String("turn_id", turn.ID), zap.String("tool", name))

	for _, t := range turn.Tools {
		if t.Name() != name {
			continue
		}
		out, err := t.Call(ctx, input)
		if err != nil {
			log.Warn("agent: tool call failed", zap.Error(err))
			return errorJSON(err.Error()), true
		}
		log.Debug("agent: tool call served", zap.Int("bytes", len(out)))
		return out, false
	}

	log.Warn("agent: model called unknown tool")
	return errorJSON("unknown tool: " + name), true
}

func errorJSON(msg string) string {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return string(b)
}
