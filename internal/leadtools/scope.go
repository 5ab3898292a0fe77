// Package leadtools exposes the lead queries an LLM agent can call during a
// chat turn. Every query is bound to an explicit Scope; there is no
// process-wide binding.
package leadtools

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/varun-vembar-tcgls/chatterist-sirrus/pkg/leadsapi"
)

// ErrContextNotInitialized is returned when a query runs without an
// organisation and project bound.
var ErrContextNotInitialized = eris.New("leadtools: tool context not initialized: organisation and project ids are required")

// Scope is the organisation and project a chat turn queries, plus the
// optional caller credentials forwarded upstream.
type Scope struct {
	OrganisationID string
	ProjectID      string
	AuthToken      string
	ClientID       string
}

// Validate returns ErrContextNotInitialized when either id is empty.
func (s Scope) Validate() error {
	if s.OrganisationID == "" || s.ProjectID == "" {
		return ErrContextNotInitialized
	}
	return nil
}

func (s Scope) fetchRequest() leadsapi.FetchRequest {
	return leadsapi.FetchRequest{
		OrganisationID: s.OrganisationID,
		ProjectID:      s.ProjectID,
		AuthToken:      s.AuthToken,
		ClientID:       s.ClientID,
	}
}

type scopeKey struct{}

// WithScope returns a copy of ctx carrying s.
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFromContext returns the Scope stored by WithScope.
func ScopeFromContext(ctx context.Context) (Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(Scope)
	return s, ok
}
