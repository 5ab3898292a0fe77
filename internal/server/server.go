// Package server exposes the lead and chat operations over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/chat"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/pkg/leadsapi"
)

// ChatService answers questions about a project's leads.
type ChatService interface {
	Chat(ctx context.Context, req chat.ChatRequest) (*chat.ChatResponse, error)
	Query(ctx context.Context, req chat.QueryRequest) (*chat.QueryResponse, error)
}

// Deps are the collaborators the handlers call.
type Deps struct {
	Fetcher leadsapi.Client
	Chat    ChatService
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// ClientID is the client_id used when a request carries none.
	ClientID string
}

// Options tune the middleware stack.
type Options struct {
	RequestTimeout time.Duration
	CORSOrigins    []string
	// ServiceName names the otelhttp spans. Empty disables instrumentation.
	ServiceName string
}

// Server routes requests to the lead and chat handlers.
type Server struct {
	deps Deps
	mux  *chi.Mux
}

// New builds the router and its middleware.
func New(deps Deps, opts Options) *Server {
	s := &Server{deps: deps, mux: chi.NewRouter()}
	r := s.mux

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type", "client_id"},
			MaxAge:         300,
		}))
	}
	if opts.ServiceName != "" {
		r.Use(func(next http.Handler) http.Handler {
			return otelhttp.NewHandler(next, opts.ServiceName)
		})
	}

	r.Get("/health", s.handleHealth)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/leads", s.handleLeadsQuery)
		r.Get("/leads/{organisationID}/{projectID}", s.handleLeads)
		r.Get("/processed-leads/{organisationID}/{projectID}", s.handleProcessedLeads)
		r.Post("/ai/chat-with-leads/{organisationID}/{projectID}", s.handleChat)
		r.Post("/ai/query-leads/{organisationID}/{projectID}", s.handleQuery)
	})

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
