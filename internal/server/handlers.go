package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/chat"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/lead"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/leadtools"
	"github.com/varun-vembar-tcgls/chatterist-sirrus/pkg/leadsapi"
)

const bearerPrefix = "Bearer "

// bearerToken returns the token of an "Authorization: Bearer <t>" header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix))
}

// scope reads the ids from the path and the credentials from the headers.
func (s *Server) scope(r *http.Request) leadtools.Scope {
	return leadtools.Scope{
		OrganisationID: chi.URLParam(r, "organisationID"),
		ProjectID:      chi.URLParam(r, "projectID"),
		AuthToken:      bearerToken(r),
		ClientID:       r.Header.Get("client_id"),
	}
}

func fetchRequest(sc leadtools.Scope) leadsapi.FetchRequest {
	return leadsapi.FetchRequest{
		OrganisationID: sc.OrganisationID,
		ProjectID:      sc.ProjectID,
		AuthToken:      sc.AuthToken,
		ClientID:       sc.ClientID,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLeads(w http.ResponseWriter, r *http.Request) {
	s.passthrough(w, r, s.scope(r))
}

// handleLeadsQuery is the query-parameter form of handleLeads.
func (s *Server) handleLeadsQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sc := leadtools.Scope{
		OrganisationID: q.Get("organisation_id"),
		ProjectID:      q.Get("project_id"),
		AuthToken:      bearerToken(r),
		ClientID:       r.Header.Get("client_id"),
	}
	if sc.OrganisationID == "" || sc.ProjectID == "" {
		writeError(w, r, &badRequest{msg: "organisation_id and project_id query parameters are required"})
		return
	}
	if sc.ClientID == "" {
		sc.ClientID = s.deps.ClientID
	}
	s.passthrough(w, r, sc)
}

func (s *Server) passthrough(w http.ResponseWriter, r *http.Request, sc leadtools.Scope) {
	raw, err := s.deps.Fetcher.FetchLeads(r.Context(), fetchRequest(sc))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, raw)
}

func (s *Server) handleProcessedLeads(w http.ResponseWriter, r *http.Request) {
	raw, err := s.deps.Fetcher.FetchLeads(r.Context(), fetchRequest(s.scope(r)))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ds, err := lead.Normalize(raw)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

type chatBody struct {
	Message string `json:"message"`
}

type queryBody struct {
	Query string `json:"query"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var body chatBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := s.deps.Chat.Chat(r.Context(), chat.ChatRequest{Scope: s.scope(r), Message: body.Message})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var body queryBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := s.deps.Chat.Query(r.Context(), chat.QueryRequest{Scope: s.scope(r), Query: body.Query})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return &badRequest{msg: "invalid request body: " + err.Error()}
	}
	return nil
}
