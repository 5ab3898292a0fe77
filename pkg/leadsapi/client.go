// Package leadsapi fetches grouped lead payloads from the Sirrus iLead service.
package leadsapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/varun-vembar-tcgls/chatterist-sirrus/internal/resilience"
)

const (
	defaultBaseURL            = "https://qa.sirrus.ai/api/ilead-service/v1"
	defaultClientID           = "TCG-WEB-APP"
	defaultGroupBy            = "leadStatus"
	defaultMapRelatedEntities = "true"
	defaultLimit              = "9999999999"
)

// ErrMissingIdentifier is returned when an organisation or project id is empty.
var ErrMissingIdentifier = eris.New("leadsapi: organisation and project ids are required")

// Client fetches the raw, status-grouped leads payload for one organisation
// and project.
type Client interface {
	FetchLeads(ctx context.Context, req FetchRequest) (json.RawMessage, error)
}

// FetchRequest identifies the leads to fetch. AuthToken and ClientID override
// the configured fallbacks when non-empty.
type FetchRequest struct {
	OrganisationID string
	ProjectID      string
	AuthToken      string
	ClientID       string
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithClientID overrides the fallback client_id header.
func WithClientID(id string) Option {
	return func(c *httpClient) {
		c.clientID = id
	}
}

// WithQuery overrides the groupBy, mapRelatedEntities and limit query parameters.
// Empty values keep the defaults.
func WithQuery(groupBy, mapRelatedEntities, limit string) Option {
	return func(c *httpClient) {
		if groupBy != "" {
			c.groupBy = groupBy
		}
		if mapRelatedEntities != "" {
			c.mapRelatedEntities = mapRelatedEntities
		}
		if limit != "" {
			c.limit = limit
		}
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithMaxAttempts sets the total number of attempts for transient failures
// (network errors, 408, 429, 5xx). 1 means a single round trip.
func WithMaxAttempts(n int) Option {
	return func(c *httpClient) {
		if n > 0 {
			c.retry.MaxAttempts = n
		}
	}
}

// WithRateLimit throttles outbound requests to rps requests per second.
// Zero or negative disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithObserver registers a callback invoked after every fetch with its
// outcome and duration.
func WithObserver(fn func(outcome string, d time.Duration)) Option {
	return func(c *httpClient) {
		c.observe = fn
	}
}

type httpClient struct {
	baseURL            string
	bearerToken        string
	clientID           string
	groupBy            string
	mapRelatedEntities string
	limit              string
	http               *http.Client
	retry              resilience.RetryConfig
	limiter            *rate.Limiter
	observe            func(outcome string, d time.Duration)
}

// NewClient creates a leads API client. bearerToken is the fallback token used
// when a request does not carry its own.
func NewClient(bearerToken string, opts ...Option) Client {
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = 1
	retry.ShouldRetry = isRetryable
	retry.OnRetry = resilience.RetryLogger("leadsapi", "fetch_leads")

	c := &httpClient{
		baseURL:            defaultBaseURL,
		bearerToken:        bearerToken,
		clientID:           defaultClientID,
		groupBy:            defaultGroupBy,
		mapRelatedEntities: defaultMapRelatedEntities,
		limit:              defaultLimit,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry: retry,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) FetchLeads(ctx context.Context, req FetchRequest) (json.RawMessage, error) {
	if req.OrganisationID == "" || req.ProjectID == "" {
		return nil, ErrMissingIdentifier
	}

	start := time.Now()
	body, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (json.RawMessage, error) {
		return c.fetchOnce(ctx, req)
	})
	elapsed := time.Since(start)

	if err != nil {
		c.record(outcomeOf(err), elapsed)
		zap.L().Warn("leadsapi: fetch failed",
			zap.String("organisation_id", req.OrganisationID),
			zap.String("project_id", req.ProjectID),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return nil, err
	}

	c.record("ok", elapsed)
	zap.L().Debug("leadsapi: fetched leads",
		zap.String("organisation_id", req.OrganisationID),
		zap.String("project_id", req.ProjectID),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", elapsed),
	)
	return body, nil
}

func (c *httpClient) fetchOnce(ctx context.Context, req FetchRequest) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "leadsapi: rate limiter wait")
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.leadsURL(req), nil)
	if err != nil {
		return nil, eris.Wrap(err, "leadsapi: create request")
	}

	token := c.bearerToken
	if req.AuthToken != "" {
		token = req.AuthToken
	}
	clientID := c.clientID
	if req.ClientID != "" {
		clientID = req.ClientID
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("client_id", clientID)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "leadsapi: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "leadsapi: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if !json.Valid(respBody) {
		return nil, eris.New("leadsapi: response is not valid JSON")
	}

	return json.RawMessage(respBody), nil
}

// leadsURL builds {base}/organisations/{org}/projects/{project}/leads?....
func (c *httpClient) leadsURL(req FetchRequest) string {
	q := url.Values{}
	q.Set("groupBy", c.groupBy)
	q.Set("mapRelatedEntities", c.mapRelatedEntities)
	q.Set("limit", c.limit)

	return c.baseURL +
		"/organisations/" + url.PathEscape(req.OrganisationID) +
		"/projects/" + url.PathEscape(req.ProjectID) +
		"/leads?" + q.Encode()
}

func (c *httpClient) record(outcome string, d time.Duration) {
	if c.observe != nil {
		c.observe(outcome, d)
	}
}

func outcomeOf(err error) string {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return "upstream_error"
	}
	return "transport_error"
}
