package leadtools

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/varun-vembar-tcgls/chatterist-sirrus/pkg/leadsapi"
)

const payload = `{"data":{"items":[
	{"leadStatus":"S1","items":[
		{"leadId":"L1","leadStatus":{"labelName":"New"},"profile":{"fullName":"Jane","sourceOfLead":{"labelName":"Web"}},"assigneeId":{"firstName":"Ann","lastName":"Lee"}},
		{"leadId":"L2","leadStatus":{"labelName":"New"},"profile":{"fullName":"John","sourceOfLead":{"labelName":"Referral"}}}
	]},
	{"leadStatus":"S2","items":[
		{"leadId":"L3","leadStatus":{"labelName":"Won"},"profile":{"fullName":"Kim","sourceOfLead":{"labelName":"web"}},"assigneeId":{"firstName":"Ann","lastName":"Lee"}}
	]}
]}}`

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchLeads(ctx context.Context, req leadsapi.FetchRequest) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

var testScope = Scope{OrganisationID: "org-1", ProjectID: "proj-1", AuthToken: "tok", ClientID: "WEB"}

func newFetcher(t *testing.T) *mockFetcher {
	t.Helper()
	m := &mockFetcher{}
	m.On("FetchLeads", mock.Anything, leadsapi.FetchRequest{
		OrganisationID: "org-1", ProjectID: "proj-1", AuthToken: "tok", ClientID: "WEB",
	}).Return(json.RawMessage(payload), nil)
	return m
}

func TestListSummary(t *testing.T) {
	m := newFetcher(t)
	ts := NewToolset(m, testScope)

	s, err := ts.ListSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, s.TotalLeads)
	assert.Equal(t, []string{"New", "Won"}, s.LeadStatusSummary.Keys())
	assert.Equal(t, []string{"Web", "Referral", "web"}, s.LeadSources.Keys())

	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_leads":3,"lead_status_summary":{"New":2,"Won":1},"lead_sources":{"Web":1,"Referral":1,"web":1}}`, string(b))
	m.AssertExpectations(t)
}

func TestFilterByStatus(t *testing.T) {
	ts := NewToolset(newFetcher(t), testScope)

	upper, err := ts.FilterByStatus(context.Background(), "NEW")
	require.NoError(t, err)
	lower, err := ts.FilterByStatus(context.Background(), "new")
	require.NoError(t, err)

	assert.Equal(t, 2, upper.Count)
	assert.Equal(t, "NEW", upper.Status)
	assert.Equal(t, upper.Leads, lower.Leads)

	none, err := ts.FilterByStatus(context.Background(), "Lost")
	require.NoError(t, err)
	assert.Equal(t, 0, none.Count)
	assert.NotNil(t, none.Leads)
}

func TestFilterBySource(t *testing.T) {
	ts := NewToolset(newFetcher(t), testScope)

	got, err := ts.FilterBySource(context.Background(), "WEB")
	require.NoError(t, err)
	assert.Equal(t, "WEB", got.Source)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, "L1", got.Leads[0].LeadID)
	assert.Equal(t, "L3", got.Leads[1].LeadID)
}

func TestStats(t *testing.T) {
	ts := NewToolset(newFetcher(t), testScope)

	s, err := ts.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, s.TotalLeads)
	assert.Equal(t, 2, s.ByStatus.Get("New"))
	assert.Equal(t, 2, s.ByAssignee.Get("Ann Lee"))
	assert.Equal(t, 1, s.ByAssignee.Get("Unassigned"))
	assert.Equal(t, 3, s.BySource.Len())
}

func TestQueries_RefetchEveryCall(t *testing.T) {
	m := newFetcher(t)
	ts := NewToolset(m, testScope)

	_, err := ts.ListSummary(context.Background())
	require.NoError(t, err)
	_, err = ts.Stats(context.Background())
	require.NoError(t, err)
	m.AssertNumberOfCalls(t, "FetchLeads", 2)
}

func TestQueries_ContextNotInitialized(t *testing.T) {
	m := &mockFetcher{}
	for _, scope := range []Scope{{}, {OrganisationID: "o"}, {ProjectID: "p"}} {
		ts := NewToolset(m, scope)
		_, err := ts.ListSummary(context.Background())
		assert.ErrorIs(t, err, ErrContextNotInitialized)
	}
	m.AssertNotCalled(t, "FetchLeads", mock.Anything, mock.Anything)
}

func TestQueries_UpstreamErrorPropagates(t *testing.T) {
	m := &mockFetcher{}
	m.On("FetchLeads", mock.Anything, mock.Anything).
		Return(nil, &leadsapi.UpstreamError{StatusCode: 404, Body: "not found"})

	ts := NewToolset(m, testScope)
	_, err := ts.Stats(context.Background())
	require.Error(t, err)
	ue, ok := leadsapi.IsUpstreamError(err)
	require.True(t, ok)
	assert.Equal(t, 404, ue.StatusCode)
}

func TestQueries_Observer(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	obs := WithObserver(func(tool, outcome string) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, tool+":"+outcome)
	})

	ok := NewToolset(newFetcher(t), testScope, obs, WithTurnID("turn-1"))
	_, err := ok.FilterBySource(context.Background(), "web")
	require.NoError(t, err)

	bad := NewToolset(&mockFetcher{}, Scope{}, obs)
	_, err = bad.Stats(context.Background())
	require.Error(t, err)

	assert.Equal(t, []string{"get_lead_by_source:ok", "get_lead_stats:error"}, seen)
}

func TestToolsets_AreIndependent(t *testing.T) {
	m := &mockFetcher{}
	m.On("FetchLeads", mock.Anything, mock.MatchedBy(func(r leadsapi.FetchRequest) bool {
		return r.ProjectID == "a"
	})).Return(json.RawMessage(`{"data":{"items":[{"items":[{"leadStatus":{"labelName":"New"}}]}]}}`), nil)
	m.On("FetchLeads", mock.Anything, mock.MatchedBy(func(r leadsapi.FetchRequest) bool {
		return r.ProjectID == "b"
	})).Return(json.RawMessage(`{"data":{"items":[]}}`), nil)

	var wg sync.WaitGroup
	totals := make([]int, 2)
	for i, project := range []string{"a", "b"} {
		wg.Add(1)
		go func(i int, project string) {
			defer wg.Done()
			ts := NewToolset(m, Scope{OrganisationID: "o", ProjectID: project})
			for n := 0; n < 20; n++ {
				s, err := ts.ListSummary(context.Background())
				if assert.NoError(t, err) {
					totals[i] = s.TotalLeads
				}
			}
		}(i, project)
	}
	wg.Wait()
	assert.Equal(t, []int{1, 0}, totals)
}

func TestScopeContext(t *testing.T) {
	_, ok := ScopeFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithScope(context.Background(), testScope)
	got, ok := ScopeFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, testScope, got)
	assert.NoError(t, got.Validate())
}
