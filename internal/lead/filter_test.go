package lead

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterByStatus_CaseInsensitive(t *testing.T) {
	ds, err := Normalize([]byte(multiGroupPayload))
	require.NoError(t, err)

	upper := ds.FilterByStatus("NEW")
	lower := ds.FilterByStatus("new")
	assert.Equal(t, upper, lower)
	require.Len(t, upper, 2)
	assert.Equal(t, "L1", upper[0].LeadID)
	assert.Equal(t, "L2", upper[1].LeadID)
}

func TestFilterByStatus_NoMatch(t *testing.T) {
	ds, err := Normalize([]byte(multiGroupPayload))
	require.NoError(t, err)

	got := ds.FilterByStatus("Closed")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilterBySource(t *testing.T) {
	ds, err := Normalize([]byte(multiGroupPayload))
	require.NoError(t, err)

	web := ds.FilterBySource("wEB")
	require.Len(t, web, 2)
	assert.Equal(t, "L1", web[0].LeadID)
	assert.Equal(t, "L3", web[1].LeadID)

	assert.Len(t, ds.FilterBySource("unknown"), 1)
}

func TestFilter_NilDataset(t *testing.T) {
	var ds *Dataset
	assert.Empty(t, ds.FilterByStatus("New"))
}
