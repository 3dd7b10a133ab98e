package httpapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legal-rag-service/internal/workflow"
)

func TestSourcesFromTruncatesToMaxAndReadsMetadata(t *testing.T) {
	state := &workflow.State{
		RerankedResults: []workflow.Result{
			{ID: "doc-1", Metadata: map[string]interface{}{"title": "계약서 해설", "document_type": "statute"}},
			{ID: "doc-2", Metadata: map[string]interface{}{"title": "판례 요약", "document_type": "case"}},
			{ID: "doc-3", Metadata: map[string]interface{}{"title": "무시됨", "document_type": "case"}},
		},
	}

	sources := sourcesFrom(state, 2)

	require.Len(t, sources, 2)
	assert.Equal(t, Source{ID: "doc-1", Title: "계약서 해설", Type: "statute"}, sources[0])
	assert.Equal(t, Source{ID: "doc-2", Title: "판례 요약", Type: "case"}, sources[1])
}

func TestSourcesFromToleratesMissingMetadata(t *testing.T) {
	state := &workflow.State{
		RerankedResults: []workflow.Result{{ID: "doc-1", Metadata: map[string]interface{}{}}},
	}

	sources := sourcesFrom(state, 10)

	require.Len(t, sources, 1)
	assert.Equal(t, "doc-1", sources[0].ID)
	assert.Empty(t, sources[0].Title)
	assert.Empty(t, sources[0].Type)
}

func TestSeverityForStatusCode(t *testing.T) {
	assert.Equal(t, "error", severityFor(http.StatusInternalServerError))
	assert.Equal(t, "warning", severityFor(http.StatusBadRequest))
	assert.Equal(t, "warning", severityFor(http.StatusUnauthorized))
}

func TestMarshalJSONRoundTrip(t *testing.T) {
	body, err := marshalJSON(map[string]interface{}{"query": "이혼 절차", "total": 3})
	require.NoError(t, err)
	assert.Contains(t, string(body), "이혼 절차")
	assert.Contains(t, string(body), `"total":3`)
}
