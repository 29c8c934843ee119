package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tansive/trackcatalog/internal/common/httpx"
	"github.com/tansive/trackcatalog/internal/trackapi/config"
	"github.com/tansive/trackcatalog/internal/trackapi/db/memstore"
	"github.com/tansive/trackcatalog/internal/trackapi/trackmanager"
	"github.com/tansive/trackcatalog/pkg/api"
)

const geneTypes = `
[
	{
		"name": "transcripts",
		"label": "Transcripts",
		"category": {"track_category_id": "genes-transcripts", "label": "Genes & transcripts", "type": "Genomic"},
		"trigger": ["track", "gene-pc-fwd"],
		"type": "gene",
		"file_keys": ["bigbed"],
		"display_order": 1,
		"on_by_default": true,
		"colour": "DARK_GREY"
	},
	{
		"name": "transcripts-summary",
		"label": "Transcripts summary",
		"category": {"track_category_id": "genes-transcripts"},
		"type": "gene",
		"file_keys": ["bigbed", "bigwig"]
	}
]`

func newTestServer(t *testing.T) *TrackServer {
	t.Helper()
	s, err := CreateNewServer(memstore.New())
	require.NoError(t, err)
	s.MountHandlers()
	return s
}

func executeTestRequest(t *testing.T, s *TrackServer, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) httpx.ErrorRsp {
	t.Helper()
	var rsp httpx.ErrorRsp
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rsp))
	assert.Equal(t, httpx.Failure, rsp.Result)
	return rsp
}

func TestVersion(t *testing.T) {
	s := newTestServer(t)
	rr := executeTestRequest(t, s, http.MethodGet, "/version", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	var rsp api.GetVersionRsp
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rsp))
	assert.Equal(t, ServerVersion, rsp.ServerVersion)
	assert.Equal(t, api.ApiVersion_1_0, rsp.ApiVersion)
}

func TestTrackLifecycle(t *testing.T) {
	s := newTestServer(t)
	rr := executeTestRequest(t, s, http.MethodPost, "/types", geneTypes)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	genome := uuid.NewString()
	rr = executeTestRequest(t, s, http.MethodPost, "/tracks", `{
		"genome_id": "`+genome+`",
		"dataset_id": "`+uuid.NewString()+`",
		"datafiles": ["transcripts.bb"],
		"track_types": ["transcripts"],
		"sources": [{"name": "Ensembl", "url": "https://www.ensembl.org"}]
	}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created api.CreateTrackRsp
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "/track/"+created.TrackID, rr.Header().Get("Location"))

	for _, path := range []string{"/genomes/" + genome + "/tracks", "/track_categories/" + genome} {
		rr = executeTestRequest(t, s, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rr.Code)
		var rsp api.GenomeTracksRsp
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rsp))
		require.Len(t, rsp.TrackCategories, 1)
		assert.Equal(t, "Genes & transcripts", rsp.TrackCategories[0].Label)
		require.Len(t, rsp.TrackCategories[0].TrackList, 1)
		tr := rsp.TrackCategories[0].TrackList[0]
		assert.Equal(t, created.TrackID, tr.TrackID)
		assert.Equal(t, map[string]string{"bigbed": "transcripts.bb"}, tr.Datafiles)
		assert.Equal(t, []api.Source{{Name: "Ensembl", URL: "https://www.ensembl.org"}}, tr.Sources)
	}

	// linking a type with other file keys is rejected
	rr = executeTestRequest(t, s, http.MethodPost, "/tracks/link",
		`{"track_id": "`+created.TrackID+`", "type_name": "transcripts-summary"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, trackmanager.KindIncompatibleTypeFiles, decodeError(t, rr).Kind)

	rr = executeTestRequest(t, s, http.MethodPost, "/tracks/link",
		`{"track_id": "`+created.TrackID+`", "type_name": "transcripts"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = executeTestRequest(t, s, http.MethodGet, "/track/"+created.TrackID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var tr api.Track
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tr))
	assert.Equal(t, []string{"transcripts"}, tr.TrackTypes)
	assert.Equal(t, "Transcripts", tr.Label)

	rr = executeTestRequest(t, s, http.MethodDelete, "/genomes/"+genome+"/tracks", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = executeTestRequest(t, s, http.MethodGet, "/genomes/"+genome+"/tracks", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rsp := decodeError(t, rr)
	assert.Equal(t, "No tracks found for this genome.", rsp.Error)
	assert.Equal(t, trackmanager.KindGenomeNotFound, rsp.Kind)
	rr = executeTestRequest(t, s, http.MethodDelete, "/track_categories/"+genome, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSubmitErrors(t *testing.T) {
	s := newTestServer(t)
	rr := executeTestRequest(t, s, http.MethodPost, "/types", geneTypes)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = executeTestRequest(t, s, http.MethodPost, "/track", `{
		"genome_id": "`+uuid.NewString()+`",
		"datafiles": ["a.bb"],
		"track_types": ["transcripts", "missing"]
	}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rsp := decodeError(t, rr)
	assert.Equal(t, trackmanager.KindUnknownType, rsp.Kind)
	assert.True(t, strings.HasPrefix(rsp.Error, "Type(s) not found: missing"), rsp.Error)

	rr = executeTestRequest(t, s, http.MethodPost, "/track", `{"genome_id": `)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = executeTestRequest(t, s, http.MethodGet, "/track/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = executeTestRequest(t, s, http.MethodGet, "/track/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "No track found with this track id.", decodeError(t, rr).Error)

	rr = executeTestRequest(t, s, http.MethodGet, "/types/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestWritesRejectedInReadOnlyEnvironment(t *testing.T) {
	cfg := config.Config()
	env := cfg.Environment
	cfg.Environment = "production"
	t.Cleanup(func() { cfg.Environment = env })

	s := newTestServer(t)
	rr := executeTestRequest(t, s, http.MethodPost, "/types", geneTypes)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, trackmanager.KindWritesNotAllowed, decodeError(t, rr).Kind)

	rr = executeTestRequest(t, s, http.MethodGet, "/types", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	executeTestRequest(t, s, http.MethodGet, "/types", "")
	rr := executeTestRequest(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "trackcatalog_http_requests_total")
	assert.Contains(t, rr.Body.String(), `path="/types"`)
}
