package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mchmarny/mscore/pkg/config"
	"github.com/mchmarny/mscore/pkg/hub"
	"github.com/mchmarny/mscore/pkg/lineage"
	"github.com/mchmarny/mscore/pkg/registry"
	"github.com/mchmarny/mscore/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testAppConfig wires the router against a fake hub serving a two model
// chain: acme/final derived from acme/base.
func testAppConfig(t *testing.T) *appConfig {
	t.Helper()

	hubSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/models/acme/final", "/api/models/acme/base":
			w.Write([]byte(`{"id":"` + r.URL.Path[len("/api/models/"):] + `","pipeline_tag":"text-generation"}`))
		case "/acme/final/resolve/main/config.json":
			w.Write([]byte(`{"base_model":"acme/base"}`))
		case "/acme/base/resolve/main/config.json":
			w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(hubSrv.Close)

	client, err := hub.New(context.Background(), hubSrv.URL, "")
	require.NoError(t, err)

	reg := registry.NewMemory()
	require.NoError(t, reg.SaveScore("acme/base", registry.Entry{
		"quality": {Value: registry.Score(0.8)},
	}))

	extractor := lineage.NewExtractor(client)

	return &appConfig{
		Conf:      &config.Config{CacheDir: t.TempDir(), MaxDepth: 10},
		Registry:  reg,
		Extractor: extractor,
		Scorer:    tree.NewScorer(extractor, reg),
	}
}

func TestHealthHandler(t *testing.T) {
	srv := httptest.NewServer(makeRouter(testAppConfig(t)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAncestryAPIHandler(t *testing.T) {
	srv := httptest.NewServer(makeRouter(testAppConfig(t)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/data/ancestry?model=acme/final")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got ancestryResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "acme/final", got.Root)
	assert.Equal(t, []string{"acme/base"}, got.Ancestors)
	require.Len(t, got.Nodes, 2)
}

func TestAncestryAPIHandler_BadModel(t *testing.T) {
	srv := httptest.NewServer(makeRouter(testAppConfig(t)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/data/ancestry?model=nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestScoreAPIHandler(t *testing.T) {
	srv := httptest.NewServer(makeRouter(testAppConfig(t)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/data/score?model=acme/final")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got tree.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.InDelta(t, 0.8, got.TreeScore, 1e-6)
	require.Len(t, got.Ancestors, 1)
	assert.True(t, got.Ancestors[0].Cached)
}
