package hub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoID(t *testing.T) {
	owner, name, err := ParseRepoID("acme/bert-tiny")
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "bert-tiny", name)

	for _, id := range []string{"", "acme", "/name", "acme/", "a/b/c"} {
		_, _, err := ParseRepoID(id)
		assert.Error(t, err, "id: %q", id)
	}
}

func TestLooksLikeRepoID(t *testing.T) {
	assert.True(t, LooksLikeRepoID("acme/base"))
	assert.False(t, LooksLikeRepoID("gpt2"))
	assert.False(t, LooksLikeRepoID(""))
}

func TestGetModel(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/api/models/acme/bert-tiny", r.URL.Path)
		w.Write([]byte(`{"id":"acme/bert-tiny","pipeline_tag":"text-classification","downloads":42,"likes":7}`))
	}))
	defer srv.Close()

	c, err := New(context.Background(), srv.URL, "")
	require.NoError(t, err)

	m, err := c.GetModel(context.Background(), "acme/bert-tiny")
	require.NoError(t, err)
	assert.Equal(t, "acme/bert-tiny", m.ID)
	assert.Equal(t, "text-classification", m.PipelineTag)
	assert.Equal(t, int64(42), m.Downloads)

	// second call is served from the LRU cache
	_, err = c.GetModel(context.Background(), "acme/bert-tiny")
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load())
}

func TestGetModel_InvalidID(t *testing.T) {
	c, err := New(context.Background(), "", "")
	require.NoError(t, err)

	_, err = c.GetModel(context.Background(), "not-a-repo-id")
	assert.Error(t, err)
}

func TestGetModel_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := New(context.Background(), srv.URL, "")
	require.NoError(t, err)

	_, err = c.GetModel(context.Background(), "acme/missing")
	assert.Error(t, err)
}

func TestGetModelConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/acme/tuned/resolve/main/config.json", r.URL.Path)
		w.Write([]byte(`{"base_model":"acme/base","hidden_size":768}`))
	}))
	defer srv.Close()

	c, err := New(context.Background(), srv.URL, "")
	require.NoError(t, err)

	cfg, err := c.GetModelConfig(context.Background(), "acme/tuned")
	require.NoError(t, err)
	assert.Equal(t, "acme/base", cfg["base_model"])
}
