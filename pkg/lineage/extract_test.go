package lineage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mchmarny/mscore/pkg/hub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider serves canned metadata keyed by repo id. A repo listed in
// fail errors on fetch; an unlisted repo returns not-found.
type fakeProvider struct {
	mu      sync.Mutex
	configs map[string]map[string]any
	fail    map[string]bool
	fetches atomic.Int64
}

func (p *fakeProvider) GetModel(_ context.Context, repoID string) (*hub.Model, error) {
	p.fetches.Add(1)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail[repoID] {
		return nil, errors.New("fetch failed")
	}
	if _, ok := p.configs[repoID]; !ok {
		return nil, errors.New("model not found")
	}
	return &hub.Model{ID: repoID, PipelineTag: "text-generation"}, nil
}

func (p *fakeProvider) GetModelConfig(_ context.Context, repoID string) (map[string]any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cfg, ok := p.configs[repoID]
	if !ok {
		return nil, errors.New("config not found")
	}
	return cfg, nil
}

func chainProvider() *fakeProvider {
	return &fakeProvider{
		configs: map[string]map[string]any{
			"acme/final": {"base_model": "acme/v2"},
			"acme/v2":    {"base_model": "acme/v1"},
			"acme/v1":    {"hidden_size": 768.0},
		},
	}
}

func TestExtract_Chain(t *testing.T) {
	e := NewExtractor(chainProvider())

	g, err := e.Extract(context.Background(), "acme/final", 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"acme/v2", "acme/v1"}, g.Ancestors())
	assert.Equal(t, 0, g.Depth("acme/final"))
	assert.Equal(t, 1, g.Depth("acme/v2"))
	assert.Equal(t, 2, g.Depth("acme/v1"))
	assert.Equal(t, "text-generation", g.Nodes()[0].Metadata["pipeline_tag"])
}

func TestExtract_DepthBound(t *testing.T) {
	e := NewExtractor(chainProvider())

	g, err := e.Extract(context.Background(), "acme/final", 1)
	require.NoError(t, err)

	assert.True(t, g.HasNode("acme/final"))
	assert.True(t, g.HasNode("acme/v2"))
	assert.False(t, g.HasNode("acme/v1"))
}

func TestExtract_ZeroDepth(t *testing.T) {
	e := NewExtractor(chainProvider())

	g, err := e.Extract(context.Background(), "acme/final", 0)
	require.NoError(t, err)

	// only the root is materialized, but its declared parent is still
	// listed as an ancestor
	assert.Equal(t, 1, g.Len())
	assert.Equal(t, []string{"acme/v2"}, g.Ancestors())
}

func TestExtract_InvalidInput(t *testing.T) {
	e := NewExtractor(chainProvider())

	_, err := e.Extract(context.Background(), "acme/final", -1)
	assert.Error(t, err)

	_, err = e.Extract(context.Background(), "not-a-repo-id", 10)
	assert.Error(t, err)
}

func TestExtract_FetchFailureYieldsStub(t *testing.T) {
	p := chainProvider()
	p.fail = map[string]bool{"acme/v2": true}
	e := NewExtractor(p)

	g, err := e.Extract(context.Background(), "acme/final", 10)
	require.NoError(t, err)

	// the failed parent is recorded with no parents of its own
	assert.True(t, g.HasNode("acme/v2"))
	assert.Empty(t, g.Parents("acme/v2"))
	assert.False(t, g.HasNode("acme/v1"))
	assert.Equal(t, []string{"acme/v2"}, g.Ancestors())
}

func TestExtract_CyclicParents(t *testing.T) {
	p := &fakeProvider{
		configs: map[string]map[string]any{
			"acme/a": {"base_model": "acme/b"},
			"acme/b": {"base_model": "acme/a"},
		},
	}
	e := NewExtractor(p)

	g, err := e.Extract(context.Background(), "acme/a", 10)
	require.NoError(t, err)

	assert.Equal(t, 2, g.Len())
	assert.Equal(t, []string{"acme/b"}, g.Ancestors())
}

func TestExtract_SelfReference(t *testing.T) {
	p := &fakeProvider{
		configs: map[string]map[string]any{
			"acme/self": {"base_model": "acme/self"},
		},
	}
	e := NewExtractor(p)

	g, err := e.Extract(context.Background(), "acme/self", 10)
	require.NoError(t, err)

	assert.Equal(t, 1, g.Len())
	assert.Empty(t, g.Ancestors())
}

func TestExtract_SharedGrandparentFetchedOnce(t *testing.T) {
	p := &fakeProvider{
		configs: map[string]map[string]any{
			"acme/root": {"model_id": "acme/p1", "base_model": "acme/p2"},
			"acme/p1":   {"base_model": "acme/gp"},
			"acme/p2":   {"base_model": "acme/gp"},
			"acme/gp":   {},
		},
	}
	e := NewExtractor(p)

	g, err := e.Extract(context.Background(), "acme/root", 10)
	require.NoError(t, err)

	assert.Equal(t, 4, g.Len())
	assert.ElementsMatch(t, []string{"acme/p1", "acme/p2", "acme/gp"}, g.Ancestors())
	// parallel sibling branches still expand the shared grandparent once
	assert.Equal(t, int64(4), p.fetches.Load())
}

func TestExtract_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewExtractor(chainProvider())
	g, err := e.Extract(ctx, "acme/final", 10)
	require.NoError(t, err)
	assert.Equal(t, 0, g.Len())
}

func TestParentsFromConfig(t *testing.T) {
	cfg := map[string]any{
		"base_model":    "acme/base",
		"parent_model":  "acme/base", // duplicate reference
		"_name_or_path": "gpt2",      // no namespace separator
		"model_id":      42.0,        // non-string
	}

	assert.Equal(t, []string{"acme/base"}, ParentsFromConfig(cfg))
	assert.Empty(t, ParentsFromConfig(map[string]any{}))
}
