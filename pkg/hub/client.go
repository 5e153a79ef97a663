// Package hub is a thin client for a Hugging-Face-style model hub API,
// exposing just the calls lineage discovery needs.
package hub

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mchmarny/mscore/pkg/net"
	"github.com/pkg/errors"
)

const (
	// EndpointDefault is the public hub API endpoint.
	EndpointDefault = "https://huggingface.co"

	configFileName = "config.json"

	metaCacheSize   = 1024
	configCacheSize = 1024
)

// Model is the subset of hub model metadata this system consumes.
type Model struct {
	ID           string   `json:"id"`
	PipelineTag  string   `json:"pipeline_tag"`
	LibraryName  string   `json:"library_name"`
	Downloads    int64    `json:"downloads"`
	Likes        int64    `json:"likes"`
	Tags         []string `json:"tags"`
	LastModified string   `json:"lastModified"`
}

// Client talks to the hub API. Metadata and config fetches are memoized in
// LRU caches so repeated lineage walks don't re-hit the rate-limited API.
type Client struct {
	endpoint string
	hc       *http.Client
	meta     *lru.Cache[string, *Model]
	configs  *lru.Cache[string, map[string]any]
}

// New creates a hub client. An empty endpoint selects the public hub, an
// empty token selects anonymous access.
func New(ctx context.Context, endpoint, token string) (*Client, error) {
	if endpoint == "" {
		endpoint = EndpointDefault
	}
	endpoint = strings.TrimRight(endpoint, "/")

	hc := net.GetHTTPClient()
	if token != "" {
		hc = net.GetOAuthClient(ctx, token)
	}

	meta, err := lru.New[string, *Model](metaCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create metadata cache")
	}
	configs, err := lru.New[string, map[string]any](configCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create config cache")
	}

	return &Client{
		endpoint: endpoint,
		hc:       hc,
		meta:     meta,
		configs:  configs,
	}, nil
}

// ParseRepoID splits a namespace/name model identifier. The id is untrusted
// input: anything that is not exactly two non-empty path segments is rejected.
func ParseRepoID(repoID string) (owner, name string, err error) {
	parts := strings.Split(strings.TrimSpace(repoID), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.Errorf("invalid repo id (want namespace/name): %q", repoID)
	}
	return parts[0], parts[1], nil
}

// LooksLikeRepoID reports whether a metadata value plausibly references
// another model. Parent discovery accepts these loosely on purpose: a wrong
// guess yields a stub node, not a failure.
func LooksLikeRepoID(v string) bool {
	return v != "" && strings.Contains(v, "/")
}

// GetModel returns model metadata from cache or the hub API.
func (c *Client) GetModel(ctx context.Context, repoID string) (*Model, error) {
	if m, ok := c.meta.Get(repoID); ok {
		return m, nil
	}

	if _, _, err := ParseRepoID(repoID); err != nil {
		return nil, err
	}

	var m Model
	u := fmt.Sprintf("%s/api/models/%s", c.endpoint, repoID)
	if err := net.GetJSON(ctx, c.hc, u, &m); err != nil {
		return nil, errors.Wrapf(err, "failed to get model: %s", repoID)
	}

	c.meta.Add(repoID, &m)
	return &m, nil
}

// GetModelConfig returns the model's config.json from cache or the hub.
func (c *Client) GetModelConfig(ctx context.Context, repoID string) (map[string]any, error) {
	if cfg, ok := c.configs.Get(repoID); ok {
		return cfg, nil
	}

	if _, _, err := ParseRepoID(repoID); err != nil {
		return nil, err
	}

	var cfg map[string]any
	u := fmt.Sprintf("%s/%s/resolve/main/%s", c.endpoint, repoID, configFileName)
	if err := net.GetJSON(ctx, c.hc, u, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to get config for: %s", repoID)
	}

	c.configs.Add(repoID, cfg)
	return cfg, nil
}
