package lineage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mchmarny/mscore/pkg/hub"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxDepthDefault bounds lineage discovery when the caller does not.
	MaxDepthDefault = 10

	// branchFetchLimit caps concurrent sibling fetches per node.
	branchFetchLimit = 4
)

// parentConfigKeys are the config.json fields checked, in order, for parent
// model references.
var parentConfigKeys = []string{
	"model_id",
	"base_model_id",
	"base_model",
	"parent_model",
	"pretrained_model_name_or_path",
	"_name_or_path",
	"name_or_path",
}

// Provider supplies model metadata for lineage discovery. Both calls are
// fallible: failures produce stub nodes, not extraction errors.
type Provider interface {
	GetModel(ctx context.Context, repoID string) (*hub.Model, error)
	GetModelConfig(ctx context.Context, repoID string) (map[string]any, error)
}

// Extractor builds lineage graphs by walking declared parents through a
// metadata provider.
type Extractor struct {
	provider Provider
}

// NewExtractor creates an extractor over the given provider.
func NewExtractor(p Provider) *Extractor {
	return &Extractor{provider: p}
}

// Extract walks ancestry from rootID up to maxDepth levels and returns the
// discovered graph. Per-model fetch failures are recorded as stub nodes;
// the only errors returned are for invalid input. Cancelling ctx stops
// scheduling new branch fetches.
func (e *Extractor) Extract(ctx context.Context, rootID string, maxDepth int) (*Graph, error) {
	if maxDepth < 0 {
		return nil, fmt.Errorf("maxDepth must not be negative: %d", maxDepth)
	}
	if _, _, err := hub.ParseRepoID(rootID); err != nil {
		return nil, err
	}

	g := NewGraph(rootID)
	e.walk(ctx, g, newClaims(), rootID, 0, maxDepth)
	return g, nil
}

func (e *Extractor) walk(ctx context.Context, g *Graph, c *claims, repoID string, depth, maxDepth int) {
	// The claim is what makes the walk cycle-safe: each id is expanded by
	// at most one call path, no matter how parent edges loop.
	if depth > maxDepth || !c.claim(repoID) {
		return
	}
	if ctx.Err() != nil {
		return
	}

	model, err := e.provider.GetModel(ctx, repoID)
	if err != nil || model == nil {
		// partial lineage beats no lineage
		slog.Debug("recording stub node", "repo", repoID, "error", err)
		g.AddNode(repoID, nil, depth, nil)
		return
	}

	parents := e.parentIDs(ctx, repoID)
	g.AddNode(repoID, parents, depth, map[string]any{
		"pipeline_tag": model.PipelineTag,
		"library_name": model.LibraryName,
		"downloads":    model.Downloads,
		"likes":        model.Likes,
	})

	// each branch is sequential, siblings fetch in parallel
	grp := new(errgroup.Group)
	grp.SetLimit(branchFetchLimit)
	for _, parentID := range parents {
		grp.Go(func() error {
			e.walk(ctx, g, c, parentID, depth+1, maxDepth)
			return nil
		})
	}
	_ = grp.Wait()
}

func (e *Extractor) parentIDs(ctx context.Context, repoID string) []string {
	cfg, err := e.provider.GetModelConfig(ctx, repoID)
	if err != nil || cfg == nil {
		slog.Debug("no readable config", "repo", repoID, "error", err)
		return nil
	}
	return ParentsFromConfig(cfg)
}

// ParentsFromConfig scans the recognized parent-reference fields in order
// and keeps string values that look like repo ids. Malformed or non-string
// values are skipped, duplicates removed.
func ParentsFromConfig(cfg map[string]any) []string {
	var parents []string
	seen := make(map[string]bool)

	for _, key := range parentConfigKeys {
		v, ok := cfg[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok || !hub.LooksLikeRepoID(s) {
			continue
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		parents = append(parents, s)
	}

	return parents
}

// claims tracks ids already handed to a walker, separate from the graph so
// an in-flight expansion cannot be started twice by parallel branches.
type claims struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newClaims() *claims {
	return &claims{seen: make(map[string]bool)}
}

func (c *claims) claim(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen[id] {
		return false
	}
	c.seen[id] = true
	return true
}
