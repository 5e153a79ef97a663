// Package tree computes a model's tree score: the average trust score of
// its ancestors, resolved from the score registry or on demand.
//
// Two reserved results signal missing data rather than measurements:
// 1.0 means no lineage information exists (the model is not penalized),
// 0.5 means lineage exists but none of it could be scored. Callers that
// treat the score as a measurement should be aware of both.
package tree

import (
	"context"
	"log/slog"

	"github.com/mchmarny/mscore/pkg/lineage"
	"github.com/mchmarny/mscore/pkg/registry"
)

const (
	// neutralScore is returned when a model has no known lineage.
	neutralScore = 1.0
	// conservativeScore is returned when lineage exists but is unscorable.
	conservativeScore = 0.5
)

// Resolver computes a fresh aggregate score for a model the registry has no
// entry for. Implementations own their own caching, if any.
type Resolver func(ctx context.Context, repoID string) (float64, error)

// Option configures a Scorer.
type Option func(*Scorer)

// WithResolver installs the on-demand score fallback.
func WithResolver(r Resolver) Option {
	return func(s *Scorer) {
		s.resolve = r
	}
}

// WithMaxDepth bounds lineage discovery.
func WithMaxDepth(depth int) Option {
	return func(s *Scorer) {
		s.maxDepth = depth
	}
}

// Scorer aggregates ancestor scores into one number.
type Scorer struct {
	extractor *lineage.Extractor
	registry  registry.Registry
	resolve   Resolver
	maxDepth  int
}

// NewScorer creates a scorer over the given extractor and registry.
func NewScorer(e *lineage.Extractor, r registry.Registry, opts ...Option) *Scorer {
	s := &Scorer{
		extractor: e,
		registry:  r,
		maxDepth:  lineage.MaxDepthDefault,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AncestorScore is one ancestor in a score report. Score is nil when the
// ancestor could not be scored and was skipped.
type AncestorScore struct {
	RepoID string   `json:"repo_id" yaml:"repoId"`
	Depth  int      `json:"depth" yaml:"depth"`
	Score  *float64 `json:"score,omitempty" yaml:"score,omitempty"`
	Cached bool     `json:"cached" yaml:"cached"`
}

// Report is the tree score with its per-ancestor inputs.
type Report struct {
	RepoID    string          `json:"repo_id" yaml:"repoId"`
	TreeScore float64         `json:"tree_score" yaml:"treeScore"`
	Ancestors []AncestorScore `json:"ancestors,omitempty" yaml:"ancestors,omitempty"`
}

// Compute returns the tree score for a model, always in [0,1] and never an
// error: degraded inputs degrade the score, they do not fail the caller.
func (s *Scorer) Compute(ctx context.Context, repoID string) float64 {
	return s.Report(ctx, repoID).TreeScore
}

// Report computes the tree score along with the resolved ancestor detail.
func (s *Scorer) Report(ctx context.Context, repoID string) (rep *Report) {
	rep = &Report{RepoID: repoID, TreeScore: conservativeScore}

	// this subsystem must never be the cause of a caller-visible failure
	defer func() {
		if r := recover(); r != nil {
			slog.Error("recovered computing tree score", "repo", repoID, "panic", r)
			rep = &Report{RepoID: repoID, TreeScore: conservativeScore}
		}
	}()

	if repoID == "" {
		slog.Warn("no model identity available for tree score")
		rep.TreeScore = neutralScore
		return rep
	}

	graph, err := s.extractor.Extract(ctx, repoID, s.maxDepth)
	if err != nil {
		slog.Error("error extracting lineage", "repo", repoID, "error", err)
		return rep
	}

	ancestorIDs := graph.Ancestors()
	if len(ancestorIDs) == 0 {
		slog.Debug("model has no ancestors", "repo", repoID)
		rep.TreeScore = neutralScore
		return rep
	}

	scores := make([]float64, 0, len(ancestorIDs))
	for _, id := range ancestorIDs {
		a := AncestorScore{RepoID: id, Depth: graph.Depth(id)}
		if v, cached, ok := s.ancestorScore(ctx, id); ok {
			a.Score = &v
			a.Cached = cached
			scores = append(scores, v)
		}
		rep.Ancestors = append(rep.Ancestors, a)
	}

	if len(scores) == 0 {
		// lineage exists but none of it is scorable
		slog.Warn("no scorable ancestors", "repo", repoID, "ancestors", len(ancestorIDs))
		return rep
	}

	rep.TreeScore = clamp(mean(scores))
	return rep
}

func (s *Scorer) ancestorScore(ctx context.Context, repoID string) (score float64, cached, ok bool) {
	if entry, found := s.registry.GetScore(repoID); found && len(entry) > 0 {
		return averageEntry(entry), true, true
	}

	if s.resolve != nil {
		v, err := s.resolve(ctx, repoID)
		if err != nil {
			slog.Warn("score resolver failed", "repo", repoID, "error", err)
			return 0, false, false
		}
		return v, false, true
	}

	return 0, false, false
}

// averageEntry averages every numeric leaf across all metrics of an entry.
// Breakdown metrics contribute each sub-score individually, not one
// pre-averaged number.
func averageEntry(entry registry.Entry) float64 {
	var leaves []float64
	for _, res := range entry {
		leaves = append(leaves, res.Value.Leaves()...)
	}
	if len(leaves) == 0 {
		return conservativeScore
	}
	return mean(leaves)
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
