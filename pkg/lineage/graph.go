// Package lineage reconstructs model derivation graphs from hub metadata and
// answers ancestry questions about them.
package lineage

import (
	"sort"
	"sync"
)

// Node is one discovered model in a lineage graph.
type Node struct {
	RepoID    string         `json:"repo_id" yaml:"repoId"`
	ParentIDs []string       `json:"parent_ids,omitempty" yaml:"parentIds,omitempty"`
	Depth     int            `json:"depth" yaml:"depth"`
	Metadata  map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Graph is the lineage discovered for one root model. Declared-parent
// metadata is untrusted and may loop; the graph itself never does, because a
// node is recorded at most once and AddNode is first-write-wins. Safe for
// concurrent use.
type Graph struct {
	mu     sync.RWMutex
	rootID string
	nodes  map[string]*Node
}

// NewGraph creates an empty graph rooted at rootID.
func NewGraph(rootID string) *Graph {
	return &Graph{
		rootID: rootID,
		nodes:  make(map[string]*Node),
	}
}

// RootID returns the root model id.
func (g *Graph) RootID() string {
	return g.rootID
}

// AddNode records a model with its declared parents and discovery depth.
// A repeated add for the same id is a no-op: the first discovery wins,
// including its depth. Returns true if the node was added.
func (g *Graph) AddNode(repoID string, parents []string, depth int, metadata map[string]any) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[repoID]; ok {
		return false
	}

	g.nodes[repoID] = &Node{
		RepoID:    repoID,
		ParentIDs: append([]string(nil), parents...),
		Depth:     depth,
		Metadata:  metadata,
	}
	return true
}

// HasNode reports whether the model has been recorded.
func (g *Graph) HasNode(repoID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[repoID]
	return ok
}

// Parents returns the declared parent ids in declaration order, empty if the
// model is unknown or has none.
func (g *Graph) Parents(repoID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[repoID]
	if !ok {
		return nil
	}
	return append([]string(nil), n.ParentIDs...)
}

// Depth returns the discovery depth for the model, -1 if unknown.
func (g *Graph) Depth(repoID string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[repoID]
	if !ok {
		return -1
	}
	return n.Depth
}

// Len returns the number of recorded nodes.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Ancestors returns every model reachable from the root by parent edges,
// root excluded, each id listed once. Order is a depth-first walk that
// appends a parent the first time it is reached, then descends into it
// before moving to its siblings. The visited set is seeded with the root so
// the walk terminates even when parent edges form a cycle.
func (g *Graph) Ancestors() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ancestors := make([]string, 0, len(g.nodes))
	visited := map[string]bool{g.rootID: true}

	var visit func(repoID string)
	visit = func(repoID string) {
		n, ok := g.nodes[repoID]
		if !ok {
			return
		}
		for _, parentID := range n.ParentIDs {
			if visited[parentID] {
				continue
			}
			visited[parentID] = true
			ancestors = append(ancestors, parentID)
			visit(parentID)
		}
	}

	visit(g.rootID)
	return ancestors
}

// Nodes returns a snapshot of all nodes ordered by depth, then id.
func (g *Graph) Nodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Depth != out[j].Depth {
			return out[i].Depth < out[j].Depth
		}
		return out[i].RepoID < out[j].RepoID
	})
	return out
}
