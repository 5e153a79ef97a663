package registry

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Registry stores computed metric scores keyed by model repo ID.
// Implementations must treat unreadable or corrupt entries as a miss,
// never as an error surfaced to the caller.
type Registry interface {
	// GetScore returns the cached entry for a repo, if one exists.
	GetScore(repoID string) (Entry, bool)
	// SaveScore persists the entry, replacing any previous one.
	SaveScore(repoID string, scores Entry) error
	// HasScore reports whether an entry exists for the repo.
	HasScore(repoID string) bool
	// Clear removes all entries.
	Clear() error
}

// Entry is the full set of metric results for one model.
type Entry map[string]MetricResult

// MetricResult is a single named metric measurement.
type MetricResult struct {
	Name      string `json:"-" yaml:"-"`
	Value     Value  `json:"value" yaml:"value"`
	LatencyMs int64  `json:"latency_ms" yaml:"latencyMs"`
}

// Value holds a metric score: either a single number in [0,1] or a named
// breakdown (e.g. one score per hardware tier). The zero value is a scalar 0.
type Value struct {
	score float64
	parts map[string]float64
}

// Score returns a scalar value.
func Score(v float64) Value {
	return Value{score: v}
}

// Breakdown returns a composite value with named sub-scores.
func Breakdown(parts map[string]float64) Value {
	p := make(map[string]float64, len(parts))
	for k, v := range parts {
		p[k] = v
	}
	return Value{parts: p}
}

// IsBreakdown reports whether the value carries named sub-scores.
func (v Value) IsBreakdown() bool {
	return v.parts != nil
}

// Leaves returns every numeric leaf of the value. A scalar contributes one
// number, a breakdown contributes each sub-score individually (keys sorted
// so the order is stable).
func (v Value) Leaves() []float64 {
	if v.parts == nil {
		return []float64{v.score}
	}
	keys := make([]string, 0, len(v.parts))
	for k := range v.parts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]float64, 0, len(keys))
	for _, k := range keys {
		out = append(out, v.parts[k])
	}
	return out
}

// MarshalJSON writes the scalar as a number and the breakdown as an object.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.parts != nil {
		return json.Marshal(v.parts)
	}
	return json.Marshal(v.score)
}

// UnmarshalJSON accepts either form.
func (v *Value) UnmarshalJSON(b []byte) error {
	var score float64
	if err := json.Unmarshal(b, &score); err == nil {
		*v = Value{score: score}
		return nil
	}
	var parts map[string]float64
	if err := json.Unmarshal(b, &parts); err == nil {
		*v = Value{parts: parts}
		return nil
	}
	return fmt.Errorf("metric value is neither a number nor a breakdown: %s", string(b))
}

// MarshalYAML mirrors the JSON shape for CLI output.
func (v Value) MarshalYAML() (any, error) {
	if v.parts != nil {
		return v.parts, nil
	}
	return v.score, nil
}

// record is the self-describing on-disk shape shared by the durable backends.
type record struct {
	RepoID  string                  `json:"repo_id"`
	Metrics map[string]MetricResult `json:"metrics"`
}

func toRecord(repoID string, scores Entry) record {
	r := record{
		RepoID:  repoID,
		Metrics: make(map[string]MetricResult, len(scores)),
	}
	for name, res := range scores {
		res.Name = name
		r.Metrics[name] = res
	}
	return r
}

func (r record) entry() Entry {
	e := make(Entry, len(r.Metrics))
	for name, res := range r.Metrics {
		res.Name = name
		e[name] = res
	}
	return e
}
