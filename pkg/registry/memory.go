package registry

import "sync"

// Memory is an in-process registry scoped to the process lifetime.
// Used for tests and transient caching.
type Memory struct {
	mu     sync.RWMutex
	scores map[string]Entry
}

// NewMemory creates an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{
		scores: make(map[string]Entry),
	}
}

func (m *Memory) GetScore(repoID string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.scores[repoID]
	if !ok {
		return nil, false
	}
	cp := make(Entry, len(e))
	for k, v := range e {
		cp[k] = v
	}
	return cp, true
}

func (m *Memory) SaveScore(repoID string, scores Entry) error {
	cp := make(Entry, len(scores))
	for k, v := range scores {
		v.Name = k
		cp[k] = v
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores[repoID] = cp
	return nil
}

func (m *Memory) HasScore(repoID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.scores[repoID]
	return ok
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores = make(map[string]Entry)
	return nil
}
