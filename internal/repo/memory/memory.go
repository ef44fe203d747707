package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hamed0406/urlwatchdog/internal/domain"
)

// Store is a static target list plus the latest result per target.
type Store struct {
	mu      sync.RWMutex
	targets []domain.Descriptor
	latest  map[string]domain.CheckResult
	err     error
}

func New(targets ...domain.Descriptor) *Store {
	return &Store{
		targets: append([]domain.Descriptor(nil), targets...),
		latest:  make(map[string]domain.CheckResult),
	}
}

// Set replaces the target list; the next Load returns it.
func (m *Store) Set(targets ...domain.Descriptor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.targets = append([]domain.Descriptor(nil), targets...)
}

// Fail makes Load return err until it is called again with nil.
func (m *Store) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *Store) Load(ctx context.Context) ([]domain.Descriptor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	return append([]domain.Descriptor(nil), m.targets...), nil
}

func (m *Store) Append(ctx context.Context, r *domain.CheckResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.latest[r.Target]
	if !ok || !r.CheckedAt.Before(cur.CheckedAt) {
		m.latest[r.Target] = *r
	}
	return nil
}

// Latest returns one result per target sorted by name.
func (m *Store) Latest(ctx context.Context) ([]domain.CheckResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.CheckResult, 0, len(m.latest))
	for _, r := range m.latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Target < out[j].Target })
	return out, nil
}

// Prune drops results for targets not in keep.
func (m *Store) Prune(keep map[string]struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name := range m.latest {
		if _, ok := keep[name]; !ok {
			delete(m.latest, name)
		}
	}
}
