package mapper

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ppiankov/trustfuse/internal/model"
)

// Registry holds mappers by id. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	mappers map[string]Mapper
	logger  *zap.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		mappers: make(map[string]Mapper),
		logger:  logger,
	}
}

// Register adds m. A second mapper with the same id is rejected.
func (r *Registry) Register(m Mapper) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.mappers[m.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateMapper, m.ID())
	}
	r.mappers[m.ID()] = m
	r.logger.Debug("registered mapper", zap.String("id", m.ID()), zap.String("type", string(m.Kind())))
	return nil
}

// RegisterConfig builds a mapper from cfg and registers it
func (r *Registry) RegisterConfig(cfg Config, opts ...Option) (Mapper, error) {
	m, err := New(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("mapper %q: %w", cfg.ID, err)
	}
	if err := r.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// RegisterAll registers every configuration or none of them. Ids must be
// unique within cfgs and new to the registry.
func (r *Registry) RegisterAll(cfgs []Config, opts ...Option) error {
	built := make([]Mapper, len(cfgs))
	for idx, cfg := range cfgs {
		m, err := New(cfg, opts...)
		if err != nil {
			return fmt.Errorf("mapper %q: %w", cfg.ID, err)
		}
		built[idx] = m
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(built))
	for _, m := range built {
		if _, exists := r.mappers[m.ID()]; exists || seen[m.ID()] {
			return fmt.Errorf("%w: %s", ErrDuplicateMapper, m.ID())
		}
		seen[m.ID()] = true
	}

	for _, m := range built {
		r.mappers[m.ID()] = m
		r.logger.Debug("registered mapper", zap.String("id", m.ID()), zap.String("type", string(m.Kind())))
	}
	return nil
}

// Get returns the mapper with the given id
func (r *Registry) Get(id string) (Mapper, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.mappers[id]
	return m, ok
}

// Remove deletes a mapper and reports whether it was present
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.mappers[id]; !ok {
		return false
	}
	delete(r.mappers, id)
	return true
}

// ByKind returns every mapper of the given kind, ordered by id
func (r *Registry) ByKind(kind Kind) []Mapper {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Mapper
	for _, m := range r.mappers {
		if m.Kind() == kind {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID() < out[b].ID() })
	return out
}

// List returns every registered id in ascending order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.mappers))
	for id := range r.mappers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered mappers
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.mappers)
}

// Export returns the configuration of every mapper, ordered by id
func (r *Registry) Export() []Config {
	ids := r.List()
	out := make([]Config, 0, len(ids))
	for _, id := range ids {
		if m, ok := r.Get(id); ok {
			out = append(out, m.Config())
		}
	}
	return out
}

// Apply looks up a mapper and applies it to raw, converting raw to the kind
// of value the mapper expects
func (r *Registry) Apply(id string, raw interface{}) (*model.Judgment, error) {
	m, ok := r.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMapperNotFound, id)
	}
	v, err := ValueFor(m.Kind(), raw)
	if err != nil {
		return nil, fmt.Errorf("mapper %s: %w", id, err)
	}
	return m.Apply(v)
}
