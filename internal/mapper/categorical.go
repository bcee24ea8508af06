package mapper

import (
	"fmt"

	"github.com/ppiankov/trustfuse/internal/model"
)

// CategoricalMapper looks a category key up in a fixed table
type CategoricalMapper struct {
	base
}

// Kind returns KindCategorical
func (m *CategoricalMapper) Kind() Kind { return KindCategorical }

// Apply maps a Category value
func (m *CategoricalMapper) Apply(v Value) (*model.Judgment, error) {
	if v.kind != KindCategorical {
		return nil, fmt.Errorf("%w: mapper %s expects a category, got %s", ErrValueType, m.cfg.ID, v.kind)
	}
	return m.Map(v.category)
}

// Map maps a category key, falling back to the default judgment when the key
// is unknown and a default is configured
func (m *CategoricalMapper) Map(key string) (*model.Judgment, error) {
	p := m.cfg.Categorical
	if point, ok := p.Mappings[key]; ok {
		return m.judgment(point, fmt.Sprintf("Categorical mapping of %q", key))
	}
	if p.Default != nil {
		return m.judgment(*p.Default, fmt.Sprintf("Categorical default for unknown category %q", key))
	}
	return nil, fmt.Errorf("%w: %q (mapper %s)", ErrUnknownCategory, key, m.cfg.ID)
}
