package mapper

import (
	"fmt"

	"github.com/ppiankov/trustfuse/internal/model"
)

// BooleanMapper maps true and false to two fixed judgments
type BooleanMapper struct {
	base
}

// Kind returns KindBoolean
func (m *BooleanMapper) Kind() Kind { return KindBoolean }

// Apply maps a Bool value
func (m *BooleanMapper) Apply(v Value) (*model.Judgment, error) {
	if v.kind != KindBoolean {
		return nil, fmt.Errorf("%w: mapper %s expects a boolean, got %s", ErrValueType, m.cfg.ID, v.kind)
	}
	return m.Map(v.flag)
}

// Map maps b to the configured judgment
func (m *BooleanMapper) Map(b bool) (*model.Judgment, error) {
	if b {
		return m.judgment(m.cfg.Boolean.TrueMap, "Boolean mapping of true")
	}
	return m.judgment(m.cfg.Boolean.FalseMap, "Boolean mapping of false")
}
