// Package mapper converts raw domain values into judgments.
//
// A mapper configuration names exactly one variant (numerical, categorical or
// boolean). New picks the concrete implementation once, when the configuration
// is loaded; each variant then accepts only its own kind of Value.
package mapper

import (
	"errors"
	"time"

	"github.com/ppiankov/trustfuse/internal/model"
)

var (
	ErrInvalidConfig   = errors.New("invalid mapper configuration")
	ErrDuplicateMapper = errors.New("mapper already registered")
	ErrMapperNotFound  = errors.New("mapper not found")
	ErrValueType       = errors.New("value does not match mapper type")
	ErrOutOfRange      = errors.New("value outside mapper range")
	ErrUnknownCategory = errors.New("unknown category")
)

// Kind is the mapper variant
type Kind string

const (
	KindNumerical   Kind = "numerical"
	KindCategorical Kind = "categorical"
	KindBoolean     Kind = "boolean"
)

// Point is a (T, I, F) triple in a mapper configuration
type Point struct {
	T float64 `yaml:"t" json:"t" toml:"t"`
	I float64 `yaml:"i" json:"i" toml:"i"`
	F float64 `yaml:"f" json:"f" toml:"f"`
}

// Config describes one mapper. Exactly the params block matching Type is set.
type Config struct {
	ID          string `yaml:"id" json:"id" toml:"id"`
	Version     string `yaml:"version" json:"version" toml:"version"`
	Type        Kind   `yaml:"type" json:"type" toml:"type"`
	Description string `yaml:"description,omitempty" json:"description,omitempty" toml:"description,omitempty"`

	Numerical   *NumericalParams   `yaml:"numerical,omitempty" json:"numerical,omitempty" toml:"numerical,omitempty"`
	Categorical *CategoricalParams `yaml:"categorical,omitempty" json:"categorical,omitempty" toml:"categorical,omitempty"`
	Boolean     *BooleanParams     `yaml:"boolean,omitempty" json:"boolean,omitempty" toml:"boolean,omitempty"`
}

// NumericalParams interpolates between three anchor values
type NumericalParams struct {
	FalsityPoint       float64 `yaml:"falsity_point" json:"falsity_point" toml:"falsity_point"`
	IndeterminacyPoint float64 `yaml:"indeterminacy_point" json:"indeterminacy_point" toml:"indeterminacy_point"`
	TruthPoint         float64 `yaml:"truth_point" json:"truth_point" toml:"truth_point"`
	ClampToRange       *bool   `yaml:"clamp_to_range,omitempty" json:"clamp_to_range,omitempty" toml:"clamp_to_range,omitempty"` // Default true
}

// CategoricalParams maps category keys to fixed judgments
type CategoricalParams struct {
	Mappings map[string]Point `yaml:"mappings" json:"mappings" toml:"mappings"`
	Default  *Point           `yaml:"default,omitempty" json:"default,omitempty" toml:"default,omitempty"`
}

// BooleanParams maps true and false to fixed judgments
type BooleanParams struct {
	TrueMap  Point `yaml:"true_map" json:"true_map" toml:"true_map"`
	FalseMap Point `yaml:"false_map" json:"false_map" toml:"false_map"`
}

// Mapper turns a Value of its own kind into a judgment
type Mapper interface {
	ID() string
	Kind() Kind
	Config() Config
	Apply(v Value) (*model.Judgment, error)
}

// Option configures a mapper
type Option func(*base)

// WithClock sets the time source for provenance timestamps
func WithClock(now func() time.Time) Option {
	return func(b *base) {
		if now != nil {
			b.now = now
		}
	}
}

// New validates cfg and returns the mapper variant it describes
func New(cfg Config, opts ...Option) (Mapper, error) {
	if err := Validate(cfg).Err(); err != nil {
		return nil, err
	}

	b := base{cfg: cloneConfig(cfg), now: time.Now}
	for _, opt := range opts {
		opt(&b)
	}

	switch cfg.Type {
	case KindNumerical:
		return &NumericalMapper{base: b}, nil
	case KindCategorical:
		return &CategoricalMapper{base: b}, nil
	default:
		return &BooleanMapper{base: b}, nil
	}
}

// base holds what every variant shares
type base struct {
	cfg Config
	now func() time.Time
}

func (b *base) ID() string     { return b.cfg.ID }
func (b *base) Config() Config { return cloneConfig(b.cfg) }

// judgment builds the single-entry judgment produced by an application
func (b *base) judgment(p Point, description string) (*model.Judgment, error) {
	entry := model.NewDescribedEntry(b.cfg.ID, b.now().UTC().Format(time.RFC3339), description)
	return model.NewJudgment(p.T, p.I, p.F, entry)
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Numerical != nil {
		n := *cfg.Numerical
		if n.ClampToRange != nil {
			clamp := *n.ClampToRange
			n.ClampToRange = &clamp
		}
		out.Numerical = &n
	}
	if cfg.Categorical != nil {
		c := CategoricalParams{Mappings: make(map[string]Point, len(cfg.Categorical.Mappings))}
		for k, v := range cfg.Categorical.Mappings {
			c.Mappings[k] = v
		}
		if cfg.Categorical.Default != nil {
			d := *cfg.Categorical.Default
			c.Default = &d
		}
		out.Categorical = &c
	}
	if cfg.Boolean != nil {
		b := *cfg.Boolean
		out.Boolean = &b
	}
	return out
}
