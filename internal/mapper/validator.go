package mapper

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ppiankov/trustfuse/internal/model"
)

// ValidationResult collects every problem found in a configuration
type ValidationResult struct {
	Errors []string
}

// Valid reports whether no problems were found
func (r ValidationResult) Valid() bool { return len(r.Errors) == 0 }

// Err returns nil for a valid result and ErrInvalidConfig listing every
// problem otherwise
func (r ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(r.Errors, "; "))
}

func (r *ValidationResult) addf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Validate checks a configuration without stopping at the first problem
func Validate(cfg Config) ValidationResult {
	var r ValidationResult

	if strings.TrimSpace(cfg.ID) == "" {
		r.addf("id is required")
	}
	if strings.TrimSpace(cfg.Version) == "" {
		r.addf("version is required")
	}

	blocks := 0
	for _, set := range []bool{cfg.Numerical != nil, cfg.Categorical != nil, cfg.Boolean != nil} {
		if set {
			blocks++
		}
	}
	if blocks > 1 {
		r.addf("exactly one parameter block may be set, found %d", blocks)
	}

	switch cfg.Type {
	case KindNumerical:
		validateNumerical(&r, cfg.Numerical)
	case KindCategorical:
		validateCategorical(&r, cfg.Categorical)
	case KindBoolean:
		validateBoolean(&r, cfg.Boolean)
	case "":
		r.addf("type is required")
	default:
		r.addf("unknown type %q", cfg.Type)
	}

	return r
}

func validateNumerical(r *ValidationResult, p *NumericalParams) {
	if p == nil {
		r.addf("numerical parameters are required for type numerical")
		return
	}

	points := map[string]float64{
		"falsity_point":       p.FalsityPoint,
		"indeterminacy_point": p.IndeterminacyPoint,
		"truth_point":         p.TruthPoint,
	}
	finite := true
	for _, name := range []string{"falsity_point", "indeterminacy_point", "truth_point"} {
		if v := points[name]; math.IsNaN(v) || math.IsInf(v, 0) {
			r.addf("%s must be finite", name)
			finite = false
		}
	}
	if !finite {
		return
	}

	if math.Abs(p.FalsityPoint-p.IndeterminacyPoint) < minPointDistance {
		r.addf("falsity_point and indeterminacy_point must be distinct")
	}
	if math.Abs(p.IndeterminacyPoint-p.TruthPoint) < minPointDistance {
		r.addf("indeterminacy_point and truth_point must be distinct")
	}
	if math.Abs(p.FalsityPoint-p.TruthPoint) < minPointDistance {
		r.addf("falsity_point and truth_point must be distinct")
	}
}

func validateCategorical(r *ValidationResult, p *CategoricalParams) {
	if p == nil {
		r.addf("categorical parameters are required for type categorical")
		return
	}
	if len(p.Mappings) == 0 {
		r.addf("categorical mappings must not be empty")
	}

	keys := make([]string, 0, len(p.Mappings))
	for k := range p.Mappings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.TrimSpace(k) == "" {
			r.addf("categorical mapping keys must not be empty")
			continue
		}
		validatePoint(r, fmt.Sprintf("mapping %q", k), p.Mappings[k])
	}
	if p.Default != nil {
		validatePoint(r, "default", *p.Default)
	}
}

func validateBoolean(r *ValidationResult, p *BooleanParams) {
	if p == nil {
		r.addf("boolean parameters are required for type boolean")
		return
	}
	validatePoint(r, "true_map", p.TrueMap)
	validatePoint(r, "false_map", p.FalseMap)
}

func validatePoint(r *ValidationResult, name string, p Point) {
	if err := model.Validate(p.T, p.I, p.F); err != nil {
		r.addf("%s: %v", name, err)
	}
}
