// Package fusion combines several judgments into one sealed judgment.
//
// Every operator takes an ordered list of judgments and a parallel list of
// non-negative weights, computes a new (T, I, F), and appends exactly one
// provenance entry carrying the conformance seal of the call. Inputs are
// never modified.
package fusion

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/trustfuse/internal/model"
	"github.com/ppiankov/trustfuse/internal/seal"
)

// Engine runs fusion operators with an injectable clock and logger
type Engine struct {
	now    func() time.Time
	logger *zap.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithClock sets the time source used for fusion entry timestamps
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine using the wall clock and a no-op logger by default
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is a fused judgment together with the facts diagnostics need
type Result struct {
	Judgment     *model.Judgment
	Operator     model.Operator
	Seal         string
	Weights      []float64  // Normalized weights, in input order
	Raw          Components // Components before the conservation correction
	Conflict     float64    // Conflict coefficient (CAWA only, 0 otherwise)
	Renormalized bool       // The conservation correction changed the components
}

// Components is a bare (T, I, F) triple
type Components struct {
	T, I, F float64
}

// Sum returns T + I + F
func (c Components) Sum() float64 { return c.T + c.I + c.F }

// Fuse runs the named operator
func (e *Engine) Fuse(op model.Operator, judgments []*model.Judgment, weights []float64) (*model.Judgment, error) {
	res, err := e.FuseDetailed(op, judgments, weights)
	if err != nil {
		return nil, err
	}
	return res.Judgment, nil
}

// FuseDetailed runs the named operator and returns the intermediate values as well
func (e *Engine) FuseDetailed(op model.Operator, judgments []*model.Judgment, weights []float64) (*Result, error) {
	var combine combiner
	switch op {
	case model.OperatorCAWA:
		combine = conflictAware
	case model.OperatorOptimistic:
		combine = optimistic
	case model.OperatorPessimistic:
		combine = pessimistic
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownOperator, op)
	}

	normalized, err := validateInputs(judgments, weights)
	if err != nil {
		return nil, err
	}

	raw, conflict := combine(judgments, normalized)
	final, renormalized := conserve(op, raw)

	sealValue := seal.Compute(judgments, weights, op)

	base := make([]model.ProvenanceEntry, len(judgments))
	for idx, j := range judgments {
		base[idx] = j.LastEntry()
	}
	entry := model.NewDescribedEntry(
		op.SourceID(),
		e.now().UTC().Format(time.RFC3339),
		fmt.Sprintf("%s fusion of %d judgments", op.Label(), len(judgments)),
	).WithSeal(sealValue)

	fused, err := model.Extend(final.T, final.I, final.F, base, entry)
	if err != nil {
		return nil, fmt.Errorf("build fused judgment: %w", err)
	}

	e.logger.Debug("fused judgments",
		zap.String("operator", string(op)),
		zap.Int("inputs", len(judgments)),
		zap.Float64("t", final.T),
		zap.Float64("i", final.I),
		zap.Float64("f", final.F),
		zap.Float64("conflict", conflict),
		zap.Bool("renormalized", renormalized),
		zap.String("seal", sealValue),
	)

	return &Result{
		Judgment:     fused,
		Operator:     op,
		Seal:         sealValue,
		Weights:      normalized,
		Raw:          raw,
		Conflict:     conflict,
		Renormalized: renormalized,
	}, nil
}

// ConflictAwareWeightedAverage fuses with the otp-cawa-v1.1 operator
func (e *Engine) ConflictAwareWeightedAverage(judgments []*model.Judgment, weights []float64) (*model.Judgment, error) {
	return e.Fuse(model.OperatorCAWA, judgments, weights)
}

// Optimistic fuses with the otp-optimistic-v1.1 operator
func (e *Engine) Optimistic(judgments []*model.Judgment, weights []float64) (*model.Judgment, error) {
	return e.Fuse(model.OperatorOptimistic, judgments, weights)
}

// Pessimistic fuses with the otp-pessimistic-v1.1 operator
func (e *Engine) Pessimistic(judgments []*model.Judgment, weights []float64) (*model.Judgment, error) {
	return e.Fuse(model.OperatorPessimistic, judgments, weights)
}

var defaultEngine = NewEngine()

// ConflictAwareWeightedAverage fuses with the default engine
func ConflictAwareWeightedAverage(judgments []*model.Judgment, weights []float64) (*model.Judgment, error) {
	return defaultEngine.ConflictAwareWeightedAverage(judgments, weights)
}

// Optimistic fuses with the default engine
func Optimistic(judgments []*model.Judgment, weights []float64) (*model.Judgment, error) {
	return defaultEngine.Optimistic(judgments, weights)
}

// Pessimistic fuses with the default engine
func Pessimistic(judgments []*model.Judgment, weights []float64) (*model.Judgment, error) {
	return defaultEngine.Pessimistic(judgments, weights)
}

// validateInputs checks the preconditions shared by every operator and
// returns the weights scaled to sum to 1
func validateInputs(judgments []*model.Judgment, weights []float64) ([]float64, error) {
	if len(judgments) == 0 {
		return nil, model.ErrEmptyInput
	}
	if len(judgments) != len(weights) {
		return nil, &model.MismatchedLengthsError{Judgments: len(judgments), Weights: len(weights)}
	}
	for _, j := range judgments {
		if j == nil {
			return nil, model.ErrEmptyInput
		}
	}

	var total float64
	for idx, w := range weights {
		switch {
		case math.IsNaN(w) || math.IsInf(w, 0):
			return nil, &model.InvalidWeightError{Index: idx, Value: w, Reason: "must be finite"}
		case w < 0:
			return nil, &model.InvalidWeightError{Index: idx, Value: w, Reason: "must be non-negative"}
		}
		total += w
	}
	if total == 0 || math.IsInf(total, 0) {
		return nil, &model.InvalidWeightError{Index: -1, Value: total, Reason: "weights must have a positive finite sum"}
	}

	normalized := make([]float64, len(weights))
	for idx, w := range weights {
		normalized[idx] = w / total
	}
	return normalized, nil
}
