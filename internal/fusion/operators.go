package fusion

import (
	"math"

	"github.com/ppiankov/trustfuse/internal/model"
)

// combiner computes raw components from validated inputs and normalized weights.
// The second value is the conflict coefficient (0 for operators without one).
type combiner func(judgments []*model.Judgment, weights []float64) (Components, float64)

// conserveSlack is the overshoot of T + I + F tolerated before correcting,
// so a sum of 1 plus an ulp of rounding is not reported as renormalized
const conserveSlack = 1e-12

// weightedMeans returns the normalized weighted averages of T, I and F.
// The explicit float64 conversions forbid fused multiply-add, keeping
// results identical across architectures.
func weightedMeans(judgments []*model.Judgment, weights []float64) Components {
	var c Components
	for idx, j := range judgments {
		c.T += float64(weights[idx] * j.T())
		c.I += float64(weights[idx] * j.I())
		c.F += float64(weights[idx] * j.F())
	}
	return c
}

// ConflictCoefficient is the disagreement measure of otp-cawa-v1.1:
// min(1, 4 * weighted variance of T). Variance of values in [0, 1] is at
// most 0.25, so the coefficient spans [0, 1]. weights must sum to 1.
func ConflictCoefficient(judgments []*model.Judgment, weights []float64) float64 {
	var mean float64
	for idx, j := range judgments {
		mean += float64(weights[idx] * j.T())
	}

	var variance float64
	for idx, j := range judgments {
		d := j.T() - mean
		variance += float64(weights[idx] * d * d)
	}

	return math.Min(1, 4*variance)
}

// conflictAware moves a share c of the decided mass (T and F) into I, where
// c grows with the spread of T across inputs. With full agreement it is a
// plain weighted average.
func conflictAware(judgments []*model.Judgment, weights []float64) (Components, float64) {
	mean := weightedMeans(judgments, weights)
	c := ConflictCoefficient(judgments, weights)

	return Components{
		T: mean.T * (1 - c),
		I: mean.I + float64(c*(mean.T+mean.F)),
		F: mean.F * (1 - c),
	}, c
}

func optimistic(judgments []*model.Judgment, weights []float64) (Components, float64) {
	out := Components{T: judgments[0].T(), F: judgments[0].F()}
	for _, j := range judgments[1:] {
		out.T = math.Max(out.T, j.T())
		out.F = math.Min(out.F, j.F())
	}
	out.I = weightedMeans(judgments, weights).I
	return out, 0
}

func pessimistic(judgments []*model.Judgment, weights []float64) (Components, float64) {
	out := Components{T: judgments[0].T(), F: judgments[0].F()}
	for _, j := range judgments[1:] {
		out.T = math.Min(out.T, j.T())
		out.F = math.Max(out.F, j.F())
	}
	out.I = weightedMeans(judgments, weights).I
	return out, 0
}

// conserve applies the deterministic post-hoc correction that restores
// T + I + F <= 1. Optimistic and pessimistic shrink I to the remaining mass;
// CAWA (and any residue past that) scales all three components. Every
// component is clamped to [0, 1].
func conserve(op model.Operator, c Components) (Components, bool) {
	changed := false

	if op != model.OperatorCAWA && c.Sum() > 1+conserveSlack {
		c.I = math.Max(0, 1-c.T-c.F)
		changed = true
	}
	if sum := c.Sum(); sum > 1+conserveSlack {
		c.T /= sum
		c.I /= sum
		c.F /= sum
		changed = true
	}

	c.T, c.I, c.F = clamp01(c.T), clamp01(c.I), clamp01(c.F)
	return c, changed
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
