package mapper

import (
	"fmt"
	"math"

	"github.com/ppiankov/trustfuse/internal/model"
)

// minPointDistance is the smallest gap allowed between anchor points
const minPointDistance = 1e-10

// NumericalMapper interpolates linearly between the falsity, indeterminacy and
// truth anchors. The anchors may appear in any order on the number line.
type NumericalMapper struct {
	base
}

// Kind returns KindNumerical
func (m *NumericalMapper) Kind() Kind { return KindNumerical }

// Apply maps a Number value
func (m *NumericalMapper) Apply(v Value) (*model.Judgment, error) {
	if v.kind != KindNumerical {
		return nil, fmt.Errorf("%w: mapper %s expects a number, got %s", ErrValueType, m.cfg.ID, v.kind)
	}
	return m.Map(v.number)
}

// Map maps x to a judgment
func (m *NumericalMapper) Map(x float64) (*model.Judgment, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil, fmt.Errorf("%w: input must be finite", ErrValueType)
	}

	p := m.cfg.Numerical
	lo, hi := math.Min(p.FalsityPoint, p.TruthPoint), math.Max(p.FalsityPoint, p.TruthPoint)
	switch {
	case clampEnabled(p):
		x = math.Max(lo, math.Min(hi, x))
	case x < lo || x > hi:
		return nil, fmt.Errorf("%w: %v not in [%v, %v] (mapper %s)", ErrOutOfRange, x, lo, hi, m.cfg.ID)
	}

	return m.judgment(interpolate(p, x), fmt.Sprintf("Numerical mapping of value %v", x))
}

func clampEnabled(p *NumericalParams) bool {
	return p.ClampToRange == nil || *p.ClampToRange
}

// interpolate places x on the piecewise-linear path F -> I -> T. Values past
// the outermost anchor take the full mass of that anchor.
func interpolate(p *NumericalParams, x float64) Point {
	f, i, t := p.FalsityPoint, p.IndeterminacyPoint, p.TruthPoint

	anchors := []struct {
		at    float64
		point Point
	}{
		{f, Point{F: 1}},
		{i, Point{I: 1}},
		{t, Point{T: 1}},
	}
	lowest, highest := anchors[0], anchors[0]
	for _, a := range anchors[1:] {
		if a.at < lowest.at {
			lowest = a
		}
		if a.at > highest.at {
			highest = a
		}
	}
	if x <= lowest.at {
		return lowest.point
	}
	if x >= highest.at {
		return highest.point
	}

	if between(x, f, i) {
		ratio := math.Abs(x-f) / math.Abs(i-f)
		return Point{I: ratio, F: 1 - ratio}
	}
	// [f, i] and [i, t] share i, so x lies in [i, t] here
	ratio := math.Abs(x-i) / math.Abs(t-i)
	return Point{T: ratio, I: 1 - ratio}
}

func between(x, a, b float64) bool {
	return x >= math.Min(a, b) && x <= math.Max(a, b)
}
