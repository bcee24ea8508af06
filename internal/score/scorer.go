package score

import (
	"fmt"
	"math"

	"github.com/ppiankov/trustfuse/internal/fusion"
	"github.com/ppiankov/trustfuse/internal/model"
)

// Thresholds on the conflict coefficient
const (
	conflictWarning  = 0.2
	conflictCritical = 0.5
)

// Scorer derives diagnostic signals from a fusion result. It never changes
// the result; signals only explain it.
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate builds the diagnostics of a fusion of inputs
func (s *Scorer) Calculate(res *fusion.Result, inputs []*model.Judgment) model.Diagnostics {
	var signals []model.Signal

	// 1. Truth disagreement
	coefficient, disagreementSignal := s.calculateDisagreement(inputs, res.Weights)
	signals = append(signals, disagreementSignal)

	// 2. Undecided mass
	undecided, indeterminacySignal := s.calculateIndeterminacy(res.Judgment)
	signals = append(signals, indeterminacySignal)

	// 3. Weight dominance
	if len(inputs) > 1 {
		signals = append(signals, s.calculateDominance(inputs, res.Weights))
	}

	// 4. Conservation correction
	if res.Renormalized {
		signals = append(signals, s.renormalizedSignal(res))
	}

	// 5. Shared origin
	if signal, ok := s.detectSingleSource(inputs); ok {
		signals = append(signals, signal)
	}

	// 6. Fused inputs without a seal
	if signal, ok := s.detectUnsealed(inputs); ok {
		signals = append(signals, signal)
	}

	conflict := coefficient >= conflictWarning

	return model.Diagnostics{
		Confidence: s.determineConfidence(coefficient, undecided, len(inputs)),
		Conflict:   conflict,
		Signals:    signals,
	}
}

// calculateDisagreement measures the weighted spread of T
func (s *Scorer) calculateDisagreement(inputs []*model.Judgment, weights []float64) (float64, model.Signal) {
	coefficient := fusion.ConflictCoefficient(inputs, weights)
	spread := math.Sqrt(coefficient / 4)

	severity := model.SeverityInfo
	if coefficient >= conflictCritical {
		severity = model.SeverityCritical
	} else if coefficient >= conflictWarning {
		severity = model.SeverityWarning
	}

	return coefficient, model.Signal{
		Type:        model.SignalTruthDisagreement,
		Severity:    severity,
		Description: fmt.Sprintf("Truth disagreement: coefficient %.3f", coefficient),
		Data: map[string]interface{}{
			"coefficient": coefficient,
			"spread":      spread,
			"inputs":      len(inputs),
			"formula":     "min(1, 4 * sum(w_k * (T_k - mean_T)^2))",
		},
	}
}

// calculateIndeterminacy reports how much of the result is left undecided
func (s *Scorer) calculateIndeterminacy(j *model.Judgment) (float64, model.Signal) {
	unassigned := math.Max(0, 1-j.Total())
	undecided := j.I() + unassigned

	severity := model.SeverityInfo
	if undecided > 0.6 {
		severity = model.SeverityCritical
	} else if undecided > 0.3 {
		severity = model.SeverityWarning
	}

	return undecided, model.Signal{
		Type:        model.SignalIndeterminacy,
		Severity:    severity,
		Description: fmt.Sprintf("Undecided mass: %.0f%%", undecided*100),
		Data: map[string]interface{}{
			"i":          j.I(),
			"unassigned": unassigned,
			"undecided":  undecided,
			"formula":    "I + max(0, 1 - (T + I + F))",
		},
	}
}

// calculateDominance reports the largest share of the total weight
func (s *Scorer) calculateDominance(inputs []*model.Judgment, weights []float64) model.Signal {
	top := 0
	for idx, w := range weights {
		if w > weights[top] {
			top = idx
		}
	}
	share := weights[top]

	severity := model.SeverityInfo
	if share > 0.9 {
		severity = model.SeverityCritical
	} else if share > 0.75 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalWeightDominance,
		Severity:    severity,
		Description: fmt.Sprintf("Largest weight share: %.0f%% (%s)", share*100, inputs[top].FirstSourceID()),
		Data: map[string]interface{}{
			"index":   top,
			"source":  inputs[top].FirstSourceID(),
			"share":   share,
			"formula": "max(w_k / sum(w))",
		},
	}
}

func (s *Scorer) renormalizedSignal(res *fusion.Result) model.Signal {
	return model.Signal{
		Type:        model.SignalRenormalized,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("Raw components summed to %.6f and were corrected to conserve mass", res.Raw.Sum()),
		Data: map[string]interface{}{
			"raw_t":   res.Raw.T,
			"raw_i":   res.Raw.I,
			"raw_f":   res.Raw.F,
			"raw_sum": res.Raw.Sum(),
		},
	}
}

// detectSingleSource flags fusions whose inputs all trace back to one source
func (s *Scorer) detectSingleSource(inputs []*model.Judgment) (model.Signal, bool) {
	if len(inputs) < 2 {
		return model.Signal{}, false
	}

	first := inputs[0].FirstSourceID()
	for _, in := range inputs[1:] {
		if in.FirstSourceID() != first {
			return model.Signal{}, false
		}
	}

	return model.Signal{
		Type:        model.SignalSingleSource,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("All %d inputs originate from %s", len(inputs), first),
		Data: map[string]interface{}{
			"source": first,
			"inputs": len(inputs),
		},
	}, true
}

// detectUnsealed flags inputs whose latest entry was written by a fusion
// operator but carries no seal
func (s *Scorer) detectUnsealed(inputs []*model.Judgment) (model.Signal, bool) {
	var indexes []int
	for idx, in := range inputs {
		last := in.LastEntry()
		if _, fused := model.OperatorForSource(last.SourceID); fused && !last.HasSeal() {
			indexes = append(indexes, idx)
		}
	}
	if len(indexes) == 0 {
		return model.Signal{}, false
	}

	return model.Signal{
		Type:        model.SignalUnsealedInput,
		Severity:    model.SeverityCritical,
		Description: fmt.Sprintf("%d fused input(s) carry no conformance seal", len(indexes)),
		Data: map[string]interface{}{
			"indexes": indexes,
		},
	}, true
}

// determineConfidence determines the confidence level
func (s *Scorer) determineConfidence(coefficient, undecided float64, inputCount int) string {
	if inputCount < 2 {
		return "low"
	}
	if coefficient >= conflictCritical || undecided > 0.6 {
		return "low"
	}
	if coefficient >= conflictWarning || undecided > 0.3 {
		return "medium"
	}
	return "high"
}
