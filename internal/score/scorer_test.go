package score

import (
	"testing"
	"time"

	"github.com/ppiankov/trustfuse/internal/fusion"
	"github.com/ppiankov/trustfuse/internal/model"
)

func judgment(t *testing.T, tv, iv, fv float64, source string) *model.Judgment {
	t.Helper()
	j, err := model.NewJudgment(tv, iv, fv, model.NewEntry(source, "2023-01-01T00:00:00Z"))
	if err != nil {
		t.Fatalf("NewJudgment: %v", err)
	}
	return j
}

func fuse(t *testing.T, op model.Operator, inputs []*model.Judgment, weights []float64) *fusion.Result {
	t.Helper()
	engine := fusion.NewEngine(fusion.WithClock(func() time.Time {
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}))
	res, err := engine.FuseDetailed(op, inputs, weights)
	if err != nil {
		t.Fatalf("FuseDetailed: %v", err)
	}
	return res
}

func findSignal(d model.Diagnostics, typ model.SignalType) (model.Signal, bool) {
	for _, s := range d.Signals {
		if s.Type == typ {
			return s, true
		}
	}
	return model.Signal{}, false
}

func TestScorer_Calculate_Agreement(t *testing.T) {
	inputs := []*model.Judgment{
		judgment(t, 0.8, 0.2, 0, "s1"),
		judgment(t, 0.6, 0.3, 0.1, "s2"),
	}
	res := fuse(t, model.OperatorCAWA, inputs, []float64{0.6, 0.4})

	d := NewScorer().Calculate(res, inputs)

	if d.Confidence != "high" {
		t.Errorf("expected high confidence, got %s", d.Confidence)
	}
	if d.Conflict {
		t.Error("expected no conflict")
	}

	s, ok := findSignal(d, model.SignalTruthDisagreement)
	if !ok {
		t.Fatal("expected truth disagreement signal")
	}
	if s.Severity != model.SeverityInfo {
		t.Errorf("expected info severity, got %s", s.Severity)
	}
	if c := s.Data["coefficient"].(float64); c < 0.0383 || c > 0.0385 {
		t.Errorf("expected coefficient 0.0384, got %v", c)
	}
	if _, ok := s.Data["formula"]; !ok {
		t.Error("expected formula in signal data")
	}

	if _, ok := findSignal(d, model.SignalWeightDominance); !ok {
		t.Error("expected weight dominance signal")
	}
	if _, ok := findSignal(d, model.SignalRenormalized); ok {
		t.Error("unexpected renormalized signal")
	}
}

func TestScorer_Calculate_Conflict(t *testing.T) {
	inputs := []*model.Judgment{
		judgment(t, 1, 0, 0, "a"),
		judgment(t, 0, 0, 1, "b"),
	}
	res := fuse(t, model.OperatorCAWA, inputs, []float64{1, 1})

	d := NewScorer().Calculate(res, inputs)

	if !d.Conflict {
		t.Error("expected conflict")
	}
	if d.Confidence != "low" {
		t.Errorf("expected low confidence, got %s", d.Confidence)
	}

	s, _ := findSignal(d, model.SignalTruthDisagreement)
	if s.Severity != model.SeverityCritical {
		t.Errorf("expected critical disagreement, got %s", s.Severity)
	}

	s, _ = findSignal(d, model.SignalIndeterminacy)
	if s.Severity != model.SeverityCritical {
		t.Errorf("expected critical indeterminacy, got %s", s.Severity)
	}
}

func TestScorer_Calculate_Renormalized(t *testing.T) {
	inputs := []*model.Judgment{
		judgment(t, 0.9, 0, 0.1, "a"),
		judgment(t, 0.2, 0.8, 0, "b"),
	}
	res := fuse(t, model.OperatorOptimistic, inputs, []float64{1, 1})

	d := NewScorer().Calculate(res, inputs)

	s, ok := findSignal(d, model.SignalRenormalized)
	if !ok {
		t.Fatal("expected renormalized signal")
	}
	if sum := s.Data["raw_sum"].(float64); sum < 1.29 || sum > 1.31 {
		t.Errorf("expected raw sum 1.3, got %v", sum)
	}
}

func TestScorer_Calculate_SingleSourceAndUnsealed(t *testing.T) {
	unsealed, err := model.NewJudgment(0.5, 0.5, 0,
		model.NewEntry("s1", "2023-01-01T00:00:00Z"),
		model.NewDescribedEntry(model.SourceCAWA, "2023-01-02T00:00:00Z", "stripped"),
	)
	if err != nil {
		t.Fatalf("NewJudgment: %v", err)
	}
	inputs := []*model.Judgment{judgment(t, 0.7, 0.3, 0, "s1"), unsealed}
	res := fuse(t, model.OperatorPessimistic, inputs, []float64{1, 1})

	d := NewScorer().Calculate(res, inputs)

	if _, ok := findSignal(d, model.SignalSingleSource); !ok {
		t.Error("expected single source signal")
	}
	s, ok := findSignal(d, model.SignalUnsealedInput)
	if !ok {
		t.Fatal("expected unsealed input signal")
	}
	if idx := s.Data["indexes"].([]int); len(idx) != 1 || idx[0] != 1 {
		t.Errorf("expected unsealed index [1], got %v", idx)
	}
}

func TestScorer_Calculate_SingleInput(t *testing.T) {
	inputs := []*model.Judgment{judgment(t, 0.9, 0.1, 0, "only")}
	res := fuse(t, model.OperatorCAWA, inputs, []float64{1})

	d := NewScorer().Calculate(res, inputs)

	if d.Confidence != "low" {
		t.Errorf("expected low confidence for a single input, got %s", d.Confidence)
	}
	if _, ok := findSignal(d, model.SignalWeightDominance); ok {
		t.Error("unexpected dominance signal for a single input")
	}
}
