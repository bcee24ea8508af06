package seal

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ppiankov/trustfuse/internal/model"
)

// sha256 of the canonical form of the reference CAWA call
const scenarioSeal = "39762ce732d6107836ecf0d450d794d882c7649497b60eddffd805c8e12dbe95"

func scenarioInputs(t *testing.T) []*model.Judgment {
	t.Helper()
	a, err := model.NewJudgment(0.8, 0.2, 0, model.NewEntry("s1", "2023-01-01T00:00:00Z"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := model.NewJudgment(0.6, 0.3, 0.1, model.NewEntry("s2", "2023-01-01T00:00:00Z"))
	if err != nil {
		t.Fatal(err)
	}
	return []*model.Judgment{a, b}
}

func sealed(t *testing.T, seal string) *model.Judgment {
	t.Helper()
	j, err := model.NewJudgment(0.692352, 0.269184, 0.038464,
		model.NewEntry("s1", "2023-01-01T00:00:00Z"),
		model.NewEntry("s2", "2023-01-01T00:00:00Z"),
		model.NewDescribedEntry(model.SourceCAWA, "2024-06-01T00:00:00Z", "fused").WithSeal(seal),
	)
	if err != nil {
		t.Fatal(err)
	}
	return j
}

func TestGenerate(t *testing.T) {
	if got := Generate(nil); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("unexpected hash of empty input: %s", got)
	}
	if got := Compute(scenarioInputs(t), []float64{0.6, 0.4}, model.OperatorCAWA); got != scenarioSeal {
		t.Errorf("unexpected scenario seal: %s", got)
	}
}

func TestVerify(t *testing.T) {
	inputs := scenarioInputs(t)
	weights := []float64{0.6, 0.4}

	ok, err := Verify(sealed(t, scenarioSeal), model.OperatorCAWA, inputs, weights)
	if err != nil || !ok {
		t.Errorf("expected verification to pass, got %v, %v", ok, err)
	}

	ok, err = VerifyAuto(sealed(t, scenarioSeal), inputs, weights)
	if err != nil || !ok {
		t.Errorf("expected auto verification to pass, got %v, %v", ok, err)
	}

	flipped := "57" + scenarioSeal[2:]
	ok, err = Verify(sealed(t, flipped), model.OperatorCAWA, inputs, weights)
	if err != nil || ok {
		t.Errorf("expected mismatch, got %v, %v", ok, err)
	}
}

func TestVerify_TinyWeightChange(t *testing.T) {
	inputs := scenarioInputs(t)
	j := sealed(t, scenarioSeal)

	for _, w := range []float64{0.6 + 1e-13, math.Nextafter(0.6, 1)} {
		ok, err := Verify(j, model.OperatorCAWA, inputs, []float64{w, 0.4})
		if err != nil || ok {
			t.Errorf("weight %v: expected mismatch, got %v, %v", w, ok, err)
		}
	}
}

func TestVerify_Errors(t *testing.T) {
	inputs := scenarioInputs(t)

	_, err := Verify(inputs[0], model.OperatorCAWA, inputs, []float64{0.6, 0.4})
	if !errors.Is(err, model.ErrMissingSeal) {
		t.Errorf("expected ErrMissingSeal, got %v", err)
	}

	j := sealed(t, scenarioSeal)
	if _, err := Verify(j, model.OperatorCAWA, nil, nil); !errors.Is(err, model.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
	if _, err := Verify(j, model.OperatorCAWA, inputs, []float64{1}); !errors.Is(err, model.ErrMismatchedLengths) {
		t.Errorf("expected ErrMismatchedLengths, got %v", err)
	}

	raw, err := model.NewJudgment(0.5, 0.5, 0, model.NewEntry("manual", "t").WithSeal(scenarioSeal))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := VerifyAuto(raw, inputs, []float64{0.6, 0.4}); !errors.Is(err, model.ErrUnknownOperator) {
		t.Errorf("expected ErrUnknownOperator, got %v", err)
	}
}

func TestIsWellFormed(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{scenarioSeal, true},
		{strings.ToUpper(scenarioSeal), false},
		{scenarioSeal[:63], false},
		{scenarioSeal + "0", false},
		{strings.Repeat("g", 64), false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsWellFormed(tt.in); got != tt.want {
			t.Errorf("IsWellFormed(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestJudgmentID(t *testing.T) {
	inputs := scenarioInputs(t)
	want := "74353fc827d79e87d1549fadf8ac1713af62c86d4fc39615df63f6e859d1cbdb"
	if got := JudgmentID(inputs[0]); got != want {
		t.Errorf("unexpected judgment id: %s", got)
	}

	// Attaching a seal does not change the id
	a := sealed(t, scenarioSeal)
	b := sealed(t, strings.Repeat("0", 64))
	if JudgmentID(a) != JudgmentID(b) {
		t.Error("judgment id depends on the seal")
	}
}

func TestRecordID(t *testing.T) {
	inputs := scenarioInputs(t)
	if RecordID(inputs[0]) != JudgmentID(inputs[0]) {
		t.Error("record id of an unsealed judgment differs from its judgment id")
	}

	a := sealed(t, scenarioSeal)
	b := sealed(t, strings.Repeat("0", 64))
	if RecordID(a) == RecordID(b) {
		t.Error("record id ignores the seal")
	}
	if RecordID(a) == JudgmentID(a) {
		t.Error("record id of a sealed judgment equals its judgment id")
	}
}

func TestNewOutcome(t *testing.T) {
	decision := JudgmentID(sealed(t, scenarioSeal))
	o, err := NewOutcome(decision, 0.9, 0.1, 0, model.OutcomeSuccess, "deploy-monitor",
		model.NewEntry("deploy-monitor", "2024-07-01T00:00:00Z"))
	if err != nil {
		t.Fatal(err)
	}
	if o.ID != JudgmentID(o.Judgment) || !IsWellFormed(o.ID) {
		t.Errorf("unexpected outcome id %q", o.ID)
	}
	if o.LinksTo != decision {
		t.Errorf("outcome links to %q, want %q", o.LinksTo, decision)
	}
}
