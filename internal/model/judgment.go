package model

import (
	"fmt"
	"math"
)

// Epsilon absorbs floating-point rounding in the conservation check
const Epsilon = 1e-9

// Judgment is an immutable (T, I, F) evidence triple with its provenance chain.
//
// Components live in [0, 1] and satisfy T + I + F <= 1 + Epsilon. The chain is
// non-empty and append-only: deriving a judgment builds a new chain instead of
// touching this one.
type Judgment struct {
	t, i, f    float64
	provenance []ProvenanceEntry
}

// NewJudgment validates the components and chain and returns a new judgment.
// Nothing is returned on error.
func NewJudgment(t, i, f float64, entries ...ProvenanceEntry) (*Judgment, error) {
	if err := Validate(t, i, f); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEmptyProvenance
	}
	for idx, e := range entries {
		if err := e.validate(idx); err != nil {
			return nil, err
		}
	}

	return &Judgment{t: t, i: i, f: f, provenance: cloneChain(entries)}, nil
}

// NewJudgmentFromSources builds a judgment from (source id, timestamp) pairs
func NewJudgmentFromSources(t, i, f float64, sources ...Source) (*Judgment, error) {
	entries := make([]ProvenanceEntry, len(sources))
	for idx, s := range sources {
		entries[idx] = NewEntry(s.ID, s.Timestamp)
	}
	return NewJudgment(t, i, f, entries...)
}

// Validate checks the range of each component, then the conservation constraint
func Validate(t, i, f float64) error {
	for _, c := range []struct {
		name  string
		value float64
	}{{"T", t}, {"I", i}, {"F", f}} {
		if math.IsNaN(c.value) || c.value < 0 || c.value > 1 {
			return &InvalidValueError{Field: c.name, Value: c.value}
		}
	}

	if sum := t + i + f; sum > 1+Epsilon {
		return &ConservationError{Sum: sum}
	}
	return nil
}

// T returns the truth degree
func (j *Judgment) T() float64 { return j.t }

// I returns the indeterminacy degree
func (j *Judgment) I() float64 { return j.i }

// F returns the falsity degree
func (j *Judgment) F() float64 { return j.f }

// Total returns T + I + F
func (j *Judgment) Total() float64 { return j.t + j.i + j.f }

// Provenance returns a copy of the provenance chain
func (j *Judgment) Provenance() []ProvenanceEntry {
	return cloneChain(j.provenance)
}

// Len returns the number of provenance entries
func (j *Judgment) Len() int { return len(j.provenance) }

// FirstEntry returns a copy of the oldest provenance entry
func (j *Judgment) FirstEntry() ProvenanceEntry {
	return j.provenance[0].clone()
}

// LastEntry returns a copy of the most recent provenance entry
func (j *Judgment) LastEntry() ProvenanceEntry {
	return j.provenance[len(j.provenance)-1].clone()
}

// FirstSourceID is the canonical sort key of the judgment
func (j *Judgment) FirstSourceID() string {
	return j.provenance[0].SourceID
}

// Seal returns the conformance seal of the most recent entry, if any
func (j *Judgment) Seal() (string, bool) {
	last := j.provenance[len(j.provenance)-1]
	if !last.HasSeal() {
		return "", false
	}
	return *last.ConformanceSeal, true
}

// Equal reports whether both judgments carry the same components (within tol)
// and identical provenance chains. Use tol 0 for exact comparison.
func (j *Judgment) Equal(o *Judgment, tol float64) bool {
	if j == nil || o == nil {
		return j == o
	}
	if math.Abs(j.t-o.t) > tol || math.Abs(j.i-o.i) > tol || math.Abs(j.f-o.f) > tol {
		return false
	}
	if len(j.provenance) != len(o.provenance) {
		return false
	}
	for idx := range j.provenance {
		if !j.provenance[idx].Equal(o.provenance[idx]) {
			return false
		}
	}
	return true
}

// Extend returns a new judgment with different components whose chain is
// base followed by entry. Neither base nor entry is retained.
func Extend(t, i, f float64, base []ProvenanceEntry, entry ProvenanceEntry) (*Judgment, error) {
	chain := make([]ProvenanceEntry, 0, len(base)+1)
	chain = append(chain, base...)
	chain = append(chain, entry)
	return NewJudgment(t, i, f, chain...)
}

func (j *Judgment) String() string {
	return fmt.Sprintf("Judgment(T=%.3f, I=%.3f, F=%.3f)", j.t, j.i, j.f)
}
