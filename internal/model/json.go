package model

import (
	"encoding/json"
	"fmt"
)

// judgmentWire is the transport form of a judgment
type judgmentWire struct {
	T          float64           `json:"t"`
	I          float64           `json:"i"`
	F          float64           `json:"f"`
	Provenance []ProvenanceEntry `json:"provenance_chain"`
}

// MarshalJSON renders the wire form {"t","i","f","provenance_chain"}.
// Floats use Go's shortest round-trip formatting, so decoding restores the
// exact values.
func (j *Judgment) MarshalJSON() ([]byte, error) {
	return json.Marshal(judgmentWire{T: j.t, I: j.i, F: j.f, Provenance: j.provenance})
}

// UnmarshalJSON decodes the wire form and re-validates every invariant
func (j *Judgment) UnmarshalJSON(data []byte) error {
	var w judgmentWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode judgment: %w", err)
	}

	parsed, err := NewJudgment(w.T, w.I, w.F, w.Provenance...)
	if err != nil {
		return fmt.Errorf("decode judgment: %w", err)
	}

	*j = *parsed
	return nil
}

// ToJSON serializes a judgment, indented when pretty is set
func ToJSON(j *Judgment, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(j, "", "  ")
	}
	return json.Marshal(j)
}

// FromJSON parses and validates a judgment document
func FromJSON(data []byte) (*Judgment, error) {
	var j Judgment
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	return &j, nil
}
