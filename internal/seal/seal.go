// Package seal generates and verifies conformance seals.
//
// A seal is the lowercase hex SHA-256 of the canonical string of a fusion
// call. Anyone holding the original inputs, weights and operator id can
// recompute it; a mismatch means the fused judgment was not produced by the
// canonical algorithm from those inputs.
package seal

import (
	"encoding/hex"

	"github.com/minio/sha256-simd"

	"github.com/ppiankov/trustfuse/internal/canonical"
	"github.com/ppiankov/trustfuse/internal/model"
)

// Length is the number of hex characters in a seal
const Length = sha256.Size * 2

// Generate hashes canonical bytes into a seal
func Generate(canonicalBytes []byte) string {
	sum := sha256.Sum256(canonicalBytes)
	return hex.EncodeToString(sum[:])
}

// Compute canonicalizes the inputs and returns their seal.
// Lengths must already be validated.
func Compute(judgments []*model.Judgment, weights []float64, op model.Operator) string {
	return Generate(canonical.Canonicalize(judgments, weights, op))
}

// Verify recomputes the seal of a fusion from its original inputs and compares
// it with the seal on the judgment's most recent provenance entry.
//
// A mismatch is reported as (false, nil). Errors mean verification could not
// run: ErrMissingSeal when the judgment carries no seal, ErrEmptyInput or
// ErrMismatchedLengths when the inputs cannot be canonicalized.
func Verify(j *model.Judgment, op model.Operator, inputs []*model.Judgment, weights []float64) (bool, error) {
	stored, ok := j.Seal()
	if !ok {
		return false, model.ErrMissingSeal
	}
	if err := checkInputs(inputs, weights); err != nil {
		return false, err
	}

	return stored == Compute(inputs, weights, op), nil
}

// VerifyAuto is Verify with the operator inferred from the source id of the
// judgment's most recent provenance entry.
func VerifyAuto(j *model.Judgment, inputs []*model.Judgment, weights []float64) (bool, error) {
	last := j.LastEntry()
	if !last.HasSeal() {
		return false, model.ErrMissingSeal
	}
	op, ok := model.OperatorForSource(last.SourceID)
	if !ok {
		return false, model.ErrUnknownOperator
	}
	return Verify(j, op, inputs, weights)
}

// IsWellFormed reports whether s looks like a seal: 64 lowercase hex characters
func IsWellFormed(s string) bool {
	if len(s) != Length {
		return false
	}
	for idx := 0; idx < len(s); idx++ {
		c := s[idx]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func checkInputs(inputs []*model.Judgment, weights []float64) error {
	if len(inputs) == 0 {
		return model.ErrEmptyInput
	}
	if len(inputs) != len(weights) {
		return &model.MismatchedLengthsError{Judgments: len(inputs), Weights: len(weights)}
	}
	for _, in := range inputs {
		if in == nil {
			return model.ErrEmptyInput
		}
	}
	return nil
}
