package model

import (
	"errors"
	"fmt"
)

// Error kinds returned by construction, fusion and verification.
// Detail errors below report Is() for their kind so callers can match with errors.Is.
var (
	ErrInvalidValue          = errors.New("invalid value")
	ErrConservationViolation = errors.New("conservation violation")
	ErrEmptyProvenance       = errors.New("provenance chain cannot be empty")
	ErrInvalidProvenance     = errors.New("invalid provenance entry")
	ErrEmptyInput            = errors.New("fusion input cannot be empty")
	ErrMismatchedLengths     = errors.New("judgments and weights length mismatch")
	ErrInvalidWeight         = errors.New("invalid weight")
	ErrMissingSeal           = errors.New("missing conformance seal")
	ErrUnknownOperator       = errors.New("unknown fusion operator")
)

// InvalidValueError reports a T, I or F component outside [0, 1]
type InvalidValueError struct {
	Field string
	Value float64
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid %s value %v: must be between 0 and 1", e.Field, e.Value)
}

func (e *InvalidValueError) Is(target error) bool { return target == ErrInvalidValue }

// ConservationError reports T + I + F exceeding 1 (beyond Epsilon)
type ConservationError struct {
	Sum float64
}

func (e *ConservationError) Error() string {
	return fmt.Sprintf("conservation constraint violated: T + I + F = %v > 1.0", e.Sum)
}

func (e *ConservationError) Is(target error) bool { return target == ErrConservationViolation }

// InvalidProvenanceError reports a malformed provenance entry
type InvalidProvenanceError struct {
	Index  int
	Reason string
}

func (e *InvalidProvenanceError) Error() string {
	return fmt.Sprintf("invalid provenance entry at index %d: %s", e.Index, e.Reason)
}

func (e *InvalidProvenanceError) Is(target error) bool { return target == ErrInvalidProvenance }

// MismatchedLengthsError reports differing judgment and weight counts
type MismatchedLengthsError struct {
	Judgments int
	Weights   int
}

func (e *MismatchedLengthsError) Error() string {
	return fmt.Sprintf("weights length (%d) must match judgments length (%d)", e.Weights, e.Judgments)
}

func (e *MismatchedLengthsError) Is(target error) bool { return target == ErrMismatchedLengths }

// InvalidWeightError reports a negative or non-finite weight, or a zero weight total (Index -1)
type InvalidWeightError struct {
	Index  int
	Value  float64
	Reason string
}

func (e *InvalidWeightError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid weights: %s", e.Reason)
	}
	return fmt.Sprintf("invalid weight at index %d (%v): %s", e.Index, e.Value, e.Reason)
}

func (e *InvalidWeightError) Is(target error) bool { return target == ErrInvalidWeight }
