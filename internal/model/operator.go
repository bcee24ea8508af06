package model

import "fmt"

// Operator identifies a fusion algorithm and its version.
// The id is hashed into every conformance seal, so a formula change ships as a new id.
type Operator string

const (
	OperatorCAWA        Operator = "otp-cawa-v1.1"        // Conflict-aware weighted average
	OperatorOptimistic  Operator = "otp-optimistic-v1.1"  // Max T, min F
	OperatorPessimistic Operator = "otp-pessimistic-v1.1" // Min T, max F
)

// Provenance source ids written on the entry each operator appends
const (
	SourceCAWA        = "fusion-cawa"
	SourceOptimistic  = "fusion-optimistic"
	SourcePessimistic = "fusion-pessimistic"
)

// Operators lists every supported operator
func Operators() []Operator {
	return []Operator{OperatorCAWA, OperatorOptimistic, OperatorPessimistic}
}

// ParseOperator accepts a full operator id or its short name (cawa, optimistic, pessimistic)
func ParseOperator(s string) (Operator, error) {
	switch s {
	case string(OperatorCAWA), "cawa":
		return OperatorCAWA, nil
	case string(OperatorOptimistic), "optimistic":
		return OperatorOptimistic, nil
	case string(OperatorPessimistic), "pessimistic":
		return OperatorPessimistic, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOperator, s)
	}
}

// OperatorForSource maps a fusion entry's source id back to its operator
func OperatorForSource(sourceID string) (Operator, bool) {
	switch sourceID {
	case SourceCAWA:
		return OperatorCAWA, true
	case SourceOptimistic:
		return OperatorOptimistic, true
	case SourcePessimistic:
		return OperatorPessimistic, true
	default:
		return "", false
	}
}

// Valid reports whether the operator is supported
func (o Operator) Valid() bool {
	_, ok := o.source()
	return ok
}

// SourceID returns the provenance source id written by the operator
func (o Operator) SourceID() string {
	s, _ := o.source()
	return s
}

// Label is a short human-readable name
func (o Operator) Label() string {
	switch o {
	case OperatorCAWA:
		return "conflict-aware weighted average"
	case OperatorOptimistic:
		return "optimistic"
	case OperatorPessimistic:
		return "pessimistic"
	default:
		return string(o)
	}
}

func (o Operator) source() (string, bool) {
	switch o {
	case OperatorCAWA:
		return SourceCAWA, true
	case OperatorOptimistic:
		return SourceOptimistic, true
	case OperatorPessimistic:
		return SourcePessimistic, true
	default:
		return "", false
	}
}
