package model

import (
	"errors"
	"strings"
)

// OutcomeKind classifies the real-world result of a decision
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeFailure OutcomeKind = "failure"
	OutcomePartial OutcomeKind = "partial"
)

// Outcome records what actually happened after a decision informed by a judgment.
// LinksTo holds the judgment id of that decision; ID is derived from the
// outcome's own canonical form.
type Outcome struct {
	ID       string      `json:"judgment_id"`
	LinksTo  string      `json:"links_to_judgment_id"`
	Kind     OutcomeKind `json:"outcome_type"`
	Oracle   string      `json:"oracle_source"`
	Judgment *Judgment   `json:"judgment"`
}

// NewOutcome validates an outcome without assigning its id
func NewOutcome(linksTo string, t, i, f float64, kind OutcomeKind, oracle string, entries ...ProvenanceEntry) (*Outcome, error) {
	if strings.TrimSpace(linksTo) == "" {
		return nil, errors.New("outcome must link to a judgment id")
	}
	switch kind {
	case OutcomeSuccess, OutcomeFailure, OutcomePartial:
	default:
		return nil, errors.New("unknown outcome type: " + string(kind))
	}

	j, err := NewJudgment(t, i, f, entries...)
	if err != nil {
		return nil, err
	}

	return &Outcome{LinksTo: linksTo, Kind: kind, Oracle: oracle, Judgment: j}, nil
}
