package seal

import (
	"github.com/ppiankov/trustfuse/internal/canonical"
	"github.com/ppiankov/trustfuse/internal/model"
)

// JudgmentID identifies a judgment by the hash of its canonical form.
// Seals are not part of the id.
func JudgmentID(j *model.Judgment) string {
	return Generate(canonical.JudgmentBytes(j))
}

// RecordID identifies a stored judgment. It covers every seal in the chain,
// so two fusions that differ only in their seals get different record ids.
// For a judgment without seals it equals JudgmentID.
func RecordID(j *model.Judgment) string {
	return Generate(canonical.RecordBytes(j))
}

// NewOutcome builds an outcome and assigns its id
func NewOutcome(linksTo string, t, i, f float64, kind model.OutcomeKind, oracle string, entries ...model.ProvenanceEntry) (*model.Outcome, error) {
	o, err := model.NewOutcome(linksTo, t, i, f, kind, oracle, entries...)
	if err != nil {
		return nil, err
	}
	o.ID = JudgmentID(o.Judgment)
	return o, nil
}
