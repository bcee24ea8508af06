package model

import "time"

// Report is the complete record of one fusion run, as rendered by the CLI
type Report struct {
	Operator   Operator  `json:"operator"`    // Operator id hashed into the seal
	FusedAt    time.Time `json:"fused_at"`    // Wall-clock time of the run
	Inputs     []Input   `json:"inputs"`      // Inputs in request order
	Result     *Judgment `json:"result"`      // Fused judgment including its provenance
	JudgmentID string    `json:"judgment_id"` // Id of Result in the ledger
	Seal       string    `json:"seal"`        // Conformance seal on Result
	Verified   bool      `json:"verified"`    // Seal re-derived from the inputs

	Diagnostics Diagnostics `json:"diagnostics"`
}

// Input summarizes one fusion input
type Input struct {
	Origin   string  `json:"origin"` // inline, mapper:<id>, or ref:<judgment id>
	SourceID string  `json:"source_id"`
	Weight   float64 `json:"weight"`
	T        float64 `json:"t"`
	I        float64 `json:"i"`
	F        float64 `json:"f"`
}

// Diagnostics is the transparent breakdown of a fusion result
type Diagnostics struct {
	Confidence string   `json:"confidence"` // "low", "medium", "high"
	Conflict   bool     `json:"conflict"`   // Inputs disagree on truth
	Signals    []Signal `json:"signals"`
}

// Signal is a diagnostic observation with the data used to derive it
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"` // Formulas and inputs
}

// SignalType classifies a diagnostic signal
type SignalType string

const (
	SignalTruthDisagreement SignalType = "truth_disagreement" // Spread of T across inputs
	SignalIndeterminacy     SignalType = "indeterminacy"      // Share of mass left undecided
	SignalWeightDominance   SignalType = "weight_dominance"   // One input carries most of the weight
	SignalRenormalized      SignalType = "renormalized"       // Output was scaled to conserve mass
	SignalSingleSource      SignalType = "single_source"      // All inputs share one source
	SignalUnsealedInput     SignalType = "unsealed_input"     // A fused input arrived without its seal
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
