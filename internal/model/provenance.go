package model

import "strings"

// ProvenanceEntry is one record in a judgment's audit trail
type ProvenanceEntry struct {
	SourceID        string  `json:"source_id"`        // Identifier of the evidence source or fusion operator
	Timestamp       string  `json:"timestamp"`        // ISO-8601 text, opaque to the core
	Description     *string `json:"description"`      // Optional free text
	ConformanceSeal *string `json:"conformance_seal"` // Set only on entries produced by fusion
}

// Source is the minimal (source id, timestamp) pair used to build raw evidence entries
type Source struct {
	ID        string
	Timestamp string
}

// NewEntry creates a provenance entry without description or seal
func NewEntry(sourceID, timestamp string) ProvenanceEntry {
	return ProvenanceEntry{SourceID: sourceID, Timestamp: timestamp}
}

// NewDescribedEntry creates a provenance entry with a description
func NewDescribedEntry(sourceID, timestamp, description string) ProvenanceEntry {
	return ProvenanceEntry{SourceID: sourceID, Timestamp: timestamp, Description: &description}
}

// WithSeal returns a copy of the entry carrying the given conformance seal
func (e ProvenanceEntry) WithSeal(seal string) ProvenanceEntry {
	c := e.clone()
	c.ConformanceSeal = &seal
	return c
}

// HasSeal reports whether the entry carries a conformance seal
func (e ProvenanceEntry) HasSeal() bool {
	return e.ConformanceSeal != nil && *e.ConformanceSeal != ""
}

// DescriptionText returns the description or "" when absent
func (e ProvenanceEntry) DescriptionText() string {
	if e.Description == nil {
		return ""
	}
	return *e.Description
}

// SealText returns the seal or "" when absent
func (e ProvenanceEntry) SealText() string {
	if e.ConformanceSeal == nil {
		return ""
	}
	return *e.ConformanceSeal
}

// Equal compares two entries field by field, including optional fields
func (e ProvenanceEntry) Equal(o ProvenanceEntry) bool {
	return e.SourceID == o.SourceID &&
		e.Timestamp == o.Timestamp &&
		optEqual(e.Description, o.Description) &&
		optEqual(e.ConformanceSeal, o.ConformanceSeal)
}

// clone deep-copies the optional fields so no two chains share storage
func (e ProvenanceEntry) clone() ProvenanceEntry {
	c := ProvenanceEntry{SourceID: e.SourceID, Timestamp: e.Timestamp}
	if e.Description != nil {
		d := *e.Description
		c.Description = &d
	}
	if e.ConformanceSeal != nil {
		s := *e.ConformanceSeal
		c.ConformanceSeal = &s
	}
	return c
}

func (e ProvenanceEntry) validate(index int) error {
	if strings.TrimSpace(e.SourceID) == "" {
		return &InvalidProvenanceError{Index: index, Reason: "source_id is required"}
	}
	if strings.TrimSpace(e.Timestamp) == "" {
		return &InvalidProvenanceError{Index: index, Reason: "timestamp is required"}
	}
	return nil
}

func optEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func cloneChain(chain []ProvenanceEntry) []ProvenanceEntry {
	out := make([]ProvenanceEntry, len(chain))
	for i, e := range chain {
		out[i] = e.clone()
	}
	return out
}
