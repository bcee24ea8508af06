// Package request defines fusion request documents: the operator to run and
// the weighted inputs to fuse, written as YAML, JSON or TOML.
package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/trustfuse/internal/mapper"
	"github.com/ppiankov/trustfuse/internal/model"
)

// ErrInvalidRequest is returned for structurally invalid documents
var ErrInvalidRequest = errors.New("invalid fusion request")

// Document is one fusion request
type Document struct {
	Name     string  `yaml:"name,omitempty" json:"name,omitempty" toml:"name,omitempty"`
	Operator string  `yaml:"operator,omitempty" json:"operator,omitempty" toml:"operator,omitempty"` // Empty uses the configured default
	Inputs   []Input `yaml:"inputs" json:"inputs" toml:"inputs"`
}

// Input is one weighted fusion input. Exactly one of Judgment, Mapper or Ref is set.
type Input struct {
	Judgment *JudgmentDoc `yaml:"judgment,omitempty" json:"judgment,omitempty" toml:"judgment,omitempty"`
	Mapper   string       `yaml:"mapper,omitempty" json:"mapper,omitempty" toml:"mapper,omitempty"`
	Value    interface{}  `yaml:"value,omitempty" json:"value,omitempty" toml:"value,omitempty"`
	Ref      string       `yaml:"ref,omitempty" json:"ref,omitempty" toml:"ref,omitempty"` // Judgment id in the ledger
	Weight   *float64     `yaml:"weight" json:"weight" toml:"weight"`
}

// Origin describes where the input comes from
func (in Input) Origin() string {
	switch {
	case in.Judgment != nil:
		return "inline"
	case in.Mapper != "":
		return "mapper:" + in.Mapper
	default:
		return "ref:" + in.Ref
	}
}

// JudgmentDoc is a judgment as written in a request. Either provenance or
// provenance_chain may carry the chain, so fused output can be pasted back in.
type JudgmentDoc struct {
	T               float64    `yaml:"t" json:"t" toml:"t"`
	I               float64    `yaml:"i" json:"i" toml:"i"`
	F               float64    `yaml:"f" json:"f" toml:"f"`
	Provenance      []EntryDoc `yaml:"provenance,omitempty" json:"provenance,omitempty" toml:"provenance,omitempty"`
	ProvenanceChain []EntryDoc `yaml:"provenance_chain,omitempty" json:"provenance_chain,omitempty" toml:"provenance_chain,omitempty"`
}

// EntryDoc is a provenance entry as written in a request
type EntryDoc struct {
	SourceID        string  `yaml:"source_id" json:"source_id" toml:"source_id"`
	Timestamp       string  `yaml:"timestamp" json:"timestamp" toml:"timestamp"`
	Description     *string `yaml:"description,omitempty" json:"description,omitempty" toml:"description,omitempty"`
	ConformanceSeal *string `yaml:"conformance_seal,omitempty" json:"conformance_seal,omitempty" toml:"conformance_seal,omitempty"`
}

// Judgment validates the document and builds the judgment it describes
func (d *JudgmentDoc) Judgment() (*model.Judgment, error) {
	chain := d.Provenance
	if len(d.ProvenanceChain) > 0 {
		if len(chain) > 0 {
			return nil, fmt.Errorf("%w: set either provenance or provenance_chain, not both", ErrInvalidRequest)
		}
		chain = d.ProvenanceChain
	}

	entries := make([]model.ProvenanceEntry, len(chain))
	for idx, e := range chain {
		entries[idx] = model.ProvenanceEntry{
			SourceID:        e.SourceID,
			Timestamp:       e.Timestamp,
			Description:     e.Description,
			ConformanceSeal: e.ConformanceSeal,
		}
	}
	return model.NewJudgment(d.T, d.I, d.F, entries...)
}

// FromJudgment converts a judgment into its request form
func FromJudgment(j *model.Judgment) *JudgmentDoc {
	chain := j.Provenance()
	doc := &JudgmentDoc{T: j.T(), I: j.I(), F: j.F(), Provenance: make([]EntryDoc, len(chain))}
	for idx, e := range chain {
		doc.Provenance[idx] = EntryDoc{
			SourceID:        e.SourceID,
			Timestamp:       e.Timestamp,
			Description:     e.Description,
			ConformanceSeal: e.ConformanceSeal,
		}
	}
	return doc
}

// Validate checks the document structure. Numeric weight checks are left to
// the fusion engine so that its error kinds reach the caller unchanged.
func (d *Document) Validate() error {
	if len(d.Inputs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, model.ErrEmptyInput)
	}
	if d.Operator != "" {
		if _, err := model.ParseOperator(d.Operator); err != nil {
			return fmt.Errorf("%w: %q", err, d.Operator)
		}
	}

	for idx, in := range d.Inputs {
		set := 0
		if in.Judgment != nil {
			set++
		}
		if in.Mapper != "" {
			set++
		}
		if strings.TrimSpace(in.Ref) != "" {
			set++
		}
		switch {
		case set != 1:
			return fmt.Errorf("%w: input %d must set exactly one of judgment, mapper or ref", ErrInvalidRequest, idx)
		case in.Mapper != "" && in.Value == nil:
			return fmt.Errorf("%w: input %d uses mapper %s without a value", ErrInvalidRequest, idx, in.Mapper)
		case in.Mapper == "" && in.Value != nil:
			return fmt.Errorf("%w: input %d sets a value without a mapper", ErrInvalidRequest, idx)
		case in.Weight == nil:
			return fmt.Errorf("%w: input %d has no weight", ErrInvalidRequest, idx)
		}
	}
	return nil
}

// ResolveOperator returns the requested operator, or def when none is named
func (d *Document) ResolveOperator(def model.Operator) (model.Operator, error) {
	if d.Operator == "" {
		return def, nil
	}
	return model.ParseOperator(d.Operator)
}

// Weights returns the weight of every input in order
func (d *Document) Weights() []float64 {
	out := make([]float64, len(d.Inputs))
	for idx, in := range d.Inputs {
		if in.Weight != nil {
			out[idx] = *in.Weight
		}
	}
	return out
}

// Decode parses and validates a request document
func Decode(data []byte, format mapper.Format) (*Document, error) {
	var doc Document
	switch format {
	case mapper.FormatYAML:
		if err := mapper.UnmarshalYAMLStrict(data, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case mapper.FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	case mapper.FormatTOML:
		md, err := toml.Decode(string(data), &doc)
		if err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parse toml: unknown key %s", undecoded[0])
		}
	default:
		return nil, fmt.Errorf("unsupported request format %q", format)
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Encode renders a request document
func Encode(doc *Document, format mapper.Format) ([]byte, error) {
	switch format {
	case mapper.FormatYAML:
		return yaml.Marshal(doc)
	case mapper.FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case mapper.FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported request format %q", format)
	}
}
