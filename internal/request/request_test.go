package request

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/trustfuse/internal/mapper"
	"github.com/ppiankov/trustfuse/internal/model"
)

const yamlRequest = `name: deploy-check
operator: cawa
inputs:
  - judgment:
      t: 0.8
      i: 0.2
      f: 0
      provenance:
        - source_id: s1
          timestamp: "2023-01-01T00:00:00Z"
    weight: 0.6
  - mapper: latency-ms
    value: 120
    weight: 0.4
  - ref: 0000000000000000000000000000000000000000000000000000000000000000
    weight: 1
`

func TestDecode_YAML(t *testing.T) {
	doc, err := Decode([]byte(yamlRequest), mapper.FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "deploy-check", doc.Name)
	require.Len(t, doc.Inputs, 3)
	assert.Equal(t, "inline", doc.Inputs[0].Origin())
	assert.Equal(t, "mapper:latency-ms", doc.Inputs[1].Origin())
	assert.Equal(t, 120, doc.Inputs[1].Value)
	assert.Equal(t, []float64{0.6, 0.4, 1}, doc.Weights())

	op, err := doc.ResolveOperator(model.OperatorPessimistic)
	require.NoError(t, err)
	assert.Equal(t, model.OperatorCAWA, op)

	j, err := doc.Inputs[0].Judgment.Judgment()
	require.NoError(t, err)
	assert.Equal(t, "s1", j.FirstSourceID())
}

func TestDecode_JSONAndTOML(t *testing.T) {
	jsonDoc := `{"inputs":[{"judgment":{"t":0.6,"i":0.3,"f":0.1,"provenance_chain":[{"source_id":"s2","timestamp":"2023-01-01T00:00:00Z","description":null,"conformance_seal":null}]},"weight":1}]}`
	doc, err := Decode([]byte(jsonDoc), mapper.FormatJSON)
	require.NoError(t, err)

	j, err := doc.Inputs[0].Judgment.Judgment()
	require.NoError(t, err)
	assert.Equal(t, 0.3, j.I())

	op, err := doc.ResolveOperator(model.OperatorOptimistic)
	require.NoError(t, err)
	assert.Equal(t, model.OperatorOptimistic, op)

	tomlDoc := `operator = "otp-pessimistic-v1.1"

[[inputs]]
mapper = "tls-enabled"
value = "yes"
weight = 2.0

[[inputs]]
weight = 1.0
[inputs.judgment]
t = 0.5
i = 0.5
f = 0.0
[[inputs.judgment.provenance]]
source_id = "scanner"
timestamp = "2024-05-01T00:00:00Z"
`
	doc, err = Decode([]byte(tomlDoc), mapper.FormatTOML)
	require.NoError(t, err)
	require.Len(t, doc.Inputs, 2)
	assert.Equal(t, "yes", doc.Inputs[0].Value)
	assert.Equal(t, "inline", doc.Inputs[1].Origin())
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no inputs", "operator: cawa\ninputs: []\n"},
		{"unknown operator", "operator: median\ninputs:\n  - ref: x\n    weight: 1\n"},
		{"two sources", "inputs:\n  - ref: x\n    mapper: m\n    value: 1\n    weight: 1\n"},
		{"mapper without value", "inputs:\n  - mapper: m\n    weight: 1\n"},
		{"value without mapper", "inputs:\n  - ref: x\n    value: 1\n    weight: 1\n"},
		{"missing weight", "inputs:\n  - ref: x\n"},
		{"nothing set", "inputs:\n  - weight: 1\n"},
		{"unknown key", "inputs:\n  - ref: x\n    weight: 1\n    wieght: 2\n"},
		{"unknown top-level key", "operators: cawa\ninputs:\n  - ref: x\n    weight: 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc), mapper.FormatYAML)
			assert.Error(t, err)
		})
	}

	_, err := Decode([]byte("operator: median\ninputs:\n  - ref: x\n    weight: 1\n"), mapper.FormatYAML)
	assert.ErrorIs(t, err, model.ErrUnknownOperator)

	_, err = Decode([]byte("inputs:\n  - ref: x\n    weight: 1\n    wieght: 2\n"), mapper.FormatYAML)
	assert.ErrorContains(t, err, "parse yaml")
}

func TestJudgmentDoc_Errors(t *testing.T) {
	both := &JudgmentDoc{
		T:               0.5,
		Provenance:      []EntryDoc{{SourceID: "a", Timestamp: "t"}},
		ProvenanceChain: []EntryDoc{{SourceID: "b", Timestamp: "t"}},
	}
	_, err := both.Judgment()
	assert.ErrorIs(t, err, ErrInvalidRequest)

	empty := &JudgmentDoc{T: 0.5}
	_, err = empty.Judgment()
	assert.ErrorIs(t, err, model.ErrEmptyProvenance)

	overfull := &JudgmentDoc{T: 0.9, I: 0.9, Provenance: []EntryDoc{{SourceID: "a", Timestamp: "t"}}}
	_, err = overfull.Judgment()
	assert.ErrorIs(t, err, model.ErrConservationViolation)
}

func TestFromJudgment_RoundTrip(t *testing.T) {
	j, err := model.NewJudgment(0.4, 0.4, 0.2,
		model.NewEntry("s1", "2024-01-01T00:00:00Z"),
		model.NewDescribedEntry("fusion-cawa", "2024-01-02T00:00:00Z", "fused").WithSeal("abc"),
	)
	require.NoError(t, err)

	w := 1.0
	doc := &Document{Inputs: []Input{{Judgment: FromJudgment(j), Weight: &w}}}

	for _, format := range []mapper.Format{mapper.FormatYAML, mapper.FormatJSON, mapper.FormatTOML} {
		t.Run(string(format), func(t *testing.T) {
			data, err := Encode(doc, format)
			require.NoError(t, err)

			decoded, err := Decode(data, format)
			require.NoError(t, err)
			if diff := cmp.Diff(doc, decoded); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}

			back, err := decoded.Inputs[0].Judgment.Judgment()
			require.NoError(t, err)
			assert.True(t, back.Equal(j, 0))
		})
	}
}
