package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/trustfuse/internal/ledger"
	"github.com/ppiankov/trustfuse/internal/mapper"
	"github.com/ppiankov/trustfuse/internal/model"
	"github.com/ppiankov/trustfuse/internal/request"
)

var runAt = time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)

func newTestPipeline(t *testing.T, store ledger.Store) *Pipeline {
	t.Helper()

	registry := mapper.NewRegistry(nil)
	_, err := registry.RegisterConfig(mapper.Config{
		ID:      "latency-ms",
		Version: "1",
		Type:    mapper.KindNumerical,
		Numerical: &mapper.NumericalParams{
			FalsityPoint:       1000,
			IndeterminacyPoint: 500,
			TruthPoint:         100,
		},
	}, mapper.WithClock(func() time.Time { return runAt }))
	require.NoError(t, err)

	opts := []Option{WithRegistry(registry), WithClock(func() time.Time { return runAt })}
	if store != nil {
		opts = append(opts, WithLedger(store))
	}
	return NewPipeline(model.DefaultConfig(), opts...)
}

func weight(w float64) *float64 { return &w }

func inline(tv, iv, fv float64, source string) *request.JudgmentDoc {
	return &request.JudgmentDoc{
		T: tv, I: iv, F: fv,
		Provenance: []request.EntryDoc{{SourceID: source, Timestamp: "2023-01-01T00:00:00Z"}},
	}
}

func scenarioDoc() *request.Document {
	return &request.Document{
		Name: "scenario",
		Inputs: []request.Input{
			{Judgment: inline(0.8, 0.2, 0, "s1"), Weight: weight(0.6)},
			{Judgment: inline(0.6, 0.3, 0.1, "s2"), Weight: weight(0.4)},
		},
	}
}

func TestPipeline_Fuse(t *testing.T) {
	store := ledger.NewMemoryStore(0, time.Minute)
	p := newTestPipeline(t, store)

	result, err := p.Fuse(context.Background(), scenarioDoc())
	require.NoError(t, err)

	r := result.Report
	assert.Equal(t, model.OperatorCAWA, r.Operator)
	assert.True(t, r.Verified)
	assert.Equal(t, runAt, r.FusedAt)
	assert.InDelta(t, 0.692352, r.Result.T(), 1e-9)
	assert.Equal(t, ledger.ID(r.Result), r.JudgmentID)
	assert.Equal(t, "high", r.Diagnostics.Confidence)

	require.Len(t, r.Inputs, 2)
	assert.Equal(t, "inline", r.Inputs[0].Origin)
	assert.Equal(t, "s2", r.Inputs[1].SourceID)
	assert.Equal(t, 0.4, r.Inputs[1].Weight)

	stored, ok := store.Get(r.JudgmentID)
	require.True(t, ok)
	assert.True(t, stored.Equal(r.Result, 0))
}

func TestPipeline_FuseMapperAndRef(t *testing.T) {
	store := ledger.NewMemoryStore(0, time.Minute)
	p := newTestPipeline(t, store)

	first, err := p.Fuse(context.Background(), scenarioDoc())
	require.NoError(t, err)

	doc := &request.Document{
		Operator: "pessimistic",
		Inputs: []request.Input{
			{Mapper: "latency-ms", Value: 300, Weight: weight(1)},
			{Ref: first.Report.JudgmentID, Weight: weight(1)},
		},
	}
	second, err := p.Fuse(context.Background(), doc)
	require.NoError(t, err)

	r := second.Report
	assert.Equal(t, model.OperatorPessimistic, r.Operator)
	assert.Equal(t, "mapper:latency-ms", r.Inputs[0].Origin)
	assert.Equal(t, "latency-ms", r.Inputs[0].SourceID)
	assert.InDelta(t, 0.5, r.Result.T(), 1e-12)

	// The referenced fused input keeps its seal in the new chain
	chain := r.Result.Provenance()
	require.Len(t, chain, 3)
	assert.True(t, chain[1].HasSeal())
}

func TestPipeline_FuseErrors(t *testing.T) {
	p := newTestPipeline(t, nil)
	ctx := context.Background()

	_, err := p.Fuse(ctx, &request.Document{Inputs: []request.Input{{Ref: "abc", Weight: weight(1)}}})
	assert.ErrorIs(t, err, ErrUnknownJudgment)

	_, err = p.Fuse(ctx, &request.Document{Inputs: []request.Input{{Mapper: "nope", Value: 1, Weight: weight(1)}}})
	assert.ErrorIs(t, err, mapper.ErrMapperNotFound)

	doc := scenarioDoc()
	doc.Inputs[1].Weight = weight(-1)
	_, err = p.Fuse(ctx, doc)
	assert.ErrorIs(t, err, model.ErrInvalidWeight)

	_, err = p.Fuse(ctx, &request.Document{})
	assert.ErrorIs(t, err, request.ErrInvalidRequest)
}

func TestPipeline_Verify(t *testing.T) {
	p := newTestPipeline(t, nil)
	ctx := context.Background()

	result, err := p.Fuse(ctx, scenarioDoc())
	require.NoError(t, err)

	ok, err := p.Verify(ctx, result.Report.Result, scenarioDoc())
	require.NoError(t, err)
	assert.True(t, ok)

	tampered := scenarioDoc()
	tampered.Inputs[0].Weight = weight(0.5)
	ok, err = p.Verify(ctx, result.Report.Result, tampered)
	require.NoError(t, err)
	assert.False(t, ok)

	explicit := scenarioDoc()
	explicit.Operator = string(model.OperatorOptimistic)
	ok, err = p.Verify(ctx, result.Report.Result, explicit)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPipeline_FuseSameResultDifferentWeights(t *testing.T) {
	store := ledger.NewMemoryStore(0, time.Minute)
	p := newTestPipeline(t, store)
	ctx := context.Background()

	doc := func(w1, w2 float64) *request.Document {
		return &request.Document{
			Operator: "optimistic",
			Inputs: []request.Input{
				{Judgment: inline(0.8, 0.1, 0.1, "s1"), Weight: weight(w1)},
				{Judgment: inline(0.6, 0.2, 0.2, "s2"), Weight: weight(w2)},
			},
		}
	}

	even, err := p.Fuse(ctx, doc(1, 1))
	require.NoError(t, err)
	skewed, err := p.Fuse(ctx, doc(1, 3))
	require.NoError(t, err)

	// Same components and clock, different seals
	assert.Equal(t, even.Report.Result.T(), skewed.Report.Result.T())
	assert.Equal(t, even.Report.Result.I(), skewed.Report.Result.I())
	assert.Equal(t, even.Report.Result.F(), skewed.Report.Result.F())
	require.NotEqual(t, even.Report.Seal, skewed.Report.Seal)
	assert.NotEqual(t, even.Report.JudgmentID, skewed.Report.JudgmentID)

	stored, ok := store.Get(even.Report.JudgmentID)
	require.True(t, ok)
	ok, err = p.Verify(ctx, stored, doc(1, 1))
	require.NoError(t, err)
	assert.True(t, ok)

	stored, ok = store.Get(skewed.Report.JudgmentID)
	require.True(t, ok)
	ok, err = p.Verify(ctx, stored, doc(1, 3))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPipeline_RecordOutcome(t *testing.T) {
	store := ledger.NewMemoryStore(0, time.Minute)
	p := newTestPipeline(t, store)

	result, err := p.Fuse(context.Background(), scenarioDoc())
	require.NoError(t, err)

	o, err := p.RecordOutcome(result.Report.JudgmentID, 1, 0, 0, model.OutcomeSuccess, "deploy-monitor")
	require.NoError(t, err)
	assert.Equal(t, result.Report.JudgmentID, o.LinksTo)

	_, ok := store.Get(o.ID)
	assert.True(t, ok)

	_, err = p.RecordOutcome(o.ID+"x", 1, 0, 0, model.OutcomeSuccess, "deploy-monitor")
	assert.ErrorIs(t, err, ErrUnknownJudgment)
}

func TestPipeline_FuseFileAndRender(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "gate.yaml", minimalRequest)

	p := newTestPipeline(t, nil)
	var summary bytes.Buffer
	p.renderer.out = &summary

	result, err := p.FuseFile(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, "gate", result.Subject)

	out := ReportPath(filepath.Join(dir, "reports"), result.Subject)
	require.NoError(t, p.RenderReport(result.Report, out, false))

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var decoded model.Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, result.Report.Seal, decoded.Seal)
	assert.True(t, decoded.Result.Equal(result.Report.Result, 0))

	assert.Contains(t, summary.String(), result.Report.Seal)
	assert.Contains(t, summary.String(), "otp-cawa-v1.1")
}

func TestPipeline_OperatorFor(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Fusion.DefaultOperator = "pessimistic"
	p := NewPipeline(cfg)

	op, err := p.OperatorFor(&request.Document{})
	require.NoError(t, err)
	assert.Equal(t, model.OperatorPessimistic, op)

	op, err = p.OperatorFor(&request.Document{Operator: "optimistic"})
	require.NoError(t, err)
	assert.Equal(t, model.OperatorOptimistic, op)

	_, err = p.OperatorFor(&request.Document{Operator: "median"})
	assert.ErrorIs(t, err, model.ErrUnknownOperator)
}
