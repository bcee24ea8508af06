package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/trustfuse/internal/fusion"
	"github.com/ppiankov/trustfuse/internal/ledger"
	"github.com/ppiankov/trustfuse/internal/mapper"
	"github.com/ppiankov/trustfuse/internal/model"
	"github.com/ppiankov/trustfuse/internal/request"
	"github.com/ppiankov/trustfuse/internal/score"
	"github.com/ppiankov/trustfuse/internal/seal"
)

// ErrUnknownJudgment is returned when a ledger reference cannot be resolved
var ErrUnknownJudgment = errors.New("judgment not found in ledger")

// Pipeline orchestrates a fusion run: resolve inputs, fuse, check the seal,
// diagnose, record
type Pipeline struct {
	loader   *Loader
	registry *mapper.Registry
	ledger   ledger.Store // Optional (nil disables refs and recording)
	engine   *fusion.Engine
	scorer   *score.Scorer
	renderer *Renderer
	config   *model.Config
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a pipeline
type Option func(*Pipeline)

// WithRegistry sets the mapper registry used for mapper inputs
func WithRegistry(r *mapper.Registry) Option {
	return func(p *Pipeline) { p.registry = r }
}

// WithLedger sets the store used for ref inputs and for recording results
func WithLedger(s ledger.Store) Option {
	return func(p *Pipeline) { p.ledger = s }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock sets the time source for fusion entries and report timestamps
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		loader:   NewLoader(cfg.Input.MaxBytes),
		scorer:   score.NewScorer(),
		renderer: NewRenderer(cfg.Output.Pretty),
		config:   cfg,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.registry == nil {
		p.registry = mapper.NewRegistry(p.logger)
	}
	p.engine = fusion.NewEngine(fusion.WithClock(p.now), fusion.WithLogger(p.logger))
	return p
}

// FuseResult contains the report of a run and the resolved inputs behind it
type FuseResult struct {
	Report  *model.Report
	Inputs  []*model.Judgment
	Weights []float64
	Subject string
}

// FuseFile loads a request document and fuses it
func (p *Pipeline) FuseFile(ctx context.Context, path string, format mapper.Format) (*FuseResult, error) {
	loaded, err := p.Load(ctx, path, format)
	if err != nil {
		return nil, err
	}
	return p.FuseLoaded(ctx, loaded)
}

// Load reads a request document without fusing it
func (p *Pipeline) Load(ctx context.Context, path string, format mapper.Format) (*LoadResult, error) {
	return p.loader.Load(ctx, path, format)
}

// FuseLoaded fuses a document returned by Load
func (p *Pipeline) FuseLoaded(ctx context.Context, loaded *LoadResult) (*FuseResult, error) {
	result, err := p.Fuse(ctx, loaded.Document)
	if err != nil {
		return nil, err
	}
	result.Subject = loaded.Subject
	return result, nil
}

// OperatorFor returns the operator a document will be fused with
func (p *Pipeline) OperatorFor(doc *request.Document) (model.Operator, error) {
	return doc.ResolveOperator(p.defaultOperator())
}

// Fuse runs one request and builds its report
func (p *Pipeline) Fuse(ctx context.Context, doc *request.Document) (*FuseResult, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	// 1. Resolve operator and inputs
	op, err := doc.ResolveOperator(p.defaultOperator())
	if err != nil {
		return nil, fmt.Errorf("operator: %w", err)
	}

	inputs, err := p.Resolve(ctx, doc)
	if err != nil {
		return nil, err
	}
	weights := doc.Weights()

	// 2. Fuse
	res, err := p.engine.FuseDetailed(op, inputs, weights)
	if err != nil {
		return nil, fmt.Errorf("fuse: %w", err)
	}

	// 3. Independent seal check
	verified := false
	if p.config.Fusion.VerifyAfterFuse {
		ok, err := seal.Verify(res.Judgment, op, inputs, weights)
		if err != nil {
			return nil, fmt.Errorf("verify: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("verify: seal of fresh fusion does not match its inputs")
		}
		verified = true
	}

	// 4. Diagnostics (never affect the result)
	diagnostics := p.scorer.Calculate(res, inputs)

	// 5. Record
	id := p.record(res.Judgment)

	report := &model.Report{
		Operator:    op,
		FusedAt:     p.now().UTC(),
		Inputs:      summarizeInputs(doc, inputs),
		Result:      res.Judgment,
		JudgmentID:  id,
		Seal:        res.Seal,
		Verified:    verified,
		Diagnostics: diagnostics,
	}

	return &FuseResult{
		Report:  report,
		Inputs:  inputs,
		Weights: weights,
		Subject: doc.Name,
	}, nil
}

// Resolve turns every request input into a judgment, in request order
func (p *Pipeline) Resolve(ctx context.Context, doc *request.Document) ([]*model.Judgment, error) {
	out := make([]*model.Judgment, len(doc.Inputs))
	for idx, in := range doc.Inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		j, err := p.resolveInput(in)
		if err != nil {
			return nil, fmt.Errorf("input %d (%s): %w", idx, in.Origin(), err)
		}
		out[idx] = j
	}
	return out, nil
}

func (p *Pipeline) resolveInput(in request.Input) (*model.Judgment, error) {
	switch {
	case in.Judgment != nil:
		return in.Judgment.Judgment()
	case in.Mapper != "":
		return p.registry.Apply(in.Mapper, in.Value)
	default:
		if p.ledger == nil {
			return nil, fmt.Errorf("%w: ledger is disabled", ErrUnknownJudgment)
		}
		j, ok := p.ledger.Get(in.Ref)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownJudgment, in.Ref)
		}
		return j, nil
	}
}

// Verify re-derives the seal of a fused judgment from the inputs named by
// doc. The operator comes from doc when set, otherwise from the judgment's
// fusion entry.
func (p *Pipeline) Verify(ctx context.Context, j *model.Judgment, doc *request.Document) (bool, error) {
	inputs, err := p.Resolve(ctx, doc)
	if err != nil {
		return false, err
	}

	if doc.Operator == "" {
		return seal.VerifyAuto(j, inputs, doc.Weights())
	}
	op, err := model.ParseOperator(doc.Operator)
	if err != nil {
		return false, err
	}
	return seal.Verify(j, op, inputs, doc.Weights())
}

// Lookup returns a judgment from the ledger
func (p *Pipeline) Lookup(id string) (*model.Judgment, error) {
	if p.ledger == nil {
		return nil, fmt.Errorf("%w: ledger is disabled", ErrUnknownJudgment)
	}
	j, ok := p.ledger.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJudgment, id)
	}
	return j, nil
}

// RecordOutcome builds an outcome for an earlier decision and stores its
// judgment. With a ledger configured the decision must be known to it.
func (p *Pipeline) RecordOutcome(linksTo string, t, i, f float64, kind model.OutcomeKind, oracle string) (*model.Outcome, error) {
	if p.ledger != nil {
		if _, ok := p.ledger.Get(linksTo); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownJudgment, linksTo)
		}
	}

	entry := model.NewDescribedEntry(oracle, p.now().UTC().Format(time.RFC3339),
		fmt.Sprintf("%s outcome for %s", kind, linksTo))
	o, err := seal.NewOutcome(linksTo, t, i, f, kind, oracle, entry)
	if err != nil {
		return nil, err
	}

	p.record(o.Judgment)
	return o, nil
}

// RenderReport renders the report to the specified outputs
func (p *Pipeline) RenderReport(report *model.Report, jsonPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	// Print summary to stdout
	p.renderer.RenderSummary(report)

	return nil
}

// Renderer returns the pipeline's renderer
func (p *Pipeline) Renderer() *Renderer { return p.renderer }

// Registry returns the pipeline's mapper registry
func (p *Pipeline) Registry() *mapper.Registry { return p.registry }

// record stores j in the ledger when one is configured and returns its id.
// A failed write is logged; the id is still returned.
func (p *Pipeline) record(j *model.Judgment) string {
	if p.ledger == nil || !p.config.Ledger.Enabled {
		return ledger.ID(j)
	}

	id, err := p.ledger.Put(j, p.config.Ledger.TTL)
	if err != nil {
		p.logger.Warn("failed to record judgment", zap.Error(err))
		return ledger.ID(j)
	}
	p.logger.Debug("recorded judgment", zap.String("id", id))
	return id
}

func (p *Pipeline) defaultOperator() model.Operator {
	op, err := model.ParseOperator(p.config.Fusion.DefaultOperator)
	if err != nil {
		return model.OperatorCAWA
	}
	return op
}

func summarizeInputs(doc *request.Document, inputs []*model.Judgment) []model.Input {
	out := make([]model.Input, len(inputs))
	for idx, j := range inputs {
		out[idx] = model.Input{
			Origin:   doc.Inputs[idx].Origin(),
			SourceID: j.FirstSourceID(),
			Weight:   *doc.Inputs[idx].Weight,
			T:        j.T(),
			I:        j.I(),
			F:        j.F(),
		}
	}
	return out
}
