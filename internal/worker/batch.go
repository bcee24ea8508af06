package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/trustfuse/internal/mapper"
	"github.com/ppiankov/trustfuse/internal/model"
	"github.com/ppiankov/trustfuse/internal/pipeline"
	"github.com/ppiankov/trustfuse/internal/request"
)

// Fuser loads and fuses request documents
type Fuser interface {
	Load(ctx context.Context, path string, format mapper.Format) (*pipeline.LoadResult, error)
	OperatorFor(doc *request.Document) (model.Operator, error)
	FuseLoaded(ctx context.Context, loaded *pipeline.LoadResult) (*pipeline.FuseResult, error)
}

// FuseJob fuses one request file
type FuseJob struct {
	Index   int
	Path    string
	Format  mapper.Format
	Fuser   Fuser
	Limiter *Limiter
}

// Execute executes the fusion job
func (j *FuseJob) Execute(ctx context.Context) Result {
	out := &FuseJobResult{Index: j.Index, Path: j.Path}

	loaded, err := j.Fuser.Load(ctx, j.Path, j.Format)
	if err != nil {
		out.Error = err
		return out
	}

	op, err := j.Fuser.OperatorFor(loaded.Document)
	if err != nil {
		out.Error = err
		return out
	}
	out.Operator = op

	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, string(op)); err != nil {
			out.Error = fmt.Errorf("rate limit: %w", err)
			return out
		}
	}

	result, err := j.Fuser.FuseLoaded(ctx, loaded)
	if err != nil {
		out.Error = err
		return out
	}
	out.Subject = result.Subject
	out.Report = result.Report
	return out
}

// FuseJobResult represents the result of a fusion job
type FuseJobResult struct {
	Index    int
	Path     string
	Subject  string
	Operator model.Operator
	Report   *model.Report
	Error    error
}

// GetError returns the error from the fusion result
func (r *FuseJobResult) GetError() error {
	return r.Error
}

// Run is one batch invocation
type Run struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Results   []*FuseJobResult // In input order
}

// Failed returns the number of requests that did not produce a report
func (r *Run) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Error != nil {
			n++
		}
	}
	return n
}

// BatchProcessor fuses multiple request files concurrently
type BatchProcessor struct {
	fuser       Fuser
	concurrency int
	limiter     *Limiter
	logger      *zap.Logger
}

// NewBatchProcessor creates a new batch processor. Runs are throttled per
// operator at requestsPerSecond (0 disables throttling).
func NewBatchProcessor(fuser Fuser, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	return &BatchProcessor{
		fuser:       fuser,
		concurrency: concurrency,
		limiter:     NewLimiter(requestsPerSecond, burst),
		logger:      zap.NewNop(),
	}
}

// SetLogger sets the logger used for per-request progress
func (b *BatchProcessor) SetLogger(l *zap.Logger) {
	if l != nil {
		b.logger = l
	}
}

// ProcessPaths fuses the given request files concurrently
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string, format mapper.Format) *Run {
	run := &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Results:   []*FuseJobResult{},
	}
	if len(paths) == 0 {
		return run
	}

	logger := b.logger.With(zap.String("run_id", run.ID))
	logger.Info("batch started", zap.Int("requests", len(paths)), zap.Int("concurrency", b.concurrency))

	jobs := make([]Job, len(paths))
	for idx, path := range paths {
		jobs[idx] = &FuseJob{
			Index:   idx,
			Path:    path,
			Format:  format,
			Fuser:   b.fuser,
			Limiter: b.limiter,
		}
	}

	done := make([]bool, len(paths))
	for _, result := range NewPool(ctx, b.concurrency).Run(jobs) {
		res := result.(*FuseJobResult)
		if res.Error != nil {
			logger.Warn("request failed", zap.String("path", res.Path), zap.Error(res.Error))
		} else {
			logger.Debug("request fused", zap.String("path", res.Path), zap.String("seal", res.Report.Seal))
		}
		done[res.Index] = true
		run.Results = append(run.Results, res)
	}

	// Requests never started because ctx ended
	for idx, ok := range done {
		if !ok {
			run.Results = append(run.Results, &FuseJobResult{Index: idx, Path: paths[idx], Error: context.Cause(ctx)})
		}
	}

	sort.Slice(run.Results, func(i, j int) bool {
		return run.Results[i].Index < run.Results[j].Index
	})

	run.Duration = time.Since(run.StartedAt)
	logger.Info("batch finished", zap.Int("failed", run.Failed()), zap.Duration("duration", run.Duration))
	return run
}

// ProcessFile fuses every request named in a list file, or every request
// file in a directory
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string, format mapper.Format) (*Run, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}

	var paths []string
	if info.IsDir() {
		paths, err = RequestFilesInDir(path)
	} else {
		paths, err = ReadRequestList(path)
	}
	if err != nil {
		return nil, err
	}

	return b.ProcessPaths(ctx, paths, format), nil
}

// ReadRequestList reads request paths from a file (one per line). Relative
// paths are resolved against the list file's directory.
func ReadRequestList(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	base := filepath.Dir(filePath)

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}
		line = filepath.Clean(line)

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}

// RequestFilesInDir lists the request files directly inside dir, sorted
func RequestFilesInDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if _, err := mapper.FormatForPath(path); err != nil {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}
