package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/trustfuse/internal/mapper"
	"github.com/ppiankov/trustfuse/internal/pipeline"
	"github.com/ppiankov/trustfuse/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <list-file|dir>",
	Short: "Fuse many request documents in parallel",
	Long: `Batch fuses multiple request documents concurrently:
- Read request paths from a list file (one per line, # comments), or take
  every .yaml/.yml/.json/.toml file in a directory
- Fuse requests in parallel with a configurable worker count
- Throttle runs per operator (rate_limiting in the config)
- Write an individual JSON report for each request

Example:
  trustfuse batch requests.txt
  trustfuse batch ./requests --concurrency 8 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers, else CPU count)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./trustfuse-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&formatFlag, "format", "", "request format (yaml, json, toml; default from extension)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	input := args[0]
	ctx, cancel := context.WithTimeout(cmdContext(cmd), batchTimeout)
	defer cancel()

	workers := concurrency
	if workers <= 0 {
		workers = cfg.Concurrency.Workers
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  trustfuse Batch Fusion\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input:        %s\n", input)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if cfg.RateLimiting.RequestsPerSecond > 0 {
		fmt.Fprintf(os.Stderr, "  Rate limit:   %.2f/s per operator (burst %d)\n", cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	}
	fmt.Fprintf(os.Stderr, "\n")

	// Create output directory
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := newPipeline(cmdContext(cmd), cfg)
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(p, workers, cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	processor.SetLogger(logger)

	fmt.Fprintf(os.Stderr, "⚙️  Fusing requests with %d workers...\n", workers)
	fmt.Fprintf(os.Stderr, "\n")

	run, err := processor.ProcessFile(ctx, input, mapper.Format(formatFlag))
	if err != nil {
		return fmt.Errorf("process input: %w", err)
	}

	successCount := 0
	used := make(map[string]int)

	for _, result := range run.Results {
		if result.Error != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		// Subjects may repeat across files
		name := result.Subject
		if n := used[name]; n > 0 {
			name = fmt.Sprintf("%s-%d", name, n+1)
		}
		used[result.Subject]++

		jsonPath := pipeline.ReportPath(outputDir, name)
		if err := p.Renderer().RenderJSON(result.Report, jsonPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Path, err)
			continue
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (T=%.3f I=%.3f F=%.3f, %s)\n", result.Subject,
			result.Report.Result.T(), result.Report.Result.I(), result.Report.Result.F(),
			result.Report.Diagnostics.Confidence)
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Run:       %s\n", run.ID)
	fmt.Fprintf(os.Stderr, "  Total:     %d requests\n", len(run.Results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", len(run.Results)-successCount)
	fmt.Fprintf(os.Stderr, "  Duration:  %v\n", run.Duration.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if successCount < len(run.Results) {
		return fmt.Errorf("%d of %d requests failed", len(run.Results)-successCount, len(run.Results))
	}
	return nil
}
