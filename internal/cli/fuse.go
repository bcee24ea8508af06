package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/trustfuse/internal/mapper"
	"github.com/ppiankov/trustfuse/internal/model"
)

var (
	outJSON      string
	outJudgment  string
	operatorFlag string
	formatFlag   string
	timeout      time.Duration
)

// fuseCmd represents the fuse command
var fuseCmd = &cobra.Command{
	Use:   "fuse <request-file|->",
	Short: "Fuse the judgments of a request document and seal the result",
	Long: `Fuse reads a request document (YAML, JSON or TOML) listing weighted
inputs, and:
- Resolves inline judgments, mapper values and ledger references
- Fuses them with the requested operator (CAWA by default)
- Seals the result and re-derives the seal from the inputs
- Records the fused judgment in the ledger for later reference
- Prints a summary with transparent diagnostics

Example:
  trustfuse fuse release-gate.yaml
  trustfuse fuse release-gate.yaml --operator pessimistic --json report.json
  cat request.json | trustfuse fuse - --format json --judgment fused.json`,
	Args: cobra.ExactArgs(1),
	RunE: runFuse,
}

func init() {
	rootCmd.AddCommand(fuseCmd)

	fuseCmd.Flags().StringVar(&outJSON, "json", "", "write the full report as JSON to this path")
	fuseCmd.Flags().StringVar(&outJudgment, "judgment", "", "write the fused judgment as JSON to this path")
	fuseCmd.Flags().StringVar(&operatorFlag, "operator", "", "override the request's operator (cawa, optimistic, pessimistic or full id)")
	fuseCmd.Flags().StringVar(&formatFlag, "format", "", "request format (yaml, json, toml; default from extension)")
	fuseCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall timeout")
}

func runFuse(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(cmdContext(cmd), timeout)
	defer cancel()

	p, err := newPipeline(cmdContext(cmd), cfg)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Request: %s\n", path)
		fmt.Fprintf(os.Stderr, "Mappers: %d\n", p.Registry().Len())
		fmt.Fprintln(os.Stderr)
	}

	loaded, err := p.Load(ctx, path, mapper.Format(formatFlag))
	if err != nil {
		return fmt.Errorf("load request: %w", err)
	}
	if operatorFlag != "" {
		op, err := model.ParseOperator(operatorFlag)
		if err != nil {
			return err
		}
		loaded.Document.Operator = string(op)
	}

	result, err := p.FuseLoaded(ctx, loaded)
	if err != nil {
		return fmt.Errorf("fuse failed: %w", err)
	}

	if outJudgment != "" {
		data, err := model.ToJSON(result.Report.Result, cfg.Output.Pretty)
		if err != nil {
			return err
		}
		if err := os.WriteFile(outJudgment, append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("write judgment: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote judgment: %s\n", outJudgment)
		}
	}

	if err := p.RenderReport(result.Report, outJSON, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}

// cmdContext returns the command's context, or Background for commands run
// outside Execute
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
