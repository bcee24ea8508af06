package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/trustfuse/internal/mapper"
	"github.com/ppiankov/trustfuse/internal/model"
)

// errSealMismatch is returned by verify when the recomputed seal differs
var errSealMismatch = errors.New("conformance seal does not match the inputs")

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <judgment.json> <request-file>",
	Short: "Re-derive the conformance seal of a fused judgment",
	Long: `Verify recomputes the seal of a fused judgment from the inputs, weights
and operator named in a request document, and compares it to the seal
recorded in the judgment's fusion entry.

The judgment file may be a judgment written by 'fuse --judgment' or a full
report written by 'fuse --json'. When the request names no operator, the
operator is taken from the judgment's fusion entry.

Example:
  trustfuse verify fused.json release-gate.yaml`,
	Args: cobra.ExactArgs(2),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&formatFlag, "format", "", "request format (yaml, json, toml; default from extension)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)

	j, err := readJudgment(args[0])
	if err != nil {
		return err
	}

	p, err := newPipeline(cmdContext(cmd), cfg)
	if err != nil {
		return err
	}

	loaded, err := p.Load(ctx, args[1], mapper.Format(formatFlag))
	if err != nil {
		return fmt.Errorf("load request: %w", err)
	}

	ok, err := p.Verify(ctx, j, loaded.Document)
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}

	s, _ := j.Seal()
	if !ok {
		fmt.Fprintf(cmd.OutOrStdout(), "✗ Seal mismatch: %s\n", s)
		return errSealMismatch
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Seal verified: %s\n", s)
	return nil
}

// readJudgment loads a judgment, or the result of a report
func readJudgment(path string) (*model.Judgment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read judgment: %w", err)
	}

	var probe struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &probe); err == nil && len(probe.Result) > 0 {
		data = probe.Result
	}

	j, err := model.FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parse judgment %s: %w", path, err)
	}
	return j, nil
}
