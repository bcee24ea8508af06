package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/trustfuse/internal/canonical"
	"github.com/ppiankov/trustfuse/internal/mapper"
	"github.com/ppiankov/trustfuse/internal/seal"
)

// canonicalCmd represents the canonical command
var canonicalCmd = &cobra.Command{
	Use:   "canonical <request-file|->",
	Short: "Print the canonical form and seal of a request without fusing",
	Long: `Canonical resolves the inputs of a request document and prints the exact
bytes that are hashed into the conformance seal, followed by the seal.

Example:
  trustfuse canonical release-gate.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runCanonical,
}

func init() {
	rootCmd.AddCommand(canonicalCmd)

	canonicalCmd.Flags().StringVar(&formatFlag, "format", "", "request format (yaml, json, toml; default from extension)")
}

func runCanonical(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)

	p, err := newPipeline(cmdContext(cmd), cfg)
	if err != nil {
		return err
	}

	loaded, err := p.Load(ctx, args[0], mapper.Format(formatFlag))
	if err != nil {
		return fmt.Errorf("load request: %w", err)
	}
	if err := loaded.Document.Validate(); err != nil {
		return err
	}

	op, err := p.OperatorFor(loaded.Document)
	if err != nil {
		return err
	}
	inputs, err := p.Resolve(ctx, loaded.Document)
	if err != nil {
		return err
	}

	b := canonical.Canonicalize(inputs, loaded.Document.Weights(), op)
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	fmt.Fprintln(cmd.OutOrStdout(), seal.Generate(b))
	return nil
}
