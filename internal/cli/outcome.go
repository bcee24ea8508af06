package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/trustfuse/internal/model"
)

var (
	outcomeT      float64
	outcomeI      float64
	outcomeF      float64
	outcomeKind   string
	outcomeOracle string
)

// outcomeCmd represents the outcome command
var outcomeCmd = &cobra.Command{
	Use:   "outcome <judgment-id>",
	Short: "Record what actually happened after a decision",
	Long: `Outcome records an oracle's judgment of the real-world result of a
decision that was informed by a fused judgment. The decision is named by
its judgment id (printed by 'fuse') and must be present in the ledger.

Example:
  trustfuse outcome 38c83be5... --type success --oracle deploy-monitor --t 1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(cmdContext(cmd), cfg)
		if err != nil {
			return err
		}

		o, err := p.RecordOutcome(args[0], outcomeT, outcomeI, outcomeF, model.OutcomeKind(outcomeKind), outcomeOracle)
		if err != nil {
			return fmt.Errorf("record outcome: %w", err)
		}

		data, err := json.MarshalIndent(o, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(outcomeCmd)

	outcomeCmd.Flags().Float64Var(&outcomeT, "t", 0, "truth of the outcome")
	outcomeCmd.Flags().Float64Var(&outcomeI, "i", 0, "indeterminacy of the outcome")
	outcomeCmd.Flags().Float64Var(&outcomeF, "f", 0, "falsity of the outcome")
	outcomeCmd.Flags().StringVar(&outcomeKind, "type", string(model.OutcomeSuccess), "outcome type (success, failure, partial)")
	outcomeCmd.Flags().StringVar(&outcomeOracle, "oracle", "", "source reporting the outcome")
	_ = outcomeCmd.MarkFlagRequired("oracle")
}
