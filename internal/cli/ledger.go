package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/trustfuse/internal/ledger"
	"github.com/ppiankov/trustfuse/internal/model"
)

// ledgerCmd represents the ledger command
var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect judgments recorded by earlier runs",
	Long: `The ledger keeps every fused judgment and outcome under its judgment id
so later requests can reference it with 'ref:'. Judgments are archived
as one JSON file per id in ledger.dir.`,
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived judgment ids",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := archive().List()
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var ledgerShowCmd = &cobra.Command{
	Use:   "show <judgment-id>",
	Short: "Print a recorded judgment as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(cmdContext(cmd), cfg)
		if err != nil {
			return err
		}
		j, err := p.Lookup(args[0])
		if err != nil {
			return err
		}
		data, err := model.ToJSON(j, true)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var ledgerDeleteCmd = &cobra.Command{
	Use:   "delete <judgment-id>...",
	Short: "Remove judgments from the archive",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := archive()
		for _, id := range args {
			if err := store.Delete(id); err != nil {
				return fmt.Errorf("delete %s: %w", id, err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.AddCommand(ledgerListCmd, ledgerShowCmd, ledgerDeleteCmd)
}

func archive() *ledger.ArchiveStore {
	return ledger.NewArchiveStore(cfg.Ledger.Dir, cfg.Ledger.DiskTTL)
}
