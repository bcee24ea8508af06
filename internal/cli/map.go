package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/trustfuse/internal/mapper"
	"github.com/ppiankov/trustfuse/internal/model"
)

var (
	mapperFiles  []string
	exportFormat string
)

// mapCmd represents the map command
var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Turn raw observations into judgments with configured mappers",
	Long: `Mappers convert numbers, categories and booleans into (T, I, F)
judgments. They are defined in YAML, JSON or TOML files listed under
'mappers.files' in the config, or passed with --mappers.`,
}

var mapApplyCmd = &cobra.Command{
	Use:   "apply <mapper-id> <value>",
	Short: "Apply a mapper to a value and print the judgment",
	Long: `Apply maps one raw value and prints the resulting judgment as JSON.

Example:
  trustfuse map apply latency-ms 240
  trustfuse map apply build-status green
  trustfuse map apply tests-passed yes`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := mapRegistry(cmdContext(cmd))
		if err != nil {
			return err
		}

		m, ok := registry.Get(args[0])
		if !ok {
			return fmt.Errorf("%w: %s", mapper.ErrMapperNotFound, args[0])
		}

		j, err := registry.Apply(args[0], rawValue(m.Kind(), args[1]))
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

var mapListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered mappers",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := mapRegistry(cmdContext(cmd))
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tVERSION\tDESCRIPTION")
		for _, id := range registry.List() {
			m, _ := registry.Get(id)
			c := m.Config()
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Type, c.Version, c.Description)
		}
		return w.Flush()
	},
}

var mapExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print every registered mapper as one document",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := mapRegistry(cmdContext(cmd))
		if err != nil {
			return err
		}

		data, err := mapper.Encode(registry.Export(), mapper.Format(exportFormat))
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var mapValidateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate mapper files and report every problem",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, path := range args {
			cfgs, err := mapper.LoadFile(path)
			if err != nil {
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "✗ %s: %v\n", path, err)
				continue
			}
			for _, c := range cfgs {
				res := mapper.Validate(c)
				if res.Valid() {
					fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %s\n", path, c.ID)
					continue
				}
				failed++
				for _, e := range res.Errors {
					fmt.Fprintf(cmd.OutOrStdout(), "✗ %s: %s: %s\n", path, c.ID, e)
				}
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d invalid mapper definitions", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mapCmd)
	mapCmd.AddCommand(mapApplyCmd, mapListCmd, mapExportCmd, mapValidateCmd)

	mapCmd.PersistentFlags().StringSliceVar(&mapperFiles, "mappers", nil, "mapper files to load (added to mappers.files)")
	mapExportCmd.Flags().StringVar(&exportFormat, "format", string(mapper.FormatYAML), "output format (yaml, json, toml)")
}

// mapRegistry loads the configured mapper files plus any given by flag
func mapRegistry(ctx context.Context) (*mapper.Registry, error) {
	c := *cfg
	c.Mappers.Files = append(append([]string{}, cfg.Mappers.Files...), mapperFiles...)
	return newRegistry(ctx, &c)
}

// rawValue converts a command-line argument for a mapper of the given kind
func rawValue(kind mapper.Kind, arg string) interface{} {
	if kind == mapper.KindNumerical {
		return json.Number(arg)
	}
	return arg
}
