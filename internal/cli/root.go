package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/trustfuse/internal/buildinfo"
	"github.com/ppiankov/trustfuse/internal/ledger"
	"github.com/ppiankov/trustfuse/internal/logging"
	"github.com/ppiankov/trustfuse/internal/mapper"
	"github.com/ppiankov/trustfuse/internal/model"
	"github.com/ppiankov/trustfuse/internal/pipeline"
)

var (
	cfgFile string
	envFile string
	verbose bool

	cfg    *model.Config
	logger = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "trustfuse",
	Short: "trustfuse - Neutrosophic judgment fusion with conformance seals",
	Long: `trustfuse combines independent (T, I, F) judgments about a proposition
into one fused judgment and stamps it with a conformance seal.

T is the degree of truth, I of indeterminacy and F of falsity, with
T + I + F <= 1. Every judgment carries the provenance chain of the sources
behind it. A fused judgment's seal is the SHA-256 of the canonical form of
its inputs, weights and operator, so anyone holding the same inputs can
re-derive it.

trustfuse reports evidence; it does not make the decision.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = loaded

		l, err := logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("logging: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for trustfuse.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.trustfuse/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading TRUSTFUSE_* variables")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("ledger-dir", "", "ledger archive directory (default: $HOME/.trustfuse/ledger)")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("ledger.dir", rootCmd.PersistentFlags().Lookup("ledger-dir"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in .env, the config file and ENV variables
func initConfig() {
	// Missing dotenv files are fine
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".trustfuse"))
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match TRUSTFUSE_* (ledger.dir -> TRUSTFUSE_LEDGER_DIR)
	viper.SetEnvPrefix("TRUSTFUSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults(model.DefaultConfig())

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every key so AutomaticEnv can override it
func setDefaults(d *model.Config) {
	viper.SetDefault("fusion.default_operator", d.Fusion.DefaultOperator)
	viper.SetDefault("fusion.verify_after_fuse", d.Fusion.VerifyAfterFuse)
	viper.SetDefault("input.max_bytes", d.Input.MaxBytes)
	viper.SetDefault("ledger.enabled", d.Ledger.Enabled)
	viper.SetDefault("ledger.dir", d.Ledger.Dir)
	viper.SetDefault("ledger.ttl", d.Ledger.TTL)
	viper.SetDefault("ledger.disk_ttl", d.Ledger.DiskTTL)
	viper.SetDefault("concurrency.workers", d.Concurrency.Workers)
	viper.SetDefault("rate_limiting.requests_per_second", d.RateLimiting.RequestsPerSecond)
	viper.SetDefault("rate_limiting.burst_size", d.RateLimiting.BurstSize)
	viper.SetDefault("output.verbose", d.Output.Verbose)
	viper.SetDefault("output.pretty", d.Output.Pretty)
	viper.SetDefault("logging.level", d.Logging.Level)
	viper.SetDefault("logging.format", d.Logging.Format)
	viper.SetDefault("mappers.files", d.Mappers.Files)
}

// loadConfig merges defaults, config file, env and flags into a Config
func loadConfig() (*model.Config, error) {
	c := model.DefaultConfig()
	if err := viper.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if c.Ledger.Dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Ledger.Dir = filepath.Join(home, ".trustfuse", "ledger")
		}
	}
	if _, err := model.ParseOperator(c.Fusion.DefaultOperator); err != nil {
		return nil, fmt.Errorf("config: fusion.default_operator: %w", err)
	}
	return c, nil
}

// newLedger builds the judgment store described by the config
func newLedger(c *model.Config) ledger.Store {
	if !c.Ledger.Enabled {
		return nil
	}
	if c.Ledger.Dir == "" {
		return ledger.NewMemoryStore(c.Ledger.TTL, c.Ledger.TTL)
	}
	return ledger.NewLayeredStore(c.Ledger.TTL, c.Ledger.Dir, c.Ledger.DiskTTL)
}

// newRegistry loads every mapper file named in the config
func newRegistry(ctx context.Context, c *model.Config) (*mapper.Registry, error) {
	registry := mapper.NewRegistry(logger)
	n, err := registry.LoadFiles(ctx, c.Mappers.Files)
	if err != nil {
		return nil, fmt.Errorf("load mappers: %w", err)
	}
	logger.Debug("loaded mappers", zap.Strings("files", c.Mappers.Files), zap.Int("count", n))
	return registry, nil
}

// newPipeline wires the pipeline from the loaded config
func newPipeline(ctx context.Context, c *model.Config) (*pipeline.Pipeline, error) {
	registry, err := newRegistry(ctx, c)
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithRegistry(registry),
		pipeline.WithLogger(logger),
	}
	if store := newLedger(c); store != nil {
		opts = append(opts, pipeline.WithLedger(store))
	}
	return pipeline.NewPipeline(c, opts...), nil
}
