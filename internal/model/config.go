package model

import "time"

// Config holds every tunable setting of the trustfuse CLI
type Config struct {
	Fusion       FusionConfig       `yaml:"fusion" mapstructure:"fusion"`
	Input        InputConfig        `yaml:"input" mapstructure:"input"`
	Ledger       LedgerConfig       `yaml:"ledger" mapstructure:"ledger"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
	Mappers      MappersConfig      `yaml:"mappers" mapstructure:"mappers"`
}

// FusionConfig controls fusion defaults
type FusionConfig struct {
	DefaultOperator string `yaml:"default_operator" mapstructure:"default_operator"` // Used when a request names none
	VerifyAfterFuse bool   `yaml:"verify_after_fuse" mapstructure:"verify_after_fuse"`
}

// InputConfig controls how request documents are read
type InputConfig struct {
	MaxBytes int64 `yaml:"max_bytes" mapstructure:"max_bytes"` // Largest accepted request document
}

// LedgerConfig controls where fused judgments are kept between commands
type LedgerConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `yaml:"dir" mapstructure:"dir"`       // Archive directory ("" keeps judgments in memory only)
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`       // Memory layer expiry
	DiskTTL time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"` // Archive expiry (0 = keep)
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig throttles batch fusion per operator (0 rps = unlimited)
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
	Pretty  bool `yaml:"pretty" mapstructure:"pretty"`
}

// LoggingConfig controls the zap logger
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// MappersConfig points at mapper definition files loaded into the registry
type MappersConfig struct {
	Files []string `yaml:"files" mapstructure:"files"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Fusion: FusionConfig{
			DefaultOperator: string(OperatorCAWA),
			VerifyAfterFuse: true,
		},
		Input: InputConfig{
			MaxBytes: 1 << 20,
		},
		Ledger: LedgerConfig{
			Enabled: true,
			TTL:     time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 0,
			BurstSize:         10,
		},
		Output: OutputConfig{
			Pretty: true,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}
