// Package daemon manages the attest daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all daemon configuration.
type Config struct {
	Node     NodeConfig     `toml:"node"`
	API      APIConfig      `toml:"api"`
	Protocol ProtocolConfig `toml:"protocol"`
	Logging  LoggingConfig  `toml:"logging"`
}

// NodeConfig identifies this node.
type NodeConfig struct {
	ID      string `toml:"id"`
	DataDir string `toml:"data_dir"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	Metrics     bool     `toml:"metrics"`
}

// ProtocolConfig controls the verifiable-execution protocol core.
type ProtocolConfig struct {
	CommitmentWindowSeconds     int     `toml:"commitment_window_seconds"`
	SubmissionWindowSeconds     int     `toml:"submission_window_seconds"`
	MaxProofRetries             int     `toml:"max_proof_retries"`
	RetryDelayMs                int     `toml:"retry_delay_ms"`
	EnableCommitmentFallback    bool    `toml:"enable_commitment_fallback"`
	CommitmentPaymentMultiplier float64 `toml:"commitment_payment_multiplier"`
	MaxConsecutiveFailures      int     `toml:"max_consecutive_failures"`
	SuspensionDurationMs        int     `toml:"suspension_duration_ms"`
	NetworkMaxRetries           int     `toml:"network_max_retries"`
	NetworkBackoffCapMs         int     `toml:"network_backoff_cap_ms"`
	CleanupIntervalMinutes      int     `toml:"cleanup_interval_minutes"`
	CommitmentMaxAgeHours       int     `toml:"commitment_max_age_hours"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	homeDir := attestHome()
	return Config{
		Node: NodeConfig{
			DataDir: filepath.Join(homeDir, "data"),
		},
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        7410,
			CORSOrigins: []string{"*"},
			Metrics:     true,
		},
		Protocol: ProtocolConfig{
			CommitmentWindowSeconds:     300,
			SubmissionWindowSeconds:     3600,
			MaxProofRetries:             2,
			RetryDelayMs:                5000,
			EnableCommitmentFallback:    true,
			CommitmentPaymentMultiplier: 0.5,
			MaxConsecutiveFailures:      3,
			SuspensionDurationMs:        3600000,
			NetworkMaxRetries:           5,
			NetworkBackoffCapMs:         30000,
			CleanupIntervalMinutes:      60,
			CommitmentMaxAgeHours:       24,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join(homeDir, "attest.log"),
		},
	}
}

// Validate rejects configuration the protocol cannot run with.
func (c Config) Validate() error {
	p := c.Protocol
	if p.CommitmentWindowSeconds <= 0 || p.SubmissionWindowSeconds <= 0 {
		return fmt.Errorf("commitment and submission windows must be positive")
	}
	if p.CommitmentPaymentMultiplier < 0 || p.CommitmentPaymentMultiplier > 1 {
		return fmt.Errorf("commitment_payment_multiplier must be in [0,1], got %v", p.CommitmentPaymentMultiplier)
	}
	if p.MaxConsecutiveFailures < 1 {
		return fmt.Errorf("max_consecutive_failures must be at least 1")
	}
	if p.MaxProofRetries < 0 || p.NetworkMaxRetries < 0 {
		return fmt.Errorf("retry budgets must not be negative")
	}
	return nil
}

// LoadConfig reads config from ~/.attest/config.toml, falling back to defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(attestHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet — use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes the config to ~/.attest/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(attestHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// attestHome returns the attest data directory.
func attestHome() string {
	if env := os.Getenv("ATTEST_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".attest")
}
