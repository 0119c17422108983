package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/TansyBytes/tidytab-cli/internal/assist"
	cfgpkg "github.com/TansyBytes/tidytab-cli/internal/config"
	"github.com/TansyBytes/tidytab-cli/internal/infer"
	"github.com/TansyBytes/tidytab-cli/internal/store"
	"github.com/spf13/cobra"
)

var (
	// Global flags (wired later to config/viper)
	cfgFile string
	debug   bool
	// Inference flags (override config if set)
	flagGenTimeoutSec    int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "tidytab",
	Short: "TidyTab CLI: profile and clean tabular datasets with a local model",
	Long:  `TidyTab is a CLI tool that profiles tabular datasets (CSV, JSON, XLSX, Parquet), cleans them with a deterministic policy, and narrates the cleaning through a local Ollama model. It also keeps a chat mode with persistent per-user history.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.tidytab/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().IntVar(&flagGenTimeoutSec, "gen-timeout", 0, "generation timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", -1, "max query retries, 0 disables retries (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("gen-timeout") && flagGenTimeoutSec > 0 {
		cfg.GenTimeoutSec = flagGenTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts >= 0 {
		cfg.MaxRetries = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
}

// ensureConfig returns the loaded configuration, loading it on demand
// when a command runs outside the usual cobra initialization path.
func ensureConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

// newInferClient builds the Ollama client from configuration.
func newInferClient(c *cfgpkg.Global) *infer.Client {
	return infer.NewClient(infer.Config{
		Host:       c.OllamaHost,
		Binary:     c.OllamaBin,
		GenTimeout: time.Duration(c.GenTimeoutSec) * time.Second,
		MaxRetries: c.MaxRetries,
		BaseDelay:  time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
	})
}

// openStore opens the conversation store at the configured path.
func openStore(c *cfgpkg.Global) (*store.Store, error) {
	return store.Open(c.DBPath)
}

// friendly prefixes typed pipeline errors with their user-facing
// sentence, keeping the original error for diagnosis.
func friendly(err error) error {
	if err == nil {
		return nil
	}
	if assist.Classify(err) != assist.KindUnknown {
		return fmt.Errorf("%s (%w)", assist.FriendlyMessage(err), err)
	}
	return err
}

// debugf prints diagnostics to stderr when --debug is set.
func debugf(format string, args ...any) {
	if debug {
		fmt.Fprintf(os.Stderr, "DEBUG: "+format+"\n", args...)
	}
}
