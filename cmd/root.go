package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/datachat-cli/internal/config"
	"github.com/KaramelBytes/datachat-cli/internal/logging"
)

var (
	cfgFile string
	debug   bool
	// Provider/model overrides
	flagProvider string
	flagModel    string
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int
	flagExecTimeoutSec   int

	// Loaded configuration
	cfg    *cfgpkg.Global
	logger = zap.NewNop()
)

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	warnMark = color.New(color.FgYellow).Sprint("⚠")
	failMark = color.New(color.FgRed).Sprint("✗")
)

var rootCmd = &cobra.Command{
	Use:   "datachat",
	Short: "DataChat CLI: talk to a CSV and get analyses, charts and insights",
	Long: `DataChat loads a tabular dataset and answers questions about it. Analysis
requests are turned into Go code by a language model, run in an embedded
interpreter against the dataset, and the INSIGHT lines they print are kept as
a running memory of conclusions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, failMark, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.datachat/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "model provider: gemini | openrouter | ollama (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "model name (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagExecTimeoutSec, "exec-timeout", 0, "wall-clock budget for generated code in seconds (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "%s Warning: failed to load config: %v\n", warnMark, err)
		return
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("provider") && flagProvider != "" {
		cfg.DefaultProvider = flagProvider
	}
	if f.Changed("model") && flagModel != "" {
		cfg.DefaultModel = flagModel
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
	if f.Changed("exec-timeout") && flagExecTimeoutSec >= 0 {
		cfg.ExecTimeoutSec = flagExecTimeoutSec
	}

	l, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Debug: debug})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s Warning: logging disabled: %v\n", warnMark, err)
		return
	}
	logger = l
}

// loadedConfig returns the loaded configuration, loading it on demand for tests
// that run commands without OnInitialize.
func loadedConfig() (*cfgpkg.Global, error) {
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
