package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datachat-cli/internal/agent"
	"github.com/KaramelBytes/datachat-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/datachat-cli/internal/config"
	"github.com/KaramelBytes/datachat-cli/internal/frame"
	"github.com/KaramelBytes/datachat-cli/internal/orchestrator"
	"github.com/KaramelBytes/datachat-cli/internal/sandbox"
)

// buildRuntime resolves the provider and its credentials from config.
func buildRuntime(cfg *cfgpkg.Global) (ai.Runtime, string, error) {
	providerName := strings.ToLower(strings.TrimSpace(cfg.DefaultProvider))
	switch providerName {
	case "", "google":
		providerName = ai.ProviderGemini
	case "local":
		providerName = ai.ProviderOllama
	}

	rc := ai.RuntimeConfig{
		HTTPTimeout: cfg.HTTPTimeout(),
		RetryMax:    cfg.RetryMaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay(),
		MaxDelay:    cfg.RetryMaxDelay(),
	}
	switch providerName {
	case ai.ProviderGemini:
		rc.APIKey = cfg.GeminiAPIKey
	case ai.ProviderOpenRouter:
		rc.APIKey = cfg.APIKey
	case ai.ProviderOllama:
		rc.Host = cfg.OllamaHost
		if cfg.OllamaTimeoutSec > 0 {
			rc.HTTPTimeout = cfg.OllamaTimeout()
		}
	}
	rt, err := ai.ResolveRuntime(providerName, rc)
	if err != nil {
		return nil, "", err
	}
	return rt, providerName, nil
}

func buildGateway(cfg *cfgpkg.Global) (*ai.Gateway, error) {
	rt, provider, err := buildRuntime(cfg)
	if err != nil {
		return nil, err
	}
	if provider != ai.ProviderOllama && missingKey(cfg, provider) {
		fmt.Fprintf(os.Stderr, "%s Warning: no API key configured for %s; model calls will fail (set GEMINI_API_KEY or OPENROUTER_API_KEY)\n", warnMark, provider)
	}
	return ai.NewGateway(rt, ai.GatewayOptions{
		Provider:    provider,
		Model:       cfg.DefaultModel,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Logger:      logger,
	}), nil
}

func missingKey(cfg *cfgpkg.Global, provider string) bool {
	if provider == ai.ProviderGemini {
		return cfg.GeminiAPIKey == ""
	}
	return cfg.APIKey == ""
}

// buildOrchestrator wires the whole assistant from config.
func buildOrchestrator(cfg *cfgpkg.Global) (*orchestrator.Orchestrator, error) {
	gw, err := buildGateway(cfg)
	if err != nil {
		return nil, err
	}
	return orchestrator.New(orchestrator.Deps{
		Classifier:  agent.NewClassifier(gw, cfg.IntentCacheTTL(), logger),
		Responder:   agent.NewResponder(gw, logger),
		Synthesizer: agent.NewSynthesizer(gw, cfg.SampleTokenLimit, logger),
		Executor:    newExecutor(cfg),
	}, orchestrator.Options{SampleRows: cfg.SampleRows, Logger: logger}), nil
}

func newExecutor(cfg *cfgpkg.Global) *sandbox.Executor {
	return sandbox.New(cfg.ExecTimeout(), logger.Named("sandbox"))
}

// frameFlags are the parsing knobs shared by the dataset-loading commands.
type frameFlags struct {
	delimiter string
	decimal   string
	thousands string
	maxRows   int
	sheet     string
}

func (ff frameFlags) options() (frame.Options, error) {
	opt := frame.DefaultOptions()
	if ff.maxRows > 0 {
		opt.MaxRows = ff.maxRows
	}
	switch ff.delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	case "|", "pipe":
		opt.Delimiter = '|'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", ff.delimiter)
	}
	if ff.sheet != "" {
		if n, err := strconv.Atoi(ff.sheet); err == nil {
			opt.SheetIndex = n
		} else {
			opt.Sheet = ff.sheet
		}
	}
	// Locale separators
	switch strings.ToLower(strings.TrimSpace(ff.decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", ff.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(ff.thousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", ff.thousands)
	}
	return opt, nil
}

func (ff *frameFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&ff.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | 'pipe' (sniffed if omitted)")
	f.StringVar(&ff.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	f.StringVar(&ff.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	f.StringVar(&ff.sheet, "sheet", "", "worksheet name or 1-based index for .xlsx input (default first)")
	f.IntVar(&ff.maxRows, "max-rows", 0, "maximum rows to load (0 = default 1,000,000)")
}
