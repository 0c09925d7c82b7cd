package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	DefaultProvider string  `mapstructure:"default_provider" yaml:"default_provider"`
	DefaultModel    string  `mapstructure:"default_model" yaml:"default_model"`
	GeminiAPIKey    string  `mapstructure:"gemini_api_key" yaml:"gemini_api_key"`
	APIKey          string  `mapstructure:"api_key" yaml:"api_key"`
	MaxTokens       int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature     float64 `mapstructure:"temperature" yaml:"temperature"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local runtimes (Ollama)
	OllamaHost       string `mapstructure:"ollama_host" yaml:"ollama_host"`
	OllamaTimeoutSec int    `mapstructure:"ollama_timeout_sec" yaml:"ollama_timeout_sec"`

	// Analysis
	SampleRows        int `mapstructure:"sample_rows" yaml:"sample_rows"`
	SampleTokenLimit  int `mapstructure:"sample_token_limit" yaml:"sample_token_limit"`
	ExecTimeoutSec    int `mapstructure:"exec_timeout_sec" yaml:"exec_timeout_sec"`
	IntentCacheTTLSec int `mapstructure:"intent_cache_ttl_sec" yaml:"intent_cache_ttl_sec"`

	// Logging
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`

	// Front-ends
	HistoryFile   string `mapstructure:"history_file" yaml:"history_file"`
	ServeAddr     string `mapstructure:"serve_addr" yaml:"serve_addr"`
	SessionTTLMin int    `mapstructure:"session_ttl_min" yaml:"session_ttl_min"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"default_provider", "default_model", "gemini_api_key", "api_key",
	"max_tokens", "temperature",
	"http_timeout_sec", "retry_max_attempts", "retry_base_delay_ms", "retry_max_delay_ms",
	"ollama_host", "ollama_timeout_sec",
	"sample_rows", "sample_token_limit", "exec_timeout_sec", "intent_cache_ttl_sec",
	"log_level", "log_file", "history_file", "serve_addr", "session_ttl_min",
}

// Dir returns ~/.datachat.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".datachat"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.datachat/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DATACHAT")
	v.AutomaticEnv()
	// provider conventions
	_ = v.BindEnv("gemini_api_key", "DATACHAT_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("api_key", "DATACHAT_API_KEY", "OPENROUTER_API_KEY")

	v.SetDefault("default_provider", "gemini")
	v.SetDefault("default_model", "gemini-2.0-flash-lite")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("api_key", "")
	v.SetDefault("max_tokens", 2048)
	v.SetDefault("temperature", 0.2)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	// Ollama defaults
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("ollama_timeout_sec", 120)
	// analysis defaults
	v.SetDefault("sample_rows", 20)
	v.SetDefault("sample_token_limit", 3000)
	v.SetDefault("exec_timeout_sec", 30)
	v.SetDefault("intent_cache_ttl_sec", 600)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("history_file", "")
	v.SetDefault("serve_addr", ":8080")
	v.SetDefault("session_ttl_min", 60)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.HistoryFile == "" {
		if dir, err := Dir(); err == nil {
			c.HistoryFile = filepath.Join(dir, "history")
		}
	}
	return &c, nil
}

// Set assigns a single key by name using the same decoding rules as Load.
func (c *Global) Set(key, value string) error {
	if !IsKey(key) {
		return fmt.Errorf("unknown config key %q", key)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	var current map[string]any
	if err := yaml.Unmarshal(b, &current); err != nil {
		return fmt.Errorf("unmarshal yaml: %w", err)
	}
	current[key] = value

	v := viper.New()
	if err := v.MergeConfigMap(current); err != nil {
		return fmt.Errorf("merge config: %w", err)
	}
	var out Global
	if err := v.Unmarshal(&out); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*c = out
	return nil
}

// Get renders a single key the way it would appear in the config file.
func (c *Global) Get(key string) (string, error) {
	if !IsKey(key) {
		return "", fmt.Errorf("unknown config key %q", key)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal yaml: %w", err)
	}
	var current map[string]any
	if err := yaml.Unmarshal(b, &current); err != nil {
		return "", fmt.Errorf("unmarshal yaml: %w", err)
	}
	return fmt.Sprint(current[key]), nil
}

// IsKey reports whether key is a known configuration key.
func IsKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// HTTPTimeout and friends convert the integer settings into durations.
func (c *Global) HTTPTimeout() time.Duration { return time.Duration(c.HTTPTimeoutSec) * time.Second }

func (c *Global) OllamaTimeout() time.Duration {
	return time.Duration(c.OllamaTimeoutSec) * time.Second
}

func (c *Global) ExecTimeout() time.Duration { return time.Duration(c.ExecTimeoutSec) * time.Second }

func (c *Global) IntentCacheTTL() time.Duration {
	return time.Duration(c.IntentCacheTTLSec) * time.Second
}

func (c *Global) SessionTTL() time.Duration { return time.Duration(c.SessionTTLMin) * time.Minute }

func (c *Global) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMs) * time.Millisecond
}

func (c *Global) RetryMaxDelay() time.Duration {
	return time.Duration(c.RetryMaxDelayMs) * time.Millisecond
}
