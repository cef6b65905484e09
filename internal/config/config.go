// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the tradingagents configuration.
type Config struct {
	Agent     AgentConfig     `toml:"agent"`
	Trading   TradingConfig   `toml:"trading"`
	LLM       LLMConfig       `toml:"llm"`      // Quick tier: analysts and debaters
	DeepLLM   LLMConfig       `toml:"deep_llm"` // Decision tier: managers and trader
	Data      DataConfig      `toml:"data"`
	Limits    LimitsConfig    `toml:"limits"`
	Storage   StorageConfig   `toml:"storage"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Events    EventsConfig    `toml:"events"`
}

// AgentConfig contains instance identification settings.
type AgentConfig struct {
	ID string `toml:"id"`
}

// TradingConfig contains the per-run defaults.
type TradingConfig struct {
	Analysts     []string `toml:"analysts"`      // analyst roles selected by default
	DebateRounds int      `toml:"debate_rounds"` // bull/bear round cap
	RiskRounds   int      `toml:"risk_rounds"`   // risky/safe/neutral round cap
	RolesDir     string   `toml:"roles_dir"`     // prompt template overrides (*.md)
}

// LLMConfig contains one reasoning tier's provider settings.
type LLMConfig struct {
	Provider     string `toml:"provider"`
	Model        string `toml:"model"`
	APIKeyEnv    string `toml:"api_key_env"`
	MaxTokens    int    `toml:"max_tokens"`
	BaseURL      string `toml:"base_url"`      // Custom API endpoint (OpenRouter, LiteLLM, Ollama, LMStudio)
	CallTimeout  string `toml:"call_timeout"`  // Per-call deadline (default "60s")
	MaxRetries   int    `toml:"max_retries"`   // Max retry attempts (default 2)
	RetryBackoff string `toml:"retry_backoff"` // Max backoff duration (default "30s")
}

// DataConfig contains market data provider settings.
type DataConfig struct {
	Kind        string `toml:"kind"`         // "http" or "fixtures"
	BaseURL     string `toml:"base_url"`     // http: API root
	APIKeyEnv   string `toml:"api_key_env"`  // http: bearer token env var
	FixturesDir string `toml:"fixtures_dir"` // fixtures: root directory
	Timeout     int    `toml:"timeout"`      // per-fetch timeout in seconds (default 30)
}

// LimitsConfig contains shared admission settings.
type LimitsConfig struct {
	MaxConcurrent int `toml:"max_concurrent"` // reasoning calls in flight across all runs
}

// StorageConfig contains persistent storage settings.
type StorageConfig struct {
	Path string `toml:"path"` // Base directory for journals and snapshots
}

// TelemetryConfig contains telemetry settings.
type TelemetryConfig struct {
	Enabled  bool              `toml:"enabled"`
	Endpoint string            `toml:"endpoint"` // OTLP endpoint (e.g., localhost:4317)
	Protocol string            `toml:"protocol"` // grpc (default) or http
	Insecure bool              `toml:"insecure"` // Disable TLS (default false)
	Headers  map[string]string `toml:"headers"`  // Auth headers (e.g., DD-API-KEY, x-honeycomb-team)
}

// EventsConfig contains run event publishing settings.
type EventsConfig struct {
	Enabled bool   `toml:"enabled"`
	URL     string `toml:"url"`    // NATS server URL
	Prefix  string `toml:"prefix"` // subject prefix (default "tradingagents")
}

// New creates a new config with defaults.
func New() *Config {
	return &Config{
		Trading: TradingConfig{
			Analysts:     []string{"market", "fundamentals", "news", "social"},
			DebateRounds: 1,
			RiskRounds:   1,
		},
		LLM: LLMConfig{
			MaxTokens: 4096,
		},
		Data: DataConfig{
			Kind:    "http",
			Timeout: 30,
		},
		Limits: LimitsConfig{
			MaxConcurrent: 4,
		},
		Storage: StorageConfig{
			Path: "~/.local/tradingagents",
		},
		Telemetry: TelemetryConfig{
			Protocol: "noop",
		},
		Events: EventsConfig{
			Prefix: "tradingagents",
		},
	}
}

// Default returns a default configuration.
func Default() *Config {
	return New()
}

// LoadFile loads configuration from a TOML file.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads tradingagents.toml from the current directory,
// falling back to defaults when the file does not exist.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	path := filepath.Join(cwd, "tradingagents.toml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return New(), nil
	}
	return LoadFile(path)
}

// Validate rejects values the runtime cannot work with.
func (c *Config) Validate() error {
	if c.Trading.DebateRounds < 1 {
		return fmt.Errorf("trading.debate_rounds must be at least 1, got %d", c.Trading.DebateRounds)
	}
	if c.Trading.RiskRounds < 1 {
		return fmt.Errorf("trading.risk_rounds must be at least 1, got %d", c.Trading.RiskRounds)
	}
	if len(c.Trading.Analysts) == 0 {
		return fmt.Errorf("trading.analysts must name at least one analyst role")
	}
	switch c.Data.Kind {
	case "http", "fixtures":
	default:
		return fmt.Errorf("data.kind must be http or fixtures, got %q", c.Data.Kind)
	}
	if c.Data.Kind == "fixtures" && c.Data.FixturesDir == "" {
		return fmt.Errorf("data.fixtures_dir is required when data.kind is fixtures")
	}
	if c.Limits.MaxConcurrent < 0 {
		return fmt.Errorf("limits.max_concurrent cannot be negative, got %d", c.Limits.MaxConcurrent)
	}
	for _, tier := range []struct {
		name string
		llm  LLMConfig
	}{{"llm", c.LLM}, {"deep_llm", c.DeepLLM}} {
		if _, err := tier.llm.callTimeout(); err != nil {
			return fmt.Errorf("%s.call_timeout: %w", tier.name, err)
		}
		if _, err := tier.llm.retryBackoff(); err != nil {
			return fmt.Errorf("%s.retry_backoff: %w", tier.name, err)
		}
	}
	return nil
}

// GetDeepLLM returns the decision-tier settings, falling back to the
// quick tier for anything unset. A config with only [llm] runs both
// tiers on one model.
func (c *Config) GetDeepLLM() LLMConfig {
	deep := c.DeepLLM
	if deep.Provider == "" {
		deep.Provider = c.LLM.Provider
	}
	if deep.Model == "" {
		deep.Model = c.LLM.Model
	}
	if deep.APIKeyEnv == "" {
		deep.APIKeyEnv = c.LLM.APIKeyEnv
	}
	if deep.MaxTokens == 0 {
		deep.MaxTokens = c.LLM.MaxTokens
	}
	if deep.BaseURL == "" {
		deep.BaseURL = c.LLM.BaseURL
	}
	if deep.CallTimeout == "" {
		deep.CallTimeout = c.LLM.CallTimeout
	}
	if deep.MaxRetries == 0 {
		deep.MaxRetries = c.LLM.MaxRetries
	}
	if deep.RetryBackoff == "" {
		deep.RetryBackoff = c.LLM.RetryBackoff
	}
	return deep
}

// GetAPIKey returns the quick tier's API key from the configured
// environment variable. If api_key_env is unset, the provider's
// default variable is used.
func (c *Config) GetAPIKey() string {
	return c.LLM.apiKey()
}

// GetDeepAPIKey returns the decision tier's API key.
func (c *Config) GetDeepAPIKey() string {
	return c.GetDeepLLM().apiKey()
}

// GetDataAPIKey returns the market data bearer token, if configured.
func (c *Config) GetDataAPIKey() string {
	if c.Data.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.Data.APIKeyEnv)
}

// GetCallTimeout returns the tier's per-call deadline, or zero when unset.
func (l LLMConfig) GetCallTimeout() time.Duration {
	d, _ := l.callTimeout()
	return d
}

// GetRetryBackoff returns the tier's backoff cap, or zero when unset.
func (l LLMConfig) GetRetryBackoff() time.Duration {
	d, _ := l.retryBackoff()
	return d
}

func (l LLMConfig) callTimeout() (time.Duration, error) {
	return parseDuration(l.CallTimeout)
}

func (l LLMConfig) retryBackoff() (time.Duration, error) {
	return parseDuration(l.RetryBackoff)
}

func (l LLMConfig) apiKey() string {
	envVar := l.APIKeyEnv
	if envVar == "" {
		envVar = DefaultAPIKeyEnv(l.Provider)
	}
	if envVar == "" {
		return ""
	}
	return os.Getenv(envVar)
}

func parseDuration(s string) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q cannot be negative", s)
	}
	return d, nil
}

// DefaultAPIKeyEnv returns the default environment variable name for a provider.
func DefaultAPIKeyEnv(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "google":
		return "GOOGLE_API_KEY"
	case "mistral":
		return "MISTRAL_API_KEY"
	case "groq":
		return "GROQ_API_KEY"
	default:
		return ""
	}
}

// StoragePath expands the configured storage directory, resolving a
// leading ~ against the user's home.
func (c *Config) StoragePath() string {
	path := c.Storage.Path
	if path == "" {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "tradingagents")
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return path
}
