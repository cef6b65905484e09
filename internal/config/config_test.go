package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := New()

	if got := len(cfg.Trading.Analysts); got != 4 {
		t.Errorf("default analysts = %d, want 4", got)
	}
	if cfg.Trading.DebateRounds != 1 || cfg.Trading.RiskRounds != 1 {
		t.Errorf("default rounds = %d/%d, want 1/1", cfg.Trading.DebateRounds, cfg.Trading.RiskRounds)
	}
	if cfg.Data.Kind != "http" {
		t.Errorf("default data kind = %q, want http", cfg.Data.Kind)
	}
	if cfg.Limits.MaxConcurrent != 4 {
		t.Errorf("default max_concurrent = %d, want 4", cfg.Limits.MaxConcurrent)
	}
	if cfg.Events.Prefix != "tradingagents" {
		t.Errorf("default events prefix = %q", cfg.Events.Prefix)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tradingagents.toml")
	content := `
[agent]
id = "desk-1"

[trading]
analysts = ["market", "news"]
debate_rounds = 2
risk_rounds = 3

[llm]
provider = "anthropic"
model = "claude-sonnet-4-5"
max_tokens = 2048
call_timeout = "45s"

[deep_llm]
model = "claude-opus-4-1"

[data]
kind = "fixtures"
fixtures_dir = "/tmp/fixtures"

[storage]
path = "/var/lib/tradingagents"

[events]
enabled = true
url = "nats://localhost:4222"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Agent.ID != "desk-1" {
		t.Errorf("agent id = %q", cfg.Agent.ID)
	}
	if len(cfg.Trading.Analysts) != 2 || cfg.Trading.Analysts[1] != "news" {
		t.Errorf("analysts = %v", cfg.Trading.Analysts)
	}
	if cfg.Trading.DebateRounds != 2 || cfg.Trading.RiskRounds != 3 {
		t.Errorf("rounds = %d/%d", cfg.Trading.DebateRounds, cfg.Trading.RiskRounds)
	}
	if cfg.LLM.Provider != "anthropic" || cfg.LLM.MaxTokens != 2048 {
		t.Errorf("llm tier = %+v", cfg.LLM)
	}
	if got := cfg.LLM.GetCallTimeout(); got != 45*time.Second {
		t.Errorf("call timeout = %v, want 45s", got)
	}
	if cfg.Data.Kind != "fixtures" || cfg.Data.FixturesDir != "/tmp/fixtures" {
		t.Errorf("data = %+v", cfg.Data)
	}
	if cfg.Storage.Path != "/var/lib/tradingagents" {
		t.Errorf("storage path = %q", cfg.Storage.Path)
	}
	if !cfg.Events.Enabled || cfg.Events.URL != "nats://localhost:4222" {
		t.Errorf("events = %+v", cfg.Events)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero debate rounds",
			mutate:  func(c *Config) { c.Trading.DebateRounds = 0 },
			wantErr: "debate_rounds",
		},
		{
			name:    "negative risk rounds",
			mutate:  func(c *Config) { c.Trading.RiskRounds = -1 },
			wantErr: "risk_rounds",
		},
		{
			name:    "no analysts",
			mutate:  func(c *Config) { c.Trading.Analysts = nil },
			wantErr: "analysts",
		},
		{
			name:    "unknown data kind",
			mutate:  func(c *Config) { c.Data.Kind = "carrier-pigeon" },
			wantErr: "data.kind",
		},
		{
			name: "fixtures without dir",
			mutate: func(c *Config) {
				c.Data.Kind = "fixtures"
				c.Data.FixturesDir = ""
			},
			wantErr: "fixtures_dir",
		},
		{
			name:    "negative concurrency",
			mutate:  func(c *Config) { c.Limits.MaxConcurrent = -2 },
			wantErr: "max_concurrent",
		},
		{
			name:    "bad call timeout",
			mutate:  func(c *Config) { c.LLM.CallTimeout = "fortnight" },
			wantErr: "llm.call_timeout",
		},
		{
			name:    "negative deep backoff",
			mutate:  func(c *Config) { c.DeepLLM.RetryBackoff = "-5s" },
			wantErr: "deep_llm.retry_backoff",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestGetDeepLLMFallback(t *testing.T) {
	cfg := New()
	cfg.LLM = LLMConfig{
		Provider:    "anthropic",
		Model:       "claude-sonnet-4-5",
		MaxTokens:   4096,
		CallTimeout: "60s",
	}
	cfg.DeepLLM = LLMConfig{Model: "claude-opus-4-1"}

	deep := cfg.GetDeepLLM()
	if deep.Model != "claude-opus-4-1" {
		t.Errorf("deep model = %q, explicit setting lost", deep.Model)
	}
	if deep.Provider != "anthropic" {
		t.Errorf("deep provider = %q, want fallback to quick tier", deep.Provider)
	}
	if deep.MaxTokens != 4096 || deep.CallTimeout != "60s" {
		t.Errorf("deep tier missing fallbacks: %+v", deep)
	}
}

func TestGetDeepLLMEmptyUsesQuickTier(t *testing.T) {
	cfg := New()
	cfg.LLM = LLMConfig{Provider: "openai", Model: "gpt-4o"}

	deep := cfg.GetDeepLLM()
	if deep.Provider != "openai" || deep.Model != "gpt-4o" {
		t.Errorf("empty deep tier should mirror quick tier, got %+v", deep)
	}
}

func TestGetAPIKey(t *testing.T) {
	cfg := New()
	cfg.LLM.Provider = "anthropic"
	cfg.LLM.APIKeyEnv = "TEST_TRADING_KEY"

	t.Setenv("TEST_TRADING_KEY", "sk-custom")
	if got := cfg.GetAPIKey(); got != "sk-custom" {
		t.Errorf("GetAPIKey = %q, want value from configured env var", got)
	}

	cfg.LLM.APIKeyEnv = ""
	t.Setenv("ANTHROPIC_API_KEY", "sk-default")
	if got := cfg.GetAPIKey(); got != "sk-default" {
		t.Errorf("GetAPIKey = %q, want provider default env var", got)
	}
}

func TestDefaultAPIKeyEnv(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{"anthropic", "ANTHROPIC_API_KEY"},
		{"openai", "OPENAI_API_KEY"},
		{"google", "GOOGLE_API_KEY"},
		{"mistral", "MISTRAL_API_KEY"},
		{"groq", "GROQ_API_KEY"},
		{"unknown", ""},
	}
	for _, tt := range tests {
		if got := DefaultAPIKeyEnv(tt.provider); got != tt.want {
			t.Errorf("DefaultAPIKeyEnv(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestStoragePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}

	cfg := New()
	cfg.Storage.Path = "~/.local/tradingagents"
	if got := cfg.StoragePath(); got != filepath.Join(home, ".local", "tradingagents") {
		t.Errorf("tilde expansion = %q", got)
	}

	cfg.Storage.Path = "/srv/trading"
	if got := cfg.StoragePath(); got != "/srv/trading" {
		t.Errorf("absolute path = %q, should pass through", got)
	}

	cfg.Storage.Path = ""
	if got := cfg.StoragePath(); got != filepath.Join(home, ".local", "tradingagents") {
		t.Errorf("empty path = %q, want home default", got)
	}
}

func TestCallTimeoutUnset(t *testing.T) {
	var l LLMConfig
	if got := l.GetCallTimeout(); got != 0 {
		t.Errorf("unset timeout = %v, want 0", got)
	}
	if got := l.GetRetryBackoff(); got != 0 {
		t.Errorf("unset backoff = %v, want 0", got)
	}
}
