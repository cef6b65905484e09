package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vinayprograms/agentkit/llm"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// parseRetryConfig converts config values to RetryConfig.
func parseRetryConfig(maxRetries int, backoffStr string) llm.RetryConfig {
	cfg := llm.RetryConfig{
		MaxRetries: maxRetries,
	}
	if backoffStr != "" {
		if d, err := time.ParseDuration(backoffStr); err == nil {
			cfg.MaxBackoff = d
		}
	}
	return cfg
}

// parsePricing parses "input,output" token prices per 1M tokens.
func parsePricing(spec string) (float64, float64, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected input,output prices")
	}
	inPrice, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid input price: %w", err)
	}
	outPrice, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid output price: %w", err)
	}
	return inPrice, outPrice, nil
}

// resolveAPIKey prefers the credentials file, falling back to the env
// var named in config.
func resolveAPIKey(provider, fromConfig string) string {
	if globalCreds != nil {
		if key := globalCreds.GetAPIKey(provider); key != "" {
			return key
		}
	}
	return fromConfig
}

// indent prefixes every line of s.
func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
