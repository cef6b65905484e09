// Package roles defines the speaking roles of a decision run and their
// prompt templates. Role-specific behavior everywhere else is a table lookup
// on these tags; adding a role means adding entries here, not new types.
package roles

import (
	"fmt"
	"strings"
)

// Role tags one speaking position in the workflow.
type Role string

const (
	// Analyst roles, selectable per run.
	MarketAnalyst       Role = "market"
	FundamentalsAnalyst Role = "fundamentals"
	NewsAnalyst         Role = "news"
	SocialAnalyst       Role = "social"

	// Research debate.
	Bull            Role = "bull"
	Bear            Role = "bear"
	ResearchManager Role = "research_manager"

	// Trading and risk deliberation.
	Trader      Role = "trader"
	Risky       Role = "risky"
	Safe        Role = "safe"
	Neutral     Role = "neutral"
	RiskManager Role = "risk_manager"
)

// Analysts is the selectable analyst set, in display order.
var Analysts = []Role{MarketAnalyst, FundamentalsAnalyst, NewsAnalyst, SocialAnalyst}

// All lists every role with a prompt template.
var All = []Role{
	MarketAnalyst, FundamentalsAnalyst, NewsAnalyst, SocialAnalyst,
	Bull, Bear, ResearchManager,
	Trader, Risky, Safe, Neutral, RiskManager,
}

// IsAnalyst reports whether r is one of the selectable analyst roles.
func (r Role) IsAnalyst() bool {
	switch r {
	case MarketAnalyst, FundamentalsAnalyst, NewsAnalyst, SocialAnalyst:
		return true
	}
	return false
}

// IsDecision reports whether r is a decision-producing role. A reasoning
// failure for these roles has no valid substitute output and fails the run.
func (r Role) IsDecision() bool {
	switch r {
	case ResearchManager, Trader, RiskManager:
		return true
	}
	return false
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range All {
		if r == known {
			return true
		}
	}
	return false
}

// ParseAnalyst parses a user-supplied analyst role name.
func ParseAnalyst(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsAnalyst() {
		return "", fmt.Errorf("unknown analyst role %q (valid: %s)", s, strings.Join(AnalystNames(), ", "))
	}
	return r, nil
}

// ParseAnalysts parses a comma-separated analyst list, rejecting duplicates.
func ParseAnalysts(s string) ([]Role, error) {
	var out []Role
	seen := make(map[Role]bool)
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		r, err := ParseAnalyst(part)
		if err != nil {
			return nil, err
		}
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out, nil
}

// AnalystNames returns the analyst role names as strings.
func AnalystNames() []string {
	names := make([]string, len(Analysts))
	for i, r := range Analysts {
		names[i] = string(r)
	}
	return names
}
