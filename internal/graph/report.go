package graph

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/guangxiangdebizi/tradingagents/internal/roles"
	"github.com/guangxiangdebizi/tradingagents/internal/state"
)

// buildFinalResult derives the decision record from a finished run. It
// is deterministic over the run state: the recommendation token is
// parsed out of the risk manager's ruling, falling back to the trader's
// proposal; confidence comes from an explicit CONFIDENCE line in the
// ruling or a coverage heuristic; every non-fatal error becomes a
// warning.
func buildFinalResult(rs *state.RunState) *state.FinalResult {
	ruling := strings.TrimSpace(rs.Report(roles.RiskManager))

	var warnings []string
	for _, e := range rs.Errors {
		if !e.Fatal {
			warnings = append(warnings, e.Message)
		}
	}

	rec, found := extractRecommendation(rs)
	if !found {
		rec = state.RecommendHold
		warnings = append(warnings, "no decision token in the risk ruling or trade proposal, defaulting to hold")
	}

	confidence, explicit := extractConfidence(ruling)
	if !explicit {
		confidence = heuristicConfidence(rs)
	}

	return &state.FinalResult{
		Recommendation: rec,
		Confidence:     confidence,
		Rationale:      ruling,
		Warnings:       warnings,
	}
}

// extractRecommendation looks for a FINAL DECISION line in the risk
// manager's ruling first, then a FINAL TRANSACTION PROPOSAL line in
// the trader's plan.
func extractRecommendation(rs *state.RunState) (state.Recommendation, bool) {
	if rec, ok := decisionToken(rs.Report(roles.RiskManager), "FINAL DECISION"); ok {
		return rec, true
	}
	if rec, ok := decisionToken(rs.Report(roles.Trader), "FINAL TRANSACTION PROPOSAL"); ok {
		return rec, true
	}
	return "", false
}

// decisionToken finds the marker (case-insensitive) and reads the first
// buy/sell/hold word on the marker's line or the line after it; rulings
// often put the token on its own line. Markdown emphasis around the
// token does not matter; "BUY" inside a longer word does not count.
func decisionToken(text, marker string) (state.Recommendation, bool) {
	upper := strings.ToUpper(text)
	idx := strings.Index(upper, marker)
	if idx < 0 {
		return "", false
	}
	window := upper[idx+len(marker):]
	if nl := strings.IndexByte(window, '\n'); nl >= 0 {
		if nl2 := strings.IndexByte(window[nl+1:], '\n'); nl2 >= 0 {
			window = window[:nl+1+nl2]
		}
	}
	for _, word := range letterWords(window) {
		switch word {
		case "BUY":
			return state.RecommendBuy, true
		case "SELL":
			return state.RecommendSell, true
		case "HOLD":
			return state.RecommendHold, true
		}
	}
	return "", false
}

// letterWords splits an already-uppercased line into runs of letters.
func letterWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r < 'A' || r > 'Z'
	})
}

// extractConfidence reads an explicit "Confidence: NN" declaration,
// tolerating a trailing percent sign. Values outside 0-100 are ignored.
func extractConfidence(text string) (int, bool) {
	re := regexp.MustCompile(`(?i)confidence[:\s]+([0-9]{1,3})`)
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 0 || n > 100 {
		return 0, false
	}
	return n, true
}

// heuristicConfidence scores a run with no declared confidence: start
// even, credit each analyst report that came back with content, debit
// each degraded stage. Clamped to 0-100.
func heuristicConfidence(rs *state.RunState) int {
	score := 50
	for _, role := range rs.SelectedRoles {
		if role.IsAnalyst() && strings.TrimSpace(rs.Report(role)) != "" {
			score += 10
		}
	}
	for _, e := range rs.Errors {
		if !e.Fatal {
			score -= 10
		}
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
