package graph

import (
	"fmt"
	"strings"

	"github.com/guangxiangdebizi/tradingagents/internal/marketdata"
	"github.com/guangxiangdebizi/tradingagents/internal/roles"
	"github.com/guangxiangdebizi/tradingagents/internal/state"
)

// promptContext assembles the slice of run state a role is allowed to
// see. Analysts get their data section; debaters get the reports plus
// the debate so far; risk debaters argue over the trader's plan; each
// manager sees the full transcript it must judge.
func promptContext(role roles.Role, rs *state.RunState, bundle *marketdata.Bundle) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\nAs of: %s\n", rs.Subject, rs.AsOfDate)

	switch {
	case role.IsAnalyst():
		section := ""
		if bundle != nil {
			section = bundle.SectionFor(role)
		}
		if section == "" {
			fmt.Fprintf(&b, "\nNo %s data is available for this run. Say so briefly and do not invent figures.\n", marketdata.SectionRole(role))
		} else {
			b.WriteString("\n")
			b.WriteString(section)
		}

	case role == roles.Bull || role == roles.Bear:
		writeReports(&b, rs)
		writeTurns(&b, "Debate so far", rs.DebateHistory)

	case role == roles.ResearchManager:
		writeReports(&b, rs)
		writeTurns(&b, "Full debate transcript", rs.DebateHistory)

	case role == roles.Trader:
		writeReports(&b, rs)
		writeSection(&b, "Research manager verdict", rs.Report(roles.ResearchManager))

	case role == roles.Risky || role == roles.Safe || role == roles.Neutral:
		writeSection(&b, "Proposed trade plan", rs.Report(roles.Trader))
		writeTurns(&b, "Risk discussion so far", rs.RiskHistory)

	case role == roles.RiskManager:
		writeSection(&b, "Proposed trade plan", rs.Report(roles.Trader))
		writeTurns(&b, "Full risk transcript", rs.RiskHistory)
	}

	return b.String()
}

// writeReports renders the analyst reports in catalog order, skipping
// roles that were not selected. Empty reports are named so downstream
// roles know a perspective is missing rather than silently absent.
func writeReports(b *strings.Builder, rs *state.RunState) {
	b.WriteString("\nAnalyst reports:\n")
	for _, role := range roles.Analysts {
		if !selectedRole(rs, role) {
			continue
		}
		report := rs.Report(role)
		if report == "" {
			fmt.Fprintf(b, "\n[%s] (no report; this analysis degraded)\n", role)
			continue
		}
		fmt.Fprintf(b, "\n[%s]\n%s\n", role, report)
	}
}

func writeTurns(b *strings.Builder, title string, turns []state.Turn) {
	if len(turns) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, turn := range turns {
		if turn.Content == "" {
			fmt.Fprintf(b, "\n%s (round %d): (turn degraded, no content)\n", turn.Speaker, turn.Round)
			continue
		}
		fmt.Fprintf(b, "\n%s (round %d): %s\n", turn.Speaker, turn.Round, turn.Content)
	}
}

func writeSection(b *strings.Builder, title, content string) {
	if content == "" {
		return
	}
	fmt.Fprintf(b, "\n%s:\n%s\n", title, content)
}

func selectedRole(rs *state.RunState, role roles.Role) bool {
	for _, r := range rs.SelectedRoles {
		if r == role {
			return true
		}
	}
	return false
}
