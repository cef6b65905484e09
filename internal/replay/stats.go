package replay

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/guangxiangdebizi/tradingagents/internal/roles"
	"github.com/guangxiangdebizi/tradingagents/internal/session"
)

// Stats holds aggregate statistics for a run journal.
type Stats struct {
	// Total run duration
	TotalDurationMs int64

	// Per-stage durations, keyed by stage label
	StageDurations map[string]int64

	// Reasoning call times
	ReasoningCalls   int
	ReasoningTotalMs int64
	ReasoningAvgMs   int64

	// Token totals across all calls
	TokensIn  int
	TokensOut int

	// Per-role call aggregates
	Roles map[roles.Role]*RoleStats

	// Failure counts
	DegradedCount int
	FatalCount    int
}

// RoleStats aggregates reasoning calls for one role.
type RoleStats struct {
	Calls     int
	TotalMs   int64
	TokensIn  int
	TokensOut int
}

// Stage labels used in StageDurations, in display order.
var stageOrder = []string{"data collection", "analyst reports", "research debate", "risk review"}

// ComputeStats calculates aggregate statistics from journal events.
func ComputeStats(j *session.Journal) *Stats {
	stats := &Stats{
		StageDurations: make(map[string]int64),
		Roles:          make(map[roles.Role]*RoleStats),
	}

	var firstEvent, lastEvent time.Time
	var runStartAt, collectionAt, lastReportAt time.Time
	var firstDebateAt, verdictAt, firstRiskAt, decisionAt time.Time

	for i := range j.Events {
		event := &j.Events[i]

		// Track overall duration
		if firstEvent.IsZero() || event.Timestamp.Before(firstEvent) {
			firstEvent = event.Timestamp
		}
		if lastEvent.IsZero() || event.Timestamp.After(lastEvent) {
			lastEvent = event.Timestamp
		}

		// Reasoning call aggregates
		if event.Meta != nil && event.Meta.LatencyMs > 0 {
			stats.ReasoningCalls++
			stats.ReasoningTotalMs += event.Meta.LatencyMs
			stats.TokensIn += event.Meta.TokensIn
			stats.TokensOut += event.Meta.TokensOut

			if event.Role != "" {
				rs, ok := stats.Roles[event.Role]
				if !ok {
					rs = &RoleStats{}
					stats.Roles[event.Role] = rs
				}
				rs.Calls++
				rs.TotalMs += event.Meta.LatencyMs
				rs.TokensIn += event.Meta.TokensIn
				rs.TokensOut += event.Meta.TokensOut
			}
		}

		// Stage boundary markers
		switch event.Type {
		case session.EventRunStart:
			runStartAt = event.Timestamp
		case session.EventCollection:
			collectionAt = event.Timestamp
		case session.EventReport:
			lastReportAt = event.Timestamp
		case session.EventDebateTurn:
			if firstDebateAt.IsZero() {
				firstDebateAt = event.Timestamp
			}
		case session.EventVerdict:
			verdictAt = event.Timestamp
		case session.EventRiskTurn:
			if firstRiskAt.IsZero() {
				firstRiskAt = event.Timestamp
			}
		case session.EventDecision:
			decisionAt = event.Timestamp
		case session.EventNodeError:
			if event.Meta != nil && event.Meta.Fatal {
				stats.FatalCount++
			} else {
				stats.DegradedCount++
			}
		}
	}

	if !firstEvent.IsZero() && !lastEvent.IsZero() {
		stats.TotalDurationMs = lastEvent.Sub(firstEvent).Milliseconds()
	}

	setSpan := func(label string, from, to time.Time) {
		if !from.IsZero() && !to.IsZero() && !to.Before(from) {
			stats.StageDurations[label] = to.Sub(from).Milliseconds()
		}
	}
	setSpan("data collection", runStartAt, collectionAt)
	setSpan("analyst reports", collectionAt, lastReportAt)
	setSpan("research debate", firstDebateAt, verdictAt)
	setSpan("risk review", firstRiskAt, decisionAt)

	if stats.ReasoningCalls > 0 {
		stats.ReasoningAvgMs = stats.ReasoningTotalMs / int64(stats.ReasoningCalls)
	}

	return stats
}

// Pricing holds per-million-token rates for cost estimation.
type Pricing struct {
	InputPer1M  float64
	OutputPer1M float64
}

// Cost returns the estimated dollar cost for the given token counts.
func (p *Pricing) Cost(tokensIn, tokensOut int) float64 {
	return float64(tokensIn)/1e6*p.InputPer1M + float64(tokensOut)/1e6*p.OutputPer1M
}

// PrintStats outputs the statistics to the writer.
func PrintStats(w io.Writer, stats *Stats) {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("15"))

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("═══════════════════════════════════════════════════════════════════"))
	fmt.Fprintln(w, headerStyle.Render("                           RUN STATISTICS                           "))
	fmt.Fprintln(w, headerStyle.Render("═══════════════════════════════════════════════════════════════════"))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s %s\n",
		labelStyle.Render("Total Duration:"),
		valueStyle.Render(formatDuration(stats.TotalDurationMs)))
	fmt.Fprintln(w)

	if len(stats.StageDurations) > 0 {
		fmt.Fprintln(w, headerStyle.Render("Stage Durations:"))
		for _, stage := range stageOrder {
			ms, ok := stats.StageDurations[stage]
			if !ok {
				continue
			}
			fmt.Fprintf(w, "  %s %s\n",
				labelStyle.Render(stage+":"),
				valueStyle.Render(formatDuration(ms)))
		}
		fmt.Fprintln(w)
	}

	if stats.ReasoningCalls > 0 {
		fmt.Fprintln(w, headerStyle.Render("Reasoning Calls:"))
		fmt.Fprintf(w, "  %s %s\n",
			labelStyle.Render("Calls:"),
			valueStyle.Render(fmt.Sprintf("%d", stats.ReasoningCalls)))
		fmt.Fprintf(w, "  %s %s\n",
			labelStyle.Render("Total:"),
			valueStyle.Render(formatDuration(stats.ReasoningTotalMs)))
		fmt.Fprintf(w, "  %s %s\n",
			labelStyle.Render("Average:"),
			valueStyle.Render(formatDuration(stats.ReasoningAvgMs)))
		fmt.Fprintln(w)
	}

	if stats.DegradedCount > 0 || stats.FatalCount > 0 {
		fmt.Fprintln(w, headerStyle.Render("Failures:"))
		if stats.DegradedCount > 0 {
			fmt.Fprintf(w, "  %s %s\n",
				labelStyle.Render("Degraded:"),
				valueStyle.Render(fmt.Sprintf("%d", stats.DegradedCount)))
		}
		if stats.FatalCount > 0 {
			fmt.Fprintf(w, "  %s %s\n",
				labelStyle.Render("Fatal:"),
				valueStyle.Render(fmt.Sprintf("%d", stats.FatalCount)))
		}
		fmt.Fprintln(w)
	}
}

// PrintTokenUsage outputs token totals and, when pricing is set, the
// estimated cost.
func PrintTokenUsage(w io.Writer, stats *Stats, pricing *Pricing) {
	if stats.TokensIn == 0 && stats.TokensOut == 0 {
		return
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("15"))

	fmt.Fprintln(w, headerStyle.Render("Token Usage:"))
	fmt.Fprintf(w, "  %s %s\n",
		labelStyle.Render("Input:"),
		valueStyle.Render(fmt.Sprintf("%d", stats.TokensIn)))
	fmt.Fprintf(w, "  %s %s\n",
		labelStyle.Render("Output:"),
		valueStyle.Render(fmt.Sprintf("%d", stats.TokensOut)))

	if len(stats.Roles) > 0 {
		fmt.Fprintf(w, "  %s\n", labelStyle.Render("Per role:"))
		for _, role := range roles.All {
			rs, ok := stats.Roles[role]
			if !ok {
				continue
			}
			fmt.Fprintf(w, "    %s %s\n",
				labelStyle.Render(string(role)+":"),
				valueStyle.Render(fmt.Sprintf("%d→%d (%d calls, avg %s)",
					rs.TokensIn, rs.TokensOut, rs.Calls,
					formatDuration(rs.TotalMs/int64(rs.Calls)))))
		}
	}

	if pricing != nil {
		fmt.Fprintf(w, "  %s %s\n",
			labelStyle.Render("Estimated Cost:"),
			valueStyle.Render(fmt.Sprintf("$%.4f", pricing.Cost(stats.TokensIn, stats.TokensOut))))
	}
	fmt.Fprintln(w)
}
