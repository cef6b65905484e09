package replay

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/guangxiangdebizi/tradingagents/internal/session"
	"github.com/guangxiangdebizi/tradingagents/internal/state"
)

// printContent prints verbose content with timeline indentation.
func (r *Replayer) printContent(content string) {
	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(r.output, "      │          │   %s\n", line)
	}
}

// metaHint returns a compact inline latency marker for the timeline row.
func (r *Replayer) metaHint(meta *session.EventMeta) string {
	if meta == nil || meta.LatencyMs <= 0 {
		return ""
	}
	return " " + dimStyle.Render(fmt.Sprintf("(%dms)", meta.LatencyMs))
}

// printMeta prints reasoning-call metadata (model, tokens, latency).
func (r *Replayer) printMeta(meta *session.EventMeta) {
	if meta == nil || meta.Model == "" {
		return
	}

	fmt.Fprintf(r.output, "      │          │   %s %s",
		labelStyle.Render("model:"), valueStyle.Render(meta.Model))
	if meta.TokensIn > 0 || meta.TokensOut > 0 {
		fmt.Fprintf(r.output, "  %s %d→%d",
			labelStyle.Render("tokens:"), meta.TokensIn, meta.TokensOut)
	}
	if meta.LatencyMs > 0 {
		fmt.Fprintf(r.output, "  %s %dms",
			labelStyle.Render("latency:"), meta.LatencyMs)
	}
	fmt.Fprintf(r.output, "\n")
}

// statusStyle returns the appropriate style for a run status.
func statusStyle(status string) lipgloss.Style {
	switch status {
	case string(state.StatusCompleted):
		return successStyle
	case string(state.StatusFailed):
		return errorStyle
	case string(state.StatusCancelled):
		return warnStyle
	default:
		return warnStyle
	}
}

// truncateContent flattens and truncates a string for single-line display.
func truncateContent(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// formatDuration formats milliseconds as a human-readable duration.
func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.2fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm%ds", mins, secs)
}
