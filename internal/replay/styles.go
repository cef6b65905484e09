// Package replay renders run journals as a readable timeline.
package replay

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/guangxiangdebizi/tradingagents/internal/roles"
)

// Role color scheme - each workflow role keeps a distinct, consistent color.
var (
	// Structural / metadata
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")) // Gray - timestamps, metadata

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")) // Gray - labels

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")) // White - values

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")) // White bold - headers

	// Run lifecycle markers - default/white
	flowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")) // White

	// Data collection - Blue
	dataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")) // Blue

	// Analyst reports - Blue
	analystStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")) // Blue

	// Research debate
	bullStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")) // Green

	bearStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")) // Red

	// Managers (research + risk) - Yellow bold
	managerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("11")) // Yellow bold

	// Trader - Magenta
	traderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("13")) // Magenta

	// Risk rotation
	riskyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")) // Orange

	safeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")) // Cyan

	neutralStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")) // Light gray

	// Outcomes
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")) // Green

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")) // Red

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")) // Yellow

	// Timeline
	seqStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Width(5).
			Align(lipgloss.Right)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	divider = lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Render(strings.Repeat("━", 60))
)

// roleStyle returns the display style for a workflow role.
func roleStyle(role roles.Role) lipgloss.Style {
	switch role {
	case roles.Bull:
		return bullStyle
	case roles.Bear:
		return bearStyle
	case roles.ResearchManager, roles.RiskManager:
		return managerStyle
	case roles.Trader:
		return traderStyle
	case roles.Risky:
		return riskyStyle
	case roles.Safe:
		return safeStyle
	case roles.Neutral:
		return neutralStyle
	default:
		return analystStyle
	}
}
