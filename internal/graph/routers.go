package graph

import (
	"github.com/guangxiangdebizi/tradingagents/internal/roles"
	"github.com/guangxiangdebizi/tradingagents/internal/state"
)

// DebateCursor tracks the debate stage: how many turns were routed and
// who spoke last. Cursors are plain values; routers take one and
// return the advanced copy, so they stay trivially testable and never
// touch shared state.
type DebateCursor struct {
	Speaker    roles.Role
	RoundCount int
}

// NewDebateCursor seeds the cursor so the first routed turn is the
// bull researcher.
func NewDebateCursor() DebateCursor {
	return DebateCursor{Speaker: roles.Bear}
}

// DebateCursorFromHistory rebuilds the cursor from recorded turns.
// The count of appended turns is exactly the count of routed turns, so
// a resumed run continues mid-debate without replaying anything.
func DebateCursorFromHistory(history []state.Turn) DebateCursor {
	if len(history) == 0 {
		return NewDebateCursor()
	}
	return DebateCursor{
		Speaker:    history[len(history)-1].Speaker,
		RoundCount: len(history),
	}
}

// RouteDebate advances the cursor and returns the node to run next.
// Bull and bear alternate, bull first, until 2×maxDebateRounds turns
// have been routed; then the research manager takes over. Termination
// follows from the monotonic counter alone.
func RouteDebate(c DebateCursor, maxDebateRounds int) (DebateCursor, state.Node) {
	if c.RoundCount >= 2*maxDebateRounds {
		return c, state.NodeResearchManager
	}
	if c.Speaker == roles.Bear {
		c.Speaker = roles.Bull
		c.RoundCount++
		return c, state.NodeBullResearcher
	}
	c.Speaker = roles.Bear
	c.RoundCount++
	return c, state.NodeBearResearcher
}

// RiskCursor tracks the risk stage rotation.
type RiskCursor struct {
	Speaker    roles.Role
	RoundCount int
}

// NewRiskCursor seeds the cursor so the first routed turn is the risky
// analyst.
func NewRiskCursor() RiskCursor {
	return RiskCursor{Speaker: roles.Neutral}
}

// RiskCursorFromHistory rebuilds the cursor from recorded turns.
func RiskCursorFromHistory(history []state.Turn) RiskCursor {
	if len(history) == 0 {
		return NewRiskCursor()
	}
	return RiskCursor{
		Speaker:    history[len(history)-1].Speaker,
		RoundCount: len(history),
	}
}

// RouteRisk advances the cursor and returns the node to run next. The
// rotation is fixed risky → safe → neutral regardless of content,
// until 3×maxRiskRounds turns have been routed; then the risk manager
// rules.
func RouteRisk(c RiskCursor, maxRiskRounds int) (RiskCursor, state.Node) {
	if c.RoundCount >= 3*maxRiskRounds {
		return c, state.NodeRiskManager
	}
	var next state.Node
	switch c.Speaker {
	case roles.Risky:
		c.Speaker = roles.Safe
		next = state.NodeSafeAnalyst
	case roles.Safe:
		c.Speaker = roles.Neutral
		next = state.NodeNeutralAnalyst
	default:
		c.Speaker = roles.Risky
		next = state.NodeRiskyAnalyst
	}
	c.RoundCount++
	return c, next
}
