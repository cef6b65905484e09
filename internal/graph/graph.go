// Package graph drives one run through the trading workflow: data
// collection, parallel analysis, the bull/bear debate, the trade
// proposal, the risk rotation, and the final ruling. The machine is a
// data-driven transition table plus pure routers; every piece is
// testable without a provider in sight.
package graph

import (
	"context"

	"github.com/guangxiangdebizi/tradingagents/internal/roles"
	"github.com/guangxiangdebizi/tradingagents/internal/snapshot"
	"github.com/guangxiangdebizi/tradingagents/internal/state"
)

// transition is one row of the table: run the node, then ask the
// router where to go. Routers are consulted only after run returns
// without a fatal error.
type transition struct {
	run  func(context.Context) error
	next func() state.Node
}

// roleNode maps sequential speaking roles to their node ids, for
// error attribution and journal events.
var roleNode = map[roles.Role]state.Node{
	roles.Bull:            state.NodeBullResearcher,
	roles.Bear:            state.NodeBearResearcher,
	roles.ResearchManager: state.NodeResearchManager,
	roles.Trader:          state.NodeTrader,
	roles.Risky:           state.NodeRiskyAnalyst,
	roles.Safe:            state.NodeSafeAnalyst,
	roles.Neutral:         state.NodeNeutralAnalyst,
	roles.RiskManager:     state.NodeRiskManager,
}

// table builds the transition table for this engine. Fixed successors
// are plain closures; debate and risk successors consult the routers
// with cursors rebuilt from the run's own history, so the table works
// identically for fresh and resumed runs.
func (e *Engine) table() map[state.Node]transition {
	fixed := func(n state.Node) func() state.Node {
		return func() state.Node { return n }
	}
	return map[state.Node]transition{
		state.NodeEntry:          {run: e.runEntry, next: fixed(state.NodeDataCollection)},
		state.NodeDataCollection: {run: e.runDataCollection, next: fixed(state.NodeAnalysts)},
		state.NodeAnalysts:       {run: e.runAnalysts, next: e.nextDebate},

		state.NodeBullResearcher: {run: e.debateTurn(roles.Bull), next: e.nextDebate},
		state.NodeBearResearcher: {run: e.debateTurn(roles.Bear), next: e.nextDebate},

		state.NodeResearchManager: {run: e.decision(roles.ResearchManager), next: fixed(state.NodeTrader)},
		state.NodeTrader:          {run: e.decision(roles.Trader), next: e.nextRisk},

		state.NodeRiskyAnalyst:   {run: e.riskTurn(roles.Risky), next: e.nextRisk},
		state.NodeSafeAnalyst:    {run: e.riskTurn(roles.Safe), next: e.nextRisk},
		state.NodeNeutralAnalyst: {run: e.riskTurn(roles.Neutral), next: e.nextRisk},

		state.NodeRiskManager:     {run: e.decision(roles.RiskManager), next: fixed(state.NodeReportGenerator)},
		state.NodeReportGenerator: {run: e.runReportGenerator, next: fixed(state.NodeDone)},
	}
}

func (e *Engine) nextDebate() state.Node {
	cursor := DebateCursorFromHistory(e.state.DebateHistory)
	_, next := RouteDebate(cursor, e.state.MaxDebateRounds)
	return next
}

func (e *Engine) nextRisk() state.Node {
	cursor := RiskCursorFromHistory(e.state.RiskHistory)
	_, next := RouteRisk(cursor, e.state.MaxRiskRounds)
	return next
}

// ResumeNode maps a snapshot's last completed node to where a resumed
// run re-enters the machine. Turn counts live in the persisted
// history, so mid-stage resumes land on the exact next speaker.
func ResumeNode(record *snapshot.Record) state.Node {
	rs := record.State
	switch record.Node {
	case state.NodeEntry:
		return state.NodeDataCollection
	case state.NodeDataCollection:
		return state.NodeAnalysts
	case state.NodeAnalysts, state.NodeBullResearcher, state.NodeBearResearcher:
		_, next := RouteDebate(DebateCursorFromHistory(rs.DebateHistory), rs.MaxDebateRounds)
		return next
	case state.NodeResearchManager:
		return state.NodeTrader
	case state.NodeTrader, state.NodeRiskyAnalyst, state.NodeSafeAnalyst, state.NodeNeutralAnalyst:
		_, next := RouteRisk(RiskCursorFromHistory(rs.RiskHistory), rs.MaxRiskRounds)
		return next
	case state.NodeRiskManager:
		return state.NodeReportGenerator
	}
	return state.NodeDone
}
