package graph

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vinayprograms/agentkit/logging"

	"github.com/guangxiangdebizi/tradingagents/internal/events"
	"github.com/guangxiangdebizi/tradingagents/internal/marketdata"
	"github.com/guangxiangdebizi/tradingagents/internal/reasoning"
	"github.com/guangxiangdebizi/tradingagents/internal/roles"
	"github.com/guangxiangdebizi/tradingagents/internal/session"
	"github.com/guangxiangdebizi/tradingagents/internal/snapshot"
	"github.com/guangxiangdebizi/tradingagents/internal/state"
)

// BoundaryFunc observes node completions. Called from the run's own
// goroutine after each boundary persists; implementations do their own
// locking.
type BoundaryFunc func(node state.Node, rs *state.RunState)

// Config assembles an Engine. State, Executor, and Collector are
// required; everything else degrades gracefully when absent.
type Config struct {
	State     *state.RunState
	Executor  *StageExecutor
	Collector *marketdata.Collector

	Journal   *session.Journal
	Journals  session.Store
	Snapshots *snapshot.Store
	Events    events.Publisher
	Logger    *logging.Logger

	// Resume support, all taken from a snapshot record: where to enter
	// the machine, the node that had already completed, and the
	// previously collected data.
	StartNode     state.Node
	LastCompleted state.Node
	Bundle        *marketdata.Bundle

	OnBoundary BoundaryFunc
}

// Engine executes exactly one run. Engines are single-use: the run
// state is exclusively owned, so no locking guards it outside the
// analyst fan-out.
type Engine struct {
	state     *state.RunState
	executor  *StageExecutor
	collector *marketdata.Collector

	journal    *session.Journal
	journals   session.Store
	snapshots  *snapshot.Store
	events     events.Publisher
	log        *logging.Logger
	onBoundary BoundaryFunc

	start  state.Node
	bundle *marketdata.Bundle

	// lastCompleted is the newest node that finished cleanly; terminal
	// snapshots keep it so aborted runs resume from the right place.
	lastCompleted state.Node

	transitions map[state.Node]transition
}

// New builds an engine for one run.
func New(cfg Config) *Engine {
	e := &Engine{
		state:      cfg.State,
		executor:   cfg.Executor,
		collector:  cfg.Collector,
		journal:    cfg.Journal,
		journals:   cfg.Journals,
		snapshots:  cfg.Snapshots,
		events:     cfg.Events,
		log:        cfg.Logger,
		onBoundary: cfg.OnBoundary,
		start:      cfg.StartNode,
		bundle:     cfg.Bundle,

		lastCompleted: cfg.LastCompleted,
	}
	if e.events == nil {
		e.events = events.Nop{}
	}
	if e.log == nil {
		e.log = logging.New().WithComponent("engine")
	}
	if e.start == "" {
		e.start = state.NodeEntry
	}
	e.transitions = e.table()
	return e
}

// Run drives the machine to a terminal status and returns the state.
// Cancellation is observed at node boundaries: an in-flight provider
// call may finish or abort, but no new node starts once ctx is done.
func (e *Engine) Run(ctx context.Context) *state.RunState {
	rs := e.state
	rs.SetStatus(state.StatusRunning)
	e.journalStatus()
	e.addJournal(session.Event{Type: session.EventRunStart, Node: e.start})
	e.publish(events.Event{
		Type:    events.TypeRunStarted,
		RunID:   rs.RunID,
		Subject: rs.Subject,
		Status:  string(rs.Status),
	})
	e.log.Info("run started", map[string]interface{}{
		"run":     rs.RunID,
		"subject": rs.Subject,
		"node":    string(e.start),
	})

	ctx, runSpan := e.startRunSpan(ctx)

	current := e.start
	for current != state.NodeDone {
		if ctx.Err() != nil {
			e.finishCancelled(current)
			e.endRunSpan(runSpan, rs, nil)
			return rs
		}

		tr, ok := e.transitions[current]
		if !ok {
			err := fmt.Errorf("no transition for node %s", current)
			e.finishFailed(current, state.KindInvalidState, err)
			e.endRunSpan(runSpan, rs, err)
			return rs
		}

		nodeCtx, nodeSpan := e.startNodeSpan(ctx, current)
		err := tr.run(nodeCtx)
		e.endNodeSpan(nodeSpan, err)
		if err != nil {
			if ctx.Err() != nil {
				e.finishCancelled(current)
				e.endRunSpan(runSpan, rs, nil)
				return rs
			}
			e.finishFailed(current, classifyNodeError(err), err)
			e.endRunSpan(runSpan, rs, err)
			return rs
		}

		e.persistBoundary(current)
		current = tr.next()
	}

	e.finishCompleted()
	e.endRunSpan(runSpan, rs, nil)
	return rs
}

// --- node handlers ---

func (e *Engine) runEntry(ctx context.Context) error {
	e.log.Debug("entering workflow", map[string]interface{}{"run": e.state.RunID})
	return nil
}

// runDataCollection gathers the sections the selected analysts need.
// Partial failures degrade; a totally empty bundle is fatal before any
// reasoning spend.
func (e *Engine) runDataCollection(ctx context.Context) error {
	rs := e.state
	bundle, err := e.collector.Collect(ctx, rs.Subject, rs.AsOfDate, rs.SelectedRoles)
	if err != nil {
		return err
	}
	e.bundle = bundle

	for _, warning := range bundle.Warnings {
		rs.RecordError(state.NodeDataCollection, state.KindDataUnavailable, warning, false)
	}
	e.addJournal(session.Event{
		Type: session.EventCollection,
		Node: state.NodeDataCollection,
		Meta: &session.EventMeta{Warnings: bundle.Warnings},
	})
	return nil
}

// runAnalysts fans out one task per selected analyst. Each analyst
// reads a shared frozen snapshot of the state; writes flow back under
// the stage mutex. One analyst failing never blocks or poisons the
// others.
func (e *Engine) runAnalysts(ctx context.Context) error {
	rs := e.state
	frozen := rs.Clone()

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, role := range rs.SelectedRoles {
		if !role.IsAnalyst() {
			continue
		}
		wg.Add(1)
		go func(role roles.Role) {
			defer wg.Done()
			out, err := e.executor.Run(ctx, role, frozen, e.bundle)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				msg := fmt.Sprintf("%s analyst degraded: %v", role, err)
				rs.SetReport(role, "")
				rs.RecordError(state.NodeAnalysts, reasoning.Classify(err), msg, false)
				e.addJournal(session.Event{
					Type: session.EventNodeError, Node: state.NodeAnalysts, Role: role, Error: err.Error(),
				})
				e.log.Warn("analyst degraded", map[string]interface{}{
					"run": rs.RunID, "role": string(role), "error": err.Error(),
				})
				return
			}
			rs.SetReport(role, out.Text)
			e.addJournal(session.Event{
				Type: session.EventReport, Node: state.NodeAnalysts, Role: role, Content: out.Text,
				Meta: callMeta(out),
			})
			e.publish(events.Event{
				Type: events.TypeReport, RunID: rs.RunID, Subject: rs.Subject,
				Node: state.NodeAnalysts, Role: role,
			})
		}(role)
	}
	wg.Wait()
	return ctx.Err()
}

// debateTurn runs one bull or bear turn. Provider failures degrade
// into an empty turn so the stage keeps its cadence and terminates on
// schedule.
func (e *Engine) debateTurn(role roles.Role) func(context.Context) error {
	return func(ctx context.Context) error {
		rs := e.state
		out, err := e.executor.Run(ctx, role, rs, e.bundle)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			rs.AppendDebateTurn(role, "")
			rs.RecordError(roleNode[role], reasoning.Classify(err), fmt.Sprintf("%s turn degraded: %v", role, err), false)
			e.addJournal(session.Event{
				Type: session.EventNodeError, Node: roleNode[role], Role: role,
				Round: rs.DebateRounds(), Error: err.Error(),
			})
			return nil
		}
		rs.AppendDebateTurn(role, out.Text)
		turn := rs.DebateHistory[len(rs.DebateHistory)-1]
		e.addJournal(session.Event{
			Type: session.EventDebateTurn, Node: roleNode[role], Role: role,
			Round: turn.Round, Content: out.Text, Meta: callMeta(out),
		})
		e.publish(events.Event{
			Type: events.TypeTurn, RunID: rs.RunID, Subject: rs.Subject,
			Node: roleNode[role], Role: role,
		})
		return nil
	}
}

// riskTurn mirrors debateTurn for the risk rotation.
func (e *Engine) riskTurn(role roles.Role) func(context.Context) error {
	return func(ctx context.Context) error {
		rs := e.state
		out, err := e.executor.Run(ctx, role, rs, e.bundle)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			rs.AppendRiskTurn(role, "")
			rs.RecordError(roleNode[role], reasoning.Classify(err), fmt.Sprintf("%s turn degraded: %v", role, err), false)
			e.addJournal(session.Event{
				Type: session.EventNodeError, Node: roleNode[role], Role: role,
				Round: rs.RiskRounds(), Error: err.Error(),
			})
			return nil
		}
		rs.AppendRiskTurn(role, out.Text)
		turn := rs.RiskHistory[len(rs.RiskHistory)-1]
		e.addJournal(session.Event{
			Type: session.EventRiskTurn, Node: roleNode[role], Role: role,
			Round: turn.Round, Content: out.Text, Meta: callMeta(out),
		})
		e.publish(events.Event{
			Type: events.TypeTurn, RunID: rs.RunID, Subject: rs.Subject,
			Node: roleNode[role], Role: role,
		})
		return nil
	}
}

// decision runs a decision-producing role. These have no valid
// substitute output, so any error is fatal to the run.
func (e *Engine) decision(role roles.Role) func(context.Context) error {
	return func(ctx context.Context) error {
		rs := e.state
		out, err := e.executor.Run(ctx, role, rs, e.bundle)
		if err != nil {
			return err
		}
		rs.SetReport(role, out.Text)

		eventType := session.EventVerdict
		switch role {
		case roles.Trader:
			eventType = session.EventTradePlan
		case roles.RiskManager:
			eventType = session.EventDecision
		}
		e.addJournal(session.Event{
			Type: eventType, Node: roleNode[role], Role: role, Content: out.Text, Meta: callMeta(out),
		})
		e.publish(events.Event{
			Type: events.TypeNodeDone, RunID: rs.RunID, Subject: rs.Subject,
			Node: roleNode[role], Role: role,
		})
		return nil
	}
}

// runReportGenerator derives the final decision record. Pure over run
// state; no provider call.
func (e *Engine) runReportGenerator(ctx context.Context) error {
	e.state.FinalResult = buildFinalResult(e.state)
	return nil
}

// --- terminal paths ---

func (e *Engine) finishCompleted() {
	rs := e.state
	rs.SetStatus(state.StatusCompleted)
	e.journalStatus()

	detail := ""
	if rs.FinalResult != nil {
		detail = string(rs.FinalResult.Recommendation)
	}
	e.addJournal(session.Event{Type: session.EventRunEnd, Content: detail})
	e.persistFinal()
	e.publish(events.Event{
		Type: events.TypeRunFinished, RunID: rs.RunID, Subject: rs.Subject,
		Status: string(rs.Status), Detail: detail,
	})
	e.log.Info("run completed", map[string]interface{}{
		"run": rs.RunID, "recommendation": detail,
	})
}

func (e *Engine) finishCancelled(at state.Node) {
	rs := e.state
	rs.SetStatus(state.StatusCancelled)
	e.journalStatus()
	e.addJournal(session.Event{Type: session.EventRunEnd, Node: at})
	e.persistFinal()
	e.publish(events.Event{
		Type: events.TypeRunFinished, RunID: rs.RunID, Subject: rs.Subject,
		Status: string(rs.Status),
	})
	e.log.Info("run cancelled", map[string]interface{}{
		"run": rs.RunID, "node": string(at),
	})
}

func (e *Engine) finishFailed(at state.Node, kind state.ErrorKind, err error) {
	rs := e.state
	rs.RecordError(at, kind, err.Error(), true)
	rs.SetStatus(state.StatusFailed)
	e.journalStatus()
	e.addJournal(session.Event{
		Type: session.EventNodeError, Node: at, Error: err.Error(),
		Meta: &session.EventMeta{Fatal: true},
	})
	e.addJournal(session.Event{Type: session.EventRunEnd, Node: at, Error: err.Error()})
	e.persistFinal()
	e.publish(events.Event{
		Type: events.TypeRunFinished, RunID: rs.RunID, Subject: rs.Subject,
		Status: string(rs.Status), Detail: err.Error(),
	})
	e.log.Error("run failed", map[string]interface{}{
		"run": rs.RunID, "node": string(at), "kind": string(kind), "error": err.Error(),
	})
}

// --- persistence and bookkeeping ---

// persistBoundary saves state after a node completes. Persistence
// failures degrade the audit trail, never the run.
func (e *Engine) persistBoundary(node state.Node) {
	rs := e.state
	e.lastCompleted = node
	if e.snapshots != nil {
		if err := e.snapshots.Save(rs.RunID, node, rs, e.bundle); err != nil {
			e.log.Warn("snapshot save failed", map[string]interface{}{
				"run": rs.RunID, "node": string(node), "error": err.Error(),
			})
		}
	}
	e.saveJournal()
	if e.onBoundary != nil {
		e.onBoundary(node, rs)
	}
}

// persistFinal records the terminal state. The snapshot keeps the last
// completed node, so a failed or cancelled run can resume without
// repeating paid work. A run that never completed a node leaves no
// snapshot behind.
func (e *Engine) persistFinal() {
	if e.snapshots != nil && e.lastCompleted != "" {
		if err := e.snapshots.Save(e.state.RunID, e.lastCompleted, e.state, e.bundle); err != nil {
			e.log.Warn("final snapshot save failed", map[string]interface{}{
				"run": e.state.RunID, "error": err.Error(),
			})
		}
	}
	e.saveJournal()
	if e.onBoundary != nil {
		e.onBoundary(state.NodeDone, e.state)
	}
}

func (e *Engine) saveJournal() {
	if e.journal == nil || e.journals == nil {
		return
	}
	if err := e.journals.Save(e.journal.Snapshot()); err != nil {
		e.log.Warn("journal save failed", map[string]interface{}{
			"run": e.state.RunID, "error": err.Error(),
		})
	}
}

func (e *Engine) addJournal(evt session.Event) {
	if e.journal == nil {
		return
	}
	e.journal.AddEvent(evt)
}

func (e *Engine) journalStatus() {
	if e.journal == nil {
		return
	}
	msg := ""
	if fatal := e.state.FatalError(); fatal != nil {
		msg = fatal.Message
	}
	e.journal.SetStatus(e.state.Status, msg)
}

func (e *Engine) publish(evt events.Event) {
	if err := e.events.Publish(evt); err != nil {
		e.log.Warn("event publish failed", map[string]interface{}{
			"run": e.state.RunID, "type": evt.Type, "error": err.Error(),
		})
	}
}

func callMeta(out *StageOutput) *session.EventMeta {
	return &session.EventMeta{
		Model:     out.Model,
		TokensIn:  out.Usage.InputTokens,
		TokensOut: out.Usage.OutputTokens,
		LatencyMs: out.Latency.Milliseconds(),
	}
}

// classifyNodeError maps a fatal handler error onto the taxonomy.
func classifyNodeError(err error) state.ErrorKind {
	switch {
	case errors.Is(err, marketdata.ErrUnavailable):
		return state.KindDataUnavailable
	case errors.Is(err, reasoning.ErrTimeout):
		return state.KindProviderTimeout
	}
	return state.KindProviderError
}
