// Package supervisor is the public control surface for decision runs:
// admission, status, cancellation, results, and resumption. Each run
// executes on its own goroutine; the supervisor only ever touches
// scalar progress snapshots reported back from run boundaries, so
// status reads never contend with run execution.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vinayprograms/agentkit/logging"

	"github.com/guangxiangdebizi/tradingagents/internal/events"
	"github.com/guangxiangdebizi/tradingagents/internal/graph"
	"github.com/guangxiangdebizi/tradingagents/internal/marketdata"
	"github.com/guangxiangdebizi/tradingagents/internal/session"
	"github.com/guangxiangdebizi/tradingagents/internal/snapshot"
	"github.com/guangxiangdebizi/tradingagents/internal/state"
)

var (
	// ErrInvalidConfiguration rejects run parameters at admission,
	// before anything is scheduled.
	ErrInvalidConfiguration = errors.New("invalid run configuration")

	// ErrRunNotFound means the run id is not tracked and no snapshot
	// exists for it.
	ErrRunNotFound = errors.New("run not found")

	// ErrRunNotTerminal guards operations that need a settled run:
	// results before completion, resumption while still executing.
	ErrRunNotTerminal = errors.New("run not terminal")
)

// RunStatus is a point-in-time view of one run. Values are copied out
// under the run's own lock; holding one never blocks the run.
type RunStatus struct {
	RunID        string       `json:"run_id"`
	Subject      string       `json:"subject"`
	AsOfDate     string       `json:"as_of_date"`
	Status       state.Status `json:"status"`
	CurrentNode  state.Node   `json:"current_node"`
	DebateRounds int          `json:"debate_rounds"`
	RiskRounds   int          `json:"risk_rounds"`
	StartedAt    time.Time    `json:"started_at"`
}

// Config assembles a Supervisor. Executor and Collector are required;
// stores and events are optional and degrade to in-memory-only runs.
type Config struct {
	Executor  *graph.StageExecutor
	Collector *marketdata.Collector
	Journals  session.Store
	Snapshots *snapshot.Store
	Events    events.Publisher
	Logger    *logging.Logger
}

// Supervisor admits, tracks, and settles runs.
type Supervisor struct {
	executor  *graph.StageExecutor
	collector *marketdata.Collector
	journals  session.Store
	snapshots *snapshot.Store
	events    events.Publisher
	log       *logging.Logger

	mu   sync.RWMutex
	runs map[string]*run
}

// run is the supervisor-side record of one execution. The engine owns
// the RunState; this holds only the scalars needed for status reads,
// plus the terminal state once the engine hands it over.
type run struct {
	mu sync.Mutex

	id       string
	subject  string
	asOfDate string
	started  time.Time

	cancel context.CancelFunc
	done   chan struct{}

	status  state.Status
	node    state.Node
	debates int
	risks   int

	final *state.RunState // set exactly once, before done closes
}

// New builds a supervisor.
func New(cfg Config) *Supervisor {
	s := &Supervisor{
		executor:  cfg.Executor,
		collector: cfg.Collector,
		journals:  cfg.Journals,
		snapshots: cfg.Snapshots,
		events:    cfg.Events,
		log:       cfg.Logger,
		runs:      make(map[string]*run),
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	if s.log == nil {
		s.log = logging.New().WithComponent("supervisor")
	}
	return s
}

// StartRun validates parameters, registers the run, and schedules it.
// Returns the run id immediately; execution is asynchronous.
func (s *Supervisor) StartRun(p state.Params) (string, error) {
	if err := validateParams(p); err != nil {
		return "", err
	}

	runID := uuid.New().String()
	rs := state.New(runID, p)
	journal := session.NewJournal(runID, p.Subject, p.AsOfDate)

	r := &run{
		id:       runID,
		subject:  p.Subject,
		asOfDate: p.AsOfDate,
		started:  time.Now(),
		done:     make(chan struct{}),
		status:   state.StatusPending,
		node:     state.NodeEntry,
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	s.mu.Lock()
	s.runs[runID] = r
	s.mu.Unlock()

	engine := graph.New(graph.Config{
		State:      rs,
		Executor:   s.executor,
		Collector:  s.collector,
		Journal:    journal,
		Journals:   s.journals,
		Snapshots:  s.snapshots,
		Events:     s.events,
		Logger:     s.log,
		OnBoundary: r.observe,
	})
	go s.drive(ctx, r, engine)

	s.log.Info("run admitted", map[string]interface{}{
		"run":     runID,
		"subject": p.Subject,
		"as_of":   p.AsOfDate,
	})
	return runID, nil
}

// drive runs the engine to its terminal state and settles the record.
func (s *Supervisor) drive(ctx context.Context, r *run, engine *graph.Engine) {
	defer r.cancel()
	final := engine.Run(ctx)

	r.mu.Lock()
	r.status = final.Status
	r.final = final
	r.mu.Unlock()
	close(r.done)
}

// observe is the engine's boundary callback. It runs on the engine
// goroutine, where reading the live state is safe; only the extracted
// scalars cross into supervisor-visible storage.
func (r *run) observe(node state.Node, rs *state.RunState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = rs.Status
	r.node = node
	r.debates = rs.DebateRounds()
	r.risks = rs.RiskRounds()
}

// GetStatus returns a non-blocking snapshot of a run's progress.
func (s *Supervisor) GetStatus(runID string) (*RunStatus, error) {
	r, err := s.get(runID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return &RunStatus{
		RunID:        r.id,
		Subject:      r.subject,
		AsOfDate:     r.asOfDate,
		Status:       r.status,
		CurrentNode:  r.node,
		DebateRounds: r.debates,
		RiskRounds:   r.risks,
		StartedAt:    r.started,
	}, nil
}

// Cancel requests cooperative cancellation. The engine observes it at
// the next node boundary. Cancelling a terminal run is a no-op.
func (s *Supervisor) Cancel(runID string) error {
	r, err := s.get(runID)
	if err != nil {
		return err
	}
	r.cancel()
	return nil
}

// GetResult returns the final decision once the run is terminal.
// Repeated calls return the identical value. A failed run returns its
// partial result (possibly nil) together with the fatal error.
func (s *Supervisor) GetResult(runID string) (*state.FinalResult, error) {
	r, err := s.get(runID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.final == nil {
		return nil, fmt.Errorf("%w: run %s is %s", ErrRunNotTerminal, runID, r.status)
	}
	if fatal := r.final.FatalError(); fatal != nil {
		return r.final.FinalResult, fmt.Errorf("run failed at %s (%s): %s", fatal.Node, fatal.Kind, fatal.Message)
	}
	return r.final.FinalResult, nil
}

// Wait blocks until the run settles or ctx expires, returning the
// terminal state.
func (s *Supervisor) Wait(ctx context.Context, runID string) (*state.RunState, error) {
	r, err := s.get(runID)
	if err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.done:
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.final, nil
}

// List returns status snapshots for all tracked runs, newest first.
func (s *Supervisor) List() []*RunStatus {
	s.mu.RLock()
	ids := make([]string, 0, len(s.runs))
	for id := range s.runs {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	out := make([]*RunStatus, 0, len(ids))
	for _, id := range ids {
		if st, err := s.GetStatus(id); err == nil {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

// Resume restarts an aborted run from its last completed boundary.
// The run re-enters the machine at the node after the snapshot's
// boundary; collected data rides along, so nothing paid for is
// repeated. Live runs cannot be resumed; completed runs have nothing
// to resume.
func (s *Supervisor) Resume(runID string) error {
	if r, err := s.get(runID); err == nil {
		r.mu.Lock()
		live := r.final == nil
		r.mu.Unlock()
		if live {
			return fmt.Errorf("%w: run %s is still executing", ErrRunNotTerminal, runID)
		}
	}

	if s.snapshots == nil {
		return fmt.Errorf("%w: no snapshot store configured", ErrRunNotFound)
	}
	record, err := s.snapshots.LoadRun(runID)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRunNotFound, runID, err)
	}

	start := graph.ResumeNode(record)
	if start == state.NodeDone {
		return fmt.Errorf("run %s already ran to completion", runID)
	}

	rs := record.State.Clone()
	rs.Reopen()

	journal, err := s.loadJournal(runID, rs)
	if err != nil {
		return err
	}

	r := &run{
		id:       runID,
		subject:  rs.Subject,
		asOfDate: rs.AsOfDate,
		started:  time.Now(),
		done:     make(chan struct{}),
		status:   state.StatusPending,
		node:     record.Node,
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	s.mu.Lock()
	s.runs[runID] = r
	s.mu.Unlock()

	engine := graph.New(graph.Config{
		State:         rs,
		Executor:      s.executor,
		Collector:     s.collector,
		Journal:       journal,
		Journals:      s.journals,
		Snapshots:     s.snapshots,
		Events:        s.events,
		Logger:        s.log,
		StartNode:     start,
		LastCompleted: record.Node,
		Bundle:        record.Bundle,
		OnBoundary:    r.observe,
	})
	go s.drive(ctx, r, engine)

	s.log.Info("run resumed", map[string]interface{}{
		"run":  runID,
		"from": string(record.Node),
		"at":   string(start),
	})
	return nil
}

// loadJournal continues the existing audit journal when one survives,
// otherwise opens a fresh one so the resumed half is still recorded.
func (s *Supervisor) loadJournal(runID string, rs *state.RunState) (*session.Journal, error) {
	if s.journals == nil {
		return nil, nil
	}
	journal, err := s.journals.Load(runID)
	if err != nil {
		return session.NewJournal(runID, rs.Subject, rs.AsOfDate), nil
	}
	return journal, nil
}

// Shutdown cancels every live run and waits for all of them to settle
// or for ctx to expire.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	all := make([]*run, 0, len(s.runs))
	for _, r := range s.runs {
		all = append(all, r)
	}
	s.mu.RUnlock()

	for _, r := range all {
		r.cancel()
	}
	for _, r := range all {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.done:
		}
	}
	return nil
}

func (s *Supervisor) get(runID string) (*run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return r, nil
}

// validateParams rejects configurations the state machine cannot run.
func validateParams(p state.Params) error {
	if p.Subject == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidConfiguration)
	}
	if _, err := time.Parse("2006-01-02", p.AsOfDate); err != nil {
		return fmt.Errorf("%w: as-of date %q is not YYYY-MM-DD", ErrInvalidConfiguration, p.AsOfDate)
	}
	if len(p.SelectedRoles) == 0 {
		return fmt.Errorf("%w: at least one analyst role is required", ErrInvalidConfiguration)
	}
	seen := make(map[string]bool)
	for _, r := range p.SelectedRoles {
		if !r.IsAnalyst() {
			return fmt.Errorf("%w: %q is not an analyst role", ErrInvalidConfiguration, r)
		}
		if seen[string(r)] {
			return fmt.Errorf("%w: duplicate analyst role %q", ErrInvalidConfiguration, r)
		}
		seen[string(r)] = true
	}
	if p.MaxDebateRounds <= 0 {
		return fmt.Errorf("%w: debate rounds must be positive, got %d", ErrInvalidConfiguration, p.MaxDebateRounds)
	}
	if p.MaxRiskRounds <= 0 {
		return fmt.Errorf("%w: risk rounds must be positive, got %d", ErrInvalidConfiguration, p.MaxRiskRounds)
	}
	return nil
}
