// Package state defines the per-run data model: run parameters, accumulated
// reports and debate transcripts, error records, and the final decision.
// A RunState is created once by the supervisor, owned exclusively by the
// engine goroutine executing that run, and becomes read-only once its status
// reaches a terminal value. Nothing in this package takes locks; concurrent
// visibility is the supervisor's concern.
package state

import (
	"time"

	"github.com/guangxiangdebizi/tradingagents/internal/roles"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
	StatusCompleted Status = "completed"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	switch s {
	case StatusCancelled, StatusFailed, StatusCompleted:
		return true
	}
	return false
}

// Node identifies a position in the decision graph.
type Node string

const (
	NodeEntry           Node = "entry"
	NodeDataCollection  Node = "data_collection"
	NodeAnalysts        Node = "analysts"
	NodeBullResearcher  Node = "bull_researcher"
	NodeBearResearcher  Node = "bear_researcher"
	NodeResearchManager Node = "research_manager"
	NodeTrader          Node = "trader"
	NodeRiskyAnalyst    Node = "risky_analyst"
	NodeSafeAnalyst     Node = "safe_analyst"
	NodeNeutralAnalyst  Node = "neutral_analyst"
	NodeRiskManager     Node = "risk_manager"
	NodeReportGenerator Node = "report_generator"
	NodeDone            Node = "done"
)

// ErrorKind classifies an error recorded against a node.
type ErrorKind string

const (
	KindProviderTimeout ErrorKind = "provider_timeout"
	KindProviderError   ErrorKind = "provider_error"
	KindDataUnavailable ErrorKind = "data_unavailable"
	KindInvalidState    ErrorKind = "invalid_state"
)

// NodeError is one entry in a run's error log.
type NodeError struct {
	Node    Node      `json:"node"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Fatal   bool      `json:"fatal,omitempty"`
	Time    time.Time `json:"time"`
}

// Turn is one speaker turn in the debate or risk transcript. Round is
// 1-based: debate round k covers turns 2k-1 and 2k, risk round k covers
// turns 3k-2 through 3k.
type Turn struct {
	Speaker roles.Role `json:"speaker"`
	Content string     `json:"content"`
	Round   int        `json:"round"`
	Time    time.Time  `json:"time"`
}

// Recommendation is the final trading signal.
type Recommendation string

const (
	RecommendBuy  Recommendation = "buy"
	RecommendHold Recommendation = "hold"
	RecommendSell Recommendation = "sell"
)

// FinalResult is the decision record produced on the success path.
type FinalResult struct {
	Recommendation Recommendation `json:"recommendation"`
	Confidence     int            `json:"confidence"` // 0-100
	Rationale      string         `json:"rationale"`
	Warnings       []string       `json:"warnings,omitempty"`
}

// Params are the immutable inputs of a run.
type Params struct {
	Subject         string       `json:"subject"`
	AsOfDate        string       `json:"as_of_date"` // trading day, YYYY-MM-DD
	SelectedRoles   []roles.Role `json:"selected_roles"`
	MaxDebateRounds int          `json:"max_debate_rounds"`
	MaxRiskRounds   int          `json:"max_risk_rounds"`
}

// RunState is the complete state of one decision run.
type RunState struct {
	RunID           string       `json:"run_id"`
	Subject         string       `json:"subject"`
	AsOfDate        string       `json:"as_of_date"`
	SelectedRoles   []roles.Role `json:"selected_roles"`
	MaxDebateRounds int          `json:"max_debate_rounds"`
	MaxRiskRounds   int          `json:"max_risk_rounds"`

	// Reports holds the text produced by each role: one entry per analyst,
	// plus the research manager's investment plan, the trader's proposal and
	// the risk manager's verdict under their own role keys. Debate and risk
	// turns go to the transcripts instead.
	Reports map[roles.Role]string `json:"reports"`

	DebateHistory []Turn      `json:"debate_history"`
	RiskHistory   []Turn      `json:"risk_history"`
	Errors        []NodeError `json:"errors"`

	Status      Status       `json:"status"`
	FinalResult *FinalResult `json:"final_result,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a pending RunState for the given parameters. Validation of the
// parameters happens in the supervisor before this is called.
func New(runID string, p Params) *RunState {
	now := time.Now().UTC()
	return &RunState{
		RunID:           runID,
		Subject:         p.Subject,
		AsOfDate:        p.AsOfDate,
		SelectedRoles:   append([]roles.Role(nil), p.SelectedRoles...),
		MaxDebateRounds: p.MaxDebateRounds,
		MaxRiskRounds:   p.MaxRiskRounds,
		Reports:         make(map[roles.Role]string),
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// SetStatus advances the run status. Transitions are monotonic:
// pending → running → {cancelled|failed|completed}; once terminal the status
// never changes. Returns false if the transition was ignored.
func (r *RunState) SetStatus(next Status) bool {
	if r.Status.Terminal() || next == r.Status || next == StatusPending {
		return false
	}
	r.Status = next
	r.UpdatedAt = time.Now().UTC()
	return true
}

// SetReport stores a role's output text.
func (r *RunState) SetReport(role roles.Role, text string) {
	r.Reports[role] = text
	r.UpdatedAt = time.Now().UTC()
}

// Report returns the stored text for a role, or "" if absent.
func (r *RunState) Report(role roles.Role) string {
	return r.Reports[role]
}

// AppendDebateTurn appends a turn to the debate transcript, assigning its
// 1-based round from the current transcript length.
func (r *RunState) AppendDebateTurn(speaker roles.Role, content string) {
	r.DebateHistory = append(r.DebateHistory, Turn{
		Speaker: speaker,
		Content: content,
		Round:   len(r.DebateHistory)/2 + 1,
		Time:    time.Now().UTC(),
	})
	r.UpdatedAt = time.Now().UTC()
}

// AppendRiskTurn appends a turn to the risk transcript.
func (r *RunState) AppendRiskTurn(speaker roles.Role, content string) {
	r.RiskHistory = append(r.RiskHistory, Turn{
		Speaker: speaker,
		Content: content,
		Round:   len(r.RiskHistory)/3 + 1,
		Time:    time.Now().UTC(),
	})
	r.UpdatedAt = time.Now().UTC()
}

// RecordError appends a node error.
func (r *RunState) RecordError(node Node, kind ErrorKind, message string, fatal bool) {
	r.Errors = append(r.Errors, NodeError{
		Node:    node,
		Kind:    kind,
		Message: message,
		Fatal:   fatal,
		Time:    time.Now().UTC(),
	})
	r.UpdatedAt = time.Now().UTC()
}

// DebateRounds returns the number of completed debate rounds (bull+bear pairs).
func (r *RunState) DebateRounds() int { return len(r.DebateHistory) / 2 }

// RiskRounds returns the number of completed risk rounds (risky+safe+neutral).
func (r *RunState) RiskRounds() int { return len(r.RiskHistory) / 3 }

// FatalError returns the first fatal error recorded, if any.
func (r *RunState) FatalError() *NodeError {
	for i := range r.Errors {
		if r.Errors[i].Fatal {
			return &r.Errors[i]
		}
	}
	return nil
}

// Reopen resets a run for resumption: status returns to pending, the
// final result is dropped, and fatal error entries are removed so the
// retried node starts clean. Degradation history stays.
func (r *RunState) Reopen() {
	r.Status = StatusPending
	r.FinalResult = nil
	kept := r.Errors[:0]
	for _, e := range r.Errors {
		if !e.Fatal {
			kept = append(kept, e)
		}
	}
	r.Errors = kept
	r.UpdatedAt = time.Now().UTC()
}

// Clone returns a deep copy. Used when handing state across an ownership
// boundary (snapshot persistence, terminal result hand-off).
func (r *RunState) Clone() *RunState {
	cp := *r
	cp.SelectedRoles = append([]roles.Role(nil), r.SelectedRoles...)
	cp.Reports = make(map[roles.Role]string, len(r.Reports))
	for k, v := range r.Reports {
		cp.Reports[k] = v
	}
	cp.DebateHistory = append([]Turn(nil), r.DebateHistory...)
	cp.RiskHistory = append([]Turn(nil), r.RiskHistory...)
	cp.Errors = append([]NodeError(nil), r.Errors...)
	if r.FinalResult != nil {
		fr := *r.FinalResult
		fr.Warnings = append([]string(nil), r.FinalResult.Warnings...)
		cp.FinalResult = &fr
	}
	return &cp
}
