// Package events publishes run lifecycle notifications over NATS so
// dashboards and downstream consumers can follow runs without polling
// the control API. Publishing is best effort; a run never fails
// because nobody is listening.
package events

import (
	"sync"
	"time"

	"github.com/guangxiangdebizi/tradingagents/internal/roles"
	"github.com/guangxiangdebizi/tradingagents/internal/state"
)

// Event types.
const (
	TypeRunStarted  = "run.started"
	TypeNodeDone    = "run.node"
	TypeTurn        = "run.turn"
	TypeReport      = "run.report"
	TypeRunFinished = "run.finished"
)

// Event is one notification. Subject is the instrument under
// analysis, not the NATS routing key.
type Event struct {
	Type      string     `json:"type"`
	RunID     string     `json:"run_id"`
	Subject   string     `json:"subject"`
	Node      state.Node `json:"node,omitempty"`
	Role      roles.Role `json:"role,omitempty"`
	Status    string     `json:"status,omitempty"`
	Detail    string     `json:"detail,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Publisher delivers events. Implementations must be safe for
// concurrent use; analyst fan-out publishes from several goroutines.
type Publisher interface {
	Publish(evt Event) error
	Close() error
}

// Nop drops every event. The default when no broker is configured.
type Nop struct{}

func (Nop) Publish(Event) error { return nil }
func (Nop) Close() error        { return nil }

// Memory records events in order. Useful for tests and for the watch
// UI when it runs in the same process as the supervisor.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func (m *Memory) Publish(evt Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	m.events = append(m.events, evt)
	return nil
}

func (m *Memory) Close() error { return nil }

// Events returns a copy of everything published so far.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}
