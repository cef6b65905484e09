// Package session records the audit journal of a run: every data
// fetch, report, debate turn, and decision lands here as an ordered
// event. Journals persist as JSONL, one file per run, readable by the
// replay tooling without the run in memory.
package session

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/guangxiangdebizi/tradingagents/internal/roles"
	"github.com/guangxiangdebizi/tradingagents/internal/state"
)

// Event types recorded in a journal.
const (
	EventRunStart   = "run_start"   // run admitted and parameters fixed
	EventCollection = "collection"  // data sections gathered
	EventReport     = "report"      // one analyst report produced
	EventDebateTurn = "debate_turn" // one bull or bear turn
	EventVerdict    = "verdict"     // research manager verdict
	EventTradePlan  = "trade_plan"  // trader proposal
	EventRiskTurn   = "risk_turn"   // one risky/safe/neutral turn
	EventDecision   = "decision"    // risk manager ruling
	EventNodeError  = "node_error"  // degraded or fatal node failure
	EventRunEnd     = "run_end"     // terminal status reached
)

// Journal is the forensic record of one run.
type Journal struct {
	RunID     string    `json:"run_id"`
	Subject   string    `json:"subject"`
	AsOfDate  string    `json:"as_of_date"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Events    []Event   `json:"events"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	seqCounter uint64
	mu         sync.Mutex
}

// Event is a single journal entry.
type Event struct {
	SeqID     uint64    `json:"seq"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// Where in the workflow this happened.
	Node  state.Node `json:"node,omitempty"`
	Role  roles.Role `json:"role,omitempty"`
	Round int        `json:"round,omitempty"`

	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`

	Meta *EventMeta `json:"meta,omitempty"`
}

// EventMeta carries reasoning-call details for events that made one.
type EventMeta struct {
	Model     string   `json:"model,omitempty"`
	TokensIn  int      `json:"tokens_in,omitempty"`
	TokensOut int      `json:"tokens_out,omitempty"`
	LatencyMs int64    `json:"latency_ms,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	Fatal     bool     `json:"fatal,omitempty"`
}

// NewJournal starts an empty journal for a run.
func NewJournal(runID, subject, asOfDate string) *Journal {
	now := time.Now()
	return &Journal{
		RunID:     runID,
		Subject:   subject,
		AsOfDate:  asOfDate,
		Status:    string(state.StatusPending),
		Events:    []Event{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddEvent appends an event with automatic sequencing and returns its
// sequence id. Safe for concurrent use; analyst fan-out appends from
// several goroutines.
func (j *Journal) AddEvent(event Event) uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()

	event.SeqID = atomic.AddUint64(&j.seqCounter, 1)
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	j.Events = append(j.Events, event)
	j.UpdatedAt = time.Now()
	return event.SeqID
}

// SetStatus records the journal-visible run status.
func (j *Journal) SetStatus(status state.Status, errMsg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = string(status)
	j.Error = errMsg
	j.UpdatedAt = time.Now()
}

// Snapshot returns a copy safe to persist while the run keeps going.
func (j *Journal) Snapshot() *Journal {
	j.mu.Lock()
	defer j.mu.Unlock()

	cp := &Journal{
		RunID:     j.RunID,
		Subject:   j.Subject,
		AsOfDate:  j.AsOfDate,
		Status:    j.Status,
		Error:     j.Error,
		Events:    make([]Event, len(j.Events)),
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
	copy(cp.Events, j.Events)
	return cp
}

// Store is the persistence boundary for journals.
type Store interface {
	Save(j *Journal) error
	Load(runID string) (*Journal, error)
	List() ([]string, error)
}

// JSONL record types. Each journal file is a header line, one line per
// event, and a footer with the final status.
const (
	RecordTypeHeader = "header"
	RecordTypeEvent  = "event"
	RecordTypeFooter = "footer"
)

// JSONLRecord wraps journal lines with type discrimination.
type JSONLRecord struct {
	RecordType string `json:"_type"`

	// Header fields.
	RunID     string    `json:"run_id,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	AsOfDate  string    `json:"as_of_date,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`

	// Event payload.
	*Event `json:",omitempty"`

	// Footer fields.
	Status    string    `json:"status,omitempty"`
	RunError  string    `json:"run_error,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// FileStore persists journals as {dir}/{runID}.jsonl.
type FileStore struct {
	dir string
}

// NewFileStore creates the journal directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// Save rewrites the journal file. Called at stage boundaries, so a
// crash loses at most the stage in flight.
func (s *FileStore) Save(j *Journal) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create journal directory: %w", err)
	}

	path := filepath.Join(s.dir, j.RunID+".jsonl")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create journal file: %w", err)
	}
	defer f.Close()

	header := JSONLRecord{
		RecordType: RecordTypeHeader,
		RunID:      j.RunID,
		Subject:    j.Subject,
		AsOfDate:   j.AsOfDate,
		CreatedAt:  j.CreatedAt,
	}
	if err := writeLine(f, header); err != nil {
		return err
	}

	for _, evt := range j.Events {
		evtCopy := evt
		if err := writeLine(f, JSONLRecord{RecordType: RecordTypeEvent, Event: &evtCopy}); err != nil {
			return err
		}
	}

	footer := JSONLRecord{
		RecordType: RecordTypeFooter,
		Status:     j.Status,
		RunError:   j.Error,
		UpdatedAt:  j.UpdatedAt,
	}
	return writeLine(f, footer)
}

func writeLine(f *os.File, record JSONLRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal journal record: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		return err
	}
	_, err = f.WriteString("\n")
	return err
}

// Load reads a journal back from disk.
func (s *FileStore) Load(runID string) (*Journal, error) {
	path := filepath.Join(s.dir, runID+".jsonl")
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	j := &Journal{Events: []Event{}}

	// bufio.Reader instead of Scanner: report bodies can exceed the
	// Scanner line limit.
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				if len(bytes.TrimSpace(line)) > 0 {
					if parseErr := parseLine(line, j); parseErr != nil {
						return nil, parseErr
					}
				}
				break
			}
			return nil, fmt.Errorf("read journal: %w", err)
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if err := parseLine(line, j); err != nil {
			return nil, err
		}
	}

	if len(j.Events) > 0 {
		j.seqCounter = j.Events[len(j.Events)-1].SeqID
	}
	return j, nil
}

func parseLine(line []byte, j *Journal) error {
	var record JSONLRecord
	if err := json.Unmarshal(line, &record); err != nil {
		return fmt.Errorf("parse journal line: %w", err)
	}

	switch record.RecordType {
	case RecordTypeHeader:
		j.RunID = record.RunID
		j.Subject = record.Subject
		j.AsOfDate = record.AsOfDate
		j.CreatedAt = record.CreatedAt
	case RecordTypeEvent:
		if record.Event != nil {
			j.Events = append(j.Events, *record.Event)
		}
	case RecordTypeFooter:
		j.Status = record.Status
		j.Error = record.RunError
		j.UpdatedAt = record.UpdatedAt
	}
	return nil
}

// List returns the run ids of every journal on disk, newest first.
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	type candidate struct {
		id  string
		mod time.Time
	}
	var found []candidate
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		found = append(found, candidate{
			id:  strings.TrimSuffix(name, ".jsonl"),
			mod: info.ModTime(),
		})
	}
	sort.Slice(found, func(i, k int) bool { return found[i].mod.After(found[k].mod) })

	ids := make([]string, len(found))
	for i, c := range found {
		ids[i] = c.id
	}
	return ids, nil
}
