// Package snapshot persists run state at stage boundaries. An
// interrupted run resumes from its last saved record instead of
// repeating paid reasoning calls.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/guangxiangdebizi/tradingagents/internal/marketdata"
	"github.com/guangxiangdebizi/tradingagents/internal/state"
)

// Record is one saved stage boundary. Node is the last node that
// completed; a resumed run re-enters the machine after it. Bundle
// rides along so a resumed run does not refetch market data.
type Record struct {
	RunID   string             `json:"run_id"`
	Node    state.Node         `json:"node"`
	SavedAt time.Time          `json:"saved_at"`
	State   *state.RunState    `json:"state"`
	Bundle  *marketdata.Bundle `json:"bundle,omitempty"`
}

// Store keeps the latest record per run, write-through to one JSON
// file per run.
type Store struct {
	dir     string
	records map[string]*Record
	mu      sync.RWMutex
}

// NewStore creates a snapshot store rooted at dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	return &Store{
		dir:     dir,
		records: make(map[string]*Record),
	}, nil
}

// Save records the state after node completed. The state is cloned so
// the engine can keep mutating its own copy.
func (s *Store) Save(runID string, node state.Node, rs *state.RunState, bundle *marketdata.Bundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := &Record{
		RunID:   runID,
		Node:    node,
		SavedAt: time.Now(),
		State:   rs.Clone(),
		Bundle:  bundle,
	}
	s.records[runID] = record
	return s.flush(record)
}

// Get returns the latest in-memory record for a run, or nil.
func (s *Store) Get(runID string) *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[runID]
}

// LoadRun reads a run's record from disk, bypassing the in-memory map.
// Used when resuming in a fresh process.
func (s *Store) LoadRun(runID string) (*Record, error) {
	path := filepath.Join(s.dir, runID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no snapshot for run %s", runID)
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parse snapshot for run %s: %w", runID, err)
	}

	s.mu.Lock()
	s.records[runID] = &record
	s.mu.Unlock()
	return &record, nil
}

func (s *Store) flush(record *Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, record.RunID+".json")
	return os.WriteFile(path, data, 0644)
}
