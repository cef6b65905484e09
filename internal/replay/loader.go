package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/guangxiangdebizi/tradingagents/internal/session"
)

// loadJournal reads a JSONL journal file, truncating oversized event
// content along the way.
func (r *Replayer) loadJournal(path string) (*session.Journal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal file: %w", err)
	}
	defer f.Close()

	j := &session.Journal{Events: []session.Event{}}

	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				if len(bytes.TrimSpace(line)) > 0 {
					if parseErr := r.parseLine(line, j); parseErr != nil {
						return nil, parseErr
					}
				}
				break
			}
			return nil, fmt.Errorf("error reading journal: %w", err)
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if err := r.parseLine(line, j); err != nil {
			return nil, err
		}
	}

	return j, nil
}

// parseLine parses a single JSONL line into the journal.
func (r *Replayer) parseLine(line []byte, j *session.Journal) error {
	var record session.JSONLRecord
	if err := json.Unmarshal(line, &record); err != nil {
		return fmt.Errorf("failed to parse journal line: %w", err)
	}

	switch record.RecordType {
	case session.RecordTypeHeader:
		j.RunID = record.RunID
		j.Subject = record.Subject
		j.AsOfDate = record.AsOfDate
		j.CreatedAt = record.CreatedAt

	case session.RecordTypeEvent:
		if record.Event != nil {
			evt := *record.Event
			if r.maxContentSize > 0 && len(evt.Content) > r.maxContentSize {
				evt.Content = evt.Content[:r.maxContentSize] +
					fmt.Sprintf("\n... [truncated, %d bytes total]", len(record.Event.Content))
			}
			j.Events = append(j.Events, evt)
		}

	case session.RecordTypeFooter:
		j.Status = record.Status
		j.Error = record.RunError
		j.UpdatedAt = record.UpdatedAt
	}

	return nil
}
