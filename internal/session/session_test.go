package session

import (
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/guangxiangdebizi/tradingagents/internal/roles"
	"github.com/guangxiangdebizi/tradingagents/internal/state"
)

func TestJournalSequencing(t *testing.T) {
	j := NewJournal("run-1", "AAPL", "2026-08-21")

	first := j.AddEvent(Event{Type: EventRunStart})
	second := j.AddEvent(Event{Type: EventReport, Role: roles.MarketAnalyst, Content: "trend up"})
	third := j.AddEvent(Event{Type: EventDebateTurn, Role: roles.Bull, Round: 1})

	if first != 1 || second != 2 || third != 3 {
		t.Errorf("seq ids = %d,%d,%d, want 1,2,3", first, second, third)
	}
	for i, evt := range j.Events {
		if evt.Timestamp.IsZero() {
			t.Errorf("event %d has zero timestamp", i)
		}
	}
}

func TestJournalConcurrentAppend(t *testing.T) {
	j := NewJournal("run-1", "AAPL", "2026-08-21")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 25; k++ {
				j.AddEvent(Event{Type: EventReport, Content: "r"})
			}
		}()
	}
	wg.Wait()

	if len(j.Events) != 200 {
		t.Fatalf("events = %d, want 200", len(j.Events))
	}
	seen := make(map[uint64]bool)
	for _, evt := range j.Events {
		if seen[evt.SeqID] {
			t.Fatalf("duplicate seq id %d", evt.SeqID)
		}
		seen[evt.SeqID] = true
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}

	j := NewJournal("run-42", "NVDA", "2026-08-21")
	j.AddEvent(Event{Type: EventRunStart})
	j.AddEvent(Event{
		Type: EventReport, Node: "analysts", Role: roles.MarketAnalyst,
		Content: "momentum strong",
		Meta:    &EventMeta{Model: "m1", TokensIn: 100, TokensOut: 50},
	})
	j.AddEvent(Event{Type: EventNodeError, Node: "analysts", Role: roles.NewsAnalyst, Error: "feed down"})
	j.SetStatus(state.StatusCompleted, "")

	if err := store.Save(j); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	back, err := store.Load("run-42")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if back.Subject != "NVDA" || back.AsOfDate != "2026-08-21" {
		t.Errorf("header lost: %s %s", back.Subject, back.AsOfDate)
	}
	if back.Status != string(state.StatusCompleted) {
		t.Errorf("footer status = %s", back.Status)
	}
	if len(back.Events) != 3 {
		t.Fatalf("events = %d, want 3", len(back.Events))
	}
	if back.Events[1].Meta == nil || back.Events[1].Meta.TokensIn != 100 {
		t.Error("event meta lost")
	}

	// Appending after a reload continues the sequence.
	if next := back.AddEvent(Event{Type: EventRunEnd}); next != 4 {
		t.Errorf("seq after reload = %d, want 4", next)
	}
}

func TestFileStoreLongContent(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}

	// Longer than bufio.Scanner's default token limit.
	long := strings.Repeat("the bull case rests on margins. ", 4096)
	j := NewJournal("run-long", "AAPL", "2026-08-21")
	j.AddEvent(Event{Type: EventDebateTurn, Role: roles.Bull, Content: long})

	if err := store.Save(j); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	back, err := store.Load("run-long")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if back.Events[0].Content != long {
		t.Error("long content truncated on reload")
	}
}

func TestFileStoreList(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}

	for _, id := range []string{"run-a", "run-b"} {
		j := NewJournal(id, "AAPL", "2026-08-21")
		if err := store.Save(j); err != nil {
			t.Fatalf("Save(%s): %v", id, err)
		}
		// Distinct mtimes so ordering is observable.
		time.Sleep(10 * time.Millisecond)
	}
	// A stray file must not show up as a run.
	os.WriteFile(dir+"/notes.txt", []byte("x"), 0644)

	ids, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("ids = %v, want 2 entries", ids)
	}
	if ids[0] != "run-b" || ids[1] != "run-a" {
		t.Errorf("ids = %v, want newest first", ids)
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	if _, err := store.Load("nope"); err == nil {
		t.Fatal("expected error for missing journal")
	}
}

func TestJournalSnapshotIndependent(t *testing.T) {
	j := NewJournal("run-1", "AAPL", "2026-08-21")
	j.AddEvent(Event{Type: EventRunStart})

	snap := j.Snapshot()
	j.AddEvent(Event{Type: EventRunEnd})

	if len(snap.Events) != 1 {
		t.Errorf("snapshot grew with the live journal: %d events", len(snap.Events))
	}
	if len(j.Events) != 2 {
		t.Errorf("live journal events = %d, want 2", len(j.Events))
	}
}
