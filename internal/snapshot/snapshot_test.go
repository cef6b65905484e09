package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/guangxiangdebizi/tradingagents/internal/marketdata"
	"github.com/guangxiangdebizi/tradingagents/internal/roles"
	"github.com/guangxiangdebizi/tradingagents/internal/state"
)

func sampleState() *state.RunState {
	rs := state.New("run-9", state.Params{
		Subject:         "TSLA",
		AsOfDate:        "2026-08-21",
		SelectedRoles:   []roles.Role{roles.MarketAnalyst},
		MaxDebateRounds: 1,
		MaxRiskRounds:   1,
	})
	rs.SetStatus(state.StatusRunning)
	rs.SetReport(roles.MarketAnalyst, "volume spike")
	return rs
}

func TestStoreSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	if err := store.Save("run-9", state.NodeAnalysts, sampleState(), nil); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// A fresh store simulates a new process.
	fresh, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	record, err := fresh.LoadRun("run-9")
	if err != nil {
		t.Fatalf("LoadRun() error = %v", err)
	}
	if record.Node != state.NodeAnalysts {
		t.Errorf("node = %s, want analysts", record.Node)
	}
	if record.State.Report(roles.MarketAnalyst) != "volume spike" {
		t.Error("report lost across reload")
	}
	if record.State.Status != state.StatusRunning {
		t.Errorf("status = %s, want running", record.State.Status)
	}
}

func TestStoreKeepsLatestBoundary(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	rs := sampleState()
	if err := store.Save("run-9", state.NodeDataCollection, rs, nil); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	rs.AppendDebateTurn(roles.Bull, "case for")
	if err := store.Save("run-9", state.NodeBullResearcher, rs, nil); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	record := store.Get("run-9")
	if record == nil {
		t.Fatal("Get() returned nil")
	}
	if record.Node != state.NodeBullResearcher {
		t.Errorf("node = %s, want bull_researcher", record.Node)
	}
	if len(record.State.DebateHistory) != 1 {
		t.Errorf("debate history = %d turns, want 1", len(record.State.DebateHistory))
	}
}

func TestStoreSnapshotIsDetached(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	rs := sampleState()
	if err := store.Save("run-9", state.NodeDataCollection, rs, nil); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	rs.SetReport(roles.MarketAnalyst, "mutated after save")

	record := store.Get("run-9")
	if record.State.Report(roles.MarketAnalyst) != "volume spike" {
		t.Error("snapshot shares state with the live run")
	}
}

func TestStoreCarriesBundle(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	bundle := &marketdata.Bundle{
		Market: &marketdata.MarketData{
			Subject:  "TSLA",
			AsOfDate: "2026-08-21",
			Quotes:   []marketdata.Quote{{Date: "2026-08-20", Close: 250}},
		},
		Warnings: []string{"news data unavailable: feed offline"},
	}
	if err := store.Save("run-9", state.NodeDataCollection, sampleState(), bundle); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	fresh, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	record, err := fresh.LoadRun("run-9")
	if err != nil {
		t.Fatalf("LoadRun() error = %v", err)
	}
	if record.Bundle == nil || record.Bundle.Market == nil {
		t.Fatal("bundle lost across reload")
	}
	if record.Bundle.Market.Quotes[0].Close != 250 {
		t.Error("bundle quotes corrupted")
	}
	if len(record.Bundle.Warnings) != 1 {
		t.Error("bundle warnings lost")
	}
}

func TestStoreLoadRunMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if _, err := store.LoadRun("ghost"); err == nil {
		t.Fatal("expected error for missing snapshot")
	}
}

func TestStoreLoadRunCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{nope"), 0644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	if _, err := store.LoadRun("bad"); err == nil {
		t.Fatal("expected parse error for corrupt snapshot")
	}
}
