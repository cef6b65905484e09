package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/vinayprograms/agentkit/telemetry"

	"github.com/guangxiangdebizi/tradingagents/internal/config"
	"github.com/guangxiangdebizi/tradingagents/internal/events"
	"github.com/guangxiangdebizi/tradingagents/internal/roles"
)

func TestRequestParamsDefaults(t *testing.T) {
	cfg := config.New()
	cfg.Trading.Analysts = []string{"market", "news"}
	cfg.Trading.DebateRounds = 2
	cfg.Trading.RiskRounds = 3

	p, err := requestParams(cfg, " NVDA ", "2026-08-21", nil, 0, 0)
	if err != nil {
		t.Fatalf("requestParams: %v", err)
	}
	if p.Subject != "NVDA" {
		t.Errorf("Subject = %q, want trimmed NVDA", p.Subject)
	}
	if p.AsOfDate != "2026-08-21" {
		t.Errorf("AsOfDate = %q", p.AsOfDate)
	}
	if len(p.SelectedRoles) != 2 || p.SelectedRoles[0] != roles.MarketAnalyst || p.SelectedRoles[1] != roles.NewsAnalyst {
		t.Errorf("SelectedRoles = %v, want configured roster", p.SelectedRoles)
	}
	if p.MaxDebateRounds != 2 || p.MaxRiskRounds != 3 {
		t.Errorf("rounds = %d/%d, want 2/3", p.MaxDebateRounds, p.MaxRiskRounds)
	}
}

func TestRequestParamsOverrides(t *testing.T) {
	cfg := config.New()

	p, err := requestParams(cfg, "AAPL", "", []string{"fundamentals"}, 5, 2)
	if err != nil {
		t.Fatalf("requestParams: %v", err)
	}
	if len(p.SelectedRoles) != 1 || p.SelectedRoles[0] != roles.FundamentalsAnalyst {
		t.Errorf("SelectedRoles = %v, want [fundamentals]", p.SelectedRoles)
	}
	if p.MaxDebateRounds != 5 || p.MaxRiskRounds != 2 {
		t.Errorf("rounds = %d/%d, want 5/2", p.MaxDebateRounds, p.MaxRiskRounds)
	}
	if p.AsOfDate != time.Now().Format("2006-01-02") {
		t.Errorf("AsOfDate = %q, want today", p.AsOfDate)
	}
}

func TestRequestParamsBadAnalyst(t *testing.T) {
	if _, err := requestParams(config.New(), "AAPL", "", []string{"astrology"}, 0, 0); err == nil {
		t.Fatal("expected error for unknown analyst role")
	}
}

func TestProgressTee(t *testing.T) {
	var buf bytes.Buffer
	mem := &events.Memory{}
	tee := &progressTee{next: mem, out: &buf, telem: telemetry.NewNoopExporter()}

	published := []events.Event{
		{Type: events.TypeRunStarted, RunID: "r1", Subject: "NVDA"},
		{Type: events.TypeReport, RunID: "r1", Role: roles.MarketAnalyst},
		{Type: events.TypeTurn, RunID: "r1", Role: roles.Bull},
		{Type: events.TypeRunFinished, RunID: "r1", Status: "completed", Detail: "buy"},
	}
	for _, evt := range published {
		if err := tee.Publish(evt); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	out := buf.String()
	for _, want := range []string{"Run started: NVDA", "Report ready: market", "Turn: bull", "Run finished: buy"} {
		if !strings.Contains(out, want) {
			t.Errorf("progress output missing %q:\n%s", want, out)
		}
	}
	if got := len(mem.Events()); got != len(published) {
		t.Errorf("forwarded %d events, want %d", got, len(published))
	}
}

func TestWaitAndReportCompleted(t *testing.T) {
	sup, _ := newTestSupervisor(t)
	rt := &runtime{sup: sup}

	params, err := requestParams(config.New(), "NVDA", "2026-08-21", []string{"market"}, 1, 1)
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	runID, err := sup.StartRun(params)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := waitAndReport(rt, runID, "", true); err != nil {
		t.Fatalf("waitAndReport: %v", err)
	}
}

func TestWaitAndReportTimeoutCancels(t *testing.T) {
	sup, stub := newTestSupervisor(t)
	stub.setGate(make(chan struct{}))
	rt := &runtime{sup: sup}

	params, err := requestParams(config.New(), "NVDA", "2026-08-21", []string{"market"}, 1, 1)
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	runID, err := sup.StartRun(params)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	err = waitAndReport(rt, runID, "100ms", true)
	if err == nil {
		t.Fatal("expected error for timed-out run")
	}
	if !strings.Contains(err.Error(), "cancelled") {
		t.Errorf("error = %v, want cancellation notice", err)
	}
}

func TestWaitAndReportBadTimeout(t *testing.T) {
	sup, _ := newTestSupervisor(t)
	rt := &runtime{sup: sup}

	if err := waitAndReport(rt, "whatever", "fortnight", true); err == nil {
		t.Fatal("expected error for unparseable timeout")
	}
}
