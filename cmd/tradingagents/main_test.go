package main

import (
	"context"
	"sync"
	"testing"

	"github.com/guangxiangdebizi/tradingagents/internal/events"
	"github.com/guangxiangdebizi/tradingagents/internal/graph"
	"github.com/guangxiangdebizi/tradingagents/internal/marketdata"
	"github.com/guangxiangdebizi/tradingagents/internal/reasoning"
	"github.com/guangxiangdebizi/tradingagents/internal/roles"
	"github.com/guangxiangdebizi/tradingagents/internal/session"
	"github.com/guangxiangdebizi/tradingagents/internal/snapshot"
	"github.com/guangxiangdebizi/tradingagents/internal/supervisor"
)

// stubReasoner answers every role with canned text. A non-nil gate
// parks calls until it closes or the caller gives up.
type stubReasoner struct {
	mu   sync.Mutex
	gate chan struct{}
}

func (f *stubReasoner) Submit(ctx context.Context, req reasoning.Request) (*reasoning.Response, error) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-gate:
		}
	}
	text := string(req.Role) + " view"
	if req.Role == roles.RiskManager {
		text = "Settled on balance.\nFINAL DECISION: BUY"
	}
	return &reasoning.Response{Text: text, Model: "stub"}, nil
}

func (f *stubReasoner) setGate(gate chan struct{}) {
	f.mu.Lock()
	f.gate = gate
	f.mu.Unlock()
}

// stubData serves one record for every section.
type stubData struct{}

func (stubData) FetchMarketData(ctx context.Context, subject, asOfDate string) (*marketdata.MarketData, error) {
	return &marketdata.MarketData{Subject: subject, AsOfDate: asOfDate,
		Quotes: []marketdata.Quote{{Date: asOfDate, Close: 42, Volume: 1000}}}, nil
}

func (stubData) FetchFundamentals(ctx context.Context, subject, asOfDate string) (*marketdata.Fundamentals, error) {
	return &marketdata.Fundamentals{Subject: subject, AsOfDate: asOfDate,
		Metrics: []marketdata.Metric{{Name: "P/E", Value: "12"}}}, nil
}

func (stubData) FetchNews(ctx context.Context, subject, asOfDate string) (*marketdata.News, error) {
	return &marketdata.News{Subject: subject, AsOfDate: asOfDate,
		Items: []marketdata.NewsItem{{Title: "t", Body: "b"}}}, nil
}

func (stubData) FetchSocial(ctx context.Context, subject, asOfDate string) (*marketdata.Social, error) {
	return &marketdata.Social{Subject: subject, AsOfDate: asOfDate,
		Posts: []marketdata.SocialPost{{Platform: "forum", Body: "p"}}}, nil
}

func newTestSupervisor(t *testing.T) (*supervisor.Supervisor, *stubReasoner) {
	t.Helper()
	journals, err := session.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("journal store: %v", err)
	}
	snapshots, err := snapshot.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("snapshot store: %v", err)
	}
	stub := &stubReasoner{}
	sup := supervisor.New(supervisor.Config{
		Executor:  graph.NewStageExecutor(stub, nil, nil),
		Collector: marketdata.NewCollector(stubData{}, 0, nil),
		Journals:  journals,
		Snapshots: snapshots,
		Events:    &events.Memory{},
	})
	return sup, stub
}
