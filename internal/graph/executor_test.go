package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/guangxiangdebizi/tradingagents/internal/reasoning"
	"github.com/guangxiangdebizi/tradingagents/internal/roles"
	"github.com/guangxiangdebizi/tradingagents/internal/state"
)

func TestStageExecutorSubmitsTemplateAndContext(t *testing.T) {
	fr := newFakeReasoner()
	exec := NewStageExecutor(fr, nil, nil)
	rs := state.New("run-exec", defaultParams())

	out, err := exec.Run(context.Background(), roles.MarketAnalyst, rs, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Text == "" || out.Model != "fake-quick" {
		t.Errorf("output not carried through: %+v", out)
	}
	if out.Usage.OutputTokens != 40 {
		t.Errorf("usage lost: %+v", out.Usage)
	}

	req := fr.calls[0]
	if req.RunID != "run-exec" || req.Role != roles.MarketAnalyst {
		t.Errorf("request identity wrong: %+v", req)
	}
	template, _ := roles.NewCatalog().Get(roles.MarketAnalyst)
	if req.System != template.Prompt {
		t.Error("system prompt is not the catalog template")
	}
	if req.Context == "" {
		t.Error("empty context slice")
	}
}

func TestStageExecutorUnknownRole(t *testing.T) {
	exec := NewStageExecutor(newFakeReasoner(), nil, nil)
	rs := state.New("run-exec", defaultParams())

	_, err := exec.Run(context.Background(), roles.Role("astrologer"), rs, nil)
	if err == nil {
		t.Fatal("unknown role accepted")
	}
}

func TestStageExecutorPropagatesProviderError(t *testing.T) {
	fr := newFakeReasoner()
	fr.fail[roles.Bull] = reasoning.ErrProvider
	exec := NewStageExecutor(fr, nil, nil)
	rs := state.New("run-exec", defaultParams())

	_, err := exec.Run(context.Background(), roles.Bull, rs, nil)
	if !errors.Is(err, reasoning.ErrProvider) {
		t.Fatalf("err = %v, want ErrProvider", err)
	}
}
