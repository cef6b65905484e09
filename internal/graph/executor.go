package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/vinayprograms/agentkit/logging"

	"github.com/guangxiangdebizi/tradingagents/internal/marketdata"
	"github.com/guangxiangdebizi/tradingagents/internal/reasoning"
	"github.com/guangxiangdebizi/tradingagents/internal/roles"
	"github.com/guangxiangdebizi/tradingagents/internal/state"
)

// StageOutput is one role's contribution plus call accounting for the
// journal.
type StageOutput struct {
	Text    string
	Model   string
	Usage   reasoning.Usage
	Latency time.Duration
}

// StageExecutor turns a role into a reasoning call: looks up the role
// template, builds the context slice, and submits. All roles dispatch
// through this one path; adding a role means a catalog entry, not a
// new executor.
type StageExecutor struct {
	provider reasoning.Provider
	catalog  *roles.Catalog
	log      *logging.Logger
}

// NewStageExecutor wires an executor. A nil catalog falls back to the
// built-in templates.
func NewStageExecutor(provider reasoning.Provider, catalog *roles.Catalog, log *logging.Logger) *StageExecutor {
	if catalog == nil {
		catalog = roles.NewCatalog()
	}
	if log == nil {
		log = logging.New().WithComponent("executor")
	}
	return &StageExecutor{provider: provider, catalog: catalog, log: log}
}

// Run performs one role's turn against the given state snapshot.
func (e *StageExecutor) Run(ctx context.Context, role roles.Role, rs *state.RunState, bundle *marketdata.Bundle) (*StageOutput, error) {
	template, err := e.catalog.Get(role)
	if err != nil {
		return nil, fmt.Errorf("no template for role %s: %w", role, err)
	}

	start := time.Now()
	resp, err := e.provider.Submit(ctx, reasoning.Request{
		RunID:   rs.RunID,
		Role:    role,
		System:  template.Prompt,
		Context: promptContext(role, rs, bundle),
	})
	latency := time.Since(start)
	if err != nil {
		return nil, err
	}

	e.log.Debug("stage complete", map[string]interface{}{
		"run":     rs.RunID,
		"role":    string(role),
		"model":   resp.Model,
		"latency": latency.String(),
	})
	return &StageOutput{
		Text:    resp.Text,
		Model:   resp.Model,
		Usage:   resp.Usage,
		Latency: latency,
	}, nil
}
