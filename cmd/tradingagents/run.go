package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/vinayprograms/agentkit/telemetry"

	"github.com/guangxiangdebizi/tradingagents/internal/config"
	"github.com/guangxiangdebizi/tradingagents/internal/events"
	"github.com/guangxiangdebizi/tradingagents/internal/roles"
	"github.com/guangxiangdebizi/tradingagents/internal/state"
)

// settleGrace bounds how long an interrupted command waits for the
// engine to record a clean abort before giving up.
const settleGrace = 10 * time.Second

// Run executes one decision workflow and prints the decision record.
func (c *RunCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g.Config)
	if err != nil {
		return err
	}

	params, err := requestParams(cfg, c.Subject, c.Date, c.Analysts, c.DebateRounds, c.RiskRounds)
	if err != nil {
		return err
	}

	rt := newRuntime(cfg)
	if !c.Quiet {
		rt.progress = os.Stderr
	}
	if err := rt.setup(); err != nil {
		return err
	}
	defer rt.cleanup()

	runID, err := rt.sup.StartRun(params)
	if err != nil {
		return err
	}
	if !c.Quiet {
		fmt.Fprintf(os.Stderr, "Evaluating %s as of %s (run: %s)\n\n", params.Subject, params.AsOfDate, runID)
	}
	return waitAndReport(rt, runID, c.Timeout, c.Quiet)
}

// Run restarts an aborted run from its snapshot and waits for it.
func (c *ResumeCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g.Config)
	if err != nil {
		return err
	}

	rt := newRuntime(cfg)
	if !c.Quiet {
		rt.progress = os.Stderr
	}
	if err := rt.setup(); err != nil {
		return err
	}
	defer rt.cleanup()

	if err := rt.sup.Resume(c.RunID); err != nil {
		return err
	}
	if !c.Quiet {
		fmt.Fprintf(os.Stderr, "Resuming run %s\n\n", c.RunID)
	}
	return waitAndReport(rt, c.RunID, c.Timeout, c.Quiet)
}

// loadConfig loads the named config file, or the default one.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.LoadDefault()
}

// requestParams builds run parameters, falling back to configured
// trading defaults for anything left unset.
func requestParams(cfg *config.Config, subject, date string, analysts []string, debateRounds, riskRounds int) (state.Params, error) {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	names := analysts
	if len(names) == 0 {
		names = cfg.Trading.Analysts
	}
	selected := make([]roles.Role, 0, len(names))
	for _, name := range names {
		role, err := roles.ParseAnalyst(name)
		if err != nil {
			return state.Params{}, err
		}
		selected = append(selected, role)
	}

	if debateRounds <= 0 {
		debateRounds = cfg.Trading.DebateRounds
	}
	if riskRounds <= 0 {
		riskRounds = cfg.Trading.RiskRounds
	}

	return state.Params{
		Subject:         strings.TrimSpace(subject),
		AsOfDate:        date,
		SelectedRoles:   selected,
		MaxDebateRounds: debateRounds,
		MaxRiskRounds:   riskRounds,
	}, nil
}

// waitAndReport blocks until the run settles and prints the outcome.
// An interrupt or an expired --timeout cancels the run first, then
// waits for the engine to record the abort.
func waitAndReport(rt *runtime, runID, timeout string, quiet bool) error {
	ctx := context.Background()
	if timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid --timeout %q: %w", timeout, err)
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	final, err := rt.sup.Wait(ctx, runID)
	if err != nil {
		_ = rt.sup.Cancel(runID)
		grace, cancel := context.WithTimeout(context.Background(), settleGrace)
		defer cancel()
		final, err = rt.sup.Wait(grace, runID)
		if err != nil {
			return fmt.Errorf("run %s did not settle after cancellation: %w", runID, err)
		}
	}

	switch final.Status {
	case state.StatusCompleted:
		if !quiet {
			fmt.Fprintf(os.Stderr, "\n✓ Run complete\n")
		}
		output, _ := json.MarshalIndent(final.FinalResult, "", "  ")
		fmt.Println(string(output))
		return nil
	case state.StatusCancelled:
		return fmt.Errorf("run %s cancelled; resume with: tradingagents resume %s", runID, runID)
	default:
		if fatal := final.FatalError(); fatal != nil {
			return fmt.Errorf("run %s failed at %s (%s): %s", runID, fatal.Node, fatal.Kind, fatal.Message)
		}
		return fmt.Errorf("run %s failed", runID)
	}
}

// progressTee mirrors run events to the terminal and telemetry while
// forwarding them to the configured publisher. Analyst fan-out
// publishes concurrently; each write here is a single Fprintf.
type progressTee struct {
	next  events.Publisher
	out   io.Writer
	telem telemetry.Exporter
}

func (p *progressTee) Publish(evt events.Event) error {
	switch evt.Type {
	case events.TypeRunStarted:
		fmt.Fprintf(p.out, "▶ Run started: %s\n", evt.Subject)
		p.telem.LogEvent("run_started", map[string]interface{}{"run": evt.RunID, "subject": evt.Subject})
	case events.TypeReport:
		fmt.Fprintf(p.out, "  ✓ Report ready: %s\n", evt.Role)
		p.telem.LogEvent("report_ready", map[string]interface{}{"run": evt.RunID, "role": string(evt.Role)})
	case events.TypeTurn:
		fmt.Fprintf(p.out, "  → Turn: %s\n", evt.Role)
		p.telem.LogEvent("turn_complete", map[string]interface{}{"run": evt.RunID, "role": string(evt.Role)})
	case events.TypeNodeDone:
		fmt.Fprintf(p.out, "✓ Stage complete: %s\n", evt.Node)
		p.telem.LogEvent("node_complete", map[string]interface{}{"run": evt.RunID, "node": string(evt.Node)})
	case events.TypeRunFinished:
		if evt.Status == string(state.StatusCompleted) {
			fmt.Fprintf(p.out, "✓ Run finished: %s\n", evt.Detail)
		} else {
			fmt.Fprintf(p.out, "✗ Run %s: %s\n", evt.Status, evt.Detail)
		}
		p.telem.LogEvent("run_finished", map[string]interface{}{"run": evt.RunID, "status": evt.Status})
	}
	return p.next.Publish(evt)
}

func (p *progressTee) Close() error { return p.next.Close() }
