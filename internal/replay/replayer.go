package replay

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/guangxiangdebizi/tradingagents/internal/session"
	"github.com/guangxiangdebizi/tradingagents/internal/state"
)

// Replayer reads and formats run journals for forensic analysis.
type Replayer struct {
	output         io.Writer
	verbosity      int      // 0=normal, 1=verbose (-v), 2=very verbose (-vv)
	maxContentSize int      // Maximum size for Content fields (0 = unlimited)
	pricing        *Pricing // Optional pricing for cost calculation
}

// Option configures a Replayer.
type Option func(*Replayer)

// WithMaxContentSize limits Content field size to avoid OOM on large journals.
func WithMaxContentSize(size int) Option {
	return func(r *Replayer) {
		r.maxContentSize = size
	}
}

// WithPricing enables cost calculation with the given per-million-token rates.
func WithPricing(inputPer1M, outputPer1M float64) Option {
	return func(r *Replayer) {
		r.pricing = &Pricing{
			InputPer1M:  inputPer1M,
			OutputPer1M: outputPer1M,
		}
	}
}

// New creates a new Replayer.
func New(output io.Writer, verbosity int, opts ...Option) *Replayer {
	r := &Replayer{
		output:         output,
		verbosity:      verbosity,
		maxContentSize: 50 * 1024, // Default: 50KB per content field
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReplayFile loads and replays a journal from a file.
func (r *Replayer) ReplayFile(path string) error {
	j, err := r.loadJournal(path)
	if err != nil {
		return err
	}
	return r.Replay(j)
}

// ReplayFileInteractive loads and replays with the interactive pager.
func (r *Replayer) ReplayFileInteractive(path string) error {
	j, err := r.loadJournal(path)
	if err != nil {
		return err
	}

	var buf strings.Builder
	oldOutput := r.output
	r.output = &buf
	err = r.Replay(j)
	r.output = oldOutput
	if err != nil {
		return err
	}

	title := fmt.Sprintf("Run: %s (%s)", j.RunID, j.Subject)
	return NewPager(title).Run(buf.String())
}

// ReplayFileLive replays with live file watching, re-rendering on
// every journal save so an in-flight run can be followed.
func (r *Replayer) ReplayFileLive(path string) error {
	render := func() (string, error) {
		j, err := r.loadJournal(path)
		if err != nil {
			return "", err
		}

		var buf strings.Builder
		oldOutput := r.output
		r.output = &buf
		err = r.Replay(j)
		r.output = oldOutput
		if err != nil {
			return "", err
		}
		return buf.String(), nil
	}

	j, err := r.loadJournal(path)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("Run: %s (%s) LIVE", j.RunID, j.Subject)
	return NewPager(title).RunLive(path, render)
}

// Replay outputs a formatted timeline of journal events.
func (r *Replayer) Replay(j *session.Journal) error {
	r.printHeader(j)
	r.printTimeline(j)
	r.printSummary(j)
	return nil
}

func (r *Replayer) printHeader(j *session.Journal) {
	fmt.Fprintln(r.output)
	fmt.Fprintf(r.output, "%s %s\n", titleStyle.Render("RUN"), valueStyle.Render(j.RunID))
	fmt.Fprintln(r.output, divider)
	fmt.Fprintf(r.output, "%s %s\n", labelStyle.Render("Subject: "), valueStyle.Render(j.Subject))
	fmt.Fprintf(r.output, "%s %s\n", labelStyle.Render("As of:   "), valueStyle.Render(j.AsOfDate))
	fmt.Fprintf(r.output, "%s %s\n", labelStyle.Render("Status:  "), statusStyle(j.Status).Render(j.Status))
	fmt.Fprintf(r.output, "%s %s\n", labelStyle.Render("Created: "), valueStyle.Render(j.CreatedAt.Format(time.RFC3339)))
	fmt.Fprintln(r.output)
}

func (r *Replayer) printTimeline(j *session.Journal) {
	fmt.Fprintf(r.output, "%s %s\n", titleStyle.Render("TIMELINE"), dimStyle.Render(fmt.Sprintf("(%d events)", len(j.Events))))
	fmt.Fprintln(r.output, divider)

	var lastPhase string
	for i := range j.Events {
		r.formatEvent(&j.Events[i], &lastPhase)
	}
}

func (r *Replayer) printSummary(j *session.Journal) {
	fmt.Fprintln(r.output)
	fmt.Fprintln(r.output, divider)

	switch j.Status {
	case string(state.StatusCompleted):
		fmt.Fprintln(r.output, successStyle.Render("COMPLETED"))
	case string(state.StatusFailed):
		fmt.Fprintf(r.output, "%s %s\n", errorStyle.Render("FAILED:"), valueStyle.Render(j.Error))
	case string(state.StatusCancelled):
		fmt.Fprintln(r.output, warnStyle.Render("CANCELLED"))
	default:
		fmt.Fprintln(r.output, warnStyle.Render("RUNNING"))
	}

	stats := ComputeStats(j)
	PrintStats(r.output, stats)
	PrintTokenUsage(r.output, stats, r.pricing)
}
