package replay

import (
	"fmt"
	"strings"

	"github.com/guangxiangdebizi/tradingagents/internal/session"
)

// phaseFor maps an event type to its timeline section header.
func phaseFor(eventType string) string {
	switch eventType {
	case session.EventCollection:
		return "DATA COLLECTION"
	case session.EventReport:
		return "ANALYST REPORTS"
	case session.EventDebateTurn, session.EventVerdict:
		return "RESEARCH DEBATE"
	case session.EventTradePlan:
		return "TRADE PLANNING"
	case session.EventRiskTurn, session.EventDecision:
		return "RISK REVIEW"
	default:
		return ""
	}
}

// formatEvent formats a single event for display.
func (r *Replayer) formatEvent(event *session.Event, lastPhase *string) {
	// Show phase transitions
	if phase := phaseFor(event.Type); phase != "" && phase != *lastPhase {
		fmt.Fprintln(r.output)
		fmt.Fprintf(r.output, "%s\n", flowStyle.Render(phase))
		fmt.Fprintln(r.output)
		*lastPhase = phase
	}

	ts := timeStyle.Render(event.Timestamp.Format("15:04:05"))
	seqNum := seqStyle.Render(fmt.Sprintf("%d", event.SeqID))

	switch event.Type {
	case session.EventRunStart:
		r.fmtRunStart(seqNum, ts)
	case session.EventRunEnd:
		r.fmtRunEnd(seqNum, ts, event)
	case session.EventCollection:
		r.fmtCollection(seqNum, ts, event)
	case session.EventReport:
		r.fmtReport(seqNum, ts, event)
	case session.EventDebateTurn:
		r.fmtTurn(seqNum, ts, event)
	case session.EventRiskTurn:
		r.fmtTurn(seqNum, ts, event)
	case session.EventVerdict:
		r.fmtDecisionOutput(seqNum, ts, event, "VERDICT")
	case session.EventTradePlan:
		r.fmtDecisionOutput(seqNum, ts, event, "TRADE PLAN")
	case session.EventDecision:
		r.fmtDecisionOutput(seqNum, ts, event, "DECISION")
	case session.EventNodeError:
		r.fmtNodeError(seqNum, ts, event)
	default:
		fmt.Fprintf(r.output, "%s │ %s │ %s\n", seqNum, ts, dimStyle.Render(event.Type))
	}
}

func (r *Replayer) fmtRunStart(seqNum, ts string) {
	fmt.Fprintf(r.output, "%s │ %s │ %s\n", seqNum, ts, flowStyle.Render("RUN START"))
}

func (r *Replayer) fmtRunEnd(seqNum, ts string, event *session.Event) {
	detail := ""
	if event.Content != "" {
		detail = " " + successStyle.Render(strings.ToUpper(event.Content))
	}
	if event.Error != "" {
		detail = " " + errorStyle.Render(truncateContent(event.Error, 60))
	}
	fmt.Fprintf(r.output, "%s │ %s │ %s%s\n", seqNum, ts, flowStyle.Render("RUN END"), detail)
}

func (r *Replayer) fmtCollection(seqNum, ts string, event *session.Event) {
	warnings := 0
	if event.Meta != nil {
		warnings = len(event.Meta.Warnings)
	}
	hint := ""
	if warnings > 0 {
		hint = " " + warnStyle.Render(fmt.Sprintf("(%d sections unavailable)", warnings))
	}
	fmt.Fprintf(r.output, "%s │ %s │ %s%s\n", seqNum, ts, dataStyle.Render("DATA GATHERED"), hint)

	if r.verbosity >= 1 && event.Meta != nil {
		for _, w := range event.Meta.Warnings {
			fmt.Fprintf(r.output, "      │          │   %s\n", warnStyle.Render(w))
		}
	}
}

func (r *Replayer) fmtReport(seqNum, ts string, event *session.Event) {
	fmt.Fprintf(r.output, "%s │ %s │ %s %s%s\n", seqNum, ts,
		analystStyle.Render("REPORT:"),
		valueStyle.Render(string(event.Role)),
		r.metaHint(event.Meta))
	if r.verbosity >= 1 && event.Content != "" {
		r.printContent(event.Content)
	}
	if r.verbosity >= 2 {
		r.printMeta(event.Meta)
	}
}

func (r *Replayer) fmtTurn(seqNum, ts string, event *session.Event) {
	label := strings.ToUpper(string(event.Role))
	round := dimStyle.Render(fmt.Sprintf("(round %d)", event.Round))
	fmt.Fprintf(r.output, "%s │ %s │ %s %s%s\n", seqNum, ts,
		roleStyle(event.Role).Render(label),
		round,
		r.metaHint(event.Meta))
	if r.verbosity >= 1 && event.Content != "" {
		r.printContent(event.Content)
	}
	if r.verbosity >= 2 {
		r.printMeta(event.Meta)
	}
}

// fmtDecisionOutput renders verdict, trade plan, and final decision
// events. These carry the artifacts the run exists to produce, so a
// one-line excerpt shows even without -v.
func (r *Replayer) fmtDecisionOutput(seqNum, ts string, event *session.Event, label string) {
	fmt.Fprintf(r.output, "%s │ %s │ %s%s\n", seqNum, ts,
		roleStyle(event.Role).Render(label),
		r.metaHint(event.Meta))

	if r.verbosity >= 1 && event.Content != "" {
		r.printContent(event.Content)
	} else if event.Content != "" {
		fmt.Fprintf(r.output, "      │          │   %s\n",
			dimStyle.Render(truncateContent(event.Content, 80)))
	}
	if r.verbosity >= 2 {
		r.printMeta(event.Meta)
	}
}

func (r *Replayer) fmtNodeError(seqNum, ts string, event *session.Event) {
	fatal := event.Meta != nil && event.Meta.Fatal

	where := string(event.Node)
	if event.Role != "" {
		where = string(event.Role)
	}

	if fatal {
		fmt.Fprintf(r.output, "%s │ %s │ %s %s\n", seqNum, ts,
			errorStyle.Render("FATAL:"),
			valueStyle.Render(where))
	} else {
		fmt.Fprintf(r.output, "%s │ %s │ %s %s\n", seqNum, ts,
			warnStyle.Render("DEGRADED:"),
			valueStyle.Render(where))
	}
	if event.Error != "" {
		fmt.Fprintf(r.output, "      │          │   %s\n", errorStyle.Render(event.Error))
	}
}
