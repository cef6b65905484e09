// Tracing instrumentation for the run engine.
package graph

import (
	"context"

	"github.com/vinayprograms/agentkit/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/guangxiangdebizi/tradingagents/internal/state"
)

// startRunSpan starts the span covering one full run.
func (e *Engine) startRunSpan(ctx context.Context) (context.Context, trace.Span) {
	tracer := telemetry.GetTracer()
	ctx, span := tracer.StartSpan(ctx, "run.execute")
	span.SetAttributes(
		attribute.String("run.id", e.state.RunID),
		attribute.String("run.subject", e.state.Subject),
		attribute.String("run.as_of", e.state.AsOfDate),
	)
	return ctx, span
}

// endRunSpan ends the run span with terminal info.
func (e *Engine) endRunSpan(span trace.Span, rs *state.RunState, err error) {
	tracer := telemetry.GetTracer()
	span.SetAttributes(attribute.String("run.status", string(rs.Status)))
	if rs.FinalResult != nil {
		span.SetAttributes(attribute.String("run.recommendation", string(rs.FinalResult.Recommendation)))
		if tracer.Debug() && rs.FinalResult.Rationale != "" {
			span.SetAttributes(attribute.String("run.rationale", truncateForTrace(rs.FinalResult.Rationale, 2000)))
		}
	}
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}

// startNodeSpan starts a span for one node execution.
func (e *Engine) startNodeSpan(ctx context.Context, node state.Node) (context.Context, trace.Span) {
	tracer := telemetry.GetTracer()
	ctx, span := tracer.StartSpan(ctx, "node."+string(node))
	span.SetAttributes(
		attribute.String("node.name", string(node)),
		attribute.String("run.id", e.state.RunID),
	)
	return ctx, span
}

// endNodeSpan ends a node span.
func (e *Engine) endNodeSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}

func truncateForTrace(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
