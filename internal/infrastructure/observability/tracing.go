package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "agentmesh/conversation-api"
)

// GetTracer returns the tracer for the conversation-api service.
func GetTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// MessageAttributes returns common attributes for message spans.
func MessageAttributes(messageID, threadID, direction, messageType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("message.id", messageID),
		attribute.String("message.thread_id", threadID),
		attribute.String("message.direction", direction),
		attribute.String("message.type", messageType),
	}
}

// StartSaveSpan starts a new span for a message save.
func StartSaveSpan(ctx context.Context, tenantID, workflowID, direction, messageType string) (context.Context, trace.Span) {
	ctx, span := GetTracer().Start(ctx, "message.save",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("message.tenant_id", tenantID),
			attribute.String("message.workflow_id", workflowID),
			attribute.String("message.direction", direction),
			attribute.String("message.type", messageType),
		),
	)
	return ctx, span
}

// StartStreamSpan starts a new span for a streaming session.
func StartStreamSpan(ctx context.Context, tenantID, workflowID, participantID string) (context.Context, trace.Span) {
	ctx, span := GetTracer().Start(ctx, "stream.session",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("stream.tenant_id", tenantID),
			attribute.String("stream.workflow_id", workflowID),
			attribute.String("stream.participant_id", participantID),
		),
	)
	return ctx, span
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
