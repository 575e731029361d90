package observability

import (
	"context"

	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// otelTraceIDFromContext extracts the OpenTelemetry trace ID from a
// context when a valid span context is present, sampled or not.
func otelTraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	spanCtx := oteltrace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}

	return ""
}

// TraceID extracts the per-request trace ID from gin-middlewares'
// request-scoped id, used for log correlation. The X-Request-Id
// response header is set separately by the gateway's request-id
// middleware and does not come from this id.
func TraceID(c *gin.Context) string {
	traceID, err := gmw.TraceID(c)
	if err != nil {
		gmw.GetLogger(c).Warn("failed to get trace ID from gin-middlewares", zap.Error(err))
		return ""
	}
	return traceID.String()
}

// TraceIDFromContext extracts the per-request trace ID from a standard
// context, falling back to the OpenTelemetry span trace id when no gin
// context is embedded.
func TraceIDFromContext(ctx context.Context) string {
	if ginCtx, ok := gmw.GetGinCtxFromStdCtx(ctx); ok {
		return TraceID(ginCtx)
	}
	return otelTraceIDFromContext(ctx)
}

// OpenTelemetryTraceID extracts the OpenTelemetry trace id from gin
// context when a valid span context is present. Used for response ids that need
// to stay stable across a distributed trace.
func OpenTelemetryTraceID(c *gin.Context) string {
	return otelTraceIDFromContext(gmw.Ctx(c))
}

// WithTraceID prepends the per-request trace id to a set of log fields.
func WithTraceID(c *gin.Context, fields ...zap.Field) []zap.Field {
	traceID := TraceID(c)
	if traceID == "" {
		return fields
	}
	return append([]zap.Field{zap.String("trace_id", traceID)}, fields...)
}
