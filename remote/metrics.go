package remote

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName     = "prism-todos/remote"
	spanNamePrefix = "todos.remote."
)

type callMetrics struct {
	logger     *log.Logger
	span       trace.Span
	start      time.Time
	op         string
	method     string
	path       string
	requestID  string
	errorStage string
}

func newCallMetrics(ctx context.Context, logger *log.Logger, op, method, path, requestID string) (*callMetrics, context.Context) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, spanNamePrefix+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", path),
			attribute.String("todos.request_id", requestID),
		),
	)
	return &callMetrics{
		logger:    logger,
		span:      span,
		start:     time.Now(),
		op:        op,
		method:    method,
		path:      path,
		requestID: requestID,
	}, ctx
}

func (m *callMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

// Log ends the span and emits one structured log line for the call.
func (m *callMetrics) Log(status int, err error) {
	if m == nil {
		return
	}
	total := durationToMillis(time.Since(m.start))

	if status > 0 {
		m.span.SetAttributes(attribute.Int("http.status_code", status))
	}
	if m.errorStage != "" {
		m.span.SetAttributes(attribute.String("todos.error_stage", m.errorStage))
	}
	if err != nil {
		m.span.RecordError(err)
		m.span.SetStatus(codes.Error, err.Error())
	} else {
		m.span.SetStatus(codes.Ok, "")
	}
	m.span.End()

	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"op":         m.op,
		"method":     m.method,
		"route":      m.path,
		"request_id": m.requestID,
		"status":     status,
		"total_ms":   total,
	}
	if sc := m.span.SpanContext(); sc.HasTraceID() {
		fields["trace_id"] = sc.TraceID().String()
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
		m.logger.WithFields(fields).Warn("todos.remote.call")
		return
	}
	m.logger.WithFields(fields).Debug("todos.remote.call")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
