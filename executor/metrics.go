package executor

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("lintexec.executor")
	meter  = otel.Meter("lintexec.executor")
)

var (
	executionLatency metric.Float64Histogram
	executionTotal   metric.Int64Counter
	hitsTotal        metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error
		executionLatency, err = meter.Float64Histogram(
			"execution_duration_seconds",
			metric.WithDescription("Duration of detection program executions"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}
		executionTotal, err = meter.Int64Counter(
			"executions_total",
			metric.WithDescription("Total number of detection program executions"),
		)
		if err != nil {
			metricsErr = err
			return
		}
		hitsTotal, err = meter.Int64Counter(
			"hits_total",
			metric.WithDescription("Total number of lines reported by detection programs"),
		)
		if err != nil {
			metricsErr = err
		}
	})
	return metricsErr
}

func startExecutionSpan(ctx context.Context, lang string, state string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Executor.Execute",
		trace.WithAttributes(
			attribute.String("executor.language", lang),
			attribute.String("executor.source_state", state),
		),
	)
}

func recordExecution(ctx context.Context, lang string, duration time.Duration, hits int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("language", lang),
		attribute.Bool("success", success),
	)
	executionLatency.Record(ctx, duration.Seconds(), attrs)
	executionTotal.Add(ctx, 1, attrs)
	if success {
		hitsTotal.Add(ctx, int64(hits), metric.WithAttributes(attribute.String("language", lang)))
	}
}
