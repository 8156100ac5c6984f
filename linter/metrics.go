package linter

import (
	"context"
	"sync"
	"time"

	"github.com/viant/lintexec/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("lintexec.linter")
	meter  = otel.Meter("lintexec.linter")
)

var (
	runsTotal       metric.Int64Counter
	filesTotal      metric.Int64Counter
	violationsTotal metric.Int64Counter
	runLatency      metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error
		if runsTotal, err = meter.Int64Counter("lint_runs_total",
			metric.WithDescription("Total number of lint runs")); err != nil {
			metricsErr = err
			return
		}
		if filesTotal, err = meter.Int64Counter("lint_files_total",
			metric.WithDescription("Total number of files considered by lint runs")); err != nil {
			metricsErr = err
			return
		}
		if violationsTotal, err = meter.Int64Counter("lint_violations_total",
			metric.WithDescription("Total number of reported violations")); err != nil {
			metricsErr = err
			return
		}
		runLatency, metricsErr = meter.Float64Histogram("lint_duration_seconds",
			metric.WithDescription("Duration of lint runs"),
			metric.WithUnit("s"))
	})
	return metricsErr
}

func startRunSpan(ctx context.Context, r *run) (context.Context, trace.Span) {
	return tracer.Start(ctx, "linter.Lint",
		trace.WithAttributes(
			attribute.String("linter.run_id", r.id),
			attribute.String("linter.mode", r.mode),
			attribute.String("linter.diff_mode", string(r.diffMode)),
		),
	)
}

func endRunSpan(span trace.Span, result *model.Result, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else if result != nil {
		span.SetAttributes(
			attribute.Int("linter.total_files", result.Summary.TotalFiles),
			attribute.Int("linter.total_violations", result.Summary.TotalViolations),
		)
	}
	span.End()
}

func recordRun(ctx context.Context, mode string, duration time.Duration, result *model.Result) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("mode", mode))
	runsTotal.Add(ctx, 1, attrs)
	filesTotal.Add(ctx, int64(result.Summary.TotalFiles), attrs)
	violationsTotal.Add(ctx, int64(result.Summary.TotalViolations), attrs)
	runLatency.Record(ctx, duration.Seconds(), attrs)
}
