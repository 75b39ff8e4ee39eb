// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

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
	tracer = otel.Tracer("displayname.engine")
	meter  = otel.Meter("displayname.engine")
)

var (
	transformLatency metric.Float64Histogram
	transformsTotal  metric.Int64Counter
	annotationsTotal metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		transformLatency, err = meter.Float64Histogram(
			"displayname_transform_duration_seconds",
			metric.WithDescription("Duration of transform runs, excluding parsing"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		transformsTotal, err = meter.Int64Counter(
			"displayname_transforms_total",
			metric.WithDescription("Total number of transform runs"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		annotationsTotal, err = meter.Int64Counter(
			"displayname_annotations_total",
			metric.WithDescription("Total number of emitted annotations"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordTransformMetrics records metrics for one transform run.
func recordTransformMetrics(ctx context.Context, duration time.Duration, style Style, annotations int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.Bool("success", success),
		attribute.Bool("changed", annotations > 0),
	)
	transformLatency.Record(ctx, duration.Seconds(), attrs)
	transformsTotal.Add(ctx, 1, attrs)
	if annotations > 0 {
		annotationsTotal.Add(ctx, int64(annotations),
			metric.WithAttributes(attribute.String("style", style.String())))
	}
}

// startTransformSpan creates a span for a transform run.
// The caller must call span.End().
func startTransformSpan(ctx context.Context, filePath string, opts Options) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Engine.Transform",
		trace.WithAttributes(
			attribute.String("engine.file", filePath),
			attribute.String("engine.style", opts.Style.String()),
			attribute.Bool("engine.require_pascal_case", opts.RequirePascalCase),
			attribute.Bool("engine.rewrite_nested_forward_ref", opts.RewriteNestedForwardRef),
		),
	)
}

// setTransformSpanResult sets the result attributes on a transform span.
func setTransformSpanResult(span trace.Span, result *Result) {
	span.SetAttributes(
		attribute.Int("engine.annotations", len(result.Annotations)),
		attribute.Bool("engine.changed", result.Changed),
		attribute.String("engine.pragma.namespace", result.Pragmas.Namespace),
		attribute.String("engine.pragma.memo", result.Pragmas.Memo),
		attribute.String("engine.pragma.forward_ref", result.Pragmas.ForwardRef),
	)
}
