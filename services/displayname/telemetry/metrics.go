// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// File outcomes recorded by Metrics.RecordFile.
const (
	OutcomeUnchanged = "unchanged"
	OutcomeChanged   = "changed"
	OutcomeFailed    = "failed"
)

// Metrics holds the batch-level instruments of a run.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// FilesTotal counts processed files by outcome and mode.
	FilesTotal metric.Int64Counter

	// FileDuration records per-file processing time in seconds.
	FileDuration metric.Float64Histogram

	// RunsTotal counts batch runs by trigger ("cli" or "watch").
	RunsTotal metric.Int64Counter

	// InFlight tracks files currently being processed.
	InFlight metric.Int64UpDownCounter
}

// NewMetrics registers the instruments with meter.
//
// Inputs:
//
//	meter - The OTel meter to use, e.g. otel.Meter("displayname.runner").
//
// Outputs:
//
//	*Metrics - The registered instruments.
//	error - Non-nil if registration fails.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.FilesTotal, err = meter.Int64Counter(
		"displayname_files_total",
		metric.WithDescription("Total files processed"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create files_total: %w", err)
	}

	m.FileDuration, err = meter.Float64Histogram(
		"displayname_file_duration_seconds",
		metric.WithDescription("Per-file processing duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create file_duration_seconds: %w", err)
	}

	m.RunsTotal, err = meter.Int64Counter(
		"displayname_runs_total",
		metric.WithDescription("Total batch runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create runs_total: %w", err)
	}

	m.InFlight, err = meter.Int64UpDownCounter(
		"displayname_files_in_flight",
		metric.WithDescription("Files currently being processed"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create files_in_flight: %w", err)
	}

	return m, nil
}

// RecordFile records one processed file.
func (m *Metrics) RecordFile(ctx context.Context, mode, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("outcome", outcome),
	)
	m.FilesTotal.Add(ctx, 1, attrs)
	m.FileDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("mode", mode)))
}

// RecordRun records one batch run.
func (m *Metrics) RecordRun(ctx context.Context, trigger string) {
	if m == nil {
		return
	}
	m.RunsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("trigger", trigger)))
}
