// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package prioritizer

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter for the prioritization pipeline.
var (
	tracer = otel.Tracer("tdp.prioritizer")
	meter  = otel.Meter("tdp.prioritizer")
)

// Metrics for prioritization runs.
var (
	runsTotal       metric.Int64Counter
	repairsTotal    metric.Int64Counter
	violationsTotal metric.Int64Counter
	runLatency      metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		runsTotal, err = meter.Int64Counter(
			"prioritizer_runs_total",
			metric.WithDescription("Total prioritization runs by terminal phase"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		repairsTotal, err = meter.Int64Counter(
			"prioritizer_repairs_total",
			metric.WithDescription("Total repair generations consumed"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		violationsTotal, err = meter.Int64Counter(
			"prioritizer_violations_total",
			metric.WithDescription("Total contract violations by kind"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		runLatency, err = meter.Float64Histogram(
			"prioritizer_run_duration_seconds",
			metric.WithDescription("End-to-end duration of a prioritization run"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordViolations counts each violation kind from one validation pass.
func recordViolations(ctx context.Context, v ValidationResult) {
	if violationsTotal == nil {
		return
	}
	for kind := range v.Violations {
		violationsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("violation.kind", kind)))
	}
}

// recordRun counts a finished run under its terminal phase.
func recordRun(ctx context.Context, phase Phase, seconds float64) {
	if runsTotal != nil {
		runsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("run.phase", phase.String())))
	}
	if runLatency != nil {
		runLatency.Record(ctx, seconds)
	}
}
