package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Calculation outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// CalculationMetrics records order calculation throughput, latency and cache efficiency.
type CalculationMetrics struct {
	calculations *Counter
	duration     *Histogram
	lineItems    *Histogram
	cacheLookups *Counter
}

// NewCalculationMetrics creates the calculation instruments on meter.
func NewCalculationMetrics(meter metric.Meter) (*CalculationMetrics, error) {
	calculations, err := NewCounter(meter,
		"ordercalc_calculations_total",
		"Number of order calculations by operation and outcome",
		"{calculation}",
	)
	if err != nil {
		return nil, err
	}

	duration, err := NewHistogram(meter, HistogramOpts{
		Name:        "ordercalc_calculation_duration_seconds",
		Description: "Duration of order calculations",
		Unit:        "s",
		Boundaries:  CalculationDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	lineItems, err := NewHistogram(meter, HistogramOpts{
		Name:        "ordercalc_merged_line_items",
		Description: "Line items remaining after consolidation",
		Unit:        "{line_item}",
		Boundaries:  LineItemCountBuckets,
	})
	if err != nil {
		return nil, err
	}

	cacheLookups, err := NewCounter(meter,
		"ordercalc_difference_cache_lookups_total",
		"Order difference cache lookups by result",
		"{lookup}",
	)
	if err != nil {
		return nil, err
	}

	return &CalculationMetrics{
		calculations: calculations,
		duration:     duration,
		lineItems:    lineItems,
		cacheLookups: cacheLookups,
	}, nil
}

// RecordCalculation records one finished calculation. errorCode is empty on success.
func (m *CalculationMetrics) RecordCalculation(ctx context.Context, operation string, elapsed time.Duration, errorCode string) {
	if m == nil {
		return
	}

	outcome := OutcomeSuccess
	if errorCode != "" {
		outcome = OutcomeFailure
	}

	m.calculations.Inc(ctx,
		AttrOperation.String(operation),
		AttrOutcome.String(outcome),
		AttrErrorCode.String(errorCode),
	)
	m.duration.RecordDuration(ctx, elapsed,
		AttrOperation.String(operation),
		AttrOutcome.String(outcome),
	)
}

// RecordLineItems records the number of line items in a calculation result.
func (m *CalculationMetrics) RecordLineItems(ctx context.Context, operation string, count int) {
	if m == nil {
		return
	}
	m.lineItems.Record(ctx, float64(count), AttrOperation.String(operation))
}

// RecordCacheLookup records a cache hit or miss for store.
func (m *CalculationMetrics) RecordCacheLookup(ctx context.Context, store string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Inc(ctx, AttrCacheStore.String(store), AttrCacheResult.String(result))
}
