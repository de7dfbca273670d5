package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const dependencyMeterName = "github.com/nutricare/nutricare/dependency"

// DependencyMetrics holds instruments for outbound dependency calls
// (language model, embedding model, generation service, collaborator).
// A nil *DependencyMetrics is valid and records nothing.
type DependencyMetrics struct {
	callDuration metric.Float64Histogram
	callTotal    metric.Int64Counter
	cacheHit     metric.Int64Counter
	cacheMiss    metric.Int64Counter
}

// NewDependencyMetrics creates the instruments on the global meter.
func NewDependencyMetrics() (*DependencyMetrics, error) {
	meter := otel.Meter(dependencyMeterName)

	callDuration, err := meter.Float64Histogram(
		"dependency.call.duration",
		metric.WithDescription("Duration of outbound dependency calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	callTotal, err := meter.Int64Counter(
		"dependency.call.total",
		metric.WithDescription("Total number of outbound dependency calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	cacheHit, err := meter.Int64Counter(
		"dependency.cache.hit",
		metric.WithDescription("Number of cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMiss, err := meter.Int64Counter(
		"dependency.cache.miss",
		metric.WithDescription("Number of cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	return &DependencyMetrics{
		callDuration: callDuration,
		callTotal:    callTotal,
		cacheHit:     cacheHit,
		cacheMiss:    cacheMiss,
	}, nil
}

// RecordCall records one dependency call.
func (m *DependencyMetrics) RecordCall(dependency, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("dependency.name", dependency),
		attribute.String("dependency.operation", operation),
		attribute.Bool("error", err != nil),
	)
	// Metrics use a background context so cancelled requests are still counted.
	ctx := context.Background()
	m.callDuration.Record(ctx, duration.Seconds(), attrs)
	m.callTotal.Add(ctx, 1, attrs)
}

// RecordCacheHit records a cache hit.
func (m *DependencyMetrics) RecordCacheHit(cache string) {
	if m == nil {
		return
	}
	m.cacheHit.Add(context.Background(), 1, metric.WithAttributes(attribute.String("cache.name", cache)))
}

// RecordCacheMiss records a cache miss.
func (m *DependencyMetrics) RecordCacheMiss(cache string) {
	if m == nil {
		return
	}
	m.cacheMiss.Add(context.Background(), 1, metric.WithAttributes(attribute.String("cache.name", cache)))
}
