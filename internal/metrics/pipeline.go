package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics counts events of the background workers: collector messages
// received or dropped, signatures issued, archive records written.
type PipelineMetrics interface {
	// RecordEvent adds n to the counter for (component, event).
	// Component examples: "syslog", "signer", "archive", "alerts"
	// Event examples: "received", "dropped", "signed", "failed", "delivered"
	RecordEvent(ctx context.Context, component, event string, n int64)
}

type pipelineMetrics struct {
	counter metric.Int64Counter
}

// NewPipelineMetrics creates a PipelineMetrics backed by the given meter provider.
func NewPipelineMetrics(meterProvider metric.MeterProvider, namespace string) (PipelineMetrics, error) {
	meter := meterProvider.Meter(namespace)

	counter, err := meter.Int64Counter(
		fmt.Sprintf("%s_pipeline_events_total", namespace),
		metric.WithDescription("Total number of background pipeline events"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline counter: %w", err)
	}

	return &pipelineMetrics{counter: counter}, nil
}

func (p *pipelineMetrics) RecordEvent(ctx context.Context, component, event string, n int64) {
	p.counter.Add(ctx, n,
		metric.WithAttributes(
			attribute.String("component", component),
			attribute.String("event", event),
		),
	)
}

// NoOpPipelineMetrics is used when metrics are disabled.
type NoOpPipelineMetrics struct{}

// NewNoOpPipelineMetrics creates a no-op PipelineMetrics implementation.
func NewNoOpPipelineMetrics() PipelineMetrics {
	return &NoOpPipelineMetrics{}
}

// RecordEvent does nothing when metrics are disabled.
func (n *NoOpPipelineMetrics) RecordEvent(ctx context.Context, component, event string, count int64) {
}
