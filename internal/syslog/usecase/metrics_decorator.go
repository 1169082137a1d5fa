package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/trustlog/internal/metrics"
	syslogDomain "github.com/allisson/trustlog/internal/syslog/domain"
)

type collectorUseCaseWithMetrics struct {
	next    CollectorUseCase
	metrics metrics.BusinessMetrics
}

// NewCollectorUseCaseWithMetrics wraps a CollectorUseCase with metrics recording.
// Ingest is counted by the pipeline metrics instead, as it runs per frame.
func NewCollectorUseCaseWithMetrics(useCase CollectorUseCase, m metrics.BusinessMetrics) CollectorUseCase {
	return &collectorUseCaseWithMetrics{next: useCase, metrics: m}
}

func (c *collectorUseCaseWithMetrics) Ingest(ctx context.Context, in *Inbound) (*IngestResult, error) {
	return c.next.Ingest(ctx, in)
}

func (c *collectorUseCaseWithMetrics) ReportOverflow(
	ctx context.Context,
	endpoint *syslogDomain.Endpoint,
	dropped int,
) {
	c.next.ReportOverflow(ctx, endpoint, dropped)
}

func (c *collectorUseCaseWithMetrics) CreateEndpoint(
	ctx context.Context,
	input *EndpointInput,
) (*syslogDomain.Endpoint, error) {
	start := time.Now()
	endpoint, err := c.next.CreateEndpoint(ctx, input)
	metrics.RecordResult(ctx, c.metrics, "syslog", "endpoint_create", start, err)
	return endpoint, err
}

func (c *collectorUseCaseWithMetrics) GetEndpoint(
	ctx context.Context,
	tenantID, endpointID uuid.UUID,
) (*syslogDomain.Endpoint, error) {
	start := time.Now()
	endpoint, err := c.next.GetEndpoint(ctx, tenantID, endpointID)
	metrics.RecordResult(ctx, c.metrics, "syslog", "endpoint_get", start, err)
	return endpoint, err
}

func (c *collectorUseCaseWithMetrics) ListEndpoints(
	ctx context.Context,
	tenantID uuid.UUID,
	offset, limit int,
) ([]*syslogDomain.Endpoint, error) {
	start := time.Now()
	endpoints, err := c.next.ListEndpoints(ctx, tenantID, offset, limit)
	metrics.RecordResult(ctx, c.metrics, "syslog", "endpoint_list", start, err)
	return endpoints, err
}

func (c *collectorUseCaseWithMetrics) ListActiveEndpoints(ctx context.Context) ([]*syslogDomain.Endpoint, error) {
	return c.next.ListActiveEndpoints(ctx)
}

func (c *collectorUseCaseWithMetrics) SetEndpointActive(
	ctx context.Context,
	tenantID, endpointID uuid.UUID,
	active bool,
) (*syslogDomain.Endpoint, error) {
	start := time.Now()
	endpoint, err := c.next.SetEndpointActive(ctx, tenantID, endpointID, active)
	metrics.RecordResult(ctx, c.metrics, "syslog", "endpoint_set_active", start, err)
	return endpoint, err
}

func (c *collectorUseCaseWithMetrics) DeleteEndpoint(ctx context.Context, tenantID, endpointID uuid.UUID) error {
	start := time.Now()
	err := c.next.DeleteEndpoint(ctx, tenantID, endpointID)
	metrics.RecordResult(ctx, c.metrics, "syslog", "endpoint_delete", start, err)
	return err
}

func (c *collectorUseCaseWithMetrics) CreateFilter(
	ctx context.Context,
	input *FilterInput,
) (*syslogDomain.Filter, error) {
	start := time.Now()
	filter, err := c.next.CreateFilter(ctx, input)
	metrics.RecordResult(ctx, c.metrics, "syslog", "filter_create", start, err)
	return filter, err
}

func (c *collectorUseCaseWithMetrics) GetFilter(
	ctx context.Context,
	tenantID, filterID uuid.UUID,
) (*syslogDomain.Filter, error) {
	start := time.Now()
	filter, err := c.next.GetFilter(ctx, tenantID, filterID)
	metrics.RecordResult(ctx, c.metrics, "syslog", "filter_get", start, err)
	return filter, err
}

func (c *collectorUseCaseWithMetrics) ListFilters(
	ctx context.Context,
	tenantID uuid.UUID,
) ([]*syslogDomain.Filter, error) {
	start := time.Now()
	filters, err := c.next.ListFilters(ctx, tenantID)
	metrics.RecordResult(ctx, c.metrics, "syslog", "filter_list", start, err)
	return filters, err
}

func (c *collectorUseCaseWithMetrics) UpdateFilter(
	ctx context.Context,
	filterID uuid.UUID,
	input *FilterInput,
) (*syslogDomain.Filter, error) {
	start := time.Now()
	filter, err := c.next.UpdateFilter(ctx, filterID, input)
	metrics.RecordResult(ctx, c.metrics, "syslog", "filter_update", start, err)
	return filter, err
}

func (c *collectorUseCaseWithMetrics) DeleteFilter(ctx context.Context, tenantID, filterID uuid.UUID) error {
	start := time.Now()
	err := c.next.DeleteFilter(ctx, tenantID, filterID)
	metrics.RecordResult(ctx, c.metrics, "syslog", "filter_delete", start, err)
	return err
}

func (c *collectorUseCaseWithMetrics) ListClients(
	ctx context.Context,
	tenantID uuid.UUID,
	offset, limit int,
) ([]*syslogDomain.Client, error) {
	start := time.Now()
	clients, err := c.next.ListClients(ctx, tenantID, offset, limit)
	metrics.RecordResult(ctx, c.metrics, "syslog", "client_list", start, err)
	return clients, err
}

func (c *collectorUseCaseWithMetrics) SweepClients(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := c.next.SweepClients(ctx)
	metrics.RecordResult(ctx, c.metrics, "syslog", "client_sweep", start, err)
	return n, err
}
