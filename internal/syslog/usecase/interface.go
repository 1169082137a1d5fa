// Package usecase implements the syslog collector: parsing, per-tenant
// classification, client accounting, persistence through the record store,
// relaying and alerting.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
	outboxDomain "github.com/allisson/trustlog/internal/outbox/domain"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	syslogDomain "github.com/allisson/trustlog/internal/syslog/domain"
)

// EndpointRepository persists listener definitions.
type EndpointRepository interface {
	// Create yields ErrConflict when (protocol, address) is taken.
	Create(ctx context.Context, endpoint *syslogDomain.Endpoint) error
	Update(ctx context.Context, endpoint *syslogDomain.Endpoint) error
	Get(ctx context.Context, tenantID, endpointID uuid.UUID) (*syslogDomain.Endpoint, error)
	List(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*syslogDomain.Endpoint, error)
	// ListActive returns the active endpoints of every tenant.
	ListActive(ctx context.Context) ([]*syslogDomain.Endpoint, error)
	Delete(ctx context.Context, tenantID, endpointID uuid.UUID) error
}

// FilterRepository persists classification filters.
type FilterRepository interface {
	Create(ctx context.Context, filter *syslogDomain.Filter) error
	Update(ctx context.Context, filter *syslogDomain.Filter) error
	Get(ctx context.Context, tenantID, filterID uuid.UUID) (*syslogDomain.Filter, error)
	// List returns filters ordered by priority, then creation.
	List(ctx context.Context, tenantID uuid.UUID) ([]*syslogDomain.Filter, error)
	Delete(ctx context.Context, tenantID, filterID uuid.UUID) error
}

// ClientRepository keeps per-source accounting.
type ClientRepository interface {
	// Touch counts one message from address, creating the client on first sight.
	Touch(ctx context.Context, tenantID uuid.UUID, address, hostname string, rejected bool, now time.Time) error
	List(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*syslogDomain.Client, error)
	// MarkOffline flags clients silent since before cutoff and returns how many changed.
	MarkOffline(ctx context.Context, cutoff time.Time) (int64, error)
}

// RecordAppender is the record store write path.
type RecordAppender interface {
	Append(ctx context.Context, input *recordDomain.AppendInput) (*recordDomain.Record, error)
}

// AlertPublisher hands events to the alert bus.
type AlertPublisher interface {
	Publish(ctx context.Context, event *alertDomain.Event)
}

// ForwardQueue stores relay work for later delivery.
type ForwardQueue interface {
	Enqueue(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// Inbound is one received frame.
type Inbound struct {
	Endpoint   *syslogDomain.Endpoint
	Raw        []byte
	SourceIP   string
	SourcePort int
	ReceivedAt time.Time
}

// IngestResult tells what happened to a frame. Record is nil for rejected
// frames; Filter is nil when no filter matched.
type IngestResult struct {
	Action syslogDomain.Action
	Filter *syslogDomain.Filter
	Record *recordDomain.Record
}

// EndpointInput describes a new listener.
type EndpointInput struct {
	TenantID    uuid.UUID
	Name        string
	Protocol    syslogDomain.Protocol
	Address     string
	TLSCertFile string
	TLSKeyFile  string
}

// FilterInput describes a filter to create or replace.
type FilterInput struct {
	TenantID        uuid.UUID
	Name            string
	Priority        int
	Facilities      []int
	Severities      []int
	HostnamePattern string
	TagPattern      string
	ContentPattern  string
	SourceCIDR      string
	Action          syslogDomain.Action
	AlertSeverity   string
	ForwardAddress  string
	Active          bool
}

// CollectorUseCase is the collector's business surface. Listeners call
// Ingest and ReportOverflow; the API manages endpoints, filters and clients.
type CollectorUseCase interface {
	Ingest(ctx context.Context, in *Inbound) (*IngestResult, error)

	// ReportOverflow accounts frames dropped by a full ring. Alerts are rate
	// limited per endpoint; drops in between are summed into the next alert.
	ReportOverflow(ctx context.Context, endpoint *syslogDomain.Endpoint, dropped int)

	CreateEndpoint(ctx context.Context, input *EndpointInput) (*syslogDomain.Endpoint, error)
	GetEndpoint(ctx context.Context, tenantID, endpointID uuid.UUID) (*syslogDomain.Endpoint, error)
	ListEndpoints(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*syslogDomain.Endpoint, error)
	ListActiveEndpoints(ctx context.Context) ([]*syslogDomain.Endpoint, error)
	SetEndpointActive(
		ctx context.Context,
		tenantID, endpointID uuid.UUID,
		active bool,
	) (*syslogDomain.Endpoint, error)
	DeleteEndpoint(ctx context.Context, tenantID, endpointID uuid.UUID) error

	CreateFilter(ctx context.Context, input *FilterInput) (*syslogDomain.Filter, error)
	GetFilter(ctx context.Context, tenantID, filterID uuid.UUID) (*syslogDomain.Filter, error)
	ListFilters(ctx context.Context, tenantID uuid.UUID) ([]*syslogDomain.Filter, error)
	UpdateFilter(ctx context.Context, filterID uuid.UUID, input *FilterInput) (*syslogDomain.Filter, error)
	DeleteFilter(ctx context.Context, tenantID, filterID uuid.UUID) error

	ListClients(ctx context.Context, tenantID uuid.UUID, offset, limit int) ([]*syslogDomain.Client, error)
	// SweepClients marks clients offline once they are silent for OnlineWindow.
	SweepClients(ctx context.Context) (int64, error)
}
