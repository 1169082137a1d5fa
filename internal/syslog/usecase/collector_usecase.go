package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	alertDomain "github.com/allisson/trustlog/internal/alert/domain"
	apperrors "github.com/allisson/trustlog/internal/errors"
	"github.com/allisson/trustlog/internal/metrics"
	outboxDomain "github.com/allisson/trustlog/internal/outbox/domain"
	recordDomain "github.com/allisson/trustlog/internal/record/domain"
	syslogDomain "github.com/allisson/trustlog/internal/syslog/domain"
	syslogService "github.com/allisson/trustlog/internal/syslog/service"
)

// Options tune the collector.
type Options struct {
	// OverflowAlertInterval is the minimum gap between two overflow alerts
	// of one endpoint.
	OverflowAlertInterval time.Duration
	// FilterCacheTTL bounds how long compiled filters are reused before the
	// tenant's list is reloaded.
	FilterCacheTTL time.Duration
}

type classifier struct {
	filters  []*syslogDomain.CompiledFilter
	loadedAt time.Time
}

// first returns the first matching filter, or nil.
func (c *classifier) first(msg *recordDomain.SyslogMessage) *syslogDomain.CompiledFilter {
	for _, f := range c.filters {
		if f.Matches(msg) {
			return f
		}
	}
	return nil
}

type overflowState struct {
	limiter *rate.Limiter
	pending int
}

type collectorUseCase struct {
	endpointRepo EndpointRepository
	filterRepo   FilterRepository
	clientRepo   ClientRepository
	records      RecordAppender
	alerts       AlertPublisher
	forwards     ForwardQueue
	pipeline     metrics.PipelineMetrics
	opts         Options
	logger       *slog.Logger
	now          func() time.Time

	cacheMu     sync.Mutex
	classifiers map[uuid.UUID]*classifier

	overflowMu sync.Mutex
	overflows  map[uuid.UUID]*overflowState
}

// Ingest parses and classifies one frame. Rejected frames only count
// against their client; every other action stores the message first.
func (u *collectorUseCase) Ingest(ctx context.Context, in *Inbound) (*IngestResult, error) {
	tenantID := in.Endpoint.TenantID

	msg := syslogService.Parse(in.Raw, in.ReceivedAt)
	msg.EndpointID = in.Endpoint.ID
	msg.SourceIP = in.SourceIP
	msg.SourcePort = in.SourcePort
	msg.ThreatLevel = recordDomain.ThreatFromSyslogSeverity(msg.Severity)

	cls, err := u.classifier(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	result := &IngestResult{Action: syslogDomain.ActionAccept}
	if matched := cls.first(&msg); matched != nil {
		result.Action = matched.Action
		result.Filter = matched.Filter
	}

	rejected := !result.Action.Stores()
	if err := u.clientRepo.Touch(ctx, tenantID, in.SourceIP, msg.Hostname, rejected, u.now()); err != nil {
		u.logger.Warn("failed to account syslog client",
			slog.String("tenant_id", tenantID.String()),
			slog.String("address", in.SourceIP),
			slog.Any("error", err),
		)
	}
	if rejected {
		u.pipeline.RecordEvent(ctx, "syslog", "rejected", 1)
		return result, nil
	}

	record, err := u.records.Append(ctx, &recordDomain.AppendInput{
		TenantID:   tenantID,
		Suspicious: msg.Severity <= 3,
		Syslog:     &msg,
	})
	if err != nil {
		u.pipeline.RecordEvent(ctx, "syslog", "failed", 1)
		return nil, err
	}
	result.Record = record
	u.pipeline.RecordEvent(ctx, "syslog", "stored", 1)

	switch result.Action {
	case syslogDomain.ActionForward:
		u.forward(ctx, tenantID, result.Filter, msg.Raw)
	case syslogDomain.ActionAlert:
		u.alerts.Publish(ctx, u.syslogAlert(result.Filter, record, &msg))
	}
	return result, nil
}

func (u *collectorUseCase) forward(ctx context.Context, tenantID uuid.UUID, filter *syslogDomain.Filter, raw string) {
	payload, err := json.Marshal(syslogService.ForwardPayload{Address: filter.ForwardAddress, Frame: raw})
	if err == nil {
		event := outboxDomain.NewOutboxEvent(tenantID, syslogService.ForwardEventType, string(payload), u.now())
		err = u.forwards.Enqueue(ctx, event)
	}
	if err != nil {
		u.logger.Error("failed to queue syslog forward",
			slog.String("filter_id", filter.ID.String()),
			slog.Any("error", err),
		)
		return
	}
	u.pipeline.RecordEvent(ctx, "syslog", "forwarded", 1)
}

func (u *collectorUseCase) syslogAlert(
	filter *syslogDomain.Filter,
	record *recordDomain.Record,
	msg *recordDomain.SyslogMessage,
) *alertDomain.Event {
	severity := alertDomain.Severity(filter.AlertSeverity)
	if !severity.Valid() {
		severity = alertDomain.Severity(msg.ThreatLevel)
	}

	title := "syslog filter " + filter.Name + " matched"
	event := alertDomain.NewEvent(alertDomain.EventSyslogAlert, record.TenantID, severity, title)
	recordID := record.ID
	deviceID := syslogDomain.ClientID(record.TenantID, msg.SourceIP)
	event.RecordID = &recordID
	event.DeviceID = &deviceID
	event.Suspicious = record.Suspicious
	event.SourceIP = msg.SourceIP
	event.OccurredAt = record.EntryTime
	event.Fields = map[string]any{
		"filter_id":   filter.ID.String(),
		"filter_name": filter.Name,
		"hostname":    msg.Hostname,
		"program":     msg.Program,
		"facility":    msg.Facility,
		"severity":    msg.Severity,
		"message":     msg.Message,
	}
	return event
}

func (u *collectorUseCase) classifier(ctx context.Context, tenantID uuid.UUID) (*classifier, error) {
	now := u.now()

	u.cacheMu.Lock()
	cls, ok := u.classifiers[tenantID]
	u.cacheMu.Unlock()
	if ok && now.Sub(cls.loadedAt) < u.opts.FilterCacheTTL {
		return cls, nil
	}

	filters, err := u.filterRepo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	cls = &classifier{loadedAt: now}
	for _, f := range filters {
		if !f.Active {
			continue
		}
		compiled, err := f.Compile()
		if err != nil {
			u.logger.Warn("skipping invalid syslog filter",
				slog.String("filter_id", f.ID.String()),
				slog.Any("error", err),
			)
			continue
		}
		cls.filters = append(cls.filters, compiled)
	}

	u.cacheMu.Lock()
	u.classifiers[tenantID] = cls
	u.cacheMu.Unlock()
	return cls, nil
}

func (u *collectorUseCase) invalidate(tenantID uuid.UUID) {
	u.cacheMu.Lock()
	delete(u.classifiers, tenantID)
	u.cacheMu.Unlock()
}

func (u *collectorUseCase) ReportOverflow(ctx context.Context, endpoint *syslogDomain.Endpoint, dropped int) {
	if dropped <= 0 {
		return
	}
	u.pipeline.RecordEvent(ctx, "syslog", "dropped", int64(dropped))

	u.overflowMu.Lock()
	st, ok := u.overflows[endpoint.ID]
	if !ok {
		st = &overflowState{limiter: rate.NewLimiter(rate.Every(u.opts.OverflowAlertInterval), 1)}
		u.overflows[endpoint.ID] = st
	}
	st.pending += dropped
	if !st.limiter.AllowN(u.now(), 1) {
		u.overflowMu.Unlock()
		return
	}
	count := st.pending
	st.pending = 0
	u.overflowMu.Unlock()

	u.logger.Warn("syslog ring overflow",
		slog.String("endpoint_id", endpoint.ID.String()),
		slog.String("address", endpoint.Address),
		slog.Int("dropped", count),
	)

	event := alertDomain.NewEvent(alertDomain.EventCollectorOverflow, endpoint.TenantID, alertDomain.SeverityHigh,
		"syslog endpoint "+endpoint.Name+" dropped messages")
	event.OccurredAt = u.now()
	event.Fields = map[string]any{
		"error_kind":  apperrors.KindOverflow,
		"endpoint_id": endpoint.ID.String(),
		"protocol":    string(endpoint.Protocol),
		"address":     endpoint.Address,
		"dropped":     count,
	}
	u.alerts.Publish(ctx, event)
}

func (u *collectorUseCase) CreateEndpoint(
	ctx context.Context,
	input *EndpointInput,
) (*syslogDomain.Endpoint, error) {
	if !input.Protocol.Valid() {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "unknown syslog protocol")
	}
	if _, _, err := net.SplitHostPort(input.Address); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "syslog address must be host:port")
	}
	if input.Protocol == syslogDomain.ProtocolTLS && (input.TLSCertFile == "" || input.TLSKeyFile == "") {
		return nil, syslogDomain.ErrTLSMaterial
	}

	now := u.now()
	endpoint := &syslogDomain.Endpoint{
		ID:          uuid.Must(uuid.NewV7()),
		TenantID:    input.TenantID,
		Name:        input.Name,
		Protocol:    input.Protocol,
		Address:     input.Address,
		TLSCertFile: input.TLSCertFile,
		TLSKeyFile:  input.TLSKeyFile,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.endpointRepo.Create(ctx, endpoint); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, syslogDomain.ErrAddressInUse
		}
		return nil, err
	}
	return endpoint, nil
}

func (u *collectorUseCase) GetEndpoint(ctx context.Context, tenantID, endpointID uuid.UUID) (*syslogDomain.Endpoint, error) {
	return u.endpointRepo.Get(ctx, tenantID, endpointID)
}

func (u *collectorUseCase) ListEndpoints(
	ctx context.Context,
	tenantID uuid.UUID,
	offset, limit int,
) ([]*syslogDomain.Endpoint, error) {
	return u.endpointRepo.List(ctx, tenantID, offset, limit)
}

func (u *collectorUseCase) ListActiveEndpoints(ctx context.Context) ([]*syslogDomain.Endpoint, error) {
	return u.endpointRepo.ListActive(ctx)
}

func (u *collectorUseCase) SetEndpointActive(
	ctx context.Context,
	tenantID, endpointID uuid.UUID,
	active bool,
) (*syslogDomain.Endpoint, error) {
	endpoint, err := u.endpointRepo.Get(ctx, tenantID, endpointID)
	if err != nil {
		return nil, err
	}
	endpoint.Active = active
	endpoint.UpdatedAt = u.now()
	if err := u.endpointRepo.Update(ctx, endpoint); err != nil {
		return nil, err
	}
	return endpoint, nil
}

func (u *collectorUseCase) DeleteEndpoint(ctx context.Context, tenantID, endpointID uuid.UUID) error {
	return u.endpointRepo.Delete(ctx, tenantID, endpointID)
}

func (u *collectorUseCase) buildFilter(input *FilterInput) (*syslogDomain.Filter, error) {
	if !input.Action.Valid() {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "unknown filter action")
	}
	if input.Action == syslogDomain.ActionForward {
		if _, _, err := net.SplitHostPort(input.ForwardAddress); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "forward filters need a host:port forward address")
		}
	}

	filter := &syslogDomain.Filter{
		TenantID:        input.TenantID,
		Name:            input.Name,
		Priority:        input.Priority,
		Facilities:      input.Facilities,
		Severities:      input.Severities,
		HostnamePattern: input.HostnamePattern,
		TagPattern:      input.TagPattern,
		ContentPattern:  input.ContentPattern,
		SourceCIDR:      input.SourceCIDR,
		Action:          input.Action,
		AlertSeverity:   input.AlertSeverity,
		ForwardAddress:  input.ForwardAddress,
		Active:          input.Active,
	}
	if _, err := filter.Compile(); err != nil {
		return nil, err
	}
	return filter, nil
}

func (u *collectorUseCase) CreateFilter(ctx context.Context, input *FilterInput) (*syslogDomain.Filter, error) {
	filter, err := u.buildFilter(input)
	if err != nil {
		return nil, err
	}

	now := u.now()
	filter.ID = uuid.Must(uuid.NewV7())
	filter.CreatedAt = now
	filter.UpdatedAt = now
	if err := u.filterRepo.Create(ctx, filter); err != nil {
		return nil, err
	}
	u.invalidate(filter.TenantID)
	return filter, nil
}

func (u *collectorUseCase) GetFilter(ctx context.Context, tenantID, filterID uuid.UUID) (*syslogDomain.Filter, error) {
	return u.filterRepo.Get(ctx, tenantID, filterID)
}

func (u *collectorUseCase) ListFilters(ctx context.Context, tenantID uuid.UUID) ([]*syslogDomain.Filter, error) {
	return u.filterRepo.List(ctx, tenantID)
}

// UpdateFilter replaces every field of an existing filter.
func (u *collectorUseCase) UpdateFilter(
	ctx context.Context,
	filterID uuid.UUID,
	input *FilterInput,
) (*syslogDomain.Filter, error) {
	existing, err := u.filterRepo.Get(ctx, input.TenantID, filterID)
	if err != nil {
		return nil, err
	}
	filter, err := u.buildFilter(input)
	if err != nil {
		return nil, err
	}

	filter.ID = existing.ID
	filter.CreatedAt = existing.CreatedAt
	filter.UpdatedAt = u.now()
	if err := u.filterRepo.Update(ctx, filter); err != nil {
		return nil, err
	}
	u.invalidate(filter.TenantID)
	return filter, nil
}

func (u *collectorUseCase) DeleteFilter(ctx context.Context, tenantID, filterID uuid.UUID) error {
	if err := u.filterRepo.Delete(ctx, tenantID, filterID); err != nil {
		return err
	}
	u.invalidate(tenantID)
	return nil
}

func (u *collectorUseCase) ListClients(
	ctx context.Context,
	tenantID uuid.UUID,
	offset, limit int,
) ([]*syslogDomain.Client, error) {
	clients, err := u.clientRepo.List(ctx, tenantID, offset, limit)
	if err != nil {
		return nil, err
	}
	now := u.now()
	for _, c := range clients {
		c.Online = c.OnlineAt(now)
	}
	return clients, nil
}

func (u *collectorUseCase) SweepClients(ctx context.Context) (int64, error) {
	return u.clientRepo.MarkOffline(ctx, u.now().Add(-syslogDomain.OnlineWindow))
}

// NewCollectorUseCase creates the collector use case.
func NewCollectorUseCase(
	endpointRepo EndpointRepository,
	filterRepo FilterRepository,
	clientRepo ClientRepository,
	records RecordAppender,
	alerts AlertPublisher,
	forwards ForwardQueue,
	pipeline metrics.PipelineMetrics,
	opts Options,
	logger *slog.Logger,
) CollectorUseCase {
	if opts.OverflowAlertInterval <= 0 {
		opts.OverflowAlertInterval = time.Minute
	}
	if opts.FilterCacheTTL <= 0 {
		opts.FilterCacheTTL = 30 * time.Second
	}
	if pipeline == nil {
		pipeline = metrics.NewNoOpPipelineMetrics()
	}

	return &collectorUseCase{
		endpointRepo: endpointRepo,
		filterRepo:   filterRepo,
		clientRepo:   clientRepo,
		records:      records,
		alerts:       alerts,
		forwards:     forwards,
		pipeline:     pipeline,
		opts:         opts,
		logger:       logger.With("component", "syslog-collector"),
		now:          func() time.Time { return time.Now().UTC() },
		classifiers:  make(map[uuid.UUID]*classifier),
		overflows:    make(map[uuid.UUID]*overflowState),
	}
}
